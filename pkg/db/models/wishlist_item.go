package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WishlistItem is a product snapshot saved against a client cart token. The
// snapshot survives later catalog edits the way the old client-side store did.
type WishlistItem struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Token      string    `gorm:"column:token;not null;uniqueIndex:idx_wishlist_token_product"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_wishlist_token_product"`
	Title      string    `gorm:"column:title;not null"`
	Brand      string    `gorm:"column:brand"`
	MainImage  *string   `gorm:"column:main_image"`
	PriceCents int       `gorm:"column:price_cents;not null;default:0"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (w *WishlistItem) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
