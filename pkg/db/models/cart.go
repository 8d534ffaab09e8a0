package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cart is the server-authoritative cart addressed by a client-held token.
// All mutations flow through the cart service; nothing else writes lines.
type Cart struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Token     string     `gorm:"column:token;not null;uniqueIndex"`
	Lines     []CartLine `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CartLine is one (product, color, size) selection. Position preserves the
// insertion order so reloads reproduce the same ordered list.
type CartLine struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CartID         uuid.UUID `gorm:"column:cart_id;type:uuid;not null;index"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Title          string    `gorm:"column:title;not null"`
	Color          string    `gorm:"column:color;not null"`
	Size           string    `gorm:"column:size;not null"`
	UnitPriceCents int       `gorm:"column:unit_price_cents;not null"`
	Quantity       int       `gorm:"column:quantity;not null;default:1"`
	Position       int       `gorm:"column:position;not null;default:0"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (l *CartLine) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
