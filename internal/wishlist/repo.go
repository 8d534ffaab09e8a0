package wishlist

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stylehaven-za/stylehaven-backend/pkg/db/models"
)

// Repository exposes wishlist persistence. Items are keyed by the client cart
// token plus product id, so the upsert makes Add naturally idempotent.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, item *models.WishlistItem) error
	ListByToken(ctx context.Context, token string) ([]models.WishlistItem, error)
	Delete(ctx context.Context, token string, productID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a wishlist repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Upsert(ctx context.Context, item *models.WishlistItem) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "brand", "main_image", "price_cents"}),
		}).
		Create(item).Error
}

func (r *repository) ListByToken(ctx context.Context, token string) ([]models.WishlistItem, error) {
	var rows []models.WishlistItem
	err := r.db.WithContext(ctx).
		Where("token = ?", token).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Delete(ctx context.Context, token string, productID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("token = ? AND product_id = ?", token, productID).
		Delete(&models.WishlistItem{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
