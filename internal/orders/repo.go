package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/stylehaven-za/stylehaven-backend/pkg/db/models"
	"github.com/stylehaven-za/stylehaven-backend/pkg/enums"
	"github.com/stylehaven-za/stylehaven-backend/pkg/pagination"
)

// Repository exposes order persistence operations. Orders are addressed by
// their business order_id, not the surrogate row id.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByOrderID(ctx context.Context, orderID string) (*models.Order, error)
	ListNewestFirst(ctx context.Context, limit int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID string, from, to enums.DeliveryStatus) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByOrderID(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("order_id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListNewestFirst(ctx context.Context, limit int) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateStatus performs a guarded single-row update. The WHERE clause carries
// the expected current status so concurrent writers cannot race past the
// transition table; the returned count is zero when the guard missed.
func (r *repository) UpdateStatus(ctx context.Context, orderID string, from, to enums.DeliveryStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("order_id = ? AND delivery_status = ?", orderID, from).
		Update("delivery_status", to)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
