package product

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stylehaven-za/stylehaven-backend/pkg/db/models"
	"github.com/stylehaven-za/stylehaven-backend/pkg/pagination"
)

// Repository exposes catalog persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Save(ctx context.Context, product *models.Product) (*models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, limit int) ([]models.Product, error)
	ListFeatured(ctx context.Context, limit int) ([]models.Product, error)
	DeleteVariants(ctx context.Context, productID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *repository) Save(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Variants.Sizes", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) List(ctx context.Context, limit int) ([]models.Product, error) {
	return r.list(ctx, limit, nil)
}

func (r *repository) ListFeatured(ctx context.Context, limit int) ([]models.Product, error) {
	featured := true
	return r.list(ctx, limit, &featured)
}

func (r *repository) list(ctx context.Context, limit int, featured *bool) ([]models.Product, error) {
	query := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Variants.Sizes", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("created_at DESC").
		Limit(pagination.NormalizeLimit(limit))
	if featured != nil {
		query = query.Where("is_featured = ?", *featured)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// DeleteVariants removes all variant rows (and their sizes via cascade) for a
// product. Updates replace the variant tree wholesale.
func (r *repository) DeleteVariants(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&models.ProductVariant{}).Error
}
