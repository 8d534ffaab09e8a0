package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stylehaven-za/stylehaven-backend/pkg/db/models"
)

// Repository exposes persistence operations for token-addressed carts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByToken(ctx context.Context, token string) (*models.Cart, error)
	FindOrCreateByToken(ctx context.Context, token string) (*models.Cart, error)
	FindLine(ctx context.Context, cartID, lineID uuid.UUID) (*models.CartLine, error)
	CreateLine(ctx context.Context, line *models.CartLine) (*models.CartLine, error)
	UpdateLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error
	DeleteLine(ctx context.Context, cartID, lineID uuid.UUID) error
	ClearLines(ctx context.Context, cartID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByToken(ctx context.Context, token string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("token = ?", token).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) FindOrCreateByToken(ctx context.Context, token string) (*models.Cart, error) {
	cart, err := r.FindByToken(ctx, token)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := &models.Cart{Token: token}
	if err := r.db.WithContext(ctx).Create(created).Error; err != nil {
		return nil, err
	}
	created.Lines = []models.CartLine{}
	return created, nil
}

func (r *repository) FindLine(ctx context.Context, cartID, lineID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND id = ?", cartID, lineID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *repository) CreateLine(ctx context.Context, line *models.CartLine) (*models.CartLine, error) {
	if err := r.db.WithContext(ctx).Create(line).Error; err != nil {
		return nil, err
	}
	return line, nil
}

func (r *repository) UpdateLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("id = ?", lineID).
		Update("quantity", quantity).Error
}

func (r *repository) DeleteLine(ctx context.Context, cartID, lineID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ? AND id = ?", cartID, lineID).
		Delete(&models.CartLine{}).Error
}

func (r *repository) ClearLines(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartLine{}).Error
}
