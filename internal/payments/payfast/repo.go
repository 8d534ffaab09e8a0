package payfast

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/stylehaven-za/stylehaven-backend/pkg/db/models"
	"github.com/stylehaven-za/stylehaven-backend/pkg/enums"
)

// Repository exposes payment transaction persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, txn *models.PaymentTransaction) (*models.PaymentTransaction, error)
	FindByOrderRef(ctx context.Context, orderRef string) (*models.PaymentTransaction, error)
	MarkPaid(ctx context.Context, orderRef string, paidAt time.Time) (int64, error)
	MarkStatus(ctx context.Context, orderRef string, status enums.PaymentStatus) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payment transaction repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, txn *models.PaymentTransaction) (*models.PaymentTransaction, error) {
	if txn.Status == "" {
		txn.Status = enums.PaymentStatusPending
	}
	if err := r.db.WithContext(ctx).Create(txn).Error; err != nil {
		return nil, err
	}
	return txn, nil
}

func (r *repository) FindByOrderRef(ctx context.Context, orderRef string) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	err := r.db.WithContext(ctx).
		Where("order_ref = ?", orderRef).
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// MarkPaid flips a pending transaction to paid. The WHERE clause keeps the
// transition single-shot; a replayed webhook affects zero rows.
func (r *repository) MarkPaid(ctx context.Context, orderRef string, paidAt time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PaymentTransaction{}).
		Where("order_ref = ? AND status = ?", orderRef, enums.PaymentStatusPending).
		Updates(map[string]any{
			"status":  enums.PaymentStatusPaid,
			"paid_at": paidAt,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repository) MarkStatus(ctx context.Context, orderRef string, status enums.PaymentStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentTransaction{}).
		Where("order_ref = ? AND status = ?", orderRef, enums.PaymentStatusPending).
		Update("status", status).Error
}
