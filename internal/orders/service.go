package orders

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/stylehaven-za/stylehaven-backend/pkg/db/models"
	"github.com/stylehaven-za/stylehaven-backend/pkg/enums"
	pkgerrors "github.com/stylehaven-za/stylehaven-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes order operations.
type Service interface {
	CreateFromPayment(ctx context.Context, txn *models.PaymentTransaction) (*models.Order, error)
	List(ctx context.Context, limit int) ([]OrderDTO, error)
	GetByOrderID(ctx context.Context, orderID string) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, orderID string, status string) (*OrderDTO, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds an orders service backed by the provided stack.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// CreateFromPayment materializes the order for a paid transaction. The call is
// idempotent on the business order id: a replayed webhook finds the existing
// row and returns it unchanged.
func (s *service) CreateFromPayment(ctx context.Context, txn *models.PaymentTransaction) (*models.Order, error) {
	if txn == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment transaction is required")
	}
	if txn.OrderRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment transaction has no order reference")
	}

	if existing, err := s.repo.FindByOrderID(ctx, txn.OrderRef); err == nil {
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing order")
	}

	order := &models.Order{
		OrderID:        txn.OrderRef,
		Name:           txn.Name,
		Email:          txn.Email,
		PhoneNo:        txn.PhoneNo,
		Address:        txn.Address,
		SubtotalCents:  txn.SubtotalCents,
		TaxCents:       txn.TaxCents,
		TotalCents:     txn.TotalCents,
		DeliveryStatus: enums.DeliveryStatusProcessing,
	}
	for _, item := range txn.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:     item.ProductID,
			Title:         item.Title,
			PriceCents:    item.PriceCents,
			Quantity:      item.Quantity,
			SubTotalCents: item.SubTotalCents,
			Size:          item.Size,
			Color:         item.Color,
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, txErr := s.repo.WithTx(tx).Create(ctx, order)
		return txErr
	})
	if err != nil {
		// The unique order_id index absorbs the race where two webhook
		// deliveries pass the existence check together.
		if pkgerrors.IsUniqueViolation(err) {
			return s.findExisting(ctx, txn.OrderRef)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	return order, nil
}

func (s *service) findExisting(ctx context.Context, orderID string) (*models.Order, error) {
	existing, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load existing order")
	}
	return existing, nil
}

func (s *service) List(ctx context.Context, limit int) ([]OrderDTO, error) {
	rows, err := s.repo.ListNewestFirst(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toOrderDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) GetByOrderID(ctx context.Context, orderID string) (*OrderDTO, error) {
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return toOrderDTO(order), nil
}

// UpdateStatus moves an order along the forward-only delivery lifecycle.
// An unknown status value is a validation error, an unknown order is not
// found, and a backward or skipping move is a state conflict.
func (s *service) UpdateStatus(ctx context.Context, orderID string, status string) (*OrderDTO, error) {
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	target, err := enums.ParseDeliveryStatus(status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown delivery status %q", status))
	}

	order, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	if !order.DeliveryStatus.CanTransitionTo(target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.DeliveryStatus, target)).
			WithDetails(map[string]string{
				"from": order.DeliveryStatus.String(),
				"to":   target.String(),
			})
	}

	affected, err := s.repo.UpdateStatus(ctx, orderID, order.DeliveryStatus, target)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if affected == 0 {
		// A concurrent writer advanced the order between read and update.
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
	}

	order.DeliveryStatus = target
	return toOrderDTO(order), nil
}
