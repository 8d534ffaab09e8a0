package checkout

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/stylehaven-za/stylehaven-backend/internal/cart"
	"github.com/stylehaven-za/stylehaven-backend/internal/payments/payfast"
	"github.com/stylehaven-za/stylehaven-backend/pkg/db/models"
	pkgerrors "github.com/stylehaven-za/stylehaven-backend/pkg/errors"
	"github.com/stylehaven-za/stylehaven-backend/pkg/logger"
)

type cartReader interface {
	Get(ctx context.Context, token string) (*cart.CartDTO, error)
	Clear(ctx context.Context, token string) error
}

type paymentInitiator interface {
	Initiate(ctx context.Context, input payfast.InitiateInput) (*payfast.InitiateResult, error)
}

// Service turns a cart plus an order intent into an opened payment.
type Service interface {
	Quote(ctx context.Context, token string) (*Totals, error)
	Submit(ctx context.Context, token string, intent OrderIntent) (*payfast.InitiateResult, error)
}

type service struct {
	carts    cartReader
	payments paymentInitiator
	taxRate  decimal.Decimal
	logg     *logger.Logger
}

// NewService builds a checkout service backed by the provided stack.
func NewService(carts cartReader, payments paymentInitiator, taxRate decimal.Decimal, logg *logger.Logger) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart reader required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payment initiator required")
	}
	if taxRate.IsNegative() || taxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("tax rate must be in [0, 1)")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{carts: carts, payments: payments, taxRate: taxRate, logg: logg}, nil
}

// Quote recomputes the totals for the current cart contents.
func (s *service) Quote(ctx context.Context, token string) (*Totals, error) {
	current, err := s.carts.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	totals := ComputeTotals(current.Lines, s.taxRate)
	return &totals, nil
}

// Submit validates the intent, recomputes totals server-side and opens the
// payment. The cart is cleared only after the gateway accepted the initiation
// so an abandoned submission keeps its contents.
func (s *service) Submit(ctx context.Context, token string, intent OrderIntent) (*payfast.InitiateResult, error) {
	if err := ValidateIntent(intent); err != nil {
		return nil, err
	}

	current, err := s.carts.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if len(current.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	totals := ComputeTotals(current.Lines, s.taxRate)
	if intent.AmountCents != totals.TotalCents {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "displayed total no longer matches the cart").
			WithDetails(map[string]any{
				"expectedTotalCents": totals.TotalCents,
				"receivedTotalCents": intent.AmountCents,
			})
	}

	items := make([]models.PaymentItemSnapshot, 0, len(current.Lines))
	for _, line := range current.Lines {
		items = append(items, models.PaymentItemSnapshot{
			ProductID:     line.ProductID,
			Title:         line.Title,
			PriceCents:    line.UnitPriceCents,
			Quantity:      line.Quantity,
			SubTotalCents: line.LineTotalCents,
			Size:          line.Size,
			Color:         line.Color,
		})
	}

	result, err := s.payments.Initiate(ctx, payfast.InitiateInput{
		Customer: payfast.Customer{
			Name:    intent.Name,
			Email:   intent.Email,
			PhoneNo: intent.PhoneNo,
			Address: intent.Address,
		},
		Items:         items,
		SubtotalCents: totals.SubtotalCents,
		TaxCents:      totals.TaxCents,
		TotalCents:    totals.TotalCents,
	})
	if err != nil {
		return nil, err
	}

	if clearErr := s.carts.Clear(ctx, token); clearErr != nil {
		// The payment is already open; losing the clear only means the
		// buyer sees a stale cart until the next mutation.
		s.logg.Error(ctx, "failed to clear cart after initiation", clearErr)
	}

	return result, nil
}
