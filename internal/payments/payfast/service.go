package payfast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stylehaven-za/stylehaven-backend/pkg/config"
	"github.com/stylehaven-za/stylehaven-backend/pkg/db/models"
	pkgerrors "github.com/stylehaven-za/stylehaven-backend/pkg/errors"
	"github.com/stylehaven-za/stylehaven-backend/pkg/logger"
	"github.com/stylehaven-za/stylehaven-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Customer carries the buyer fields forwarded to the gateway.
type Customer struct {
	Name    string
	Email   string
	PhoneNo string
	Address string
}

// InitiateInput is everything needed to open a gateway redirect.
type InitiateInput struct {
	Customer      Customer
	Items         []models.PaymentItemSnapshot
	SubtotalCents int
	TaxCents      int
	TotalCents    int
}

// InitiateResult is returned to the client to start the redirect.
type InitiateResult struct {
	OrderID    string `json:"orderId"`
	PaymentURL string `json:"paymentUrl"`
}

// Service opens gateway payments and processes ITN callbacks.
type Service interface {
	Initiate(ctx context.Context, input InitiateInput) (*InitiateResult, error)
	HandleNotify(ctx context.Context, fields []Pair) error
}

type idempotencyStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
	Del(ctx context.Context, keys ...string) error
}

type orderCreator interface {
	CreateFromPayment(ctx context.Context, txn *models.PaymentTransaction) (*models.Order, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	orders  orderCreator
	store   idempotencyStore
	cfg     config.PayFastConfig
	logg    *logger.Logger
	metrics *metrics.PaymentMetrics
	now     func() time.Time
}

// NewService builds a PayFast service backed by the provided stack.
func NewService(
	repo Repository,
	tx txRunner,
	orders orderCreator,
	store idempotencyStore,
	cfg config.PayFastConfig,
	logg *logger.Logger,
	paymentMetrics *metrics.PaymentMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order creator required")
	}
	if store == nil {
		return nil, fmt.Errorf("idempotency store required")
	}
	if cfg.MerchantID == "" || cfg.MerchantKey == "" {
		return nil, fmt.Errorf("gateway merchant credentials required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		orders:  orders,
		store:   store,
		cfg:     cfg,
		logg:    logg,
		metrics: paymentMetrics,
		now:     time.Now,
	}, nil
}

// FormatAmount renders integer cents as the "123.45" string the gateway
// expects. The division happens once, in decimal space.
func FormatAmount(cents int) string {
	return decimal.NewFromInt(int64(cents)).Shift(-2).StringFixed(2)
}

// Initiate persists a pending transaction and returns the redirect URL. Field
// order in the payload is significant; the signature covers it as declared.
func (s *service) Initiate(ctx context.Context, input InitiateInput) (*InitiateResult, error) {
	started := s.now()

	result, err := s.initiate(ctx, input)
	elapsed := s.now().Sub(started)
	if err != nil {
		s.metrics.IncInitiation("error")
		s.metrics.ObserveInitiation("error", elapsed)
		return nil, err
	}
	s.metrics.IncInitiation("ok")
	s.metrics.ObserveInitiation("ok", elapsed)
	return result, nil
}

func (s *service) initiate(ctx context.Context, input InitiateInput) (*InitiateResult, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment requires at least one item")
	}
	if input.TotalCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment total must be positive")
	}

	orderID, err := GenerateOrderID(s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order id")
	}

	itemsJSON, err := json.Marshal(input.Items)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "serialize payment items")
	}

	pairs := []Pair{
		{"merchant_id", s.cfg.MerchantID},
		{"merchant_key", s.cfg.MerchantKey},
		{"return_url", s.cfg.ReturnURL},
		{"cancel_url", s.cfg.CancelURL},
		{"notify_url", s.cfg.NotifyURL},
		{"name_first", input.Customer.Name},
		{"email_address", input.Customer.Email},
		{"cell_number", input.Customer.PhoneNo},
		{"m_payment_id", orderID},
		{"amount", FormatAmount(input.TotalCents)},
		{"item_name", fmt.Sprintf("StyleHaven order %s", orderID)},
		{"custom_str1", string(itemsJSON)},
		{"custom_str2", input.Customer.Address},
	}
	signature := Sign(pairs, s.cfg.Passphrase)

	txn := &models.PaymentTransaction{
		OrderRef:      orderID,
		Name:          input.Customer.Name,
		Email:         input.Customer.Email,
		PhoneNo:       input.Customer.PhoneNo,
		Address:       input.Customer.Address,
		SubtotalCents: input.SubtotalCents,
		TaxCents:      input.TaxCents,
		TotalCents:    input.TotalCents,
		Items:         input.Items,
		Signature:     signature,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, txErr := s.repo.WithTx(tx).Create(ctx, txn)
		return txErr
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist payment transaction")
	}

	query := EncodeQuery(append(pairs, Pair{"signature", signature}))
	ctx = s.logg.WithOrderID(ctx, orderID)
	s.logg.Info(ctx, "payment initiated")

	return &InitiateResult{
		OrderID:    orderID,
		PaymentURL: s.cfg.ProcessURL + "?" + query,
	}, nil
}
