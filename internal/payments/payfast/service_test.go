package payfast

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stylehaven-za/stylehaven-backend/pkg/config"
	"github.com/stylehaven-za/stylehaven-backend/pkg/db/models"
	"github.com/stylehaven-za/stylehaven-backend/pkg/enums"
	pkgerrors "github.com/stylehaven-za/stylehaven-backend/pkg/errors"
	"github.com/stylehaven-za/stylehaven-backend/pkg/logger"
	"github.com/stylehaven-za/stylehaven-backend/pkg/metrics"
)

type stubPaymentRepo struct {
	txns map[string]*models.PaymentTransaction

	created   *models.PaymentTransaction
	createErr error
	markPaid  []string
	closed    map[string]enums.PaymentStatus
}

func newStubPaymentRepo() *stubPaymentRepo {
	return &stubPaymentRepo{
		txns:   map[string]*models.PaymentTransaction{},
		closed: map[string]enums.PaymentStatus{},
	}
}

func (s *stubPaymentRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubPaymentRepo) Create(ctx context.Context, txn *models.PaymentTransaction) (*models.PaymentTransaction, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if txn.Status == "" {
		txn.Status = enums.PaymentStatusPending
	}
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	s.created = txn
	s.txns[txn.OrderRef] = txn
	return txn, nil
}

func (s *stubPaymentRepo) FindByOrderRef(ctx context.Context, orderRef string) (*models.PaymentTransaction, error) {
	if txn, ok := s.txns[orderRef]; ok {
		return txn, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPaymentRepo) MarkPaid(ctx context.Context, orderRef string, paidAt time.Time) (int64, error) {
	s.markPaid = append(s.markPaid, orderRef)
	txn, ok := s.txns[orderRef]
	if !ok || txn.Status != enums.PaymentStatusPending {
		return 0, nil
	}
	txn.Status = enums.PaymentStatusPaid
	txn.PaidAt = &paidAt
	return 1, nil
}

func (s *stubPaymentRepo) MarkStatus(ctx context.Context, orderRef string, status enums.PaymentStatus) error {
	s.closed[orderRef] = status
	if txn, ok := s.txns[orderRef]; ok && txn.Status == enums.PaymentStatusPending {
		txn.Status = status
	}
	return nil
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOrderCreator struct {
	calls []string
	err   error
}

func (s *stubOrderCreator) CreateFromPayment(ctx context.Context, txn *models.PaymentTransaction) (*models.Order, error) {
	s.calls = append(s.calls, txn.OrderRef)
	if s.err != nil {
		return nil, s.err
	}
	return &models.Order{ID: uuid.New(), OrderID: txn.OrderRef}, nil
}

type stubIdempotencyStore struct {
	keys    map[string]bool
	deleted []string
}

func newStubIdempotencyStore() *stubIdempotencyStore {
	return &stubIdempotencyStore{keys: map[string]bool{}}
}

func (s *stubIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *stubIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "sh:idempotency:" + scope + ":" + id
}

func (s *stubIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		s.deleted = append(s.deleted, key)
		delete(s.keys, key)
	}
	return nil
}

func testConfig() config.PayFastConfig {
	return config.PayFastConfig{
		MerchantID:  "10000100",
		MerchantKey: "46f0cd694581a",
		Passphrase:  "jt7NOE43FZPn",
		ProcessURL:  "https://sandbox.payfast.co.za/eng/process",
		ReturnURL:   "https://shop.example/return",
		CancelURL:   "https://shop.example/cancel",
		NotifyURL:   "https://shop.example/api/order/payfast/notify",
	}
}

type paymentStack struct {
	repo   *stubPaymentRepo
	orders *stubOrderCreator
	store  *stubIdempotencyStore
	svc    Service
}

func newPaymentStack(t *testing.T) *paymentStack {
	t.Helper()
	repo := newStubPaymentRepo()
	orders := &stubOrderCreator{}
	store := newStubIdempotencyStore()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(repo, stubTx{}, orders, store, testConfig(), logg, metrics.NewPaymentMetrics(nil))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &paymentStack{repo: repo, orders: orders, store: store, svc: svc}
}

func initiateInput() InitiateInput {
	return InitiateInput{
		Customer: Customer{
			Name:    "Thandi M",
			Email:   "thandi@example.com",
			PhoneNo: "0821234567",
			Address: "12 Kloof St, Cape Town",
		},
		Items: []models.PaymentItemSnapshot{{
			ProductID:     uuid.New(),
			Title:         "Linen Shirt",
			PriceCents:    45900,
			Quantity:      2,
			SubTotalCents: 91800,
			Size:          "M",
			Color:         "Navy",
		}},
		SubtotalCents: 91800,
		TaxCents:      9180,
		TotalCents:    100980,
	}
}

func TestInitiatePersistsPendingTransaction(t *testing.T) {
	stack := newPaymentStack(t)

	result, err := stack.svc.Initiate(context.Background(), initiateInput())
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	txn := stack.repo.created
	if txn == nil {
		t.Fatalf("no transaction persisted")
	}
	if txn.Status != enums.PaymentStatusPending {
		t.Fatalf("expected pending status, got %s", txn.Status)
	}
	if txn.OrderRef != result.OrderID {
		t.Fatalf("order ref %s does not match result %s", txn.OrderRef, result.OrderID)
	}
	if txn.TotalCents != 100980 {
		t.Fatalf("unexpected total %d", txn.TotalCents)
	}
	if txn.Signature == "" {
		t.Fatalf("transaction stored without signature")
	}
}

func TestInitiateBuildsRedirectURL(t *testing.T) {
	stack := newPaymentStack(t)

	result, err := stack.svc.Initiate(context.Background(), initiateInput())
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	if !strings.HasPrefix(result.PaymentURL, "https://sandbox.payfast.co.za/eng/process?") {
		t.Fatalf("payment url has wrong base: %s", result.PaymentURL)
	}
	for _, fragment := range []string{
		"merchant_id=10000100",
		"m_payment_id=" + result.OrderID,
		"amount=1009.80",
		"signature=" + stack.repo.created.Signature,
	} {
		if !strings.Contains(result.PaymentURL, fragment) {
			t.Fatalf("payment url missing %q: %s", fragment, result.PaymentURL)
		}
	}
}

func TestInitiateRejectsEmptyCart(t *testing.T) {
	stack := newPaymentStack(t)

	input := initiateInput()
	input.Items = nil

	_, err := stack.svc.Initiate(context.Background(), input)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if stack.repo.created != nil {
		t.Fatalf("failed initiation still persisted a transaction")
	}
}

func notifyFields(t *testing.T, txn *models.PaymentTransaction, passphrase, status string) []Pair {
	t.Helper()
	pairs := []Pair{
		{"m_payment_id", txn.OrderRef},
		{"pf_payment_id", "1089250"},
		{"payment_status", status},
		{"amount_gross", FormatAmount(txn.TotalCents)},
	}
	return append(pairs, Pair{"signature", Sign(pairs, passphrase)})
}

func pendingTxn(stack *paymentStack, t *testing.T) *models.PaymentTransaction {
	t.Helper()
	_, err := stack.svc.Initiate(context.Background(), initiateInput())
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	return stack.repo.created
}

func TestNotifyCompleteSettlesOnce(t *testing.T) {
	stack := newPaymentStack(t)
	txn := pendingTxn(stack, t)
	fields := notifyFields(t, txn, "jt7NOE43FZPn", "COMPLETE")

	if err := stack.svc.HandleNotify(context.Background(), fields); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if txn.Status != enums.PaymentStatusPaid {
		t.Fatalf("expected paid, got %s", txn.Status)
	}
	if len(stack.orders.calls) != 1 || stack.orders.calls[0] != txn.OrderRef {
		t.Fatalf("expected one order creation for %s, got %v", txn.OrderRef, stack.orders.calls)
	}

	// Gateway retry: same payload again.
	if err := stack.svc.HandleNotify(context.Background(), fields); err != nil {
		t.Fatalf("replayed notify: %v", err)
	}
	if len(stack.orders.calls) != 1 {
		t.Fatalf("replay created another order: %v", stack.orders.calls)
	}
}

func TestNotifyRejectsTamperedSignature(t *testing.T) {
	stack := newPaymentStack(t)
	txn := pendingTxn(stack, t)

	fields := notifyFields(t, txn, "jt7NOE43FZPn", "COMPLETE")
	for i := range fields {
		if fields[i].Key == "amount_gross" {
			fields[i].Value = "9999.99"
		}
	}

	err := stack.svc.HandleNotify(context.Background(), fields)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if txn.Status != enums.PaymentStatusPending {
		t.Fatalf("tampered notify changed transaction to %s", txn.Status)
	}
	if len(stack.orders.calls) != 0 {
		t.Fatalf("tampered notify created an order")
	}
}

func TestNotifyRejectsAmountMismatch(t *testing.T) {
	stack := newPaymentStack(t)
	txn := pendingTxn(stack, t)

	// Correctly signed payload whose amount disagrees with the stored total.
	pairs := []Pair{
		{"m_payment_id", txn.OrderRef},
		{"payment_status", "COMPLETE"},
		{"amount_gross", "1.00"},
	}
	fields := append(pairs, Pair{"signature", Sign(pairs, "jt7NOE43FZPn")})

	err := stack.svc.HandleNotify(context.Background(), fields)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if txn.Status != enums.PaymentStatusPending {
		t.Fatalf("mismatched notify changed transaction to %s", txn.Status)
	}
}

func TestNotifyUnknownReference(t *testing.T) {
	stack := newPaymentStack(t)

	pairs := []Pair{
		{"m_payment_id", "1709290000000-deadbeef"},
		{"payment_status", "COMPLETE"},
		{"amount_gross", "100.00"},
	}
	fields := append(pairs, Pair{"signature", Sign(pairs, "jt7NOE43FZPn")})

	err := stack.svc.HandleNotify(context.Background(), fields)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNotifyNonCompleteStatusesCloseTransaction(t *testing.T) {
	cases := []struct {
		status string
		want   enums.PaymentStatus
	}{
		{"FAILED", enums.PaymentStatusFailed},
		{"CANCELLED", enums.PaymentStatusCancelled},
	}

	for _, tc := range cases {
		t.Run(tc.status, func(t *testing.T) {
			stack := newPaymentStack(t)
			txn := pendingTxn(stack, t)
			fields := notifyFields(t, txn, "jt7NOE43FZPn", tc.status)

			if err := stack.svc.HandleNotify(context.Background(), fields); err != nil {
				t.Fatalf("notify: %v", err)
			}
			if txn.Status != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, txn.Status)
			}
			if len(stack.orders.calls) != 0 {
				t.Fatalf("%s notify created an order", tc.status)
			}
		})
	}
}

func TestNotifyCompleteAfterTerminalCloseCreatesNothing(t *testing.T) {
	stack := newPaymentStack(t)
	txn := pendingTxn(stack, t)

	failed := notifyFields(t, txn, "jt7NOE43FZPn", "FAILED")
	if err := stack.svc.HandleNotify(context.Background(), failed); err != nil {
		t.Fatalf("failed notify: %v", err)
	}

	// A validly signed COMPLETE that arrives after the close must not settle.
	complete := notifyFields(t, txn, "jt7NOE43FZPn", "COMPLETE")
	err := stack.svc.HandleNotify(context.Background(), complete)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if txn.Status != enums.PaymentStatusFailed {
		t.Fatalf("late COMPLETE changed transaction to %s", txn.Status)
	}
	if len(stack.orders.calls) != 0 {
		t.Fatalf("late COMPLETE created an order: %v", stack.orders.calls)
	}
	if len(stack.store.deleted) != 1 {
		t.Fatalf("guard not released after conflict")
	}
}

func TestNotifyReplayAfterGuardExpiryIsNoOp(t *testing.T) {
	stack := newPaymentStack(t)
	txn := pendingTxn(stack, t)
	fields := notifyFields(t, txn, "jt7NOE43FZPn", "COMPLETE")

	if err := stack.svc.HandleNotify(context.Background(), fields); err != nil {
		t.Fatalf("notify: %v", err)
	}

	// Simulate the guard TTL lapsing between deliveries.
	guardKey := stack.store.IdempotencyKey(notifyScope, txn.OrderRef)
	if err := stack.store.Del(context.Background(), guardKey); err != nil {
		t.Fatalf("drop guard: %v", err)
	}

	if err := stack.svc.HandleNotify(context.Background(), fields); err != nil {
		t.Fatalf("replayed notify: %v", err)
	}
	if len(stack.orders.calls) != 1 {
		t.Fatalf("expired guard replay created another order: %v", stack.orders.calls)
	}
	if txn.Status != enums.PaymentStatusPaid {
		t.Fatalf("replay changed settled transaction to %s", txn.Status)
	}
}

func TestNotifyReleasesGuardWhenSettlementFails(t *testing.T) {
	stack := newPaymentStack(t)
	txn := pendingTxn(stack, t)
	stack.orders.err = gorm.ErrInvalidDB

	fields := notifyFields(t, txn, "jt7NOE43FZPn", "COMPLETE")
	if err := stack.svc.HandleNotify(context.Background(), fields); err == nil {
		t.Fatalf("expected settlement error")
	}
	if len(stack.store.deleted) != 1 {
		t.Fatalf("guard key not released after failure")
	}

	// Retry succeeds once the dependency recovers.
	stack.orders.err = nil
	if err := stack.svc.HandleNotify(context.Background(), fields); err != nil {
		t.Fatalf("retried notify: %v", err)
	}
}
