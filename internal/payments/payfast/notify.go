package payfast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/stylehaven-za/stylehaven-backend/pkg/enums"
	pkgerrors "github.com/stylehaven-za/stylehaven-backend/pkg/errors"
)

const (
	notifyScope    = "payfast:notify"
	notifyGuardTTL = 48 * time.Hour

	statusComplete  = "COMPLETE"
	statusFailed    = "FAILED"
	statusCancelled = "CANCELLED"
)

// HandleNotify processes one ITN callback. The fields arrive in wire order so
// the signature can be recomputed over exactly what the gateway sent. The
// COMPLETE path is idempotent: replays and concurrent deliveries produce one
// paid transition and one order.
func (s *service) HandleNotify(ctx context.Context, fields []Pair) error {
	received := map[string]string{}
	unsigned := make([]Pair, 0, len(fields))
	for _, field := range fields {
		received[field.Key] = field.Value
		if field.Key != "signature" {
			unsigned = append(unsigned, field)
		}
	}

	orderID := received["m_payment_id"]
	if orderID == "" {
		s.metrics.IncNotify("missing_payment_id")
		return pkgerrors.New(pkgerrors.CodeValidation, "notify payload has no m_payment_id")
	}
	ctx = s.logg.WithOrderID(ctx, orderID)

	if Sign(unsigned, s.cfg.Passphrase) != received["signature"] {
		s.metrics.IncNotify("invalid_signature")
		s.logg.Warn(ctx, "notify rejected: signature mismatch")
		return pkgerrors.New(pkgerrors.CodeValidation, "notify signature mismatch")
	}

	txn, err := s.repo.FindByOrderRef(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.IncNotify("unknown_order")
			return pkgerrors.New(pkgerrors.CodeNotFound, "unknown payment reference")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment transaction")
	}

	if received["amount_gross"] != FormatAmount(txn.TotalCents) {
		s.metrics.IncNotify("amount_mismatch")
		s.logg.Warn(ctx, fmt.Sprintf("notify rejected: amount %q does not match transaction", received["amount_gross"]))
		return pkgerrors.New(pkgerrors.CodeValidation, "notify amount does not match transaction")
	}

	switch received["payment_status"] {
	case statusComplete:
		return s.settle(ctx, txn.OrderRef)
	case statusFailed:
		return s.close(ctx, txn.OrderRef, enums.PaymentStatusFailed)
	case statusCancelled:
		return s.close(ctx, txn.OrderRef, enums.PaymentStatusCancelled)
	default:
		s.metrics.IncNotify("unknown_status")
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unknown payment status %q", received["payment_status"]))
	}
}

// errAlreadySettled marks a replay that raced past the redis guard; the
// transaction is already paid and there is nothing left to do.
var errAlreadySettled = errors.New("payment already settled")

func (s *service) settle(ctx context.Context, orderRef string) error {
	guardKey := s.store.IdempotencyKey(notifyScope, orderRef)
	acquired, err := s.store.SetNX(ctx, guardKey, "1", notifyGuardTTL)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire notify guard")
	}
	if !acquired {
		s.metrics.IncNotify("duplicate")
		s.logg.Info(ctx, "notify replay ignored")
		return nil
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		affected, txErr := repo.MarkPaid(ctx, orderRef, s.now())
		if txErr != nil {
			return txErr
		}
		if affected == 0 {
			// The guard can lapse; the status column is the durable record.
			// Only a pending transaction may settle and create an order.
			current, findErr := repo.FindByOrderRef(ctx, orderRef)
			if findErr != nil {
				return findErr
			}
			if current.Status == enums.PaymentStatusPaid {
				return errAlreadySettled
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("transaction already closed as %s", current.Status))
		}
		paid, findErr := repo.FindByOrderRef(ctx, orderRef)
		if findErr != nil {
			return findErr
		}
		_, txErr = s.orders.CreateFromPayment(ctx, paid)
		return txErr
	})
	if errors.Is(err, errAlreadySettled) {
		s.metrics.IncNotify("duplicate")
		s.logg.Info(ctx, "notify replay ignored")
		return nil
	}
	if err != nil {
		// Release the guard so the gateway retry can observe the same outcome.
		if delErr := s.store.Del(ctx, guardKey); delErr != nil {
			s.logg.Error(ctx, "failed to release notify guard", delErr)
		}
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeStateConflict {
			s.metrics.IncNotify("state_conflict")
			s.logg.Warn(ctx, "notify rejected: "+typed.Message())
			return err
		}
		s.metrics.IncNotify("error")
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle payment")
	}

	s.metrics.IncNotify("paid")
	s.logg.Info(ctx, "payment settled and order created")
	return nil
}

func (s *service) close(ctx context.Context, orderRef string, status enums.PaymentStatus) error {
	if err := s.repo.MarkStatus(ctx, orderRef, status); err != nil {
		s.metrics.IncNotify("error")
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close payment transaction")
	}
	s.metrics.IncNotify(status.String())
	s.logg.Info(ctx, fmt.Sprintf("payment closed as %s", status))
	return nil
}
