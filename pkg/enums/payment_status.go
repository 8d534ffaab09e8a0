package enums

import "fmt"

// PaymentStatus tracks a payment transaction from initiation to settlement.
// The notify webhook is the only writer of the paid transition.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusPaid,
	PaymentStatusFailed,
	PaymentStatusCancelled,
}

func (p PaymentStatus) String() string {
	return string(p)
}

// IsTerminal reports whether no further transition is permitted.
func (p PaymentStatus) IsTerminal() bool {
	return p != PaymentStatusPending
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
