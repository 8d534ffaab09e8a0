package enums

import "fmt"

// DeliveryStatus tracks the fulfillment stage of a persisted order. It is
// distinct from payment status: an order only exists once payment confirmed.
type DeliveryStatus string

const (
	DeliveryStatusProcessing DeliveryStatus = "Processing"
	DeliveryStatusShipped    DeliveryStatus = "Shipped"
	DeliveryStatusCompleted  DeliveryStatus = "Completed"
)

var validDeliveryStatuses = []DeliveryStatus{
	DeliveryStatusProcessing,
	DeliveryStatusShipped,
	DeliveryStatusCompleted,
}

// deliveryTransitions is the allowed-transitions table. Statuses only move
// forward; backward or skipping moves are rejected.
var deliveryTransitions = map[DeliveryStatus][]DeliveryStatus{
	DeliveryStatusProcessing: {DeliveryStatusShipped},
	DeliveryStatusShipped:    {DeliveryStatusCompleted},
	DeliveryStatusCompleted:  {},
}

// String implements fmt.Stringer.
func (d DeliveryStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliveryStatus.
func (d DeliveryStatus) IsValid() bool {
	for _, candidate := range validDeliveryStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether moving from d to next is a forward step.
func (d DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	for _, candidate := range deliveryTransitions[d] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseDeliveryStatus converts raw input into a DeliveryStatus.
func ParseDeliveryStatus(value string) (DeliveryStatus, error) {
	for _, candidate := range validDeliveryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery status %q", value)
}
