package cart

import (
	"github.com/stylehaven-za/stylehaven-backend/pkg/db/models"
)

// Outcome reports what a merge attempt did to the cart.
type Outcome string

const (
	// OutcomeAdded means the line was appended as a new distinct entry.
	OutcomeAdded Outcome = "added"
	// OutcomeMerged means an existing line with the same identity absorbed the quantity.
	OutcomeMerged Outcome = "merged"
	// OutcomeRejectedLimitReached means the distinct-line cap blocked the add.
	OutcomeRejectedLimitReached Outcome = "rejected_limit_reached"
)

// sameIdentity matches lines on the (product, color, size) triple. Matching is
// case-sensitive; "Red"/"red" are distinct entries.
func sameIdentity(a, b models.CartLine) bool {
	return a.ProductID == b.ProductID && a.Color == b.Color && a.Size == b.Size
}

// Merge folds incoming into existing. When a line with the same identity is
// present its quantity is summed; otherwise the line is appended, unless the
// cart already holds maxDistinct distinct lines, in which case the input is
// returned unchanged. The input slice is never mutated.
func Merge(existing []models.CartLine, incoming models.CartLine, maxDistinct int) ([]models.CartLine, Outcome) {
	for i := range existing {
		if sameIdentity(existing[i], incoming) {
			merged := make([]models.CartLine, len(existing))
			copy(merged, existing)
			merged[i].Quantity += incoming.Quantity
			return merged, OutcomeMerged
		}
	}

	if maxDistinct > 0 && len(existing) >= maxDistinct {
		return existing, OutcomeRejectedLimitReached
	}

	merged := make([]models.CartLine, len(existing), len(existing)+1)
	copy(merged, existing)
	incoming.Position = nextPosition(existing)
	merged = append(merged, incoming)
	return merged, OutcomeAdded
}

// ClampQuantity forces qty into [1, stock]. A non-positive stock still yields
// a floor of 1 so callers can decide how to treat unavailable sizes.
func ClampQuantity(qty, stock int) int {
	if stock < 1 {
		return 1
	}
	if qty < 1 {
		return 1
	}
	if qty > stock {
		return stock
	}
	return qty
}

func nextPosition(lines []models.CartLine) int {
	next := 0
	for i := range lines {
		if lines[i].Position >= next {
			next = lines[i].Position + 1
		}
	}
	return next
}
