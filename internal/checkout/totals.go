package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/stylehaven-za/stylehaven-backend/internal/cart"
)

// Totals holds the checkout amounts in integer minor units.
type Totals struct {
	SubtotalCents int `json:"subtotalCents"`
	TaxCents      int `json:"taxCents"`
	TotalCents    int `json:"totalCents"`
}

// ComputeTotals sums the cart in integer cents and applies the tax rate in
// decimal space. Rounding happens exactly once, half up, on the tax amount.
func ComputeTotals(lines []cart.LineDTO, taxRate decimal.Decimal) Totals {
	subtotal := 0
	for _, line := range lines {
		subtotal += line.UnitPriceCents * line.Quantity
	}

	tax := decimal.NewFromInt(int64(subtotal)).
		Mul(taxRate).
		Round(0).
		IntPart()

	return Totals{
		SubtotalCents: subtotal,
		TaxCents:      int(tax),
		TotalCents:    subtotal + int(tax),
	}
}
