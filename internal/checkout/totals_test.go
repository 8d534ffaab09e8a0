package checkout

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/stylehaven-za/stylehaven-backend/internal/cart"
)

func mustRate(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	rate, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse rate: %v", err)
	}
	return rate
}

func TestComputeTotals(t *testing.T) {
	cases := []struct {
		name         string
		lines        []cart.LineDTO
		rate         string
		wantSubtotal int
		wantTax      int
		wantTotal    int
	}{
		{
			name: "single line ten percent",
			lines: []cart.LineDTO{
				{UnitPriceCents: 45900, Quantity: 2},
			},
			rate:         "0.10",
			wantSubtotal: 91800,
			wantTax:      9180,
			wantTotal:    100980,
		},
		{
			name: "multiple lines",
			lines: []cart.LineDTO{
				{UnitPriceCents: 45900, Quantity: 1},
				{UnitPriceCents: 12950, Quantity: 3},
			},
			rate:         "0.10",
			wantSubtotal: 84750,
			wantTax:      8475,
			wantTotal:    93225,
		},
		{
			name: "half cent rounds up",
			lines: []cart.LineDTO{
				{UnitPriceCents: 5, Quantity: 1},
			},
			rate:         "0.10",
			wantSubtotal: 5,
			wantTax:      1,
			wantTotal:    6,
		},
		{
			name: "fraction below half rounds down",
			lines: []cart.LineDTO{
				{UnitPriceCents: 4, Quantity: 1},
			},
			rate:         "0.10",
			wantSubtotal: 4,
			wantTax:      0,
			wantTotal:    4,
		},
		{
			name:         "empty cart",
			lines:        nil,
			rate:         "0.10",
			wantSubtotal: 0,
			wantTax:      0,
			wantTotal:    0,
		},
		{
			name: "zero rate",
			lines: []cart.LineDTO{
				{UnitPriceCents: 45900, Quantity: 2},
			},
			rate:         "0",
			wantSubtotal: 91800,
			wantTax:      0,
			wantTotal:    91800,
		},
		{
			name: "fifteen percent",
			lines: []cart.LineDTO{
				{UnitPriceCents: 333, Quantity: 1},
			},
			rate:         "0.15",
			wantSubtotal: 333,
			wantTax:      50, // 49.95 rounds half up once
			wantTotal:    383,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeTotals(tc.lines, mustRate(t, tc.rate))
			if got.SubtotalCents != tc.wantSubtotal {
				t.Fatalf("subtotal = %d, want %d", got.SubtotalCents, tc.wantSubtotal)
			}
			if got.TaxCents != tc.wantTax {
				t.Fatalf("tax = %d, want %d", got.TaxCents, tc.wantTax)
			}
			if got.TotalCents != tc.wantTotal {
				t.Fatalf("total = %d, want %d", got.TotalCents, tc.wantTotal)
			}
		})
	}
}

func TestValidateIntent(t *testing.T) {
	valid := OrderIntent{
		Name:        "Thandi M",
		Email:       "thandi@example.com",
		PhoneNo:     "0821234567",
		Address:     "12 Kloof St, Cape Town",
		AmountCents: 100980,
	}

	if err := ValidateIntent(valid); err != nil {
		t.Fatalf("valid intent rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*OrderIntent)
		field  string
	}{
		{"missing name", func(i *OrderIntent) { i.Name = " " }, "name"},
		{"missing address", func(i *OrderIntent) { i.Address = "" }, "address"},
		{"missing phone", func(i *OrderIntent) { i.PhoneNo = "" }, "phoneNo"},
		{"missing email", func(i *OrderIntent) { i.Email = "" }, "email"},
		{"email without at", func(i *OrderIntent) { i.Email = "thandi.example.com" }, "email"},
		{"email without tld", func(i *OrderIntent) { i.Email = "thandi@example" }, "email"},
		{"email with spaces", func(i *OrderIntent) { i.Email = "tha ndi@example.com" }, "email"},
		{"zero amount", func(i *OrderIntent) { i.AmountCents = 0 }, "amountCents"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			intent := valid
			tc.mutate(&intent)

			err := ValidateIntent(intent)
			appErr := pkgErrorsAs(t, err)
			details, ok := appErr.Details().(map[string]string)
			if !ok {
				t.Fatalf("expected details map, got %T", appErr.Details())
			}
			if _, present := details[tc.field]; !present {
				t.Fatalf("expected field %q in details, got %v", tc.field, details)
			}
		})
	}
}
