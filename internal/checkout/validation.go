package checkout

import (
	"regexp"
	"strings"

	pkgerrors "github.com/stylehaven-za/stylehaven-backend/pkg/errors"
)

// emailShape accepts local@domain.tld without attempting full RFC 5322.
var emailShape = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// OrderIntent is the buyer-submitted checkout payload. AmountCents is the
// total the client displayed; submission fails when it disagrees with the
// server-side recomputation.
type OrderIntent struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNo     string `json:"phoneNo"`
	Address     string `json:"address"`
	AmountCents int    `json:"amountCents"`
}

// ValidateIntent checks the customer fields and returns a field-keyed details
// map on failure.
func ValidateIntent(intent OrderIntent) error {
	details := map[string]string{}

	if strings.TrimSpace(intent.Name) == "" {
		details["name"] = "name is required"
	}
	if strings.TrimSpace(intent.Address) == "" {
		details["address"] = "address is required"
	}
	if strings.TrimSpace(intent.PhoneNo) == "" {
		details["phoneNo"] = "phone number is required"
	}
	if email := strings.TrimSpace(intent.Email); email == "" {
		details["email"] = "email is required"
	} else if !emailShape.MatchString(email) {
		details["email"] = "email must look like local@domain.tld"
	}
	if intent.AmountCents <= 0 {
		details["amountCents"] = "amount must be positive"
	}

	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order intent is invalid").WithDetails(details)
	}
	return nil
}
