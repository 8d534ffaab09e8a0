package controllers

import (
	"net/http"

	"github.com/stylehaven-za/stylehaven-backend/api/middleware"
	"github.com/stylehaven-za/stylehaven-backend/api/responses"
	"github.com/stylehaven-za/stylehaven-backend/api/validators"
	checkoutsvc "github.com/stylehaven-za/stylehaven-backend/internal/checkout"
	"github.com/stylehaven-za/stylehaven-backend/pkg/logger"
)

type initiatePaymentRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=120"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNo     string `json:"phoneNo" validate:"required,min=7,max=20"`
	Address     string `json:"address" validate:"required,min=5,max=500"`
	AmountCents int    `json:"amountCents" validate:"required,gt=0"`
}

// InitiatePayment turns the cart behind the token into a pending PayFast
// payment and returns the redirect URL. Totals are recomputed server side; a
// stale client total is rejected before the gateway sees anything.
func InitiatePayment(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload initiatePaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Submit(r.Context(), middleware.CartTokenFromContext(r.Context()), checkoutsvc.OrderIntent{
			Name:        payload.Name,
			Email:       payload.Email,
			PhoneNo:     payload.PhoneNo,
			Address:     payload.Address,
			AmountCents: payload.AmountCents,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CheckoutQuote recomputes the cart totals without touching the gateway.
func CheckoutQuote(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		totals, err := svc.Quote(r.Context(), middleware.CartTokenFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, totals)
	}
}
