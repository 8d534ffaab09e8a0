package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stylehaven-za/stylehaven-backend/api/middleware"
	"github.com/stylehaven-za/stylehaven-backend/api/responses"
	"github.com/stylehaven-za/stylehaven-backend/api/validators"
	cartsvc "github.com/stylehaven-za/stylehaven-backend/internal/cart"
	pkgerrors "github.com/stylehaven-za/stylehaven-backend/pkg/errors"
	"github.com/stylehaven-za/stylehaven-backend/pkg/logger"
)

func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cart, err := svc.Get(r.Context(), middleware.CartTokenFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// CartAddItem adds a selection to the cart. A repeat of an existing line merges
// quantities; a brand new line past the distinct-item cap is a 409.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload cartsvc.AddItemInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AddItem(r.Context(), middleware.CartTokenFromContext(r.Context()), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lineID, err := parseLineID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.UpdateQuantity(r.Context(), middleware.CartTokenFromContext(r.Context()), lineID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lineID, err := parseLineID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.RemoveItem(r.Context(), middleware.CartTokenFromContext(r.Context()), lineID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Clear(r.Context(), middleware.CartTokenFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}

func parseLineID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "lineId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid line id")
	}
	return id, nil
}
