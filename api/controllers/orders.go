package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stylehaven-za/stylehaven-backend/api/responses"
	"github.com/stylehaven-za/stylehaven-backend/api/validators"
	ordersvc "github.com/stylehaven-za/stylehaven-backend/internal/orders"
	pkgerrors "github.com/stylehaven-za/stylehaven-backend/pkg/errors"
	"github.com/stylehaven-za/stylehaven-backend/pkg/logger"
	"github.com/stylehaven-za/stylehaven-backend/pkg/pagination"
)

func OrderList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orders, err := svc.List(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

func OrderDetail(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := chi.URLParam(r, "orderID")
		if orderID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id is required"))
			return
		}

		order, err := svc.GetByOrderID(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderUpdateStatus moves an order along the delivery pipeline. Only forward
// transitions are accepted.
func OrderUpdateStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := chi.URLParam(r, "orderID")
		if orderID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id is required"))
			return
		}

		var payload updateStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateStatus(r.Context(), orderID, payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
