package controllers

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/stylehaven-za/stylehaven-backend/api/responses"
	payfastsvc "github.com/stylehaven-za/stylehaven-backend/internal/payments/payfast"
	pkgerrors "github.com/stylehaven-za/stylehaven-backend/pkg/errors"
	"github.com/stylehaven-za/stylehaven-backend/pkg/logger"
)

const maxNotifyBody = 64 << 10

// PayFastNotify receives the gateway's ITN callback. The body is parsed by
// hand because signature verification covers the fields in the order the
// gateway sent them, which url.ParseQuery does not preserve.
func PayFastNotify(svc payfastsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxNotifyBody))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read notify body"))
			return
		}

		fields, err := parseOrderedForm(string(body))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.HandleNotify(r.Context(), fields); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "received"})
	}
}

func parseOrderedForm(body string) ([]payfastsvc.Pair, error) {
	var fields []payfastsvc.Pair
	for _, chunk := range strings.Split(body, "&") {
		if chunk == "" {
			continue
		}
		key, rawValue, _ := strings.Cut(chunk, "=")
		name, err := url.QueryUnescape(key)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed notify field name")
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed notify field value")
		}
		fields = append(fields, payfastsvc.Pair{Key: name, Value: value})
	}
	if len(fields) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "empty notify body")
	}
	return fields, nil
}
