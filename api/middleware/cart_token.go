package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/stylehaven-za/stylehaven-backend/api/responses"
	pkgerrors "github.com/stylehaven-za/stylehaven-backend/pkg/errors"
	"github.com/stylehaven-za/stylehaven-backend/pkg/logger"
)

// CartTokenHeader is the header clients use to address their server-side cart.
const CartTokenHeader = "X-Cart-Token"

// RequireCartToken validates the cart token header and stores it on the
// request context. Routes behind it always see a well-formed UUID token.
func RequireCartToken(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get(CartTokenHeader))
			if token == "" {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, CartTokenHeader+" header required"))
				return
			}
			if _, err := uuid.Parse(token); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, CartTokenHeader+" must be a UUID"))
				return
			}

			ctx := WithCartToken(r.Context(), token)
			if logg != nil {
				ctx = logg.WithCartToken(ctx, token)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
