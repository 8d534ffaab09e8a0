package middleware

import "context"

type contextKey string

const ctxCartToken contextKey = "cart_token"

// CartTokenFromContext returns the validated cart token, or "".
func CartTokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCartToken).(string); ok {
		return v
	}
	return ""
}

// WithCartToken injects the cart token into the context for downstream handlers.
func WithCartToken(ctx context.Context, token string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCartToken, token)
}
