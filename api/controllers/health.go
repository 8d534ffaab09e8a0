package controllers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/multierr"

	"github.com/stylehaven-za/stylehaven-backend/api/responses"
	"github.com/stylehaven-za/stylehaven-backend/pkg/config"
	"github.com/stylehaven-za/stylehaven-backend/pkg/db"
	pkgerrors "github.com/stylehaven-za/stylehaven-backend/pkg/errors"
	"github.com/stylehaven-za/stylehaven-backend/pkg/logger"
	"github.com/stylehaven-za/stylehaven-backend/pkg/redis"
)

const readinessTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-StyleHaven-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when every backing dependency answers a ping.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-StyleHaven-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		var errs error
		checks := map[string]string{}

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				errs = multierr.Append(errs, err)
				checks["database"] = "down"
			} else {
				checks["database"] = "up"
			}
		}
		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				errs = multierr.Append(errs, err)
				checks["redis"] = "down"
			} else {
				checks["redis"] = "up"
			}
		}

		if errs != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "readiness check failed").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
