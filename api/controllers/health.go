package controllers

import (
	"net/http"

	"github.com/dperea/storefront-backend/api/responses"
	"github.com/dperea/storefront-backend/pkg/config"
	pkgerrors "github.com/dperea/storefront-backend/pkg/errors"
	"github.com/dperea/storefront-backend/pkg/db"
	"github.com/dperea/storefront-backend/pkg/logger"
	"github.com/dperea/storefront-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when the datasource and redis answer.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("X-Storefront-Env", cfg.App.Env)

		checks := map[string]string{}
		healthy := true

		if err := dbP.Ping(ctx); err != nil {
			logg.Error(ctx, "health.ready.db_failed", err)
			checks["db"] = "unreachable"
			healthy = false
		} else {
			checks["db"] = "ok"
		}

		if err := redisP.Ping(ctx); err != nil {
			logg.Error(ctx, "health.ready.redis_failed", err)
			checks["redis"] = "unreachable"
			healthy = false
		} else {
			checks["redis"] = "ok"
		}

		if !healthy {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").
				WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
