package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/smeazy/invoicing-backend/api/responses"
	"github.com/smeazy/invoicing-backend/pkg/config"
	pkgerrors "github.com/smeazy/invoicing-backend/pkg/errors"
	"github.com/smeazy/invoicing-backend/pkg/logger"
)

const envHeader = "X-Smeazy-Env"
const readyCheckTimeout = 2 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies the backing stores before reporting ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, database, cache pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		checks["database"] = "ok"
		if database == nil {
			checks["database"] = "not configured"
			healthy = false
		} else if err := database.Ping(ctx); err != nil {
			checks["database"] = "unreachable"
			healthy = false
			if logg != nil {
				logg.Error(ctx, "health.database", err)
			}
		}

		checks["redis"] = "ok"
		if cache == nil {
			checks["redis"] = "not configured"
			healthy = false
		} else if err := cache.Ping(ctx); err != nil {
			checks["redis"] = "unreachable"
			healthy = false
			if logg != nil {
				logg.Error(ctx, "health.redis", err)
			}
		}

		if !healthy {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "service not ready").WithDetails(checks))
			return
		}

		checks["status"] = "ready"
		responses.WriteSuccess(w, checks)
	}
}
