package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/aurumworks/jewelstore-backend/api/responses"
	"github.com/aurumworks/jewelstore-backend/pkg/config"
	pkgerrors "github.com/aurumworks/jewelstore-backend/pkg/errors"
	"github.com/aurumworks/jewelstore-backend/pkg/logger"
)

const envHeader = "X-Jewelstore-Env"
const readyTimeout = 2 * time.Second

type pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and, when wired, Redis. Redis is optional
// infrastructure so a nil client is simply skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbPinger pinger, redisPinger pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		checks := map[string]string{}

		if dbPinger == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "database not wired"))
			return
		}
		if err := dbPinger.Ping(ctx); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database ping"))
			return
		}
		checks["database"] = "ok"

		if redisPinger != nil {
			if err := redisPinger.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis ping"))
				return
			}
			checks["redis"] = "ok"
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
