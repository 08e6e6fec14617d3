package controllers

import (
	"net/http"

	"github.com/shoplane/shoplane-backend/api/responses"
	"github.com/shoplane/shoplane-backend/pkg/config"
	pkgerrors "github.com/shoplane/shoplane-backend/pkg/errors"
	"github.com/shoplane/shoplane-backend/pkg/logger"
	"github.com/shoplane/shoplane-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Shoplane-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness by pinging the cart store. The collaborator
// services are not probed; the engine degrades per-request when they are down.
func HealthReady(cfg *config.Config, logg *logger.Logger, store redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Shoplane-Env", cfg.App.Env)

		if store != nil {
			if err := store.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUpstreamUnavailable, err, "cart store unreachable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
