package controllers

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/multierr"

	"github.com/narissarah/wishcraft/api/responses"
	"github.com/narissarah/wishcraft/pkg/config"
	pkgerrors "github.com/narissarah/wishcraft/pkg/errors"
	"github.com/narissarah/wishcraft/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-WishCraft-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks every dependency the reconciliation path needs. A nil
// pinger is treated as not wired and skipped, which keeps the endpoint usable
// in partial deployments like the migrate-only container.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-WishCraft-Env", cfg.App.Env)

		var unavailable error
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				unavailable = multierr.Append(unavailable, fmt.Errorf("%s: %w", name, err))
			}
		}
		if unavailable != nil {
			wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, unavailable, "dependencies unavailable")
			responses.WriteError(r.Context(), logg, w, wrapped)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}

// ReadyDeps assembles the dependency map for HealthReady.
func ReadyDeps(db pinger, redis pinger, pubsub pinger) map[string]pinger {
	return map[string]pinger{
		"database": db,
		"redis":    redis,
		"pubsub":   pubsub,
	}
}
