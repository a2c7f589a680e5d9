package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/colondancer/raffle-bee/api/responses"
	"github.com/colondancer/raffle-bee/pkg/config"
	pkgerrors "github.com/colondancer/raffle-bee/pkg/errors"
	"github.com/colondancer/raffle-bee/pkg/logger"
)

const (
	envHeader    = "X-RaffleBee-Env"
	readyTimeout = 2 * time.Second
)

type pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every backing store and reports 503 naming the first
// dependency that fails.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP pinger, redisP pinger) http.HandlerFunc {
	deps := []struct {
		name string
		p    pinger
	}{
		{name: "postgres", p: dbP},
		{name: "redis", p: redisP},
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		for _, dep := range deps {
			if dep.p == nil {
				continue
			}
			if err := dep.p.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, dep.name+" unavailable").
					WithDetails(map[string]any{"dependency": dep.name}))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
