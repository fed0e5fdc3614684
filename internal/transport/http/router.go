// Package httptransport assembles the public HTTP surface: module handlers,
// the event history endpoint, health and metrics.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"prophecy/internal/platform/middleware"
	"prophecy/internal/transport/http/shared"
	id "prophecy/pkg/domain"
	"prophecy/pkg/platform/events"
	"prophecy/pkg/platform/keys"
)

// Registrar is implemented by every module handler.
type Registrar interface {
	Register(r chi.Router)
}

// EventLog reads the per-market event history.
type EventLog interface {
	List(ctx context.Context, market keys.Address) ([]events.Event, error)
}

// HealthChecker reports backing-store health for readiness probes.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Options configures the router beyond module handlers.
type Options struct {
	Logger       *slog.Logger
	EventLog     EventLog
	JWTValidator middleware.JWTValidator
	Health       []HealthChecker
}

// NewRouter wires all public endpoints.
func NewRouter(opts Options, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		for _, check := range opts.Health {
			if err := check.Health(ctx); err != nil {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	r.Handle("/metrics", promhttp.Handler())

	if opts.EventLog != nil {
		r.Group(func(gr chi.Router) {
			gr.Use(middleware.Recovery(opts.Logger))
			gr.Use(middleware.RequestID)
			gr.Use(middleware.Logger(opts.Logger))
			gr.Use(middleware.ContentTypeJSON)
			gr.Use(middleware.RequireAuth(opts.JWTValidator, opts.Logger))
			gr.Get("/markets/{marketID}/events", handleMarketEvents(opts.EventLog))
		})
	}

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}

func handleMarketEvents(log EventLog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		marketID, err := id.ParseMarketID(chi.URLParam(r, "marketID"))
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		history, err := log.List(r.Context(), keys.Market(marketID))
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		if history == nil {
			history = []events.Event{}
		}
		shared.WriteJSON(w, http.StatusOK, history)
	}
}
