// Package ops exposes the worker's operational HTTP surface: liveness,
// readiness and Prometheus metrics. The pipeline itself has no
// request/response API; it is fire-and-forget maintenance.
package ops

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthChecker reports a dependency's health.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// NewRouter builds the ops router. redisHealth may be nil when no
// coordination store is configured.
func NewRouter(db *sql.DB, redisHealth HealthChecker) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		if redisHealth != nil {
			if err := redisHealth.Health(ctx); err != nil {
				http.Error(w, "coordination store unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
