package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/adapter/handler"
	"github.com/qj0r9j0vc2/modlog-bridge/internal/adapter/handler/middleware"
	"github.com/qj0r9j0vc2/modlog-bridge/internal/infrastructure/observability"
)

// Handlers holds all HTTP handlers.
type Handlers struct {
	Health      *handler.HealthHandler
	Ready       *handler.ReadyHandler
	Metrics     *handler.MetricsHandler
	Invocations *handler.InvocationsHandler
	Reload      *handler.ReloadHandler
}

// NewRouter creates the ops HTTP router. metrics may be nil.
func NewRouter(handlers *Handlers, metrics *observability.Metrics, requestTimeout time.Duration, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/health", handlers.Health)
	mux.Handle("/", handlers.Health) // Root path returns health

	if handlers.Ready != nil {
		mux.Handle("/ready", handlers.Ready)
	}
	if handlers.Metrics != nil {
		mux.Handle("/metrics", handlers.Metrics)
	}
	if handlers.Invocations != nil {
		mux.Handle("/invocations", handlers.Invocations)
	}
	if handlers.Reload != nil {
		mux.Handle("/-/reload", handlers.Reload)
	}

	// Innermost first. RequestID is outermost so logs and panics carry the ID.
	var h http.Handler = mux
	if requestTimeout > 0 {
		h = middleware.Timeout(requestTimeout, logger)(h)
	}
	if metrics != nil {
		h = middleware.Observability(metrics)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)
	h = middleware.RequestID(h)

	return h
}
