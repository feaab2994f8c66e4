package handler

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler exposes the bridge registry in the Prometheus text format.
// Scrapes are counted on the same registry as promhttp_metric_handler_*.
type MetricsHandler struct {
	handler http.Handler
}

// NewMetricsHandler serves reg. A failing collector is logged and skipped so one
// broken gauge does not blank the whole scrape.
func NewMetricsHandler(reg *prometheus.Registry, logger *slog.Logger) *MetricsHandler {
	return &MetricsHandler{
		handler: promhttp.InstrumentMetricHandler(reg, promhttp.HandlerFor(reg, promhttp.HandlerOpts{
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
			ErrorHandling:     promhttp.ContinueOnError,
			EnableOpenMetrics: true,
		})),
	}
}

// ServeHTTP handles GET /metrics
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.handler.ServeHTTP(w, r)
}
