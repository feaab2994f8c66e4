package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestMetricsHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	commands := prometheus.NewCounter(prometheus.CounterOpts{Name: "bridge_commands_test_total", Help: "test"})
	reg.MustRegister(commands)
	commands.Add(3)

	h := NewMetricsHandler(reg, discardLogger())

	t.Run("serves registry", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "bridge_commands_test_total 3")
	})

	t.Run("counts scrapes", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Contains(t, w.Body.String(), `promhttp_metric_handler_requests_total{code="200"} 1`)
	})

	t.Run("rejects writes", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/metrics", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Equal(t, "GET, HEAD", w.Header().Get("Allow"))
	})
}
