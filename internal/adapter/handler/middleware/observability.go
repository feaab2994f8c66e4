package middleware

import (
	"net/http"
	"time"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/infrastructure/observability"
)

// Observability records HTTP metrics for requests.
func Observability(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Increment active requests
			metrics.HTTPRequestsActive.Add(r.Context(), 1)
			defer metrics.HTTPRequestsActive.Add(r.Context(), -1)

			rw := newStatusRecorder(w)
			next.ServeHTTP(rw, r)

			// Unknown paths share one label to keep cardinality bounded
			metrics.RecordHTTPRequest(r.Context(), r.Method, routeLabel(r), rw.status, time.Since(start))
		})
	}
}
