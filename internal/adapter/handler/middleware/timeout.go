package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// Timeout bounds request processing and answers 503 when the deadline passes.
// Health, readiness and metrics endpoints are exempt.
func Timeout(timeout time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		bounded := http.TimeoutHandler(next, timeout, "Request Timeout")

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if probeRoutes[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			rw := newStatusRecorder(w)
			bounded.ServeHTTP(rw, r)
			if rw.status == http.StatusServiceUnavailable && r.Context().Err() == nil {
				logger.Warn("request timeout",
					"route", routeLabel(r),
					"method", r.Method,
					"timeout", timeout,
				)
			}
		})
	}
}
