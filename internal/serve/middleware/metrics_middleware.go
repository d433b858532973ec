package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/stellar/graphql-stitcher/internal/metrics"
)

// MetricsMiddleware creates a middleware that tracks HTTP request metrics. Requests are labeled by their route pattern,
// e.g. `/backends/{name}/split`, so backend names do not multiply the series.
func MetricsMiddleware(metricsService metrics.MetricsService) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()

			rw := &responseWriter{ResponseWriter: w}
			next.ServeHTTP(rw, r)

			endpoint := routePattern(r)
			if rw.statusCode == 0 {
				rw.statusCode = http.StatusOK
			}

			metricsService.ObserveRequestDuration(endpoint, r.Method, time.Since(startTime).Seconds())
			metricsService.IncNumRequests(endpoint, r.Method, rw.statusCode)
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	if r.URL.Path == "" {
		return "/"
	}
	return r.URL.Path
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.statusCode == 0 {
		rw.statusCode = code
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	// If WriteHeader hasn't been called yet, we assume it's a 200
	if rw.statusCode == 0 {
		rw.statusCode = http.StatusOK
	}
	return rw.ResponseWriter.Write(b)
}
