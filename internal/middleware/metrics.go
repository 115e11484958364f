package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bimberek/internal/metrics"
)

// Metrics records the status code and duration of every request,
// labeled by the chi route pattern so path parameters don't explode
// the label cardinality.
func Metrics(collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			collector.RecordHTTPStatus(sw.status)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			collector.RecordHTTPDuration(route, time.Since(start))
		})
	}
}
