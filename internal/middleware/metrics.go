package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/streamhub/backend/internal/metrics"
)

// Metrics records request counts and latencies for every request.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w}

		next.ServeHTTP(wrapped, r)

		metrics.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(wrapped.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}
