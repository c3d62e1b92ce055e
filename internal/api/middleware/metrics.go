package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/hirescope/hirescope/internal/observability"
)

// Metrics returns middleware that records HTTP request count and duration.
// When metrics is nil, recording is skipped. Put Metrics outside the mux so duration is full request time.
func Metrics(metrics observability.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if metrics == nil {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rw := wrapResponseWriter(w)

			next.ServeHTTP(rw, r)

			metrics.RecordRequest(r.Context(), r.Method, routeOf(r), rw.statusCode, time.Since(start))
		})
	}
}

// routeOf returns the matched ServeMux pattern without its method, e.g. "/v1/candidates/{id}",
// so path parameters do not become label values. Unmatched requests report "unmatched".
func routeOf(r *http.Request) string {
	pattern := r.Pattern
	if pattern == "" {
		return "unmatched"
	}

	if _, path, ok := strings.Cut(pattern, " "); ok {
		return path
	}

	return pattern
}
