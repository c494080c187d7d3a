package server

import (
	"net/http"
	"time"

	"github.com/teemow/meetingmate/internal/instrumentation"
)

// statusRecorder captures the response status for after-the-fact recording.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// MetricsMiddleware records request count and duration for every handler it
// wraps. Path labels use the route pattern, not the raw URL, to keep
// cardinality bounded.
func MetricsMiddleware(metrics *instrumentation.Metrics, next http.Handler) http.Handler {
	if metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		path := r.Pattern
		if path == "" {
			path = r.URL.Path
		}
		metrics.RecordHTTPRequest(r.Context(), r.Method, path, rec.status, time.Since(start))
	})
}
