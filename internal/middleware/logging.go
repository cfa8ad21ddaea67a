package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/josh-kwaku/cashflow-ledger/internal/logging"
	"github.com/josh-kwaku/cashflow-ledger/internal/metrics"
)

const unmatchedRoute = "unmatched"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Logging attaches a request-scoped logger and records one log line and one
// metric per request. It must wrap the ServeMux directly so the matched
// route pattern is visible once the mux returns.
func Logging(rec metrics.Recorder) func(http.Handler) http.Handler {
	if rec == nil {
		rec = metrics.NoOp{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			logger := slog.Default().With("request_id", TraceIDFromContext(r.Context()))
			r = r.WithContext(logging.WithLogger(r.Context(), logger))

			sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sr, r)

			route := r.Pattern
			if route == "" {
				route = unmatchedRoute
			}
			rec.RecordRequest(route, sr.status, time.Since(start))

			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" {
				return
			}
			logger.Info("request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"route", route,
				"status", sr.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
