package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ays/internal/adapters/http/perf"
)

// DefaultSlowRequestMs is the default threshold for slow request warnings.
const DefaultSlowRequestMs = 200

// statusRecorder remembers the status written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// Timing returns middleware that logs each page request and feeds the perf collector.
// Requests slower than slowMs log slow_request at WARN, the rest log at DEBUG.
// PRE: slowMs <= 0 selects DefaultSlowRequestMs; collector may be nil
// POST: /static/ requests are neither logged nor recorded
func Timing(collector *perf.Collector, slowMs int) func(http.Handler) http.Handler {
	if slowMs <= 0 {
		slowMs = DefaultSlowRequestMs
	}
	threshold := time.Duration(slowMs) * time.Millisecond

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/static/") {
				next.ServeHTTP(w, r)
				return
			}

			start := timeNow()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			elapsed := timeNow().Sub(start)
			durationMs := float64(elapsed.Microseconds()) / 1000.0

			event, level := "request", slog.LevelDebug
			if elapsed >= threshold {
				event, level = "slow_request", slog.LevelWarn
			}
			slog.Log(r.Context(), level, event,
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", durationMs,
			)

			if collector != nil {
				collector.Record(perf.Entry{
					Kind:       perf.KindRequest,
					Name:       r.Method + " " + r.URL.Path,
					StatusCode: rec.status,
					Failed:     rec.status >= http.StatusInternalServerError,
					DurationMs: durationMs,
					Timestamp:  start,
				})
			}
		})
	}
}
