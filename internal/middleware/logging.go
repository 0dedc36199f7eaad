package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// Logging emits a start and a completion event for every request. It uses
// the request-scoped logger bound by RequestID, which carries request_id,
// method and path.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			log := LoggerFrom(r.Context(), logger)
			rec := newStatusRecorder(w)

			log.Info("request started", "remote_addr", r.RemoteAddr)

			next.ServeHTTP(rec, r)

			level := slog.LevelInfo
			if rec.statusCode >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			log.Log(r.Context(), level, "request completed",
				"status", rec.statusCode,
				"bytes", rec.bytes,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
