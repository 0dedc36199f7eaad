package middleware

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"

	maxRequestIDLen = 128
)

// RequestID binds a correlation id and a logger carrying it, the method and
// the path to the request context. A client-supplied X-Request-ID is reused when it is short enough;
// otherwise a UUIDv7 is generated. The id is echoed in the response header.
func RequestID(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" || len(id) > maxRequestIDLen {
				id = newRequestID()
			}

			w.Header().Set(RequestIDHeader, id)

			ctx := SetRequestID(r.Context(), id)
			ctx = WithLogger(ctx, logger.With("request_id", id, "method", r.Method, "path", r.URL.Path))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
