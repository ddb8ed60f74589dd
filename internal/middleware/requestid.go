package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/DreamFlyCoder/plugin/internal/infra"
)

const maxRequestIDLen = 64

// RequestID keeps a well-formed X-Request-ID from the caller or mints one,
// echoes it back and stores it for the image service client's logs.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get("X-Request-ID")
		if !validRequestID(rid) {
			rid = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", rid)
		next.ServeHTTP(w, r.WithContext(infra.WithRequestID(r.Context(), rid)))
	})
}

// validRequestID accepts short ids made of letters, digits and . _ : -
// so a client cannot inject arbitrary text into log lines.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.', c == ':':
		default:
			return false
		}
	}
	return true
}

func RequestIDFromContext(ctx context.Context) string {
	return infra.RequestIDFromContext(ctx)
}
