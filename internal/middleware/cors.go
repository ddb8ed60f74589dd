package middleware

import (
	"net/http"
	"strings"
)

// CORS allows the listed origins. "*" allows any origin, and an entry ending
// in "://*" allows every origin with that scheme (browser extensions).
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allow := make(map[string]struct{}, len(allowedOrigins))
	var schemes []string
	anyOrigin := false
	for _, origin := range allowedOrigins {
		switch {
		case origin == "*":
			anyOrigin = true
		case strings.HasSuffix(origin, "://*"):
			schemes = append(schemes, strings.TrimSuffix(origin, "*"))
		default:
			allow[origin] = struct{}{}
		}
	}
	allowed := func(origin string) bool {
		if anyOrigin {
			return true
		}
		if _, ok := allow[origin]; ok {
			return true
		}
		for _, prefix := range schemes {
			if strings.HasPrefix(origin, prefix) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && allowed(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Locale, X-Request-ID")
				w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,OPTIONS")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
