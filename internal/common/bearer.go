package common

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// RequireBearer guards an endpoint with a single shared API token. The
// comparison is constant-time; an empty configured token means the caller
// never set one up, which is reported as a configuration problem rather
// than an auth failure.
func RequireBearer(token string) func(http.Handler) http.Handler {
	token = strings.TrimSpace(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				JSONError(w, http.StatusServiceUnavailable, "api_token_not_configured", nil)
				return
			}
			provided := bearerToken(r)
			if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
