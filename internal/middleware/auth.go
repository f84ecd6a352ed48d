package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	apierrors "github.com/angelmc32/pob-v1/internal/pkg/errors"
	"github.com/angelmc32/pob-v1/internal/pkg/response"
)

// APIKeyAuth returns a middleware that requires one of keys, sent either as
// X-API-Key or as an Authorization bearer token. With no keys configured
// every request passes.
func APIKeyAuth(keys []string) func(next http.Handler) http.Handler {
	var allowed [][]byte
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			allowed = append(allowed, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(allowed) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := requestAPIKey(r)
			if key == "" {
				response.Error(w, apierrors.ErrUnauthorized)
				return
			}
			for _, a := range allowed {
				if subtle.ConstantTimeCompare([]byte(key), a) == 1 {
					next.ServeHTTP(w, r)
					return
				}
			}
			response.Error(w, apierrors.ErrUnauthorized.WithMessage("Invalid API key"))
		})
	}
}

// requestAPIKey extracts the API key from X-API-Key or a bearer token.
func requestAPIKey(r *http.Request) string {
	if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
		return apiKey
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}
