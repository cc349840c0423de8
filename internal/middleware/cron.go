package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/clubebeneficios/clube-api/internal/pkg/response"
)

// CronSecret guards job trigger endpoints called by the external scheduler.
// An empty secret disables the endpoint entirely.
func CronSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				response.NotFound(w, "Not found")
				return
			}
			got := r.Header.Get("X-Cron-Secret")
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				response.Unauthorized(w, "Invalid cron secret")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
