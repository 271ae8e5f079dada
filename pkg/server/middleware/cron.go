package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/doodlesbykumbi/handover-tracker/pkg/audit"
)

// RequireCronSecret only lets requests carrying "Bearer <secret>" through.
// Without a configured secret every request fails with 500, so a missing
// setting never leaves the sync endpoints open.
func RequireCronSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				writeError(w, http.StatusInternalServerError, "CRON_SECRET is not configured")
				return
			}
			token, ok := bearerToken(r)
			if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				audit.Log(audit.CronEvent{ClientIP: ClientIP(r), Target: r.URL.Path})
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
