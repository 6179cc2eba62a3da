// Package auth gates HTTP routes behind the session cookie.
package auth

import (
	"encoding/json"
	"net/http"

	"github.com/valusophy/city/internal/platform/requestctx"
	"github.com/valusophy/city/internal/services/auth/session"
)

// RequireSession verifies the session cookie and injects the principal into
// the request context. Requests without a valid session get a 401.
func RequireSession(sessions session.Config, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(session.CookieName)
		if err != nil {
			unauthorized(w)
			return
		}
		principal, err := sessions.Verify(cookie.Value)
		if err != nil {
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(requestctx.WithPrincipal(r.Context(), principal)))
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
}
