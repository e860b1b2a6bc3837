// File: internal/middleware/admin_middleware.go
package middleware

import (
	"log"
	"net/http"

	"github.com/iyunix/go-lostfound/internal/repository/user"
)

// RequireAdmin checks the authenticated user's admin flag in the store, so a
// revoked admin loses access before their token expires. It MUST be used
// AFTER the JWT middleware.
func RequireAdmin(userRepo user.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := UserIDFrom(r.Context())
			if userID == "" {
				log.Printf("[AdminMiddleware] Forbidden: no user in context for path %s", r.URL.Path)
				writeJSONError(w, http.StatusForbidden, "Forbidden", "Admin access required")
				return
			}

			u, err := userRepo.FindByID(r.Context(), userID)
			if err != nil {
				log.Printf("[AdminMiddleware] Forbidden: could not load user %s: %v", userID, err)
				writeJSONError(w, http.StatusForbidden, "Forbidden", "Admin access required")
				return
			}
			if !u.IsAdmin {
				log.Printf("[AdminMiddleware] FORBIDDEN: non-admin user %s attempted %s", u.ID, r.URL.Path)
				writeJSONError(w, http.StatusForbidden, "Forbidden", "Admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
