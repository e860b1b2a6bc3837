package middleware

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/iyunix/go-lostfound/internal/auth"
)

// TokenValidator resolves a bearer token to its claims.
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// NewJWTMiddleware authenticates the request from, in order, the
// Authorization bearer header, the auth_token cookie or the access_token
// query parameter. Browsers cannot set headers on websocket upgrades, hence
// the last two.
func NewJWTMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, fromCookie := tokenFromRequest(r)
			if token == "" {
				log.Printf("[AuthMiddleware] Missing token for %s %s", r.Method, r.URL.Path)
				writeJSONError(w, http.StatusUnauthorized, "Not signed in", "Please sign in to continue")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				log.Printf("[AuthMiddleware] Invalid token: %v", err)
				if fromCookie {
					clearAuthCookie(w)
				}
				writeJSONError(w, http.StatusUnauthorized, "Not signed in", "Your session has expired, please sign in again")
				return
			}

			ctx := WithUser(r.Context(), claims.UserID(), claims.Email, claims.IsAdmin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request) (token string, fromCookie bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		if rest, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(rest), false
		}
	}
	if cookie, err := r.Cookie(AuthCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return r.URL.Query().Get("access_token"), false
}

// SetAuthCookie stores a freshly issued token for browser clients.
func SetAuthCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
