// File: internal/middleware/ratelimit.go
package middleware

import (
	"fmt"
	"log"
	"net/http"

	"github.com/iyunix/go-lostfound/internal/ratelimit"
)

// RateKey picks the identity a request is limited under: the signed-in user
// when there is one, otherwise the client IP.
func RateKey(r *http.Request) string {
	if id := UserIDFrom(r.Context()); id != "" {
		return "user:" + id
	}
	return "ip:" + ratelimit.GetClientIP(r)
}

// RateLimitMiddleware creates a rate limiting middleware
func RateLimitMiddleware(limiter ratelimit.Limiter, name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identifier := RateKey(r)
			allowed, info := limiter.Allow(identifier)

			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))

			if !allowed {
				statusMsg := "RATE LIMITED"
				if info.Banned {
					statusMsg = "BANNED"
				}
				log.Printf("[RateLimit] Blocked %s request from %s - %s", name, identifier, statusMsg)

				if info.RetryAfter > 0 {
					w.Header().Set("Retry-After", fmt.Sprintf("%.0f", info.RetryAfter.Seconds()))
				}
				msg := "Too many attempts. Please try again later."
				if info.Banned {
					msg = fmt.Sprintf("Too many failed attempts. Try again in %d minutes.", int(info.RetryAfter.Minutes())+1)
				}
				writeJSONError(w, http.StatusTooManyRequests, "Slow down", msg)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AuthSuccessMiddleware clears the caller's failed attempts after a 2xx.
func AuthSuccessMiddleware(limiter ratelimit.Limiter, name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapper := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapper, r)

			if wrapper.statusCode >= 200 && wrapper.statusCode < 300 {
				identifier := RateKey(r)
				limiter.RecordSuccess(identifier)
				log.Printf("[RateLimit] Reset attempts for %s from %s (successful auth)", name, identifier)
			}
		})
	}
}
