// File: internal/middleware/logger.go
package middleware

import (
	"log"
	"net/http"
	"time"
)

// LoggingMiddleware logs incoming HTTP request & response details.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		user := UserIDFrom(r.Context())
		if user == "" {
			user = "-"
		}
		log.Printf("Request: %s %s %d from %s user=%s | Duration: %v",
			r.Method, r.URL.Path, rw.statusCode, r.RemoteAddr, user, time.Since(start))
	})
}
