// File: internal/middleware/constants.go
package middleware

import "context"

// Context keys for middleware communication
type contextKey string

const (
	UserIDKey  contextKey = "user_id"
	EmailKey   contextKey = "email"
	IsAdminKey contextKey = "is_admin"
)

// AuthCookieName is the cookie login sets and the JWT middleware reads.
const AuthCookieName = "auth_token"

// UserIDFrom returns the authenticated user's id, or "" outside the JWT
// middleware.
func UserIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(UserIDKey).(string)
	return id
}

func EmailFrom(ctx context.Context) string {
	email, _ := ctx.Value(EmailKey).(string)
	return email
}

// IsAdminFrom reports the admin flag carried by the token. RequireAdmin
// re-checks it against the store.
func IsAdminFrom(ctx context.Context) bool {
	admin, _ := ctx.Value(IsAdminKey).(bool)
	return admin
}

// WithUser stores an authenticated identity on ctx.
func WithUser(ctx context.Context, userID, email string, isAdmin bool) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	ctx = context.WithValue(ctx, EmailKey, email)
	return context.WithValue(ctx, IsAdminKey, isAdmin)
}
