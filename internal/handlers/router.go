package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iyunix/go-lostfound/internal/middleware"
	"github.com/iyunix/go-lostfound/internal/ratelimit"
	"github.com/iyunix/go-lostfound/internal/repository/user"
)

// RouterDeps are the handlers and guards the API is assembled from.
// Metrics and the limiters are optional.
type RouterDeps struct {
	Auth   *AuthHandler
	Items  *ItemHandler
	Chat   *ChatHandler
	Socket *ChatSocketHandler
	Admin  *AdminHandler
	Logs   *LogHandler

	Tokens      middleware.TokenValidator
	Users       user.UserRepository
	AuthLimiter ratelimit.Limiter
	SendLimiter ratelimit.Limiter

	AllowedOrigins []string
	Metrics        interface{ Middleware(http.Handler) http.Handler }
	MetricsHandler http.Handler
}

func NewRouter(d RouterDeps) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RecoverPanic)
	r.Use(middleware.CORS(d.AllowedOrigins))
	r.Use(middleware.SecurityHeaders)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(middleware.LoggingMiddleware)

	// Preflights must match a route for the CORS middleware to run.
	r.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// --- Public Routes ---
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	if d.MetricsHandler != nil {
		r.Handle("/metrics", d.MetricsHandler).Methods(http.MethodGet)
	}
	r.HandleFunc("/api/log", d.Logs.LogFrontendEvent).Methods(http.MethodPost)

	authRoutes := r.PathPrefix("/api/auth").Subrouter()
	if d.AuthLimiter != nil {
		authRoutes.Use(middleware.RateLimitMiddleware(d.AuthLimiter, "auth"))
		authRoutes.Use(middleware.AuthSuccessMiddleware(d.AuthLimiter, "auth"))
	}
	authRoutes.HandleFunc("/register", d.Auth.Register).Methods(http.MethodPost)
	authRoutes.HandleFunc("/login", d.Auth.Login).Methods(http.MethodPost)
	authRoutes.HandleFunc("/logout", d.Auth.Logout).Methods(http.MethodPost)
	authRoutes.HandleFunc("/otp", d.Auth.SendOTP).Methods(http.MethodPost)
	authRoutes.HandleFunc("/otp/verify", d.Auth.VerifyOTP).Methods(http.MethodPost)
	authRoutes.HandleFunc("/forgot", d.Auth.ForgotPassword).Methods(http.MethodPost)
	authRoutes.HandleFunc("/reset", d.Auth.ResetPassword).Methods(http.MethodPost)

	// --- Protected Routes ---
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.NewJWTMiddleware(d.Tokens))

	api.HandleFunc("/me", d.Auth.Me).Methods(http.MethodGet)
	api.HandleFunc("/me", d.Auth.UpdateMe).Methods(http.MethodPatch)

	api.HandleFunc("/items", d.Items.Browse).Methods(http.MethodGet)
	api.HandleFunc("/items", d.Items.Report).Methods(http.MethodPost)
	api.HandleFunc("/items/mine", d.Items.Mine).Methods(http.MethodGet)
	api.HandleFunc("/items/returned", d.Items.Returned).Methods(http.MethodGet)
	api.HandleFunc("/items/{id}", d.Items.Get).Methods(http.MethodGet)
	api.HandleFunc("/items/{id}", d.Items.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/items/{id}/returned", d.Items.MarkReturned).Methods(http.MethodPost)
	api.HandleFunc("/items/{id}/claim", d.Chat.Claim).Methods(http.MethodPost)

	api.HandleFunc("/conversations", d.Chat.Inbox).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{id}/messages", d.Chat.GetChatMessages).Methods(http.MethodGet)
	var send http.Handler = http.HandlerFunc(d.Chat.SendMessage)
	if d.SendLimiter != nil {
		send = middleware.RateLimitMiddleware(d.SendLimiter, "send")(send)
	}
	api.Handle("/conversations/{id}/messages", send).Methods(http.MethodPost)
	api.HandleFunc("/conversations/{id}/read", d.Chat.MarkRead).Methods(http.MethodPost)
	api.HandleFunc("/conversations/{id}/presence", d.Chat.Presence).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{id}/ws", d.Socket.Serve).Methods(http.MethodGet)

	// --- Admin Routes ---
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireAdmin(d.Users))
	admin.HandleFunc("/stats", d.Admin.Stats).Methods(http.MethodGet)
	admin.HandleFunc("/items", d.Admin.Items).Methods(http.MethodGet)
	admin.HandleFunc("/items/{id}", d.Admin.DeleteItem).Methods(http.MethodDelete)
	admin.HandleFunc("/users", d.Admin.Users).Methods(http.MethodGet)
	admin.HandleFunc("/users/export", d.Admin.ExportUsersCSV).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found", "The resource you are looking for does not exist.")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Error", "The method is not allowed for this resource.")
	})
	return r
}
