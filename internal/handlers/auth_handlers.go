// File: internal/handlers/auth_handlers.go
package handlers

import (
	"log"
	"net/http"

	"github.com/iyunix/go-lostfound/internal/auth"
	"github.com/iyunix/go-lostfound/internal/domain"
	"github.com/iyunix/go-lostfound/internal/middleware"
	"github.com/iyunix/go-lostfound/internal/services/user_services"
)

// AuthHandler holds the dependencies for authentication handlers.
type AuthHandler struct {
	users        *user_services.UserService
	codes        *user_services.VerificationService
	secureCookie bool
}

func NewAuthHandler(users *user_services.UserService, codes *user_services.VerificationService, secureCookie bool) *AuthHandler {
	return &AuthHandler{users: users, codes: codes, secureCookie: secureCookie}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type codeRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

// Register creates an account and signs it in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Error", "Invalid request body")
		return
	}
	if _, err := h.users.Register(r.Context(), req.Email, req.Password, req.FullName); err != nil {
		log.Printf("[AuthHandler] Registration error: %v", err)
		writeServiceError(w, err)
		return
	}
	h.signIn(w, r, http.StatusCreated, req.Email, req.Password)
}

// Login validates credentials, sets the auth cookie and returns the token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Error", "Invalid request body")
		return
	}
	h.signIn(w, r, http.StatusOK, req.Email, req.Password)
}

func (h *AuthHandler) signIn(w http.ResponseWriter, r *http.Request, status int, email, password string) {
	u, token, err := h.users.Login(r.Context(), email, password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.writeSession(w, status, u, token)
}

// SendOTP emails a 6-digit sign-in code.
func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Error", "Invalid request body")
		return
	}
	if err := h.codes.RequestLoginCode(r.Context(), req.Email); err != nil {
		log.Printf("[AuthHandler] Login code error: %v", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "We sent you a 6-digit code"})
}

// VerifyOTP exchanges a sign-in code for a session, creating the account on
// first use.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Error", "Invalid request body")
		return
	}
	u, token, err := h.codes.VerifyLoginCode(r.Context(), req.Email, req.Code)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.writeSession(w, http.StatusOK, u, token)
}

// ForgotPassword always answers 202 for well-formed requests.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Error", "Invalid request body")
		return
	}
	if err := h.codes.RequestPasswordReset(r.Context(), req.Email); err != nil {
		log.Printf("[AuthHandler] Password reset request error: %v", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "If that account exists, we sent it a reset code"})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Error", "Invalid request body")
		return
	}
	if err := h.codes.ResetPassword(r.Context(), req.Email, req.Code, req.Password); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, status int, u *domain.User, token string) {
	middleware.SetAuthCookie(w, token, auth.TokenTTL, h.secureCookie)
	writeJSON(w, status, map[string]interface{}{
		"token": token,
		"user":  u,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.SetAuthCookie(w, "", -1, h.secureCookie)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in user's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Profile(r.Context(), middleware.UserIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName string `json:"full_name"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Error", "Invalid request body")
		return
	}
	u, err := h.users.UpdateFullName(r.Context(), middleware.UserIDFrom(r.Context()), req.FullName)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
