package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/iyunix/go-lostfound/internal/repository/user"
	"github.com/iyunix/go-lostfound/internal/services"
	"github.com/iyunix/go-lostfound/internal/services/chat"
	"github.com/iyunix/go-lostfound/internal/services/user_services"
)

// errorBody is what clients render as a toast: a title over a message.
type errorBody struct {
	Title string `json:"title"`
	Error string `json:"error"`
}

// writeJSON is a helper for sending JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[Handlers] Failed to encode response: %v", err)
	}
}

// writeError is a helper for sending JSON error responses.
func writeError(w http.ResponseWriter, status int, title, message string) {
	writeJSON(w, status, errorBody{Title: title, Error: message})
}

// writeServiceError maps a service error onto its status and toast.
func writeServiceError(w http.ResponseWriter, err error) {
	status, body := describeError(err)
	writeJSON(w, status, body)
}

// Non-participants get 404 so a conversation's existence is not revealed.
// Missing credentials are answered with 401 by the JWT middleware.
var chatStatus = map[chat.ErrorType]int{
	chat.ErrTypeValidation:   http.StatusBadRequest,
	chat.ErrTypeUnauthorized: http.StatusNotFound,
	chat.ErrTypeForbidden:    http.StatusForbidden,
	chat.ErrTypeNotFound:     http.StatusNotFound,
	chat.ErrTypeConflict:     http.StatusConflict,
	chat.ErrTypeClosed:       http.StatusGone,
	chat.ErrTypeStore:        http.StatusInternalServerError,
}

func describeError(err error) (int, errorBody) {
	var (
		chatErr *chat.ChatError
		userErr *user_services.ValidationError
		itemErr *services.ItemValidationError
	)
	switch {
	case errors.As(err, &chatErr):
		status, ok := chatStatus[chatErr.Type]
		if !ok {
			status = http.StatusInternalServerError
		}
		return status, errorBody{Title: chatErr.Title(), Error: chatErr.Message}
	case errors.As(err, &userErr):
		return http.StatusBadRequest, errorBody{Title: "Error", Error: userErr.Message}
	case errors.As(err, &itemErr):
		return http.StatusBadRequest, errorBody{Title: "Invalid item", Error: itemErr.Message}
	case errors.Is(err, user_services.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorBody{Title: "Sign in failed", Error: err.Error()}
	case errors.Is(err, user_services.ErrInvalidCode):
		return http.StatusBadRequest, errorBody{Title: "Verification failed", Error: err.Error()}
	case errors.Is(err, user_services.ErrCodeTooSoon):
		return http.StatusTooManyRequests, errorBody{Title: "Slow down", Error: err.Error()}
	case errors.Is(err, user_services.ErrEmailTaken):
		return http.StatusConflict, errorBody{Title: "Error", Error: err.Error()}
	case errors.Is(err, services.ErrItemNotFound), errors.Is(err, user.ErrUserNotFound):
		return http.StatusNotFound, errorBody{Title: "Not found", Error: err.Error()}
	case errors.Is(err, services.ErrNotItemOwner):
		return http.StatusForbidden, errorBody{Title: "Forbidden", Error: err.Error()}
	case errors.Is(err, services.ErrImageDisabled):
		return http.StatusBadRequest, errorBody{Title: "Invalid item", Error: err.Error()}
	}
	log.Printf("[Handlers] Unhandled error: %v", err)
	return http.StatusInternalServerError, errorBody{Title: "Error", Error: "Something went wrong on our end."}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	return json.NewDecoder(r.Body).Decode(v)
}
