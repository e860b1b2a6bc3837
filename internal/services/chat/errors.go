// File: internal/services/chat/errors.go
package chat

import (
	"errors"
	"fmt"
)

type ErrorType string

const (
	ErrTypeValidation   ErrorType = "VALIDATION"
	ErrTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrTypeForbidden    ErrorType = "FORBIDDEN"
	ErrTypeNotFound     ErrorType = "NOT_FOUND"
	ErrTypeConflict     ErrorType = "CONFLICT"
	ErrTypeClosed       ErrorType = "CLOSED"
	ErrTypeStore        ErrorType = "STORE"
)

// Operation names double as the key for user-facing toast titles.
const (
	OpClaim    = "claim"
	OpResolve  = "resolve"
	OpHistory  = "history"
	OpSend     = "send"
	OpMarkRead = "mark_read"
	OpOpen     = "open"
	OpInbox    = "inbox"
)

type ChatError struct {
	Type           ErrorType
	Operation      string
	Message        string
	ConversationID string
	UserID         string
	Cause          error
}

func (e *ChatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("Chat %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("Chat %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *ChatError) Unwrap() error { return e.Cause }

// Title is the heading the client shows above Message.
func (e *ChatError) Title() string {
	switch {
	case e.Operation == OpClaim && e.Type == ErrTypeForbidden:
		return "Cannot claim"
	case e.Operation == OpSend:
		return "Error sending message"
	case e.Operation == OpHistory || e.Operation == OpOpen:
		return "Error loading messages"
	default:
		return "Error"
	}
}

func NewValidationError(operation, msg string) *ChatError {
	return &ChatError{Type: ErrTypeValidation, Operation: operation, Message: msg}
}

func NewStoreError(operation, msg string, cause error) *ChatError {
	return &ChatError{Type: ErrTypeStore, Operation: operation, Message: msg, Cause: cause}
}

func NewNotFoundError(operation, msg string) *ChatError {
	return &ChatError{Type: ErrTypeNotFound, Operation: operation, Message: msg}
}

func NewUnauthorizedError(operation, userID, conversationID string) *ChatError {
	return &ChatError{
		Type:           ErrTypeUnauthorized,
		Operation:      operation,
		Message:        "conversation not found or unauthorized",
		UserID:         userID,
		ConversationID: conversationID,
	}
}

func NewForbiddenError(operation, msg string) *ChatError {
	return &ChatError{Type: ErrTypeForbidden, Operation: operation, Message: msg}
}

func NewClosedError(operation, conversationID string) *ChatError {
	return &ChatError{
		Type:           ErrTypeClosed,
		Operation:      operation,
		Message:        "This item has been removed; the conversation is closed",
		ConversationID: conversationID,
	}
}

// IsType reports whether err is a ChatError of type t.
func IsType(err error, t ErrorType) bool {
	var ce *ChatError
	return errors.As(err, &ce) && ce.Type == t
}
