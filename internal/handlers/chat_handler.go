// File: internal/handlers/chat_handler.go
package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iyunix/go-lostfound/internal/middleware"
	"github.com/iyunix/go-lostfound/internal/services/chat"
)

type ChatHandler struct {
	chat *chat.Service
}

func NewChatHandler(cs *chat.Service) *ChatHandler {
	return &ChatHandler{chat: cs}
}

// Claim opens (or reopens) the conversation between the caller and the
// item's finder.
func (h *ChatHandler) Claim(w http.ResponseWriter, r *http.Request) {
	conv, err := h.chat.ClaimItem(r.Context(), mux.Vars(r)["id"], middleware.UserIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// Inbox lists the caller's conversations with their latest message.
func (h *ChatHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	rows, err := h.chat.ListConversations(r.Context(), middleware.UserIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// GetChatMessages returns a conversation's history, oldest first.
func (h *ChatHandler) GetChatMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.chat.History(r.Context(), mux.Vars(r)["id"], middleware.UserIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

type sendRequest struct {
	Content   string `json:"content"`
	ClientKey string `json:"client_key"`
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Error sending message", "Invalid request body")
		return
	}
	msg, err := h.chat.SendMessage(r.Context(), chat.SendInput{
		ConversationID: mux.Vars(r)["id"],
		SenderID:       middleware.UserIDFrom(r.Context()),
		Content:        req.Content,
		ClientKey:      req.ClientKey,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.chat.MarkRead(r.Context(), mux.Vars(r)["id"], middleware.UserIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": n})
}

// Presence returns who is in the conversation right now and who is typing.
func (h *ChatHandler) Presence(w http.ResponseWriter, r *http.Request) {
	states, err := h.chat.Presence(r.Context(), mux.Vars(r)["id"], middleware.UserIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, states)
}
