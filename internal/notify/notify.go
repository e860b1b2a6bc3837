// Package notify announces new chat messages to downstream consumers.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/iyunix/go-lostfound/internal/domain"
)

// MessageEvent is the payload written for every persisted message. Consumers
// such as mail or push workers key off RecipientID.
type MessageEvent struct {
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id"`
	ItemID         string    `json:"item_id"`
	SenderID       string    `json:"sender_id"`
	RecipientID    string    `json:"recipient_id"`
	Preview        string    `json:"preview"`
	CreatedAt      time.Time `json:"created_at"`
}

const previewLength = 140

func NewMessageEvent(conv *domain.Conversation, msg *domain.Message) MessageEvent {
	preview := []rune(msg.Content)
	if len(preview) > previewLength {
		preview = preview[:previewLength]
	}
	return MessageEvent{
		MessageID:      msg.ID,
		ConversationID: conv.ID,
		ItemID:         conv.ItemID,
		SenderID:       msg.SenderID,
		RecipientID:    conv.Counterpart(msg.SenderID),
		Preview:        string(preview),
		CreatedAt:      msg.CreatedAt,
	}
}

func (e MessageEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Noop drops every event. Used when no broker is configured.
type Noop struct{}

func (Noop) MessageCreated(context.Context, *domain.Conversation, *domain.Message) error { return nil }

func (Noop) Close() error { return nil }
