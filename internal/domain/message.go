// File: internal/domain/message.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is a single chat message. Content is immutable once stored;
// only Read and ReadAt change, and only from unread to read.
type Message struct {
	ID             string     `json:"id" gorm:"primaryKey;size:36"`
	ConversationID string     `json:"conversation_id" gorm:"size:36;not null;index:idx_messages_conversation_created,priority:1"`
	SenderID       string     `json:"sender_id" gorm:"size:36;not null"`
	Content        string     `json:"content" gorm:"type:text;not null"`
	CreatedAt      time.Time  `json:"created_at" gorm:"index:idx_messages_conversation_created,priority:2"`
	Read           bool       `json:"read" gorm:"not null;default:false"`
	ReadAt         *time.Time `json:"read_at"`
}

func (Message) TableName() string { return "messages" }

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// Before orders messages by creation time, breaking ties by id.
func (m *Message) Before(other *Message) bool {
	if m.CreatedAt.Equal(other.CreatedAt) {
		return m.ID < other.ID
	}
	return m.CreatedAt.Before(other.CreatedAt)
}

// MergeRead folds a newer copy of the same message into m without ever
// moving it back to unread.
func (m *Message) MergeRead(update *Message) {
	if m.Read || !update.Read {
		return
	}
	m.Read = true
	if update.ReadAt != nil {
		at := *update.ReadAt
		m.ReadAt = &at
	}
}
