// File: internal/domain/chat.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation links the finder of an item with one claimer.
// At most one conversation exists per (item, claimer) pair.
type Conversation struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	ItemID     string    `json:"item_id" gorm:"size:36;not null;uniqueIndex:idx_conversation_item_claimer"`
	ClaimerID  string    `json:"claimer_id" gorm:"size:36;not null;uniqueIndex:idx_conversation_item_claimer;index"`
	UploaderID string    `json:"uploader_id" gorm:"size:36;not null;index"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Conversation) TableName() string { return "conversations" }

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// HasParticipant reports whether userID is the claimer or the uploader.
func (c *Conversation) HasParticipant(userID string) bool {
	return userID != "" && (c.ClaimerID == userID || c.UploaderID == userID)
}

// Counterpart returns the other participant's id.
func (c *Conversation) Counterpart(userID string) string {
	if c.ClaimerID == userID {
		return c.UploaderID
	}
	return c.ClaimerID
}
