// File: internal/repository/message/interface.go
package message

import (
	"context"
	"time"

	"github.com/iyunix/go-lostfound/internal/domain"
)

type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) (*domain.Message, error)
	FindByID(ctx context.Context, messageID string) (*domain.Message, error)
	// FindByConversationID returns the full history in ascending creation order.
	FindByConversationID(ctx context.Context, conversationID string) ([]domain.Message, error)
	// FindLatestByConversationIDs returns the newest message per conversation.
	FindLatestByConversationIDs(ctx context.Context, conversationIDs []string) (map[string]*domain.Message, error)
	// CountUnreadByConversationIDs counts messages not sent by readerID that are still unread.
	CountUnreadByConversationIDs(ctx context.Context, conversationIDs []string, readerID string) (map[string]int64, error)
	// MarkConversationRead flips every unread message in the conversation not
	// sent by readerID to read, stamping readAt, and returns the flipped rows.
	MarkConversationRead(ctx context.Context, conversationID, readerID string, readAt time.Time) ([]domain.Message, error)
	CountTotalMessages(ctx context.Context) (int64, error)
}
