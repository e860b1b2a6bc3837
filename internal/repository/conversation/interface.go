package conversation

import (
	"context"

	"github.com/iyunix/go-lostfound/internal/domain"
)

// ConversationRepository stores finder/claimer conversations. The store
// enforces at most one conversation per (item, claimer).
type ConversationRepository interface {
	// Create returns repository.ErrDuplicate when the pair already exists.
	Create(ctx context.Context, conversation *domain.Conversation) (*domain.Conversation, error)
	FindByID(ctx context.Context, id string) (*domain.Conversation, error)
	FindByItemAndClaimer(ctx context.Context, itemID, claimerID string) (*domain.Conversation, error)
	// ListForUser returns the user's conversations on items that still exist, newest first.
	ListForUser(ctx context.Context, userID string) ([]domain.Conversation, error)
	Count(ctx context.Context) (int64, error)
}
