// File: internal/services/chat/resolver.go
package chat

import (
	"context"
	"errors"

	"github.com/iyunix/go-lostfound/internal/domain"
	"github.com/iyunix/go-lostfound/internal/repository"
	"github.com/iyunix/go-lostfound/internal/repository/conversation"
)

// Resolver finds or creates the single conversation for an (item, claimer)
// pair. Concurrent resolvers converge on one row through the store's unique
// constraint: the loser of the insert race re-reads the winner's row.
type Resolver struct {
	conversations conversation.ConversationRepository
	metrics       Metrics
	logger        Logger
}

func NewResolver(conversations conversation.ConversationRepository, metrics Metrics, logger Logger) *Resolver {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Resolver{conversations: conversations, metrics: metrics, logger: logger}
}

func (r *Resolver) Resolve(ctx context.Context, itemID, claimerID, uploaderID string) (*domain.Conversation, error) {
	if itemID == "" || claimerID == "" || uploaderID == "" {
		return nil, NewValidationError(OpResolve, "item, claimer and uploader are required")
	}
	if claimerID == uploaderID {
		return nil, NewForbiddenError(OpClaim, "You cannot claim your own item")
	}

	existing, err := r.conversations.FindByItemAndClaimer(ctx, itemID, claimerID)
	if err == nil {
		r.metrics.ConversationResolved(false)
		return existing, nil
	}
	if !errors.Is(err, conversation.ErrConversationNotFound) {
		r.logger.Error("conversation lookup failed", "item_id", itemID, "claimer_id", claimerID, "error", err)
		return nil, NewStoreError(OpResolve, "Could not open the conversation", err)
	}

	created, err := r.conversations.Create(ctx, &domain.Conversation{
		ItemID:     itemID,
		ClaimerID:  claimerID,
		UploaderID: uploaderID,
	})
	if err == nil {
		r.metrics.ConversationResolved(true)
		r.logger.Info("conversation created", "conversation_id", created.ID, "item_id", itemID)
		return created, nil
	}
	if !errors.Is(err, repository.ErrDuplicate) {
		r.logger.Error("conversation create failed", "item_id", itemID, "claimer_id", claimerID, "error", err)
		return nil, NewStoreError(OpResolve, "Could not open the conversation", err)
	}

	winner, err := r.conversations.FindByItemAndClaimer(ctx, itemID, claimerID)
	if err != nil {
		r.logger.Error("conversation re-fetch after conflict failed", "item_id", itemID, "claimer_id", claimerID, "error", err)
		return nil, NewStoreError(OpResolve, "Could not open the conversation", err)
	}
	r.logger.Debug("conversation create lost race, using existing", "conversation_id", winner.ID)
	r.metrics.ConversationResolved(false)
	return winner, nil
}
