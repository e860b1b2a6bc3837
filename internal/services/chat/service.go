// File: internal/services/chat/service.go
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iyunix/go-lostfound/internal/domain"
	"github.com/iyunix/go-lostfound/internal/realtime"
	"github.com/iyunix/go-lostfound/internal/repository/conversation"
	"github.com/iyunix/go-lostfound/internal/repository/item"
	"github.com/iyunix/go-lostfound/internal/repository/message"
	"github.com/iyunix/go-lostfound/internal/repository/user"
)

// Dependencies are the collaborators a Service needs. Idempotency, Notifier,
// Metrics and Clock are optional.
type Dependencies struct {
	Conversations conversation.ConversationRepository
	Messages      message.MessageRepository
	Items         item.ItemRepository
	Users         user.UserRepository
	Feed          Feed
	Idempotency   IdempotencyStore
	Notifier      Notifier
	Metrics       Metrics
	Logger        Logger
	Clock         func() time.Time
}

// Service is the chat core: conversation resolution, the message stream,
// read receipts, presence and live sessions.
type Service struct {
	config        *Config
	conversations conversation.ConversationRepository
	messages      message.MessageRepository
	items         item.ItemRepository
	users         user.UserRepository
	feed          Feed
	idempotency   IdempotencyStore
	notifier      Notifier
	metrics       Metrics
	logger        Logger
	now           func() time.Time

	resolver *Resolver
	presence *PresenceTracker
}

func NewService(config *Config, deps Dependencies) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chat config: %w", err)
	}
	if deps.Conversations == nil || deps.Messages == nil || deps.Items == nil || deps.Users == nil {
		return nil, errors.New("chat service requires conversation, message, item and user repositories")
	}
	if deps.Feed == nil {
		return nil, errors.New("chat service requires a feed")
	}
	if deps.Logger == nil {
		return nil, errors.New("chat service requires a logger")
	}
	if deps.Notifier == nil {
		deps.Notifier = nopNotifier{}
	}
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	return &Service{
		config:        config,
		conversations: deps.Conversations,
		messages:      deps.Messages,
		items:         deps.Items,
		users:         deps.Users,
		feed:          deps.Feed,
		idempotency:   deps.Idempotency,
		notifier:      deps.Notifier,
		metrics:       deps.Metrics,
		logger:        deps.Logger,
		now:           deps.Clock,
		resolver:      NewResolver(deps.Conversations, deps.Metrics, deps.Logger),
		presence:      NewPresenceTracker(deps.Feed),
	}, nil
}

// ClaimItem starts (or reopens) the claimer's conversation with the finder.
func (s *Service) ClaimItem(ctx context.Context, itemID, claimerID string) (*domain.Conversation, error) {
	it, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, item.ErrItemNotFound) {
			return nil, NewNotFoundError(OpClaim, "Item not found")
		}
		return nil, NewStoreError(OpClaim, "Could not load the item", err)
	}
	if it.UploaderID == claimerID {
		s.logger.Warn("self-claim rejected", "item_id", itemID, "user_id", claimerID)
		return nil, NewForbiddenError(OpClaim, "You cannot claim your own item")
	}
	if it.Status == domain.ItemReturned {
		return nil, &ChatError{Type: ErrTypeConflict, Operation: OpClaim, Message: "This item has already been returned"}
	}
	return s.resolver.Resolve(ctx, it.ID, claimerID, it.UploaderID)
}

// ResolveConversation is the bare resolver for callers that already know both parties.
func (s *Service) ResolveConversation(ctx context.Context, itemID, claimerID, uploaderID string) (*domain.Conversation, error) {
	return s.resolver.Resolve(ctx, itemID, claimerID, uploaderID)
}

// Conversation returns the conversation if userID takes part in it.
func (s *Service) Conversation(ctx context.Context, conversationID, userID string) (*domain.Conversation, error) {
	return s.participantConversation(ctx, OpOpen, conversationID, userID)
}

// Presence returns the current typing snapshot of a conversation.
func (s *Service) Presence(ctx context.Context, conversationID, userID string) ([]realtime.PresenceState, error) {
	conv, err := s.participantConversation(ctx, OpOpen, conversationID, userID)
	if err != nil {
		return nil, err
	}
	return s.presence.Snapshot(conv.ID), nil
}

// participantConversation hides conversations the user is not part of
// behind the same error as missing ones.
func (s *Service) participantConversation(ctx context.Context, op, conversationID, userID string) (*domain.Conversation, error) {
	if conversationID == "" || userID == "" {
		return nil, NewValidationError(op, "conversation and user are required")
	}
	conv, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, conversation.ErrConversationNotFound) {
			return nil, NewUnauthorizedError(op, userID, conversationID)
		}
		return nil, NewStoreError(op, "Could not load the conversation", err)
	}
	if !conv.HasParticipant(userID) {
		s.logger.Warn("non-participant access to conversation", "conversation_id", conversationID, "user_id", userID, "operation", op)
		return nil, NewUnauthorizedError(op, userID, conversationID)
	}
	return conv, nil
}

// backgroundContext bounds store calls that outlive the caller's request.
func (s *Service) backgroundContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.config.BackgroundTimeout)
}
