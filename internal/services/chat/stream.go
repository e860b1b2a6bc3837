package chat

import (
	"context"
	"errors"

	"github.com/iyunix/go-lostfound/internal/domain"
	"github.com/iyunix/go-lostfound/internal/realtime"
	"github.com/iyunix/go-lostfound/internal/repository/item"
)

// SendInput is one outgoing message. ClientKey, when set, makes retries of
// the same send return the original message instead of inserting again.
type SendInput struct {
	ConversationID string
	SenderID       string
	Content        string
	ClientKey      string
}

// History returns the conversation's messages in ascending creation order.
func (s *Service) History(ctx context.Context, conversationID, userID string) ([]domain.Message, error) {
	conv, err := s.participantConversation(ctx, OpHistory, conversationID, userID)
	if err != nil {
		return nil, err
	}
	messages, err := s.messages.FindByConversationID(ctx, conv.ID)
	if err != nil {
		return nil, NewStoreError(OpHistory, "Could not load messages", err)
	}
	return messages, nil
}

// SendMessage validates, persists and publishes a message.
func (s *Service) SendMessage(ctx context.Context, in SendInput) (*domain.Message, error) {
	content, err := ValidateContent(in.Content, s.config.MaxMessageLength)
	if err != nil {
		s.metrics.MessageRejected("validation")
		return nil, err
	}

	conv, err := s.participantConversation(ctx, OpSend, in.ConversationID, in.SenderID)
	if err != nil {
		s.metrics.MessageRejected("unauthorized")
		return nil, err
	}
	if err := s.ensureOpen(ctx, conv); err != nil {
		s.metrics.MessageRejected("closed")
		return nil, err
	}

	if in.ClientKey != "" && s.idempotency != nil {
		return s.sendOnce(ctx, conv, in.SenderID, content, in.ClientKey)
	}
	return s.insert(ctx, conv, in.SenderID, content)
}

// ensureOpen rejects sends on conversations whose item has been deleted.
func (s *Service) ensureOpen(ctx context.Context, conv *domain.Conversation) error {
	_, err := s.items.FindByID(ctx, conv.ItemID)
	if err == nil {
		return nil
	}
	if errors.Is(err, item.ErrItemNotFound) {
		return NewClosedError(OpSend, conv.ID)
	}
	return NewStoreError(OpSend, "Could not load the item", err)
}

func (s *Service) sendOnce(ctx context.Context, conv *domain.Conversation, senderID, content, clientKey string) (*domain.Message, error) {
	key := "send:" + conv.ID + ":" + senderID + ":" + clientKey

	reserved, err := s.idempotency.Reserve(ctx, key, s.config.IdempotencyTTL)
	if err != nil {
		s.logger.Warn("idempotency store unavailable, sending without dedupe", "conversation_id", conv.ID, "error", err)
		return s.insert(ctx, conv, senderID, content)
	}

	if !reserved {
		messageID, err := s.idempotency.Get(ctx, key)
		if err != nil {
			return nil, NewStoreError(OpSend, "Could not check for a previous send", err)
		}
		if messageID == "" {
			return nil, &ChatError{Type: ErrTypeConflict, Operation: OpSend, Message: "This message is still being sent", ConversationID: conv.ID}
		}
		previous, err := s.messages.FindByID(ctx, messageID)
		if err != nil {
			return nil, NewStoreError(OpSend, "Could not load the previous send", err)
		}
		s.logger.Debug("replayed idempotent send", "conversation_id", conv.ID, "message_id", messageID)
		return previous, nil
	}

	msg, err := s.insert(ctx, conv, senderID, content)
	if err != nil {
		if releaseErr := s.idempotency.Release(ctx, key); releaseErr != nil {
			s.logger.Warn("failed to release idempotency key", "error", releaseErr)
		}
		return nil, err
	}
	if err := s.idempotency.Commit(ctx, key, msg.ID, s.config.IdempotencyTTL); err != nil {
		s.logger.Warn("failed to commit idempotency key", "message_id", msg.ID, "error", err)
	}
	return msg, nil
}

func (s *Service) insert(ctx context.Context, conv *domain.Conversation, senderID, content string) (*domain.Message, error) {
	msg, err := s.messages.Create(ctx, &domain.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      s.now().UTC(),
	})
	if err != nil {
		s.logger.Error("message insert failed", "conversation_id", conv.ID, "sender_id", senderID, "error", err)
		return nil, NewStoreError(OpSend, "Could not send message", err)
	}

	published := *msg
	s.feed.Publish(realtime.Topic(conv.ID), realtime.Event{
		Type:           realtime.EventMessageInserted,
		ConversationID: conv.ID,
		Message:        &published,
	})
	s.metrics.MessageSent()
	s.logger.Info("message sent", "conversation_id", conv.ID, "message_id", msg.ID, "length", len(content))

	notified := *msg
	go func() {
		ctx, cancel := s.backgroundContext()
		defer cancel()
		if err := s.notifier.MessageCreated(ctx, conv, &notified); err != nil {
			s.logger.Warn("new message notification failed", "message_id", notified.ID, "error", err)
		}
	}()

	return msg, nil
}
