package chat

import (
	"context"

	"github.com/iyunix/go-lostfound/internal/realtime"
)

// MarkRead marks every unread message in the conversation that readerID did
// not send as read, then publishes one UPDATE per flipped message so the
// sender's view picks up the receipt. It returns the number flipped; a
// repeat call flips nothing.
func (s *Service) MarkRead(ctx context.Context, conversationID, readerID string) (int, error) {
	conv, err := s.participantConversation(ctx, OpMarkRead, conversationID, readerID)
	if err != nil {
		return 0, err
	}

	flipped, err := s.messages.MarkConversationRead(ctx, conv.ID, readerID, s.now().UTC())
	if err != nil {
		s.metrics.MarkReadFailed()
		s.logger.Error("mark read failed", "conversation_id", conv.ID, "reader_id", readerID, "error", err)
		return 0, NewStoreError(OpMarkRead, "Could not update read receipts", err)
	}

	topic := realtime.Topic(conv.ID)
	for i := range flipped {
		updated := flipped[i]
		s.feed.Publish(topic, realtime.Event{
			Type:           realtime.EventMessageUpdated,
			ConversationID: conv.ID,
			Message:        &updated,
		})
	}
	if len(flipped) > 0 {
		s.metrics.ReceiptsPropagated(len(flipped))
		s.logger.Debug("read receipts propagated", "conversation_id", conv.ID, "count", len(flipped))
	}
	return len(flipped), nil
}
