package chat

import (
	"context"
	"time"

	"github.com/iyunix/go-lostfound/internal/domain"
)

type LatestMessage struct {
	Content   string    `json:"content"`
	SenderID  string    `json:"sender_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationSummary is one row of a user's inbox.
type ConversationSummary struct {
	ID              string             `json:"id"`
	ItemID          string             `json:"item_id"`
	ClaimerID       string             `json:"claimer_id"`
	UploaderID      string             `json:"uploader_id"`
	CreatedAt       time.Time          `json:"created_at"`
	Item            domain.ItemSummary `json:"items"`
	ClaimerProfile  domain.Profile     `json:"claimer_profile"`
	UploaderProfile domain.Profile     `json:"uploader_profile"`
	LatestMessage   *LatestMessage     `json:"latest_message,omitempty"`
	UnreadCount     int64              `json:"unread_count"`
}

// OtherParty returns the profile of the participant who is not userID.
func (c *ConversationSummary) OtherParty(userID string) domain.Profile {
	if c.ClaimerID == userID {
		return c.UploaderProfile
	}
	return c.ClaimerProfile
}

// ListConversations returns the user's inbox, newest conversation first.
// Conversations on deleted items are left out.
func (s *Service) ListConversations(ctx context.Context, userID string) ([]ConversationSummary, error) {
	if userID == "" {
		return nil, NewValidationError(OpInbox, "user is required")
	}
	conversations, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, NewStoreError(OpInbox, "Could not load conversations", err)
	}
	if len(conversations) == 0 {
		return []ConversationSummary{}, nil
	}

	convIDs := make([]string, 0, len(conversations))
	itemIDs := make([]string, 0, len(conversations))
	userIDs := make([]string, 0, 2*len(conversations))
	for _, c := range conversations {
		convIDs = append(convIDs, c.ID)
		itemIDs = append(itemIDs, c.ItemID)
		userIDs = append(userIDs, c.ClaimerID, c.UploaderID)
	}

	items, err := s.items.FindByIDs(ctx, itemIDs)
	if err != nil {
		return nil, NewStoreError(OpInbox, "Could not load items", err)
	}
	profiles, err := s.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, NewStoreError(OpInbox, "Could not load profiles", err)
	}
	latest, err := s.messages.FindLatestByConversationIDs(ctx, convIDs)
	if err != nil {
		return nil, NewStoreError(OpInbox, "Could not load messages", err)
	}
	unread, err := s.messages.CountUnreadByConversationIDs(ctx, convIDs, userID)
	if err != nil {
		return nil, NewStoreError(OpInbox, "Could not load unread counts", err)
	}

	out := make([]ConversationSummary, 0, len(conversations))
	for _, c := range conversations {
		it, ok := items[c.ItemID]
		if !ok {
			// Item deleted between the two queries.
			continue
		}
		summary := ConversationSummary{
			ID:              c.ID,
			ItemID:          c.ItemID,
			ClaimerID:       c.ClaimerID,
			UploaderID:      c.UploaderID,
			CreatedAt:       c.CreatedAt,
			Item:            it.Summary(),
			ClaimerProfile:  profileOf(profiles, c.ClaimerID),
			UploaderProfile: profileOf(profiles, c.UploaderID),
			UnreadCount:     unread[c.ID],
		}
		if m, ok := latest[c.ID]; ok {
			summary.LatestMessage = &LatestMessage{Content: m.Content, SenderID: m.SenderID, CreatedAt: m.CreatedAt}
		}
		out = append(out, summary)
	}
	return out, nil
}

func profileOf(profiles map[string]*domain.User, id string) domain.Profile {
	if u, ok := profiles[id]; ok {
		return u.Profile()
	}
	return domain.Profile{ID: id}
}
