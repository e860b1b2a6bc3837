// File: internal/repository/message/message_repository.go
package message

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iyunix/go-lostfound/internal/domain"
)

var ErrMessageNotFound = errors.New("message not found")

type gormMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &gormMessageRepository{db: db}
}

// Create - content is validated upstream; this only guards structural fields
func (r *gormMessageRepository) Create(ctx context.Context, message *domain.Message) (*domain.Message, error) {
	if err := validateMessageInput(message); err != nil {
		log.Printf("[MessageRepository] Validation failed: %v", err)
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	message.Read = false
	message.ReadAt = nil

	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		log.Printf("[MessageRepository] Database error creating message in conversation %s: %v", message.ConversationID, err)
		return nil, errors.New("database error creating message")
	}
	return message, nil
}

func (r *gormMessageRepository) FindByID(ctx context.Context, messageID string) (*domain.Message, error) {
	if messageID == "" {
		return nil, errors.New("invalid message ID")
	}
	var message domain.Message
	err := r.db.WithContext(ctx).Where("id = ?", messageID).First(&message).Error
	if err == nil {
		return &message, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMessageNotFound
	}
	log.Printf("[MessageRepository] FindByID database error: %v", err)
	return nil, errors.New("database query failed")
}

func (r *gormMessageRepository) FindByConversationID(ctx context.Context, conversationID string) ([]domain.Message, error) {
	if conversationID == "" {
		return nil, errors.New("invalid conversation ID")
	}
	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		log.Printf("[MessageRepository] Database error loading history for conversation %s: %v", conversationID, err)
		return nil, errors.New("database error fetching messages")
	}
	return messages, nil
}

func (r *gormMessageRepository) FindLatestByConversationIDs(ctx context.Context, conversationIDs []string) (map[string]*domain.Message, error) {
	out := make(map[string]*domain.Message, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return out, nil
	}

	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id IN ?", conversationIDs).
		Where("created_at = (SELECT MAX(m2.created_at) FROM messages m2 WHERE m2.conversation_id = messages.conversation_id)").
		Order("id DESC").
		Find(&messages).Error
	if err != nil {
		log.Printf("[MessageRepository] Database error loading latest messages: %v", err)
		return nil, errors.New("database error fetching latest messages")
	}
	for i := range messages {
		// Ties on created_at resolve to the highest id, matching history order.
		if _, seen := out[messages[i].ConversationID]; !seen {
			out[messages[i].ConversationID] = &messages[i]
		}
	}
	return out, nil
}

func (r *gormMessageRepository) CountUnreadByConversationIDs(ctx context.Context, conversationIDs []string, readerID string) (map[string]int64, error) {
	out := make(map[string]int64, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		ConversationID string
		N              int64
	}
	err := r.db.WithContext(ctx).Model(&domain.Message{}).
		Select("conversation_id, COUNT(*) AS n").
		Where("conversation_id IN ? AND sender_id <> ? AND read = ?", conversationIDs, readerID, false).
		Group("conversation_id").
		Scan(&rows).Error
	if err != nil {
		log.Printf("[MessageRepository] Database error counting unread messages: %v", err)
		return nil, errors.New("database error counting unread messages")
	}
	for _, row := range rows {
		out[row.ConversationID] = row.N
	}
	return out, nil
}

// MarkConversationRead runs as one transaction. The candidate rows are locked
// on Postgres; SQLite already serializes writers.
func (r *gormMessageRepository) MarkConversationRead(ctx context.Context, conversationID, readerID string, readAt time.Time) ([]domain.Message, error) {
	if conversationID == "" || readerID == "" {
		return nil, errors.New("invalid conversation ID or reader ID")
	}

	var flipped []domain.Message
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Where("conversation_id = ? AND sender_id <> ? AND read = ?", conversationID, readerID, false)
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := query.Order("created_at ASC, id ASC").Find(&flipped).Error; err != nil {
			return err
		}
		if len(flipped) == 0 {
			return nil
		}

		ids := make([]string, len(flipped))
		for i := range flipped {
			ids[i] = flipped[i].ID
		}
		if err := tx.Model(&domain.Message{}).
			Where("id IN ? AND read = ?", ids, false).
			Updates(map[string]interface{}{"read": true, "read_at": readAt}).Error; err != nil {
			return err
		}

		for i := range flipped {
			at := readAt
			flipped[i].Read = true
			flipped[i].ReadAt = &at
		}
		return nil
	})
	if err != nil {
		log.Printf("[MessageRepository] Database error marking conversation %s read for %s: %v", conversationID, readerID, err)
		return nil, errors.New("database error marking messages as read")
	}
	return flipped, nil
}

func (r *gormMessageRepository) CountTotalMessages(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Message{}).Count(&count).Error; err != nil {
		log.Printf("[MessageRepository] Database error counting total messages: %v", err)
		return 0, errors.New("database error counting total messages")
	}
	return count, nil
}

func validateMessageInput(message *domain.Message) error {
	if message == nil {
		return errors.New("message cannot be nil")
	}
	if message.ConversationID == "" || message.SenderID == "" {
		return errors.New("conversation and sender are required")
	}
	if strings.TrimSpace(message.Content) == "" {
		return errors.New("message content cannot be empty")
	}
	return nil
}
