// File: internal/repository/conversation/conversation_repository.go
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/iyunix/go-lostfound/internal/domain"
	"github.com/iyunix/go-lostfound/internal/repository"
)

var ErrConversationNotFound = errors.New("conversation not found")

type gormConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &gormConversationRepository{db: db}
}

func (r *gormConversationRepository) Create(ctx context.Context, c *domain.Conversation) (*domain.Conversation, error) {
	if err := validateConversationInput(c); err != nil {
		log.Printf("[ConversationRepository] Validation failed: %v", err)
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		if repository.IsUniqueViolation(err) {
			log.Printf("[ConversationRepository] Conversation for item %s and claimer %s already exists", c.ItemID, c.ClaimerID)
			return nil, repository.ErrDuplicate
		}
		log.Printf("[ConversationRepository] Database error creating conversation for item %s: %v", c.ItemID, err)
		return nil, errors.New("database error creating conversation")
	}

	log.Printf("[ConversationRepository] Conversation created with ID: %s for item: %s", c.ID, c.ItemID)
	return c, nil
}

func (r *gormConversationRepository) FindByID(ctx context.Context, id string) (*domain.Conversation, error) {
	if id == "" {
		return nil, errors.New("invalid conversation ID")
	}
	var c domain.Conversation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	return r.handleFindError(err, &c, "FindByID")
}

func (r *gormConversationRepository) FindByItemAndClaimer(ctx context.Context, itemID, claimerID string) (*domain.Conversation, error) {
	if itemID == "" || claimerID == "" {
		return nil, errors.New("invalid item ID or claimer ID")
	}
	var c domain.Conversation
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND claimer_id = ?", itemID, claimerID).
		First(&c).Error
	return r.handleFindError(err, &c, "FindByItemAndClaimer")
}

func (r *gormConversationRepository) ListForUser(ctx context.Context, userID string) ([]domain.Conversation, error) {
	if userID == "" {
		return nil, errors.New("invalid user ID")
	}
	var conversations []domain.Conversation
	err := r.db.WithContext(ctx).
		Joins("JOIN items ON items.id = conversations.item_id AND items.deleted_at IS NULL").
		Where("conversations.claimer_id = ? OR conversations.uploader_id = ?", userID, userID).
		Order("conversations.created_at DESC, conversations.id DESC").
		Find(&conversations).Error
	if err != nil {
		log.Printf("[ConversationRepository] Database error listing conversations for user %s: %v", userID, err)
		return nil, errors.New("database error fetching conversations")
	}
	return conversations, nil
}

func (r *gormConversationRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Conversation{}).Count(&count).Error; err != nil {
		log.Printf("[ConversationRepository] Database error counting conversations: %v", err)
		return 0, errors.New("database error counting conversations")
	}
	return count, nil
}

func validateConversationInput(c *domain.Conversation) error {
	if c == nil {
		return errors.New("conversation cannot be nil")
	}
	if c.ItemID == "" || c.ClaimerID == "" || c.UploaderID == "" {
		return errors.New("item, claimer and uploader are required")
	}
	if c.ClaimerID == c.UploaderID {
		return errors.New("claimer and uploader must differ")
	}
	return nil
}

func (r *gormConversationRepository) handleFindError(err error, c *domain.Conversation, operation string) (*domain.Conversation, error) {
	if err == nil {
		return c, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConversationNotFound
	}
	log.Printf("[ConversationRepository] %s database error: %v", operation, err)
	return nil, errors.New("database query failed")
}
