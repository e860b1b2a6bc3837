// File: internal/services/item_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/iyunix/go-lostfound/internal/domain"
	"github.com/iyunix/go-lostfound/internal/repository/item"
)

var (
	ErrItemNotFound  = errors.New("Item not found")
	ErrNotItemOwner  = errors.New("Only the finder or an admin can change this item")
	ErrImageDisabled = errors.New("Image uploads are not available")
)

// ItemValidationError carries the user-facing reason a report was refused.
type ItemValidationError struct{ Message string }

func (e *ItemValidationError) Error() string { return e.Message }

// ImageStore keeps item photos. PutImage returns the public URL.
type ImageStore interface {
	PutImage(ctx context.Context, ownerID string, data []byte) (string, error)
	RemoveImage(ctx context.Context, url string) error
}

// ItemInput is a found-item report as submitted by the finder.
type ItemInput struct {
	Building    string          `json:"building"`
	Classroom   string          `json:"classroom"`
	Description string          `json:"description"`
	Category    domain.Category `json:"category"`
	Date        string          `json:"date"`
	Time        string          `json:"time"`
}

// Actor is whoever asks for a change: the finder or an admin may modify an item.
type Actor struct {
	UserID  string
	IsAdmin bool
}

type ItemService struct {
	items  item.ItemRepository
	images ImageStore
	logger Logger
}

// NewItemService wires the item flows. images may be nil when object storage
// is not configured; reports with a photo are then refused.
func NewItemService(items item.ItemRepository, images ImageStore, logger Logger) *ItemService {
	return &ItemService{items: items, images: images, logger: logger}
}

// Report validates and stores a new found item, uploading its photo first.
func (s *ItemService) Report(ctx context.Context, uploaderID string, in ItemInput, image []byte) (*domain.Item, error) {
	it := &domain.Item{
		UploaderID:  uploaderID,
		Building:    in.Building,
		Classroom:   in.Classroom,
		Description: in.Description,
		Category:    in.Category,
		FoundDate:   in.Date,
		FoundTime:   in.Time,
		Status:      domain.ItemAvailable,
	}
	it.Normalize()
	if err := it.Validate(); err != nil {
		return nil, &ItemValidationError{Message: err.Error()}
	}

	if len(image) > 0 {
		if s.images == nil {
			return nil, ErrImageDisabled
		}
		url, err := s.images.PutImage(ctx, uploaderID, image)
		if err != nil {
			s.logger.Warn("item image upload failed", "uploader_id", uploaderID, "error", err)
			return nil, &ItemValidationError{Message: err.Error()}
		}
		it.ImageURL = &url
	}

	created, err := s.items.Create(ctx, it)
	if err != nil {
		s.logger.Error("item create failed", "uploader_id", uploaderID, "error", err)
		if it.ImageURL != nil {
			s.removeImage(ctx, *it.ImageURL)
		}
		return nil, fmt.Errorf("could not save item: %w", err)
	}
	s.logger.Info("item reported", "item_id", created.ID, "uploader_id", uploaderID, "building", created.Building)
	return created, nil
}

// Browse lists items matching filter, newest first. An empty status shows
// only available items.
func (s *ItemService) Browse(ctx context.Context, filter item.Filter) ([]domain.Item, error) {
	if filter.Status == "" {
		filter.Status = domain.ItemAvailable
	}
	return s.items.List(ctx, filter)
}

func (s *ItemService) Mine(ctx context.Context, uploaderID string) ([]domain.Item, error) {
	return s.items.List(ctx, item.Filter{UploaderID: uploaderID})
}

func (s *ItemService) Returned(ctx context.Context) ([]domain.Item, error) {
	return s.items.List(ctx, item.Filter{Status: domain.ItemReturned})
}

func (s *ItemService) Get(ctx context.Context, id string) (*domain.Item, error) {
	it, err := s.items.FindByID(ctx, id)
	if errors.Is(err, item.ErrItemNotFound) {
		return nil, ErrItemNotFound
	}
	return it, err
}

// MarkReturned flags the item as handed back to its owner.
func (s *ItemService) MarkReturned(ctx context.Context, id string, actor Actor) (*domain.Item, error) {
	it, err := s.owned(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if it.Status == domain.ItemReturned {
		return it, nil
	}
	if err := s.items.UpdateStatus(ctx, id, domain.ItemReturned); err != nil {
		return nil, err
	}
	it.Status = domain.ItemReturned
	s.logger.Info("item marked returned", "item_id", id, "actor_id", actor.UserID)
	return it, nil
}

// Delete soft-deletes the item and removes its photo. Conversations about it
// stay readable but accept no new messages.
func (s *ItemService) Delete(ctx context.Context, id string, actor Actor) error {
	it, err := s.owned(ctx, id, actor)
	if err != nil {
		return err
	}
	if err := s.items.Delete(ctx, id); err != nil {
		if errors.Is(err, item.ErrItemNotFound) {
			return ErrItemNotFound
		}
		return err
	}
	if it.ImageURL != nil {
		s.removeImage(ctx, *it.ImageURL)
	}
	s.logger.Info("item deleted", "item_id", id, "actor_id", actor.UserID, "by_admin", actor.IsAdmin && actor.UserID != it.UploaderID)
	return nil
}

func (s *ItemService) owned(ctx context.Context, id string, actor Actor) (*domain.Item, error) {
	it, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if it.UploaderID != actor.UserID && !actor.IsAdmin {
		return nil, ErrNotItemOwner
	}
	return it, nil
}

func (s *ItemService) removeImage(ctx context.Context, url string) {
	if s.images == nil {
		return
	}
	if err := s.images.RemoveImage(ctx, url); err != nil {
		s.logger.Warn("item image removal failed", "url", url, "error", err)
	}
}
