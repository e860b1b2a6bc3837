// File: internal/repository/item/item_repository.go
package item

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/iyunix/go-lostfound/internal/domain"
)

var ErrItemNotFound = errors.New("item not found")

const maxListLimit = 500

type gormItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) ItemRepository {
	return &gormItemRepository{db: db}
}

// Create - validates the report before it reaches the database
func (r *gormItemRepository) Create(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	item.Normalize()
	if err := item.Validate(); err != nil {
		log.Printf("[ItemRepository] Validation failed: %v", err)
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if item.UploaderID == "" {
		return nil, errors.New("uploader is required")
	}

	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		log.Printf("[ItemRepository] Database error creating item for uploader %s: %v", item.UploaderID, err)
		return nil, errors.New("database error creating item")
	}

	log.Printf("[ItemRepository] Item created with ID: %s by uploader: %s", item.ID, item.UploaderID)
	return item, nil
}

func (r *gormItemRepository) FindByID(ctx context.Context, id string) (*domain.Item, error) {
	if id == "" {
		return nil, errors.New("invalid item ID")
	}
	var item domain.Item
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	return r.handleFindError(err, &item, "FindByID")
}

func (r *gormItemRepository) FindByIDUnscoped(ctx context.Context, id string) (*domain.Item, error) {
	if id == "" {
		return nil, errors.New("invalid item ID")
	}
	var item domain.Item
	err := r.db.WithContext(ctx).Unscoped().Where("id = ?", id).First(&item).Error
	return r.handleFindError(err, &item, "FindByIDUnscoped")
}

func (r *gormItemRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Item, error) {
	out := make(map[string]*domain.Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var items []domain.Item
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		log.Printf("[ItemRepository] Database error loading %d items: %v", len(ids), err)
		return nil, errors.New("database error loading items")
	}
	for i := range items {
		out[items[i].ID] = &items[i]
	}
	return out, nil
}

// List returns items newest first.
func (r *gormItemRepository) List(ctx context.Context, filter Filter) ([]domain.Item, error) {
	query := r.db.WithContext(ctx).Model(&domain.Item{})
	if filter.Building != "" {
		query = query.Where("building = ?", filter.Building)
	}
	if filter.Date != "" {
		query = query.Where("date = ?", filter.Date)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.UploaderID != "" {
		query = query.Where("uploader_id = ?", filter.UploaderID)
	}

	limit := filter.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	var items []domain.Item
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&items).Error; err != nil {
		log.Printf("[ItemRepository] Database error listing items: %v", err)
		return nil, errors.New("database error listing items")
	}
	return items, nil
}

func (r *gormItemRepository) UpdateStatus(ctx context.Context, id string, status domain.ItemStatus) error {
	if status != domain.ItemAvailable && status != domain.ItemReturned {
		return fmt.Errorf("invalid status %q", status)
	}
	result := r.db.WithContext(ctx).Model(&domain.Item{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		log.Printf("[ItemRepository] Database error updating status for item %s: %v", id, result.Error)
		return errors.New("database error updating item")
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Delete soft-deletes the item. Its conversations stay readable to their
// participants but no longer accept messages.
func (r *gormItemRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Item{})
	if result.Error != nil {
		log.Printf("[ItemRepository] Database error deleting item %s: %v", id, result.Error)
		return errors.New("database error deleting item")
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	log.Printf("[ItemRepository] Item deleted: %s", id)
	return nil
}

func (r *gormItemRepository) CountByStatus(ctx context.Context) (*StatusCounts, error) {
	var rows []struct {
		Status domain.ItemStatus
		N      int64
	}
	err := r.db.WithContext(ctx).Model(&domain.Item{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		log.Printf("[ItemRepository] Database error counting items: %v", err)
		return nil, errors.New("database error counting items")
	}

	counts := &StatusCounts{}
	for _, row := range rows {
		counts.Total += row.N
		switch row.Status {
		case domain.ItemAvailable:
			counts.Available = row.N
		case domain.ItemReturned:
			counts.Returned = row.N
		}
	}
	return counts, nil
}

func (r *gormItemRepository) handleFindError(err error, item *domain.Item, operation string) (*domain.Item, error) {
	if err == nil {
		return item, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrItemNotFound
	}
	log.Printf("[ItemRepository] %s database error: %v", operation, err)
	return nil, errors.New("database query failed")
}
