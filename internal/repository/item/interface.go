package item

import (
	"context"

	"github.com/iyunix/go-lostfound/internal/domain"
)

// Filter narrows item listings. Zero values match everything.
type Filter struct {
	Building   string
	Date       string
	Status     domain.ItemStatus
	UploaderID string
	Limit      int
}

// StatusCounts backs the admin dashboard tiles.
type StatusCounts struct {
	Total     int64 `json:"total_items"`
	Available int64 `json:"available_items"`
	Returned  int64 `json:"returned_items"`
}

type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) (*domain.Item, error)
	FindByID(ctx context.Context, id string) (*domain.Item, error)
	// FindByIDUnscoped also returns soft-deleted items.
	FindByIDUnscoped(ctx context.Context, id string) (*domain.Item, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Item, error)
	List(ctx context.Context, filter Filter) ([]domain.Item, error)
	UpdateStatus(ctx context.Context, id string, status domain.ItemStatus) error
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (*StatusCounts, error)
}
