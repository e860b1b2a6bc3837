// File: internal/services/admin_services/admin_service.go
package admin_services

import (
	"context"
	"fmt"

	"github.com/iyunix/go-lostfound/internal/domain"
	"github.com/iyunix/go-lostfound/internal/repository/item"
	"github.com/iyunix/go-lostfound/internal/repository/user"
	"github.com/iyunix/go-lostfound/internal/services"
)

// Stats backs the moderation dashboard tiles.
type Stats struct {
	TotalUsers     int64 `json:"total_users"`
	TotalItems     int64 `json:"total_items"`
	AvailableItems int64 `json:"available_items"`
	ReturnedItems  int64 `json:"returned_items"`
}

// ItemWithUploader is one row of the moderation item table.
type ItemWithUploader struct {
	domain.Item
	Uploader domain.Profile `json:"uploader"`
}

// UserPage is one page of the moderation user table.
type UserPage struct {
	Users      []domain.User `json:"users"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"total_pages"`
}

// AdminService provides functionalities for administrative tasks.
type AdminService struct {
	userRepo user.UserRepository
	itemRepo item.ItemRepository
	items    *services.ItemService
}

func NewAdminService(userRepo user.UserRepository, itemRepo item.ItemRepository, items *services.ItemService) *AdminService {
	return &AdminService{userRepo: userRepo, itemRepo: itemRepo, items: items}
}

func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	users, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	counts, err := s.itemRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}
	return &Stats{
		TotalUsers:     users,
		TotalItems:     counts.Total,
		AvailableItems: counts.Available,
		ReturnedItems:  counts.Returned,
	}, nil
}

// ListItems returns every live item, any status, with its finder's profile.
func (s *AdminService) ListItems(ctx context.Context) ([]ItemWithUploader, error) {
	items, err := s.itemRepo.List(ctx, item.Filter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.UploaderID)
	}
	uploaders, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load uploaders: %w", err)
	}

	out := make([]ItemWithUploader, 0, len(items))
	for _, it := range items {
		row := ItemWithUploader{Item: it, Uploader: domain.Profile{ID: it.UploaderID}}
		if u, ok := uploaders[it.UploaderID]; ok {
			row.Uploader = u.Profile()
		}
		out = append(out, row)
	}
	return out, nil
}

// ListUsers pages through profiles, optionally filtered by email or name.
func (s *AdminService) ListUsers(ctx context.Context, page, limit int, search string) (*UserPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	users, total, err := s.userRepo.FindAllWithPaginationAndSearch(ctx, page, limit, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return &UserPage{
		Users:      users,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

// DeleteItem removes any item on behalf of adminID.
func (s *AdminService) DeleteItem(ctx context.Context, adminID, itemID string) error {
	return s.items.Delete(ctx, itemID, services.Actor{UserID: adminID, IsAdmin: true})
}

// AllUsers returns every profile, for export.
func (s *AdminService) AllUsers(ctx context.Context) ([]domain.User, error) {
	users, _, err := s.userRepo.FindAllWithPaginationAndSearch(ctx, 1, 0, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
