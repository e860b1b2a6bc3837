package admin_services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-lostfound/internal/domain"
	"github.com/iyunix/go-lostfound/internal/repository/item"
	"github.com/iyunix/go-lostfound/internal/repository/testdb"
	"github.com/iyunix/go-lostfound/internal/repository/user"
	"github.com/iyunix/go-lostfound/internal/services"
)

func TestAdminService(t *testing.T) {
	db := testdb.New(t)
	users := user.NewGormUserRepository(db)
	items := item.NewItemRepository(db)
	itemSvc := services.NewItemService(items, nil, &services.NoOpLogger{})
	svc := NewAdminService(users, items, itemSvc)
	ctx := context.Background()

	name := "Fiona Finder"
	finder, err := users.Create(ctx, &domain.User{Email: "finder@campus.edu", FullName: &name})
	require.NoError(t, err)
	_, err = users.Create(ctx, &domain.User{Email: "other@campus.edu"})
	require.NoError(t, err)

	input := services.ItemInput{
		Building: "Gym", Classroom: "Locker room", Description: "Black umbrella, folding",
		Category: domain.CategoryOther, Date: "2024-05-01", Time: "18:00",
	}
	first, err := itemSvc.Report(ctx, finder.ID, input, nil)
	require.NoError(t, err)
	second, err := itemSvc.Report(ctx, finder.ID, input, nil)
	require.NoError(t, err)
	_, err = itemSvc.MarkReturned(ctx, second.ID, services.Actor{UserID: finder.ID})
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{TotalUsers: 2, TotalItems: 2, AvailableItems: 1, ReturnedItems: 1}, *stats)

	rows, err := svc.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Fiona Finder", *rows[0].Uploader.FullName)

	page, err := svc.ListUsers(ctx, 0, 1, "")
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Len(t, page.Users, 1)
	assert.Equal(t, 2, page.TotalPages)

	require.NoError(t, svc.DeleteItem(ctx, "admin-id", first.ID))
	stats, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TotalItems)
}
