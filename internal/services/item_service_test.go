package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-lostfound/internal/domain"
	"github.com/iyunix/go-lostfound/internal/repository/item"
	"github.com/iyunix/go-lostfound/internal/repository/testdb"
)

type fakeImages struct {
	stored  []string
	removed []string
}

func (f *fakeImages) PutImage(_ context.Context, ownerID string, _ []byte) (string, error) {
	url := "https://cdn.test/" + ownerID + "/photo.jpg"
	f.stored = append(f.stored, url)
	return url, nil
}

func (f *fakeImages) RemoveImage(_ context.Context, url string) error {
	f.removed = append(f.removed, url)
	return nil
}

var validInput = ItemInput{
	Building:    " Science Hall ",
	Classroom:   "B204",
	Description: "Blue water bottle with stickers",
	Category:    domain.CategoryOther,
	Date:        "2024-04-02",
	Time:        "09:15",
}

func newItemService(t *testing.T, images ImageStore) *ItemService {
	t.Helper()
	return NewItemService(item.NewItemRepository(testdb.New(t)), images, &NoOpLogger{})
}

func TestReportValidates(t *testing.T) {
	svc := newItemService(t, nil)
	ctx := context.Background()

	bad := validInput
	bad.Description = "  short  "
	_, err := svc.Report(ctx, "finder", bad, nil)
	var verr *ItemValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Description must be at least 10 characters", verr.Message)

	bad = validInput
	bad.Category = "pets"
	_, err = svc.Report(ctx, "finder", bad, nil)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Please select a valid category", verr.Message)

	_, err = svc.Report(ctx, "finder", validInput, []byte("jpeg"))
	assert.ErrorIs(t, err, ErrImageDisabled)

	it, err := svc.Report(ctx, "finder", validInput, nil)
	require.NoError(t, err)
	assert.Equal(t, "Science Hall", it.Building)
	assert.Equal(t, domain.ItemAvailable, it.Status)
}

func TestItemLifecycle(t *testing.T) {
	images := &fakeImages{}
	svc := newItemService(t, images)
	ctx := context.Background()

	it, err := svc.Report(ctx, "finder", validInput, []byte("jpeg"))
	require.NoError(t, err)
	require.NotNil(t, it.ImageURL)

	browse, err := svc.Browse(ctx, item.Filter{Building: "Science Hall"})
	require.NoError(t, err)
	assert.Len(t, browse, 1)

	_, err = svc.MarkReturned(ctx, it.ID, Actor{UserID: "stranger"})
	assert.ErrorIs(t, err, ErrNotItemOwner)

	returned, err := svc.MarkReturned(ctx, it.ID, Actor{UserID: "finder"})
	require.NoError(t, err)
	assert.Equal(t, domain.ItemReturned, returned.Status)

	browse, err = svc.Browse(ctx, item.Filter{})
	require.NoError(t, err)
	assert.Empty(t, browse)
	done, err := svc.Returned(ctx)
	require.NoError(t, err)
	assert.Len(t, done, 1)

	require.NoError(t, svc.Delete(ctx, it.ID, Actor{UserID: "moderator", IsAdmin: true}))
	assert.Equal(t, []string{*it.ImageURL}, images.removed)

	_, err = svc.Get(ctx, it.ID)
	assert.ErrorIs(t, err, ErrItemNotFound)
	mine, err := svc.Mine(ctx, "finder")
	require.NoError(t, err)
	assert.Empty(t, mine)
}
