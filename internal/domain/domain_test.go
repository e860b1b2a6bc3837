package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validItem() *Item {
	return &Item{
		Building:    "  Science Hall ",
		Classroom:   "B204",
		Description: "Black umbrella with a wooden handle",
		Category:    CategoryAccessories,
		FoundDate:   "2024-03-18",
		FoundTime:   "14:05",
	}
}

func TestItemValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Item)
		wantErr string
	}{
		{"valid", func(*Item) {}, ""},
		{"blank building", func(i *Item) { i.Building = "   " }, "Building is required"},
		{"long classroom", func(i *Item) { i.Classroom = strings.Repeat("x", 51) }, "Classroom name too long"},
		{"short description", func(i *Item) { i.Description = "  too short" }, "Description must be at least 10 characters"},
		{"unknown category", func(i *Item) { i.Category = "pets" }, "Please select a valid category"},
		{"bad date", func(i *Item) { i.FoundDate = "18/03/2024" }, "Invalid date format"},
		{"bad time", func(i *Item) { i.FoundTime = "2pm" }, "Invalid time format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := validItem()
			tt.mutate(item)
			item.Normalize()
			err := item.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestItemNormalizeTrims(t *testing.T) {
	item := validItem()
	item.Normalize()
	assert.Equal(t, "Science Hall", item.Building)
}

func TestConversationParticipants(t *testing.T) {
	c := &Conversation{ClaimerID: "a", UploaderID: "b"}
	assert.True(t, c.HasParticipant("a"))
	assert.True(t, c.HasParticipant("b"))
	assert.False(t, c.HasParticipant("c"))
	assert.False(t, c.HasParticipant(""))
	assert.Equal(t, "b", c.Counterpart("a"))
	assert.Equal(t, "a", c.Counterpart("b"))
}

func TestMessageMergeReadIsMonotonic(t *testing.T) {
	at := time.Date(2024, 3, 18, 10, 0, 0, 0, time.UTC)
	m := &Message{ID: "m1"}

	m.MergeRead(&Message{ID: "m1", Read: true, ReadAt: &at})
	require.True(t, m.Read)
	require.NotNil(t, m.ReadAt)

	m.MergeRead(&Message{ID: "m1", Read: false})
	assert.True(t, m.Read)
	assert.Equal(t, at, *m.ReadAt)
}

func TestMessageOrdering(t *testing.T) {
	now := time.Now()
	a := &Message{ID: "a", CreatedAt: now}
	b := &Message{ID: "b", CreatedAt: now}
	c := &Message{ID: "0", CreatedAt: now.Add(time.Millisecond)}
	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
	assert.True(t, b.Before(c))
}

func TestUserProfileHidesPassword(t *testing.T) {
	name := "Ada"
	u := &User{ID: "u1", Email: "ada@campus.edu", FullName: &name}
	require.NoError(t, u.HashPassword("secret1"))
	require.NoError(t, u.ValidatePassword("secret1"))
	assert.Error(t, u.ValidatePassword("nope"))
	assert.Equal(t, Profile{ID: "u1", FullName: &name, Email: "ada@campus.edu"}, u.Profile())
	assert.EqualError(t, (&User{}).HashPassword("123"), "password must be at least 6 characters")
}
