package idempotency

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	ok, err := s.Reserve(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Reserve(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second reserve must fail while pending")

	id, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, id, "pending keys have no message yet")

	require.NoError(t, s.Commit(ctx, "k", "msg-1", time.Minute))
	id, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
}

func TestMemoryStoreReleaseAllowsRetry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Reserve(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.NoError(t, s.Release(ctx, "k"))

	ok, err := s.Reserve(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Commit(ctx, "k", "msg-1", time.Minute))
	now = now.Add(2 * time.Minute)

	id, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, id)

	ok, err := s.Reserve(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStoreCleanupDropsExpiredKeys(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	defer s.Close()
	s.now = func() time.Time { return now }

	for i := 0; i < 1000; i++ {
		key := fmt.Sprintf("send:conv:user:%d", i)
		_, err := s.Reserve(ctx, key, time.Millisecond)
		require.NoError(t, err)
		require.NoError(t, s.Commit(ctx, key, fmt.Sprintf("msg-%d", i), time.Millisecond))
	}
	_, err := s.Reserve(ctx, "still-fresh", time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1001, s.Len())

	now = now.Add(time.Second)
	s.cleanup()
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStoreBackgroundSweep(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStoreWithCleanup(5 * time.Millisecond)
	defer s.Close()

	for i := 0; i < 100; i++ {
		require.NoError(t, s.Commit(ctx, fmt.Sprintf("k%d", i), "msg", time.Millisecond))
	}
	require.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)

	s.Close()
	s.Close()
}
