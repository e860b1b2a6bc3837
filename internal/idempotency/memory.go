package idempotency

import (
	"context"
	"sync"
	"time"
)

// DefaultCleanupPeriod is how often NewMemoryStore sweeps expired keys.
const DefaultCleanupPeriod = time.Minute

// MemoryStore keeps keys in process memory. Suitable for a single instance
// and for tests. A background sweep drops expired keys; Close stops it.
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[string]memoryEntry
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

type memoryEntry struct {
	value   string
	expires time.Time
}

func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithCleanup(DefaultCleanupPeriod)
}

func NewMemoryStoreWithCleanup(period time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	go s.cleanupLoop(period)
	return s
}

func (s *MemoryStore) Reserve(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.liveLocked(key); ok {
		return false, nil
	}
	s.entries[keyPrefix+key] = memoryEntry{value: pendingValue, expires: s.now().Add(ttl)}
	return true, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.liveLocked(key)
	if !ok || entry.value == pendingValue {
		return "", nil
	}
	return entry.value, nil
}

func (s *MemoryStore) Commit(_ context.Context, key, messageID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[keyPrefix+key] = memoryEntry{value: messageID, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, keyPrefix+key)
	return nil
}

// liveLocked returns the entry for key, evicting it if expired.
func (s *MemoryStore) liveLocked(key string) (memoryEntry, bool) {
	entry, ok := s.entries[keyPrefix+key]
	if !ok {
		return memoryEntry{}, false
	}
	if !s.now().Before(entry.expires) {
		delete(s.entries, keyPrefix+key)
		return memoryEntry{}, false
	}
	return entry, true
}

// Len reports how many keys are held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) cleanupLoop(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup removes expired entries
func (s *MemoryStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, entry := range s.entries {
		if !now.Before(entry.expires) {
			delete(s.entries, key)
		}
	}
}

// Close stops the cleanup goroutine
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}
