package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-lostfound/internal/domain"
	"github.com/iyunix/go-lostfound/internal/idempotency"
	"github.com/iyunix/go-lostfound/internal/realtime"
	"github.com/iyunix/go-lostfound/internal/repository/conversation"
	"github.com/iyunix/go-lostfound/internal/repository/item"
	"github.com/iyunix/go-lostfound/internal/repository/message"
	"github.com/iyunix/go-lostfound/internal/repository/testdb"
	"github.com/iyunix/go-lostfound/internal/repository/user"
)

type testLogger struct{ t testing.TB }

func (l testLogger) Info(msg string, kv ...interface{})  {}
func (l testLogger) Debug(msg string, kv ...interface{}) {}
func (l testLogger) Warn(msg string, kv ...interface{})  { l.t.Log(append([]interface{}{"WARN", msg}, kv...)...) }
func (l testLogger) Error(msg string, kv ...interface{}) { l.t.Log(append([]interface{}{"ERROR", msg}, kv...)...) }

type countingMetrics struct {
	mu       sync.Mutex
	sent     int
	rejected map[string]int
	resolved map[bool]int
	receipts int
	failures int
	sessions int
}

func (m *countingMetrics) MessageSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent++
}

func (m *countingMetrics) MessageRejected(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected[reason]++
}

func (m *countingMetrics) ConversationResolved(created bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolved[created]++
}

func (m *countingMetrics) ReceiptsPropagated(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receipts += n
}

func (m *countingMetrics) MarkReadFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

func (m *countingMetrics) SessionOpened() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions++
}

func (m *countingMetrics) SessionClosed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions--
}

func (m *countingMetrics) snapshot() (sent, receipts, sessions int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent, m.receipts, m.sessions
}

type fixture struct {
	svc           *Service
	hub           *realtime.Hub
	metrics       *countingMetrics
	conversations conversation.ConversationRepository
	messages      message.MessageRepository
	items         item.ItemRepository
	users         user.UserRepository

	finder  *domain.User
	claimer *domain.User
	item    *domain.Item
}

func newFixture(t *testing.T, mutate ...func(*Config)) *fixture {
	t.Helper()
	db := testdb.New(t)
	f := &fixture{
		hub:           realtime.NewHub(64),
		metrics:       &countingMetrics{rejected: map[string]int{}, resolved: map[bool]int{}},
		conversations: conversation.NewConversationRepository(db),
		messages:      message.NewMessageRepository(db),
		items:         item.NewItemRepository(db),
		users:         user.NewGormUserRepository(db),
	}
	t.Cleanup(f.hub.Close)

	cfg := DefaultConfig()
	cfg.TypingTimeout = 50 * time.Millisecond
	for _, m := range mutate {
		m(cfg)
	}

	svc, err := NewService(cfg, Dependencies{
		Conversations: f.conversations,
		Messages:      f.messages,
		Items:         f.items,
		Users:         f.users,
		Feed:          f.hub,
		Idempotency:   idempotency.NewMemoryStore(),
		Metrics:       f.metrics,
		Logger:        testLogger{t},
	})
	require.NoError(t, err)
	f.svc = svc

	ctx := context.Background()
	finderName := "Fiona Finder"
	f.finder, err = f.users.Create(ctx, &domain.User{Email: "finder@campus.edu", FullName: &finderName})
	require.NoError(t, err)
	f.claimer, err = f.users.Create(ctx, &domain.User{Email: "claimer@campus.edu"})
	require.NoError(t, err)
	f.item, err = f.items.Create(ctx, &domain.Item{
		UploaderID:  f.finder.ID,
		Building:    "Library",
		Classroom:   "2F reading room",
		Description: "Silver laptop in a grey sleeve",
		Category:    domain.CategoryElectronics,
		FoundDate:   "2024-03-18",
		FoundTime:   "16:20",
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) claim(t *testing.T) *domain.Conversation {
	t.Helper()
	conv, err := f.svc.ClaimItem(context.Background(), f.item.ID, f.claimer.ID)
	require.NoError(t, err)
	return conv
}

// recorder collects updates emitted by Session.Run.
type recorder struct {
	mu      sync.Mutex
	updates []Update
}

func (r *recorder) emit(u Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
	return nil
}

func (r *recorder) ofType(t UpdateType) []Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Update
	for _, u := range r.updates {
		if u.Type == t {
			out = append(out, u)
		}
	}
	return out
}

// run starts sess.Run in the background and stops it at test cleanup.
func run(t *testing.T, sess *Session) *recorder {
	t.Helper()
	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = sess.Run(ctx, rec.emit)
	}()
	t.Cleanup(func() {
		cancel()
		sess.Close()
		<-done
	})
	return rec
}
