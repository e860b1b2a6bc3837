// File: internal/services/chat/types.go
package chat

import (
	"context"
	"time"

	"github.com/iyunix/go-lostfound/internal/domain"
	"github.com/iyunix/go-lostfound/internal/realtime"
)

// Logger defines the logging interface used across chat services
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Feed is the realtime change feed the chat publishes to and sessions read from.
type Feed interface {
	Subscribe(topic string) *realtime.Subscription
	Publish(topic string, ev realtime.Event) int
}

// IdempotencyStore remembers which message a client_key produced.
type IdempotencyStore interface {
	// Reserve claims key. It returns false if the key is already reserved or committed.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Get returns the committed message id, or "" while the key is still pending.
	Get(ctx context.Context, key string) (string, error)
	Commit(ctx context.Context, key, messageID string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

// Notifier forwards new messages to out-of-band consumers such as email or push.
type Notifier interface {
	MessageCreated(ctx context.Context, conversation *domain.Conversation, message *domain.Message) error
}

// Metrics receives chat counters. All methods must be cheap and non-blocking.
type Metrics interface {
	MessageSent()
	MessageRejected(reason string)
	ConversationResolved(created bool)
	ReceiptsPropagated(n int)
	MarkReadFailed()
	SessionOpened()
	SessionClosed()
}

type nopMetrics struct{}

func (nopMetrics) MessageSent() {}
func (nopMetrics) MessageRejected(string) {}
func (nopMetrics) ConversationResolved(bool) {}
func (nopMetrics) ReceiptsPropagated(int) {}
func (nopMetrics) MarkReadFailed() {}
func (nopMetrics) SessionOpened() {}
func (nopMetrics) SessionClosed() {}

type nopNotifier struct{}

func (nopNotifier) MessageCreated(context.Context, *domain.Conversation, *domain.Message) error {
	return nil
}
