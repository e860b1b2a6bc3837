// Package realtime is the in-process change feed. Conversations map to topics;
// message inserts, read-receipt updates and presence snapshots fan out to every
// subscriber of a topic.
package realtime

import (
	"errors"
	"log"
	"sync"

	"github.com/iyunix/go-lostfound/internal/domain"
)

type EventType string

const (
	EventMessageInserted EventType = "INSERT"
	EventMessageUpdated  EventType = "UPDATE"
	EventPresenceSync    EventType = "PRESENCE_SYNC"
)

// PresenceState is one participant's ephemeral state in a conversation.
type PresenceState struct {
	UserID string `json:"user_id"`
	Typing bool   `json:"typing"`
}

// Event is delivered to subscribers by value. Message points at data shared
// between subscribers and must not be mutated.
type Event struct {
	Type           EventType
	ConversationID string
	Message        *domain.Message
	Presence       []PresenceState
}

var (
	// ErrSlowConsumer closes a subscription whose buffer filled up.
	ErrSlowConsumer = errors.New("subscriber fell behind the feed")
	// ErrHubClosed closes every subscription on shutdown.
	ErrHubClosed = errors.New("feed closed")
)

const DefaultBuffer = 256

// Topic returns the feed topic for a conversation.
func Topic(conversationID string) string {
	return "conversation:" + conversationID
}

// Hub routes events to topic subscribers. Publish never blocks.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[uint64]*Subscription
	nextID uint64
	buffer int
	closed bool
	onDrop func(topic string)
}

type Option func(*Hub)

// WithDropHook registers a callback invoked when a slow subscriber is dropped.
func WithDropHook(fn func(topic string)) Option {
	return func(h *Hub) { h.onDrop = fn }
}

func NewHub(buffer int, opts ...Option) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	h := &Hub{
		topics: make(map[string]map[uint64]*Subscription),
		buffer: buffer,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a new subscriber on topic. Events published after
// Subscribe returns are delivered in publish order.
func (h *Hub) Subscribe(topic string) *Subscription {
	sub := &Subscription{
		hub:   h,
		topic: topic,
		ch:    make(chan Event, h.buffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		sub.err = ErrHubClosed
		close(sub.ch)
		sub.done = true
		return sub
	}
	h.nextID++
	sub.id = h.nextID
	subs := h.topics[topic]
	if subs == nil {
		subs = make(map[uint64]*Subscription)
		h.topics[topic] = subs
	}
	subs[sub.id] = sub
	return sub
}

// Publish delivers ev to every current subscriber of topic and returns how
// many received it. Subscribers with a full buffer are closed with
// ErrSlowConsumer instead of blocking the publisher.
func (h *Hub) Publish(topic string, ev Event) int {
	var overflowed []*Subscription
	delivered := 0

	h.mu.RLock()
	for _, sub := range h.topics[topic] {
		select {
		case sub.ch <- ev:
			delivered++
		default:
			overflowed = append(overflowed, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range overflowed {
		log.Printf("[Hub] Dropping slow subscriber on %s", topic)
		sub.terminate(ErrSlowConsumer)
		if h.onDrop != nil {
			h.onDrop(topic)
		}
	}
	return delivered
}

// Subscribers reports the number of live subscriptions on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Close terminates every subscription. Later Subscribe calls return a
// subscription that is already closed.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	var all []*Subscription
	for _, subs := range h.topics {
		for _, sub := range subs {
			all = append(all, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range all {
		sub.terminate(ErrHubClosed)
	}
}

// remove detaches sub and closes its channel. Holding the write lock
// guarantees no Publish is sending on the channel while it closes.
func (h *Hub) remove(sub *Subscription, reason error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub.done {
		return
	}
	if subs := h.topics[sub.topic]; subs != nil {
		delete(subs, sub.id)
		if len(subs) == 0 {
			delete(h.topics, sub.topic)
		}
	}
	sub.err = reason
	sub.done = true
	close(sub.ch)
}

// Subscription is one consumer's view of a topic.
type Subscription struct {
	hub   *Hub
	id    uint64
	topic string
	ch    chan Event

	// guarded by hub.mu
	done bool
	err  error
}

// Events is closed when the subscription ends; Err then reports why.
func (s *Subscription) Events() <-chan Event { return s.ch }

func (s *Subscription) Topic() string { return s.topic }

// Err returns nil while the subscription is open or after a voluntary Close.
func (s *Subscription) Err() error {
	s.hub.mu.RLock()
	defer s.hub.mu.RUnlock()
	return s.err
}

// Close unsubscribes. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s, nil)
}

func (s *Subscription) terminate(reason error) {
	s.hub.remove(s, reason)
}
