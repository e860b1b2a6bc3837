package realtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-lostfound/internal/domain"
)

func insert(id string) Event {
	return Event{Type: EventMessageInserted, ConversationID: "c1", Message: &domain.Message{ID: id}}
}

func TestHubDeliversInOrderToAllSubscribers(t *testing.T) {
	h := NewHub(8)
	a := h.Subscribe(Topic("c1"))
	b := h.Subscribe(Topic("c1"))
	other := h.Subscribe(Topic("c2"))

	assert.Equal(t, 2, h.Publish(Topic("c1"), insert("m1")))
	assert.Equal(t, 2, h.Publish(Topic("c1"), insert("m2")))

	for _, sub := range []*Subscription{a, b} {
		assert.Equal(t, "m1", (<-sub.Events()).Message.ID)
		assert.Equal(t, "m2", (<-sub.Events()).Message.ID)
	}
	assert.Len(t, other.Events(), 0)
}

func TestHubCloseUnsubscribes(t *testing.T) {
	h := NewHub(4)
	sub := h.Subscribe(Topic("c1"))
	require.Equal(t, 1, h.Subscribers(Topic("c1")))

	sub.Close()
	sub.Close()

	_, open := <-sub.Events()
	assert.False(t, open)
	assert.NoError(t, sub.Err())
	assert.Equal(t, 0, h.Subscribers(Topic("c1")))
	assert.Equal(t, 0, h.Publish(Topic("c1"), insert("m1")))
}

func TestHubDropsSlowConsumer(t *testing.T) {
	var dropped []string
	h := NewHub(2, WithDropHook(func(topic string) { dropped = append(dropped, topic) }))
	slow := h.Subscribe(Topic("c1"))
	fast := h.Subscribe(Topic("c1"))

	for i := 0; i < 3; i++ {
		h.Publish(Topic("c1"), insert("m"))
		<-fast.Events()
	}

	// Buffered events are still readable before the close is observed.
	n := 0
	for range slow.Events() {
		n++
	}
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, slow.Err(), ErrSlowConsumer)
	assert.Equal(t, []string{Topic("c1")}, dropped)
	assert.Equal(t, 1, h.Subscribers(Topic("c1")))
}

func TestHubShutdown(t *testing.T) {
	h := NewHub(2)
	sub := h.Subscribe(Topic("c1"))
	h.Close()

	_, open := <-sub.Events()
	assert.False(t, open)
	assert.ErrorIs(t, sub.Err(), ErrHubClosed)

	late := h.Subscribe(Topic("c1"))
	_, open = <-late.Events()
	assert.False(t, open)
	assert.ErrorIs(t, late.Err(), ErrHubClosed)
}

func TestHubConcurrentPublishAndClose(t *testing.T) {
	h := NewHub(1024)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := h.Subscribe(Topic("c1"))
			for j := 0; j < 50; j++ {
				h.Publish(Topic("c1"), insert("m"))
			}
			sub.Close()
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, h.Subscribers(Topic("c1")))
}
