package chat

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signals struct {
	mu  sync.Mutex
	got []bool
}

func (s *signals) publish(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, v)
}

func (s *signals) values() []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.got...)
}

func TestTypingDebouncerPublishesOnceThenExpires(t *testing.T) {
	var s signals
	d := NewTypingDebouncer(40*time.Millisecond, s.publish)

	for i := 0; i < 5; i++ {
		d.Keystroke()
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, []bool{true}, s.values())
	assert.True(t, d.Typing())

	require.Eventually(t, func() bool { return len(s.values()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []bool{true, false}, s.values())
	assert.False(t, d.Typing())
}

func TestTypingDebouncerFlush(t *testing.T) {
	var s signals
	d := NewTypingDebouncer(30*time.Millisecond, s.publish)

	d.Keystroke()
	d.Flush()
	assert.Equal(t, []bool{true, false}, s.values())

	// The disarmed timer never fires a second false.
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, []bool{true, false}, s.values())
}

func TestTypingDebouncerClose(t *testing.T) {
	var s signals
	d := NewTypingDebouncer(20*time.Millisecond, s.publish)

	d.Keystroke()
	d.Close()
	d.Close()
	d.Keystroke()
	d.Flush()
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, []bool{true, false}, s.values())
	assert.False(t, d.Typing())
}

func TestTypingDebouncerCloseWhileIdle(t *testing.T) {
	var s signals
	d := NewTypingDebouncer(20*time.Millisecond, s.publish)

	d.Keystroke()
	require.Eventually(t, func() bool { return len(s.values()) == 2 }, time.Second, 5*time.Millisecond)
	d.Close()

	assert.Equal(t, []bool{true, false}, s.values())
}
