package chat

import (
	"sync"
	"time"
)

// TypingDebouncer turns a stream of keystrokes into typing on/off signals.
// The first keystroke publishes true; the signal drops back to false after
// timeout without keystrokes, or immediately on Flush. Each keystroke cancels
// and re-arms the timer; a generation counter discards firings of timers that
// were superseded while already running.
type TypingDebouncer struct {
	mu      sync.Mutex
	timeout time.Duration
	publish func(typing bool)
	timer   *time.Timer
	typing  bool
	gen     uint64
	closed  bool
}

func NewTypingDebouncer(timeout time.Duration, publish func(typing bool)) *TypingDebouncer {
	return &TypingDebouncer{timeout: timeout, publish: publish}
}

func (d *TypingDebouncer) Keystroke() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if !d.typing {
		d.typing = true
		d.publish(true)
	}
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.timeout, func() { d.expire(gen) })
}

// Flush cancels any pending reset and publishes false right away. Used when
// a message is sent.
func (d *TypingDebouncer) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.disarmLocked()
	d.typing = false
	d.publish(false)
}

// Close disarms the timer and, if typing is still on, publishes a final
// false. Nothing is published afterwards.
func (d *TypingDebouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.disarmLocked()
	if d.typing {
		d.typing = false
		d.publish(false)
	}
}

func (d *TypingDebouncer) Typing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.typing
}

func (d *TypingDebouncer) expire(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || gen != d.gen || !d.typing {
		return
	}
	d.timer = nil
	d.typing = false
	d.publish(false)
}

func (d *TypingDebouncer) disarmLocked() {
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
