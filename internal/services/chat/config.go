// File: internal/services/chat/config.go
package chat

import (
	"fmt"
	"time"
)

type Config struct {
	// Quiet period after the last keystroke before typing resets to false.
	TypingTimeout time.Duration
	// Maximum message length in characters, counted after trimming.
	MaxMessageLength int
	// How long a client_key remembers the message it produced.
	IdempotencyTTL time.Duration
	// Upper bound for store calls made outside a request, such as mark-read
	// triggered by a live event.
	BackgroundTimeout time.Duration
}

func (c *Config) Validate() error {
	if c.TypingTimeout <= 0 {
		return fmt.Errorf("typing_timeout must be positive")
	}
	if c.MaxMessageLength <= 0 {
		return fmt.Errorf("max_message_length must be positive")
	}
	if c.IdempotencyTTL <= 0 {
		return fmt.Errorf("idempotency_ttl must be positive")
	}
	if c.BackgroundTimeout <= 0 {
		return fmt.Errorf("background_timeout must be positive")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		TypingTimeout:     1000 * time.Millisecond,
		MaxMessageLength:  1000,
		IdempotencyTTL:    10 * time.Minute,
		BackgroundTimeout: 5 * time.Second,
	}
}
