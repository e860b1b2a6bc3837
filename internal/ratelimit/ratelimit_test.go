package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func newTestLimiter(cfg *Config) (*MemoryRateLimiter, *time.Time) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewMemoryRateLimiter(cfg)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestMessageLimitWaitsOutWindow(t *testing.T) {
	rl, now := newTestLimiter(MessageConfig(3))
	defer rl.Close()

	for i := 0; i < 3; i++ {
		ok, info := rl.Allow("user-1")
		assert.True(t, ok)
		assert.Equal(t, 2-i, info.Remaining)
	}
	ok, info := rl.Allow("user-1")
	assert.False(t, ok)
	assert.False(t, info.Banned)
	assert.Equal(t, time.Minute, info.RetryAfter)

	ok, _ = rl.Allow("user-2")
	assert.True(t, ok, "limits are per identifier")

	*now = now.Add(time.Minute)
	ok, _ = rl.Allow("user-1")
	assert.True(t, ok)
}

func TestAuthLimitBans(t *testing.T) {
	cfg := DefaultAuthConfig()
	rl, now := newTestLimiter(cfg)
	defer rl.Close()

	for i := 0; i < cfg.MaxAttempts; i++ {
		ok, _ := rl.Allow("1.2.3.4")
		assert.True(t, ok)
	}
	ok, info := rl.Allow("1.2.3.4")
	assert.False(t, ok)
	assert.True(t, info.Banned)

	*now = now.Add(cfg.WindowSize)
	ok, _ = rl.Allow("1.2.3.4")
	assert.False(t, ok, "ban outlasts the window")

	*now = now.Add(cfg.BanDuration)
	ok, _ = rl.Allow("1.2.3.4")
	assert.True(t, ok)

	rl.RecordSuccess("1.2.3.4")
	_, info = rl.Allow("1.2.3.4")
	assert.Equal(t, cfg.MaxAttempts-1, info.Remaining)
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", GetClientIP(r))

	r.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", GetClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.3")
	assert.Equal(t, "203.0.113.9", GetClientIP(r))
}

func TestRedisRateLimiterKeys(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	rl := NewRedisRateLimiter(client, "auth", DefaultAuthConfig())
	assert.Equal(t, "rl:auth:user:42", rl.key("user:42"))
	assert.Equal(t, "rl:send:ip:10.0.0.1", NewRedisRateLimiter(client, "send", MessageConfig(5)).key("ip:10.0.0.1"))
}

func TestRedisRateLimiterFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer client.Close()

	rl := NewRedisRateLimiter(client, "send", MessageConfig(1))
	for i := 0; i < 3; i++ {
		allowed, info := rl.Allow("user:42")
		assert.True(t, allowed)
		assert.Equal(t, 1, info.Limit)
	}
}
