package ratelimit

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter is a fixed-window limiter shared by every server
// instance. Bans are not supported; a blocked caller waits out the window.
type RedisRateLimiter struct {
	client  *redis.Client
	prefix  string
	config  *Config
	timeout time.Duration
}

// NewRedisRateLimiter keys counters as "rl:<name>:<identifier>".
func NewRedisRateLimiter(client *redis.Client, name string, config *Config) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, prefix: "rl:" + name + ":", config: config, timeout: time.Second}
}

func (rl *RedisRateLimiter) key(identifier string) string {
	return rl.prefix + identifier
}

func (rl *RedisRateLimiter) Allow(identifier string) (bool, *RateLimitInfo) {
	ctx, cancel := context.WithTimeout(context.Background(), rl.timeout)
	defer cancel()

	// SET NX EX opens the window; INCR never touches the expiry.
	key := rl.key(identifier)
	pipe := rl.client.TxPipeline()
	pipe.SetNX(ctx, key, 0, rl.config.WindowSize)
	incr := pipe.Incr(ctx, key)
	ttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		// Fail open.
		log.Printf("[RateLimit] redis unavailable, allowing %s: %v", identifier, err)
		return true, &RateLimitInfo{Allowed: true, Limit: rl.config.MaxAttempts, Remaining: rl.config.MaxAttempts}
	}

	wait := ttl.Val()
	if wait < 0 {
		wait = rl.config.WindowSize
	}
	count := int(incr.Val())
	info := &RateLimitInfo{
		Limit:     rl.config.MaxAttempts,
		ResetTime: time.Now().Add(wait),
	}
	if count > rl.config.MaxAttempts {
		info.RetryAfter = wait
		return false, info
	}
	info.Allowed = true
	info.Remaining = rl.config.MaxAttempts - count
	return true, info
}

func (rl *RedisRateLimiter) RecordSuccess(identifier string) {
	ctx, cancel := context.WithTimeout(context.Background(), rl.timeout)
	defer cancel()
	if err := rl.client.Del(ctx, rl.key(identifier)).Err(); err != nil {
		log.Printf("[RateLimit] failed to reset %s: %v", identifier, err)
	}
}
