// File: internal/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Config holds rate limiting configuration
type Config struct {
	WindowSize    time.Duration // Time window for rate limiting
	MaxAttempts   int           // Maximum attempts per window
	CleanupPeriod time.Duration // How often to clean up old entries
	BanDuration   time.Duration // Lockout after exceeding the limit; zero means wait for the window
}

// DefaultAuthConfig returns sensible defaults for auth endpoints
func DefaultAuthConfig() *Config {
	return &Config{
		WindowSize:    15 * time.Minute,
		MaxAttempts:   5,
		CleanupPeriod: 30 * time.Minute,
		BanDuration:   30 * time.Minute,
	}
}

// MessageConfig allows perMinute chat sends per user with no lockout.
func MessageConfig(perMinute int) *Config {
	if perMinute <= 0 {
		perMinute = 30
	}
	return &Config{
		WindowSize:    time.Minute,
		MaxAttempts:   perMinute,
		CleanupPeriod: 5 * time.Minute,
	}
}

// Limiter decides whether identifier may act now.
type Limiter interface {
	Allow(identifier string) (bool, *RateLimitInfo)
	RecordSuccess(identifier string)
}

// RateLimitInfo contains information about rate limit status
type RateLimitInfo struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
	Banned     bool
}

// attemptRecord tracks attempts for an IP/identifier
type attemptRecord struct {
	Count     int
	FirstSeen time.Time
	BannedAt  *time.Time
}

// MemoryRateLimiter implements in-memory fixed-window rate limiting
type MemoryRateLimiter struct {
	config   *Config
	attempts map[string]*attemptRecord
	mu       sync.Mutex
	stopCh   chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

func NewMemoryRateLimiter(config *Config) *MemoryRateLimiter {
	limiter := &MemoryRateLimiter{
		config:   config,
		attempts: make(map[string]*attemptRecord),
		stopCh:   make(chan struct{}),
		now:      time.Now,
	}
	go limiter.cleanupLoop()
	return limiter
}

// Allow checks if a request should be allowed
func (rl *MemoryRateLimiter) Allow(identifier string) (bool, *RateLimitInfo) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	max := rl.config.MaxAttempts
	record, exists := rl.attempts[identifier]

	if exists && record.BannedAt != nil {
		if elapsed := now.Sub(*record.BannedAt); elapsed < rl.config.BanDuration {
			return false, &RateLimitInfo{
				Limit:      max,
				ResetTime:  record.BannedAt.Add(rl.config.BanDuration),
				RetryAfter: rl.config.BanDuration - elapsed,
				Banned:     true,
			}
		}
		exists = false
	}

	if !exists || now.Sub(record.FirstSeen) >= rl.config.WindowSize {
		record = &attemptRecord{Count: 1, FirstSeen: now}
		rl.attempts[identifier] = record
		return true, &RateLimitInfo{
			Allowed:   true,
			Limit:     max,
			Remaining: max - 1,
			ResetTime: now.Add(rl.config.WindowSize),
		}
	}

	record.Count++
	reset := record.FirstSeen.Add(rl.config.WindowSize)
	if record.Count > max {
		if rl.config.BanDuration > 0 {
			banTime := now
			record.BannedAt = &banTime
			return false, &RateLimitInfo{
				Limit:      max,
				ResetTime:  now.Add(rl.config.BanDuration),
				RetryAfter: rl.config.BanDuration,
				Banned:     true,
			}
		}
		return false, &RateLimitInfo{
			Limit:      max,
			ResetTime:  reset,
			RetryAfter: reset.Sub(now),
		}
	}

	return true, &RateLimitInfo{
		Allowed:   true,
		Limit:     max,
		Remaining: max - record.Count,
		ResetTime: reset,
	}
}

// RecordSuccess records a successful authentication (resets attempts)
func (rl *MemoryRateLimiter) RecordSuccess(identifier string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.attempts, identifier)
}

func (rl *MemoryRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup removes expired records
func (rl *MemoryRateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for identifier, record := range rl.attempts {
		windowExpired := now.Sub(record.FirstSeen) > rl.config.WindowSize
		banExpired := record.BannedAt != nil && now.Sub(*record.BannedAt) > rl.config.BanDuration
		if (windowExpired && record.BannedAt == nil) || banExpired {
			delete(rl.attempts, identifier)
		}
	}
}

// Close stops the cleanup goroutine
func (rl *MemoryRateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// GetClientIP extracts the real client IP from request
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if ip := strings.TrimSpace(strings.Split(forwarded, ",")[0]); ip != "" {
			return ip
		}
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
