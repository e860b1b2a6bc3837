package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares keys between instances through Redis SETNX.
type RedisStore struct {
	r *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{r: client}
}

// NewRedisClient parses a redis:// URL and checks the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (s *RedisStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.r.SetNX(ctx, keyPrefix+key, pendingValue, ttl).Result()
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.r.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if value == pendingValue {
		return "", nil
	}
	return value, nil
}

func (s *RedisStore) Commit(ctx context.Context, key, messageID string, ttl time.Duration) error {
	return s.r.Set(ctx, keyPrefix+key, messageID, ttl).Err()
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.r.Del(ctx, keyPrefix+key).Err()
}
