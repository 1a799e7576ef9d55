package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abuse-guard/internal/counter"
	"github.com/redis/go-redis/v9"
)

// Store implements counter.Store on Redis. Redis owns all TTL bookkeeping,
// so expired keys simply read as redis.Nil.
type Store struct {
	client redis.UniversalClient
}

// New wraps the given Redis client as a counter.Store.
func New(client redis.UniversalClient) *Store {
	return &Store{client: client}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", counter.ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", counter.ErrUnavailable, err)
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", counter.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", counter.ErrUnavailable, err)
	}

	// Fixed-window semantics: the TTL is set only when the increment
	// created the key; later hits keep the original window.
	if n == 1 && ttl > 0 {
		if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", counter.ErrUnavailable, err)
		}
	}

	return n, nil
}

func (s *Store) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", counter.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", counter.ErrUnavailable, err)
	}
	// go-redis surfaces the protocol's special replies as raw durations:
	// -2 for a missing key, -1 for a key with no expiry.
	switch d {
	case -2:
		return 0, counter.ErrNotFound
	case -1:
		return 0, nil
	}
	return d, nil
}

// Ping verifies connectivity, used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", counter.ErrUnavailable, err)
	}
	return nil
}
