package counter

import (
	"context"
	"errors"
	"time"
)

// Store is the shared keyed counter/flag store every service instance talks
// to. It is the sole point of coordination between instances: per-key TTL
// expiry is managed by the backend and is the only thing that "un-sets" a
// flag besides an explicit Del.
//
// Implementations must treat an expired key as absent.
type Store interface {
	// Get returns the value for key, or ErrNotFound if the key is absent
	// or expired.
	Get(ctx context.Context, key string) (string, error)
	// Set writes value under key with the given TTL, replacing any
	// previous value and TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Incr atomically increments the integer at key and returns the new
	// value. When the increment creates the key, ttl is applied; an
	// existing key keeps its remaining TTL.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	// Del removes the given keys. Missing keys are not an error.
	Del(ctx context.Context, keys ...string) error
	// TTL returns the remaining time to live for key, or ErrNotFound if
	// the key is absent or expired.
	TTL(ctx context.Context, key string) (time.Duration, error)
}

var (
	// ErrNotFound means the key is absent or its TTL has elapsed.
	ErrNotFound = errors.New("counter key not found")
	// ErrUnavailable means the backend could not be reached. Callers
	// decide whether to fail open (throttle) or closed (OTP flows).
	ErrUnavailable = errors.New("counter store unavailable")
)
