package throttle

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/abuse-guard/internal/counter"
	"github.com/abuse-guard/internal/domain"
)

// Limit describes one route class: at most Limit requests per Window.
type Limit struct {
	Limit  int
	Window time.Duration
}

// Result is the outcome of a throttle check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds, populated on denial
}

// Service is a fixed-window request throttle over a counter store, keyed by
// (identifier, endpoint). The read-then-write on the window record is not
// compare-and-swapped: two racing requests can both pass near the limit,
// which overshoots by at most one. Exact counting is traded for read
// availability.
type Service struct {
	store counter.Store
	now   func() time.Time
}

// NewService creates a throttle over the given store.
func NewService(store counter.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// windowKey builds the durable record key for an (identifier, endpoint) pair.
func windowKey(identifier, endpoint string) string {
	return identifier + ":" + endpoint
}

// Check consults and advances the window for (identifier, endpoint).
//
// If the store is unreachable the request is allowed and the fault logged:
// availability of the protected service outranks strict throttling.
func (s *Service) Check(ctx context.Context, identifier, endpoint string, limit Limit) Result {
	now := s.now()
	key := windowKey(identifier, endpoint)
	retryAfter := int(math.Ceil(limit.Window.Seconds()))

	raw, err := s.store.Get(ctx, key)
	if err != nil && !errors.Is(err, counter.ErrNotFound) {
		return s.failOpen(identifier, endpoint, limit, now, err)
	}

	var w domain.RateWindow
	fresh := errors.Is(err, counter.ErrNotFound)
	if !fresh {
		if uerr := json.Unmarshal([]byte(raw), &w); uerr != nil || w.Stale(now, limit.Window) {
			fresh = true
		}
	}

	if fresh {
		w = domain.RateWindow{Count: 1, WindowStart: now.UnixMilli()}
		if err := s.write(ctx, key, w, limit.Window); err != nil {
			return s.failOpen(identifier, endpoint, limit, now, err)
		}
		return Result{
			Allowed:   true,
			Limit:     limit.Limit,
			Remaining: limit.Limit - 1,
			ResetAt:   w.ResetAt(limit.Window),
		}
	}

	if w.Count >= limit.Limit {
		return Result{
			Allowed:    false,
			Limit:      limit.Limit,
			Remaining:  0,
			ResetAt:    w.ResetAt(limit.Window),
			RetryAfter: retryAfter,
		}
	}

	w.Count++
	if err := s.write(ctx, key, w, limit.Window-now.Sub(w.StartedAt())); err != nil {
		return s.failOpen(identifier, endpoint, limit, now, err)
	}
	return Result{
		Allowed:   true,
		Limit:     limit.Limit,
		Remaining: limit.Limit - w.Count,
		ResetAt:   w.ResetAt(limit.Window),
	}
}

func (s *Service) write(ctx context.Context, key string, w domain.RateWindow, ttl time.Duration) error {
	raw, err := json.Marshal(w)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	return s.store.Set(ctx, key, string(raw), ttl)
}

func (s *Service) failOpen(identifier, endpoint string, limit Limit, now time.Time, err error) Result {
	slog.Warn("throttle store unavailable, failing open",
		"identifier", identifier,
		"endpoint", endpoint,
		"err", err,
	)
	return Result{
		Allowed:   true,
		Limit:     limit.Limit,
		Remaining: limit.Limit - 1,
		ResetAt:   now.Add(limit.Window),
	}
}
