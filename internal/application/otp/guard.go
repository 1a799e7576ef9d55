package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abuse-guard/internal/counter"
	"github.com/abuse-guard/internal/domain"
)

// Guard inspects the live restriction flags for an email and reports the
// highest-priority one. States are implicit in the flags; nothing is
// persisted by the guard and TTL expiry is the only unlock path.
type Guard struct {
	store counter.Store
}

// NewGuard creates a guard over the given store.
func NewGuard(store counter.Store) *Guard {
	return &Guard{store: store}
}

// Check returns the first matching restriction in priority order:
// account lock, spam lock, cooldown. A store fault is surfaced as
// domain.ErrStoreUnavailable — the caller must fail closed.
func (g *Guard) Check(ctx context.Context, email string) (domain.RestrictionKind, error) {
	checks := []struct {
		key  string
		kind domain.RestrictionKind
	}{
		{lockKey(email), domain.RestrictionAccountLocked},
		{spamLockKey(email), domain.RestrictionSpamLocked},
		{cooldownKey(email), domain.RestrictionCooldown},
	}

	for _, c := range checks {
		_, err := g.store.Get(ctx, c.key)
		if err == nil {
			return c.kind, nil
		}
		if errors.Is(err, counter.ErrNotFound) {
			continue
		}
		return domain.RestrictionNone, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	return domain.RestrictionNone, nil
}

// RemainingTTL reports how long the given restriction has left, for callers
// that want to render a precise wait hint. Zero when the flag is gone.
func (g *Guard) RemainingTTL(ctx context.Context, email string, kind domain.RestrictionKind) time.Duration {
	var key string
	switch kind {
	case domain.RestrictionAccountLocked:
		key = lockKey(email)
	case domain.RestrictionSpamLocked:
		key = spamLockKey(email)
	case domain.RestrictionCooldown:
		key = cooldownKey(email)
	default:
		return 0
	}
	d, err := g.store.TTL(ctx, key)
	if err != nil {
		return 0
	}
	return d
}
