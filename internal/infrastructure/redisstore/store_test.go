package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/abuse-guard/internal/counter"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client), mr
}

func TestStore_GetMissing(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, counter.ErrNotFound)
}

func TestStore_SetGet(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))

	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestStore_SetExpires(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))
	mr.FastForward(61 * time.Second)

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, counter.ErrNotFound)
}

func TestStore_IncrSetsTTLOnCreateOnly(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	n, err := s.Incr(ctx, "c", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	mr.FastForward(30 * time.Second)
	n, err = s.Incr(ctx, "c", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// The second increment must not have refreshed the window.
	mr.FastForward(31 * time.Second)
	_, err = s.Get(ctx, "c")
	assert.ErrorIs(t, err, counter.ErrNotFound)
}

func TestStore_IncrAfterExpiryRestarts(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	_, err := s.Incr(ctx, "c", time.Minute)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	n, err := s.Incr(ctx, "c", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStore_Del(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "a", "1", 0))
	require.NoError(t, s.Set(ctx, "b", "2", 0))
	require.NoError(t, s.Del(ctx, "a", "b"))

	_, err := s.Get(ctx, "a")
	assert.ErrorIs(t, err, counter.ErrNotFound)
	_, err = s.Get(ctx, "b")
	assert.ErrorIs(t, err, counter.ErrNotFound)
}

func TestStore_DelNoKeys(t *testing.T) {
	s, _ := newTestStore(t)
	assert.NoError(t, s.Del(context.Background()))
}

func TestStore_TTL(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))

	d, err := s.TTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, d)
}

func TestStore_TTLMissingKey(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.TTL(context.Background(), "nope")
	assert.ErrorIs(t, err, counter.ErrNotFound)
}

func TestStore_TTLNoExpiry(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", 0))

	d, err := s.TTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), d)
}

func TestStore_UnavailableMapsError(t *testing.T) {
	s, mr := newTestStore(t)
	mr.Close()

	_, err := s.Get(context.Background(), "k")
	assert.ErrorIs(t, err, counter.ErrUnavailable)

	err = s.Set(context.Background(), "k", "v", time.Minute)
	assert.ErrorIs(t, err, counter.ErrUnavailable)

	_, err = s.Incr(context.Background(), "k", time.Minute)
	assert.ErrorIs(t, err, counter.ErrUnavailable)
}

func TestStore_Ping(t *testing.T) {
	s, mr := newTestStore(t)

	require.NoError(t, s.Ping(context.Background()))

	mr.Close()
	assert.Error(t, s.Ping(context.Background()))
}
