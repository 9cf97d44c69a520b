package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/gatehouse"
)

func setupRedisCache(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := DialRedis(context.Background(), "redis://"+mr.Addr(), WithRedisTTL(time.Minute))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c, mr
}

func TestRedisCacheHitMiss(t *testing.T) {
	ctx := context.Background()
	c, _ := setupRedisCache(t)

	_, ok := c.Get(ctx, "t1", "u1")
	assert.False(t, ok)

	gen := c.Generation(ctx, "t1", "u1")
	assert.Equal(t, uint64(0), gen)

	c.Set(ctx, capsFor("u1", "t1", gen))
	got, ok := c.Get(ctx, "t1", "u1")
	require.True(t, ok)
	assert.Equal(t, "u1", got.UserID)
	assert.True(t, got.Can("FINANCE", gatehouse.ActionView))
}

func TestRedisCacheGenerationsAreShared(t *testing.T) {
	ctx := context.Background()
	c, mr := setupRedisCache(t)

	// A second instance on the same Redis sees invalidations of the first.
	other := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = other.Close() })

	c.Set(ctx, capsFor("u1", "t1", c.Generation(ctx, "t1", "u1")))
	_, ok := other.Get(ctx, "t1", "u1")
	require.True(t, ok)

	other.InvalidateTenant(ctx, "t1")
	assert.Equal(t, uint64(1), c.Generation(ctx, "t1", "u1"))

	_, ok = c.Get(ctx, "t1", "u1")
	assert.False(t, ok, "stale entry served after remote invalidation")

	other.InvalidateUser(ctx, "u1")
	other.InvalidateAll(ctx)
	assert.Equal(t, uint64(3), c.Generation(ctx, "t1", "u1"))
	assert.False(t, mr.Exists("gatehouse:caps:u1"))
}

func TestRedisCacheRejectsStaleSet(t *testing.T) {
	ctx := context.Background()
	c, mr := setupRedisCache(t)

	stale := c.Generation(ctx, "t1", "u1")
	c.InvalidateUser(ctx, "u1")
	c.Set(ctx, capsFor("u1", "t1", stale))

	assert.False(t, mr.Exists("gatehouse:caps:u1"))
}

func TestRedisCacheTTL(t *testing.T) {
	ctx := context.Background()
	c, mr := setupRedisCache(t)

	c.Set(ctx, capsFor("u1", "t1", 0))
	mr.FastForward(2 * time.Minute)

	_, ok := c.Get(ctx, "t1", "u1")
	assert.False(t, ok)
}

func TestRedisCacheCorruptEntryIsDropped(t *testing.T) {
	ctx := context.Background()
	c, mr := setupRedisCache(t)

	require.NoError(t, mr.Set("gatehouse:caps:u1", "{not json"))
	_, ok := c.Get(ctx, "t1", "u1")
	assert.False(t, ok)
	assert.False(t, mr.Exists("gatehouse:caps:u1"))
}

func TestRedisCacheDownFailsClosed(t *testing.T) {
	ctx := context.Background()
	c, mr := setupRedisCache(t)

	c.Set(ctx, capsFor("u1", "t1", 0))
	mr.Close()

	_, ok := c.Get(ctx, "t1", "u1")
	assert.False(t, ok)
	assert.Equal(t, uint64(0), c.Generation(ctx, "t1", "u1"))
}
