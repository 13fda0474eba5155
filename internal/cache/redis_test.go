package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Set REDIS_TEST_ADDR (e.g. localhost:6379) to run against a live server.
func newTestRedis(t *testing.T) *RedisCache {
	t.Helper()

	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	c, err := NewRedisCache(RedisConfig{Addr: addr, DB: 15, KeyPrefix: "aecoin-test:" + t.Name()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisCache_RoundTrip(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()

	_ = c.Delete(ctx, "k")
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	ok, err := c.SetNX(ctx, "k", []byte("other"), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_CollectionStore(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()
	_ = c.Delete(ctx, CollectionKey)
	t.Cleanup(func() { _ = c.Delete(context.Background(), CollectionKey) })

	store := NewCollectionStore(c, "")
	stored, err := store.SetCollectionID(ctx, "col_1")
	require.NoError(t, err)
	assert.Equal(t, "col_1", stored)

	stored, err = store.SetCollectionID(ctx, "col_2")
	require.NoError(t, err)
	assert.Equal(t, "col_1", stored)
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	t.Parallel()

	_, err := NewRedisCache(RedisConfig{Addr: "127.0.0.1:1"}, nil)
	assert.Error(t, err)
}
