package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisStore(client), mr
}

func TestRedisStoreCooldownWindow(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()
	window := 60 * time.Second

	allowed, _, err := store.CheckAndRecord(ctx, "client-a", window)
	require.NoError(t, err)
	assert.True(t, allowed)

	// Within the window: denied with the remaining TTL
	allowed, retryAfter, err := store.CheckAndRecord(ctx, "client-a", window)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))
	assert.LessOrEqual(t, retryAfter, window)

	// After the key expires: admitted again
	mr.FastForward(61 * time.Second)
	allowed, _, err = store.CheckAndRecord(ctx, "client-a", window)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisStoreIndependentKeys(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	allowed, _, _ := store.CheckAndRecord(ctx, "client-a", time.Minute)
	require.True(t, allowed)

	allowed, _, _ = store.CheckAndRecord(ctx, "client-b", time.Minute)
	assert.True(t, allowed)
}

func TestRedisStoreDenialDoesNotResetTimer(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()
	window := 60 * time.Second

	allowed, _, _ := store.CheckAndRecord(ctx, "client-a", window)
	require.True(t, allowed)

	mr.FastForward(30 * time.Second)
	allowed, retryAfter, _ := store.CheckAndRecord(ctx, "client-a", window)
	require.False(t, allowed)
	assert.LessOrEqual(t, retryAfter, 30*time.Second)

	// The denied check above must not have extended the TTL
	mr.FastForward(31 * time.Second)
	allowed, _, _ = store.CheckAndRecord(ctx, "client-a", window)
	assert.True(t, allowed)
}

func TestRedisStoreFailsOpenOnError(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client)

	// Kill the backend: the store must allow rather than block
	mr.Close()

	allowed, _, err := store.CheckAndRecord(context.Background(), "client-a", time.Minute)
	assert.NoError(t, err)
	assert.True(t, allowed)
}
