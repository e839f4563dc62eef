package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const redisKeyPrefix = "contact_rl:"

// RedisStore is a shared cooldown store safe across server instances. It
// relies on SET NX EX, redis's atomic set-if-absent-with-expiry, so two
// racing submissions for the same key admit exactly once cluster-wide.
//
// Any redis failure fails open: the submission is allowed and the error is
// logged. Availability is preferred over strict enforcement here.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a cooldown store backed by the given redis client
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisStoreFromURL connects to redis and verifies the connection
func NewRedisStoreFromURL(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logrus.Info("Connected to redis rate limit store")
	return NewRedisStore(client), nil
}

// CheckAndRecord atomically sets the cooldown key if absent. A denied check
// reads the key's TTL to report the remaining wait.
func (s *RedisStore) CheckAndRecord(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error) {
	redisKey := redisKeyPrefix + key

	ok, err := s.client.SetNX(ctx, redisKey, "1", window).Result()
	if err != nil {
		logrus.Warnf("Redis rate limit check failed, failing open: %v", err)
		return true, 0, nil
	}
	if ok {
		return true, 0, nil
	}

	ttl, err := s.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl < 0 {
		// Key exists but TTL is unknown; report the full window.
		return false, window, nil
	}
	return false, ttl, nil
}

// Close closes the underlying redis client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
