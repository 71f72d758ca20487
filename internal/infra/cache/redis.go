package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis is a string cache backed by a Redis-compatible store. Errors are
// treated as misses: a flaky or absent Redis degrades quote calculation
// to uncached calls, it never fails them.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedis creates a Redis-backed cache. The connection is lazy; a dead
// address shows up as misses plus warnings, not as a startup failure.
func NewRedis(addr, password string, db int, ttl time.Duration, logger *zap.Logger) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Redis{client: rdb, ttl: ttl, logger: logger}
}

// Get retrieves a value. Returns false on miss or any Redis error.
func (c *Redis) Get(key string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		c.logger.Warn("redis get failed, treating as miss",
			zap.String("key", key),
			zap.Error(err),
		)
		return "", false
	}
	return val, true
}

// Set stores a value with the configured TTL. Write failures are logged
// and dropped; concurrent writers race to store the same derived value,
// which is idempotent.
func (c *Redis) Set(key, value string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		c.logger.Warn("redis set failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// Delete removes a key.
func (c *Redis) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("redis del failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// Close releases the underlying client.
func (c *Redis) Close() error {
	return c.client.Close()
}
