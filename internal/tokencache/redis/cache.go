package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a Redis-backed token cache. Backing-store failures degrade to
// cache misses so an unreachable Redis never fails a request.
type Cache struct {
	client *redis.Client
	logger *slog.Logger
}

// NewCache creates a Cache against the given Redis instance.
func NewCache(addr, password string, db int, logger *slog.Logger) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Cache{client: client, logger: logger}
}

// Ping verifies connectivity. Used by readiness checks only; the cache itself
// tolerates an unreachable server.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.ErrorContext(ctx, "token cache get failed", "key", key, "error", err)
		}
		return "", false
	}
	return value, true
}

func (c *Cache) Set(ctx context.Context, key string, token string, ttl time.Duration) bool {
	if err := c.client.Set(ctx, key, token, ttl).Err(); err != nil {
		c.logger.ErrorContext(ctx, "token cache set failed", "key", key, "error", err)
		return false
	}
	return true
}

func (c *Cache) Delete(ctx context.Context, key string) bool {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.ErrorContext(ctx, "token cache delete failed", "key", key, "error", err)
		return false
	}
	return true
}
