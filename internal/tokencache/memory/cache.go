package memory

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	token     string
	expiresAt time.Time
}

// Cache is an in-memory token cache with per-key TTL. Useful for local dev
// and tests before wiring Redis.
type Cache struct {
	mu    sync.RWMutex
	items map[string]entry
	now   func() time.Time
}

// NewCache creates an empty in-memory cache.
func NewCache() *Cache {
	return &Cache{items: make(map[string]entry), now: time.Now}
}

// NewCacheWithClock creates a cache with an injectable clock for tests.
func NewCacheWithClock(now func() time.Time) *Cache {
	return &Cache{items: make(map[string]entry), now: now}
}

func (c *Cache) Get(_ context.Context, key string) (string, bool) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return "", false
	}
	if !item.expiresAt.IsZero() && c.now().After(item.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return "", false
	}
	return item.token, true
}

func (c *Cache) Set(_ context.Context, key string, token string, ttl time.Duration) bool {
	item := entry{token: token}
	if ttl > 0 {
		item.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.items[key] = item
	c.mu.Unlock()
	return true
}

func (c *Cache) Delete(_ context.Context, key string) bool {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return true
}
