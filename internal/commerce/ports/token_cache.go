package ports

import (
	"context"
	"time"
)

// TokenCache stores short-lived credentials in an external key-value store.
// Implementations never surface backing-store failures: a failed Get is a
// miss, a failed Set or Delete reports false so callers fall back to
// re-authenticating.
type TokenCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, token string, ttl time.Duration) bool
	Delete(ctx context.Context, key string) bool
}
