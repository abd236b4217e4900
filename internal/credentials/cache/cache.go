package cache

import (
	"context"
	"time"
)

// Store is a get/set-with-TTL cache. Expiry is enforced by the
// implementation, never re-checked by callers: a hit is by definition
// unexpired.
type Store interface {
	// Get returns the cached value, or sentinel.ErrNotFound when the key is
	// absent or expired.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}
