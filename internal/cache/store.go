// Package cache provides the key/value store behind gatherly's rate
// limiter. The only shipped implementation keeps entries in a database
// table so a single-node deployment needs no extra infrastructure; the
// maintenance sweeper prunes expired rows.
package cache

import (
	"context"
	"time"
)

// Store is the cache surface the rate limiter depends on.
type Store interface {
	// IncrementWithTTL bumps the counter at key, starting a new window of
	// the given length when the key is absent or expired. It returns the
	// count after the increment and the time left in the current window.
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, keys ...string) error
}
