package cache

import (
	"context"
	"time"
)

// KeyValueStore is the cache capability the progress facade depends on.
// Two implementations exist: the in-process bounded cache and a Redis-backed
// client. The variant is selected at construction time; callers never branch
// on it.
type KeyValueStore interface {
	// Get returns the value for key, or ok=false when missing or expired.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set inserts or replaces the value under key. ttl <= 0 uses the store's
	// default. Oversized entries are rejected without error.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the entry for key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// DeleteByPrefix removes every entry whose key starts with prefix.
	DeleteByPrefix(ctx context.Context, prefix string) error

	// Exists reports whether a live entry is present for key.
	Exists(ctx context.Context, key string) (bool, error)

	// Clear removes all entries.
	Clear(ctx context.Context) error
}
