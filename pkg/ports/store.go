package ports

import (
	"context"
	"time"
)

// KVStore is the keyed cache holding per-user dialog state.
// Keys are plain strings; values are opaque bytes.
type KVStore interface {
	// Get returns the value stored under key.
	// Returns domain.ErrNotFound if the key does not exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. A zero ttl means no expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}
