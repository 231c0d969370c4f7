package cache

import (
	"context"
	"time"
)

// Store is a minimal key-value interface over the shared result cache.
// Implementations return found=false for absent keys and reserve the
// error return for transport or storage failures.
type Store interface {
	// Get retrieves the raw value stored under key.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set stores value under key with the given time-to-live.
	// A non-positive ttl stores the value without expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Close releases the underlying connections.
	Close() error
}
