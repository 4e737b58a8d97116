package cache

import (
	"context"
	"time"
)

// Cache defines the interface for the shared response-payload cache
type Cache interface {
	// Get returns the cached payload for key, reporting whether a live
	// entry was found
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a payload under key for the given TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the entry for key
	Delete(ctx context.Context, key string) error

	// Close closes the cache and releases resources
	Close() error
}
