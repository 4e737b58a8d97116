package cache

import (
	"context"
	"time"
)

// NoOpCache is a no-op cache implementation used when caching is disabled.
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache instance.
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// Get always reports a cache miss.
func (c *NoOpCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set is a no-op that does not persist any state.
func (c *NoOpCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

// Delete is a no-op that does not persist any state.
func (c *NoOpCache) Delete(ctx context.Context, key string) error {
	return nil
}

// Close is a no-op that does not release any resources.
func (c *NoOpCache) Close() error {
	return nil
}
