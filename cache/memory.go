package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is an in-memory cache implementation
type MemoryCache struct {
	mu          sync.RWMutex
	entries     map[string]memoryEntry
	maxSize     int
	cleanup     *time.Ticker
	stop        chan struct{}
	enableLRU   bool
	accessOrder []string // For LRU eviction
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(maxSize int, cleanupInterval time.Duration, enableLRU bool) *MemoryCache {
	cache := &MemoryCache{
		entries:     make(map[string]memoryEntry),
		maxSize:     maxSize,
		cleanup:     time.NewTicker(cleanupInterval),
		stop:        make(chan struct{}),
		enableLRU:   enableLRU,
		accessOrder: make([]string, 0, maxSize),
	}

	go cache.cleanupExpired()

	return cache
}

// Get returns the cached payload for key if it exists and has not expired
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		return nil, false, nil
	}

	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		if c.enableLRU {
			c.removeFromAccessOrder(key)
		}
		return nil, false, nil
	}

	if c.enableLRU {
		c.updateAccessOrder(key)
	}

	return entry.value, true, nil
}

// Set stores a payload under key for the given TTL
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		if c.enableLRU {
			if len(c.accessOrder) > 0 {
				oldest := c.accessOrder[0]
				delete(c.entries, oldest)
				c.accessOrder = c.accessOrder[1:]
			}
		} else {
			now := time.Now()
			evicted := false
			for k, entry := range c.entries {
				if now.After(entry.expiresAt) {
					delete(c.entries, k)
					evicted = true
					break
				}
			}
			if !evicted && len(c.entries) > 0 {
				for k := range c.entries {
					delete(c.entries, k)
					break
				}
			}
		}
	}

	c.entries[key] = memoryEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}

	if c.enableLRU {
		c.updateAccessOrder(key)
	}

	return nil
}

// Delete removes the entry for key
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	if c.enableLRU {
		c.removeFromAccessOrder(key)
	}

	return nil
}

// Close closes the cache and releases resources
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanup.Stop()
	close(c.stop)
	c.entries = nil
	c.accessOrder = nil

	return nil
}

// cleanupExpired periodically removes expired entries
func (c *MemoryCache) cleanupExpired() {
	for {
		select {
		case <-c.cleanup.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.expiresAt) {
					delete(c.entries, key)
					if c.enableLRU {
						c.removeFromAccessOrder(key)
					}
				}
			}
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}

// updateAccessOrder updates the access order for LRU
func (c *MemoryCache) updateAccessOrder(key string) {
	c.removeFromAccessOrder(key)
	c.accessOrder = append(c.accessOrder, key)
}

// removeFromAccessOrder removes an entry from access order
func (c *MemoryCache) removeFromAccessOrder(key string) {
	for i, k := range c.accessOrder {
		if k == key {
			c.accessOrder = append(c.accessOrder[:i], c.accessOrder[i+1:]...)
			return
		}
	}
}
