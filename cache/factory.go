package cache

import (
	"crypto/tls"
	"fmt"
	"time"
)

const defaultCleanupInterval = 1 * time.Hour

// CacheConfig represents the cache configuration
type CacheConfig struct {
	Enabled bool
	Type    string // "redis" or "memory"
	Redis   RedisConfig
	Memory  MemoryConfig
}

// RedisConfig represents Redis cache configuration
type RedisConfig struct {
	Address       string
	Password      string
	DB            int
	PoolSize      int
	MinIdleConns  int
	DialTimeout   time.Duration
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	EnableTLS     bool
	TLSSkipVerify bool
	TLSConfig     *tls.Config
}

// tlsConfig resolves the TLS settings for the connection. With EnableTLS set
// and no explicit config, a config is still built from TLSSkipVerify so TLS
// is never silently disabled.
func (c RedisConfig) tlsConfig() *tls.Config {
	if !c.EnableTLS {
		return nil
	}
	if c.TLSConfig != nil {
		return c.TLSConfig
	}
	return &tls.Config{
		InsecureSkipVerify: c.TLSSkipVerify,
	}
}

// MemoryConfig represents memory cache configuration
type MemoryConfig struct {
	MaxSize         int
	CleanupInterval time.Duration
	EnableLRU       bool
}

// NewCache creates a cache instance based on the configuration
func NewCache(cfg CacheConfig) (Cache, error) {
	if !cfg.Enabled {
		return NewNoOpCache(), nil
	}

	switch cfg.Type {
	case "memory":
		cleanupInterval := cfg.Memory.CleanupInterval
		if cleanupInterval == 0 {
			cleanupInterval = defaultCleanupInterval
		}
		return NewMemoryCache(
			cfg.Memory.MaxSize,
			cleanupInterval,
			cfg.Memory.EnableLRU,
		), nil

	case "redis":
		return NewRedisCache(cfg.Redis)

	default:
		return nil, fmt.Errorf("unknown cache type: %s", cfg.Type)
	}
}
