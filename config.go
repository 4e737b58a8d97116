package chiawallet

import (
	"crypto/tls"
	"errors"
	"fmt"
	"time"
)

const (
	// Default values
	DefaultExplorerBaseURL = "https://xchscan.com/api"
	DefaultNetwork         = "mainnet"
	DefaultHistoryPageSize = 50
	DefaultNFTMetadataTTL  = 24 * time.Hour

	// Request manager defaults
	DefaultRequestTTL      = 30 * time.Second
	DefaultRequestDebounce = 300 * time.Millisecond
	DefaultRequestThrottle = 200 * time.Millisecond

	// Circuit breaker defaults
	DefaultCircuitBreakerMaxRequests = 5
	DefaultCircuitBreakerInterval    = 60 * time.Second
	DefaultCircuitBreakerTimeout     = 30 * time.Second
	DefaultCircuitBreakerThreshold   = 0.7

	// Retry defaults
	DefaultRetryInitialDelay = 1 * time.Second
	DefaultRetryMaxDelay     = 30 * time.Second
	DefaultRetryMaxAttempts  = 3
	DefaultRetryMultiplier   = 2.0

	// HTTP client defaults
	DefaultHTTPTimeout = 30 * time.Second

	// Redis defaults
	DefaultRedisPoolSize     = 10
	DefaultRedisMinIdleConns = 5
	DefaultRedisDialTimeout  = 5 * time.Second
	DefaultRedisReadTimeout  = 3 * time.Second
	DefaultRedisWriteTimeout = 3 * time.Second

	// Memory cache defaults
	DefaultMemoryCacheMaxSize         = 10000
	DefaultMemoryCacheCleanupInterval = 1 * time.Hour
)

// Config represents the main configuration for the SDK
type Config struct {
	// Network selects the chain, "mainnet" or "testnet". It determines
	// the bech32m address prefix.
	Network string

	// WalletID identifies the wallet at the custody backend.
	WalletID string

	// Address is the wallet's own receive address. Change from transfers
	// is sent back to it.
	Address string

	Custody CustodyConfig

	Explorer ExplorerConfig

	RequestManager RequestManagerConfig

	Cache CacheConfig

	CircuitBreaker CircuitBreakerConfig

	Retry RetryConfig

	HTTPClient HTTPClientConfig

	Logging LoggingConfig
}

// CustodyConfig configures the remote signing backend
type CustodyConfig struct {
	BaseURL       string
	APIKey        string
	SigningSecret string
}

// ExplorerConfig configures the block explorer API
type ExplorerConfig struct {
	BaseURL         string
	APIKey          string
	HistoryPageSize int
}

// RequestManagerConfig configures explorer read caching and pacing
type RequestManagerConfig struct {
	TTL      time.Duration
	Debounce time.Duration
	Throttle time.Duration
}

// CacheConfig configures the shared payload cache
type CacheConfig struct {
	Enabled    bool
	Type       string // "redis" or "memory"
	Redis      RedisConfig
	Memory     MemoryConfig
	DefaultTTL time.Duration
}

// RedisConfig configures Redis connection
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

// MemoryConfig configures in-memory cache
type MemoryConfig struct {
	MaxSize         int
	CleanupInterval time.Duration
	EnableLRU       bool
}

// CircuitBreakerConfig configures circuit breaker
type CircuitBreakerConfig struct {
	MaxRequests int
	Interval    time.Duration
	Timeout     time.Duration
	Threshold   float64 // Failure ratio threshold (0.0-1.0)
}

// RetryConfig configures retry strategy for idempotent custody reads
type RetryConfig struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
	Multiplier   float64
}

// HTTPClientConfig configures HTTP client
type HTTPClientConfig struct {
	Timeout time.Duration
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "json", "console"
}

// ConfigBuilder provides a fluent interface for building Config
type ConfigBuilder struct {
	config *Config
}

// NewConfig creates a new ConfigBuilder with defaults
func NewConfig() *ConfigBuilder {
	return &ConfigBuilder{
		config: &Config{
			Network: DefaultNetwork,
			Explorer: ExplorerConfig{
				BaseURL:         DefaultExplorerBaseURL,
				HistoryPageSize: DefaultHistoryPageSize,
			},
			RequestManager: RequestManagerConfig{
				TTL:      DefaultRequestTTL,
				Debounce: DefaultRequestDebounce,
				Throttle: DefaultRequestThrottle,
			},
			Cache: CacheConfig{
				Enabled:    false,
				Type:       "memory",
				DefaultTTL: DefaultNFTMetadataTTL,
				Redis: RedisConfig{
					PoolSize:     DefaultRedisPoolSize,
					MinIdleConns: DefaultRedisMinIdleConns,
					DialTimeout:  DefaultRedisDialTimeout,
					ReadTimeout:  DefaultRedisReadTimeout,
					WriteTimeout: DefaultRedisWriteTimeout,
				},
				Memory: MemoryConfig{
					MaxSize:         DefaultMemoryCacheMaxSize,
					CleanupInterval: DefaultMemoryCacheCleanupInterval,
					EnableLRU:       false,
				},
			},
			CircuitBreaker: CircuitBreakerConfig{
				MaxRequests: DefaultCircuitBreakerMaxRequests,
				Interval:    DefaultCircuitBreakerInterval,
				Timeout:     DefaultCircuitBreakerTimeout,
				Threshold:   DefaultCircuitBreakerThreshold,
			},
			Retry: RetryConfig{
				InitialDelay: DefaultRetryInitialDelay,
				MaxDelay:     DefaultRetryMaxDelay,
				MaxAttempts:  DefaultRetryMaxAttempts,
				Multiplier:   DefaultRetryMultiplier,
			},
			HTTPClient: HTTPClientConfig{
				Timeout: DefaultHTTPTimeout,
			},
			Logging: LoggingConfig{
				Level:  "info",
				Format: "json",
			},
		},
	}
}

// WithNetwork sets the chain network ("mainnet" or "testnet")
func (b *ConfigBuilder) WithNetwork(network string) *ConfigBuilder {
	b.config.Network = network
	return b
}

// WithWallet sets the custody wallet id and the wallet's receive address
func (b *ConfigBuilder) WithWallet(walletID, address string) *ConfigBuilder {
	b.config.WalletID = walletID
	b.config.Address = address
	return b
}

// WithCustody sets the custody backend configuration
func (b *ConfigBuilder) WithCustody(custody CustodyConfig) *ConfigBuilder {
	b.config.Custody = custody
	return b
}

// WithExplorer sets the explorer API configuration
func (b *ConfigBuilder) WithExplorer(explorer ExplorerConfig) *ConfigBuilder {
	b.config.Explorer = explorer
	return b
}

// WithRequestManager sets the request manager tuning
func (b *ConfigBuilder) WithRequestManager(rm RequestManagerConfig) *ConfigBuilder {
	b.config.RequestManager = rm
	return b
}

// WithCache sets the cache configuration
func (b *ConfigBuilder) WithCache(cache CacheConfig) *ConfigBuilder {
	b.config.Cache = cache
	return b
}

// WithCircuitBreaker sets the circuit breaker configuration
func (b *ConfigBuilder) WithCircuitBreaker(cb CircuitBreakerConfig) *ConfigBuilder {
	b.config.CircuitBreaker = cb
	return b
}

// WithRetry sets the retry configuration
func (b *ConfigBuilder) WithRetry(retry RetryConfig) *ConfigBuilder {
	b.config.Retry = retry
	return b
}

// WithHTTPClient sets the HTTP client configuration
func (b *ConfigBuilder) WithHTTPClient(hc HTTPClientConfig) *ConfigBuilder {
	b.config.HTTPClient = hc
	return b
}

// WithLogging sets the logging configuration
func (b *ConfigBuilder) WithLogging(logging LoggingConfig) *ConfigBuilder {
	b.config.Logging = logging
	return b
}

// Build validates and returns the Config
func (b *ConfigBuilder) Build() (*Config, error) {
	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	return b.config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Network != "mainnet" && c.Network != "testnet" {
		return fmt.Errorf("invalid network: %s (must be 'mainnet' or 'testnet')", c.Network)
	}

	if c.Custody.BaseURL == "" {
		return errors.New("custody BaseURL is required")
	}

	if c.Custody.APIKey == "" {
		return errors.New("custody APIKey is required")
	}

	if c.Custody.SigningSecret == "" {
		return errors.New("custody SigningSecret is required")
	}

	if c.WalletID == "" {
		return errors.New("WalletID is required")
	}

	if c.Explorer.BaseURL == "" {
		return errors.New("explorer BaseURL is required")
	}

	if c.Address == "" {
		return errors.New("wallet Address is required")
	}

	prefix, _, err := DecodeAddress(c.Address)
	if err != nil {
		return fmt.Errorf("invalid wallet address: %w", err)
	}
	if prefix != c.AddressPrefix() {
		return fmt.Errorf("wallet address prefix %q does not match network %s", prefix, c.Network)
	}

	if c.Cache.Enabled {
		if c.Cache.Type != "redis" && c.Cache.Type != "memory" {
			return fmt.Errorf("invalid cache type: %s (must be 'redis' or 'memory')", c.Cache.Type)
		}

		if c.Cache.Type == "redis" {
			if c.Cache.Redis.Address == "" {
				return errors.New("Redis address is required when using Redis cache")
			}
		}
	}

	if c.CircuitBreaker.Threshold < 0 || c.CircuitBreaker.Threshold > 1 {
		return errors.New("circuit breaker threshold must be between 0 and 1")
	}

	if c.Retry.Multiplier <= 0 {
		return errors.New("retry multiplier must be greater than 0")
	}

	if c.Explorer.HistoryPageSize <= 0 {
		return errors.New("explorer history page size must be greater than 0")
	}

	return nil
}

// AddressPrefix returns the bech32m human-readable prefix for the
// configured network
func (c *Config) AddressPrefix() string {
	if c.Network == "testnet" {
		return TestnetAddressPrefix
	}
	return MainnetAddressPrefix
}

// NewMainnetConfig creates a new ConfigBuilder with mainnet defaults
func NewMainnetConfig() *ConfigBuilder {
	builder := NewConfig()
	builder.config.Network = "mainnet"
	return builder
}

// NewTestnetConfig creates a new ConfigBuilder with testnet defaults
func NewTestnetConfig() *ConfigBuilder {
	builder := NewConfig()
	builder.config.Network = "testnet"
	return builder
}
