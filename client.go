package chiawallet

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/brightpool/chia-wallet-sdk/cache"
	"github.com/brightpool/chia-wallet-sdk/requestmanager"
)

// Client is the main SDK client interface
type Client interface {
	// Start initializes and starts the client
	Start(ctx context.Context) error

	// Stop gracefully stops the client
	Stop() error

	// Health returns the health status
	Health() error

	// Wallet returns the high-level wallet operations
	Wallet() *Wallet

	// Explorer returns the explorer API client
	Explorer() *ExplorerClient

	// Custody returns the custody backend manager
	Custody() *CustodyManager

	// ClearRequestCache drops cached explorer reads, one key or all
	ClearRequestCache(key string)

	// RequestStats reports the request manager state
	RequestStats() requestmanager.ManagerStats
}

// BaseClient is the base implementation of Client
type BaseClient struct {
	cfg      *Config
	logger   zerolog.Logger
	requests *requestmanager.Manager
	payloads cache.Cache
	custody  *CustodyManager
	explorer *ExplorerClient
	wallet   *Wallet
	mu       sync.RWMutex
	started  bool
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewClient creates a new SDK client
func NewClient(cfg *Config, logger zerolog.Logger) (*BaseClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	payloadCache, err := newCache(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	requests := requestmanager.New(requestmanager.Config{
		TTL:      cfg.RequestManager.TTL,
		Debounce: cfg.RequestManager.Debounce,
		Throttle: cfg.RequestManager.Throttle,
	})

	custody := NewCustodyManager(cfg, logger)
	explorer := NewExplorerClient(cfg, logger, requests, payloadCache)

	wallet, err := NewWallet(cfg, logger, custody, explorer)
	if err != nil {
		return nil, err
	}

	return &BaseClient{
		cfg:      cfg,
		logger:   logger,
		requests: requests,
		payloads: payloadCache,
		custody:  custody,
		explorer: explorer,
		wallet:   wallet,
	}, nil
}

// Start initializes and starts the client
func (c *BaseClient) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return fmt.Errorf("client already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.started = true

	c.logger.Info().
		Str("network", c.cfg.Network).
		Str("wallet_id", c.cfg.WalletID).
		Msg("Chia wallet SDK client started")

	return nil
}

// Stop gracefully stops the client
func (c *BaseClient) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	c.requests.ClearAll()

	if c.payloads != nil {
		if err := c.payloads.Close(); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to close cache")
		}
	}

	c.started = false
	c.logger.Info().Msg("Chia wallet SDK client stopped")

	return nil
}

// Health returns the health status
func (c *BaseClient) Health() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.started {
		return fmt.Errorf("client not started")
	}

	return nil
}

// Wallet returns the high-level wallet operations
func (c *BaseClient) Wallet() *Wallet {
	return c.wallet
}

// Explorer returns the explorer API client
func (c *BaseClient) Explorer() *ExplorerClient {
	return c.explorer
}

// Custody returns the custody backend manager
func (c *BaseClient) Custody() *CustodyManager {
	return c.custody
}

// ClearRequestCache drops cached explorer reads. An empty key clears
// everything. In-flight requests are not cancelled.
func (c *BaseClient) ClearRequestCache(key string) {
	if key == "" {
		c.requests.ClearAll()
		return
	}
	c.requests.Clear(key)
}

// RequestStats reports the request manager state
func (c *BaseClient) RequestStats() requestmanager.ManagerStats {
	return c.requests.Stats()
}
