package chiawallet

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testAddress(t *testing.T, prefix string) string {
	t.Helper()

	puzzleHash := bytes.Repeat([]byte{0x17}, PuzzleHashLength)
	address, err := EncodeAddress(prefix, puzzleHash)
	require.NoError(t, err)
	return address
}

func testConfig(t *testing.T) *Config {
	t.Helper()

	cfg, err := NewMainnetConfig().
		WithWallet("wallet-1", testAddress(t, MainnetAddressPrefix)).
		WithCustody(CustodyConfig{
			BaseURL:       "https://custody.example.com",
			APIKey:        "test-api-key",
			SigningSecret: "test-signing-secret",
		}).
		Build()
	require.NoError(t, err)
	return cfg
}

func TestConfigDefaults(t *testing.T) {
	cfg := testConfig(t)

	require.Equal(t, "mainnet", cfg.Network)
	require.Equal(t, MainnetAddressPrefix, cfg.AddressPrefix())
	require.Equal(t, DefaultExplorerBaseURL, cfg.Explorer.BaseURL)
	require.Equal(t, DefaultRequestTTL, cfg.RequestManager.TTL)
	require.Equal(t, DefaultRequestDebounce, cfg.RequestManager.Debounce)
	require.Equal(t, DefaultRequestThrottle, cfg.RequestManager.Throttle)
	require.Equal(t, DefaultHTTPTimeout, cfg.HTTPClient.Timeout)
	require.False(t, cfg.Cache.Enabled)
}

func TestConfigValidateMissingCustody(t *testing.T) {
	_, err := NewMainnetConfig().
		WithWallet("wallet-1", testAddress(t, MainnetAddressPrefix)).
		Build()
	require.Error(t, err)
}

func TestConfigValidateMissingWallet(t *testing.T) {
	_, err := NewMainnetConfig().
		WithCustody(CustodyConfig{
			BaseURL:       "https://custody.example.com",
			APIKey:        "key",
			SigningSecret: "secret",
		}).
		Build()
	require.Error(t, err)
}

func TestConfigValidateNetwork(t *testing.T) {
	cfg := testConfig(t)
	cfg.Network = "simulator"
	require.Error(t, cfg.Validate())
}

func TestConfigValidateAddressPrefixMismatch(t *testing.T) {
	_, err := NewTestnetConfig().
		WithWallet("wallet-1", testAddress(t, MainnetAddressPrefix)).
		WithCustody(CustodyConfig{
			BaseURL:       "https://custody.example.com",
			APIKey:        "key",
			SigningSecret: "secret",
		}).
		Build()
	require.Error(t, err)
}

func TestConfigValidateCacheType(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Enabled = true
	cfg.Cache.Type = "memcached"
	require.Error(t, cfg.Validate())

	cfg.Cache.Type = "redis"
	require.Error(t, cfg.Validate(), "redis cache requires an address")

	cfg.Cache.Redis.Address = "localhost:6379"
	require.NoError(t, cfg.Validate())
}

func TestConfigValidateBreakerThreshold(t *testing.T) {
	cfg := testConfig(t)
	cfg.CircuitBreaker.Threshold = 1.5
	require.Error(t, cfg.Validate())
}

func TestConfigValidateRetryMultiplier(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retry.Multiplier = 0
	require.Error(t, cfg.Validate())
}

func TestConfigBuilderOverrides(t *testing.T) {
	cfg, err := NewTestnetConfig().
		WithWallet("wallet-9", testAddress(t, TestnetAddressPrefix)).
		WithCustody(CustodyConfig{
			BaseURL:       "https://custody.example.com",
			APIKey:        "key",
			SigningSecret: "secret",
		}).
		WithExplorer(ExplorerConfig{
			BaseURL:         "https://explorer.example.com",
			HistoryPageSize: 25,
		}).
		WithRequestManager(RequestManagerConfig{
			TTL:      10 * time.Second,
			Debounce: 100 * time.Millisecond,
			Throttle: 50 * time.Millisecond,
		}).
		Build()
	require.NoError(t, err)

	require.Equal(t, TestnetAddressPrefix, cfg.AddressPrefix())
	require.Equal(t, "https://explorer.example.com", cfg.Explorer.BaseURL)
	require.Equal(t, 25, cfg.Explorer.HistoryPageSize)
	require.Equal(t, 10*time.Second, cfg.RequestManager.TTL)
}
