package chiawallet

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNewClientRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Custody.BaseURL = ""

	_, err := NewClient(cfg, zerolog.Nop())
	require.Error(t, err)
}

func TestClientLifecycle(t *testing.T) {
	client, err := NewClient(testConfig(t), zerolog.Nop())
	require.NoError(t, err)

	require.Error(t, client.Health(), "not started yet")

	require.NoError(t, client.Start(context.Background()))
	require.NoError(t, client.Health())
	require.Error(t, client.Start(context.Background()), "double start")

	require.NotNil(t, client.Wallet())
	require.NotNil(t, client.Explorer())
	require.NotNil(t, client.Custody())
	require.Equal(t, testConfig(t).Address, client.Wallet().Address())

	require.NoError(t, client.Stop())
	require.Error(t, client.Health())
	require.NoError(t, client.Stop(), "stop is idempotent")
}

func TestClientClearRequestCache(t *testing.T) {
	client, err := NewClient(testConfig(t), zerolog.Nop())
	require.NoError(t, err)

	// No cached reads yet.
	stats := client.RequestStats()
	require.Zero(t, stats.Size)
	require.Zero(t, stats.PendingCount)

	client.ClearRequestCache("balance:xch1abc")
	client.ClearRequestCache("")
}
