package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, "0.0.0.0:8080", cfg.ServerAddress)
	require.True(t, cfg.MarketplaceEnabled)

	require.Equal(t, "USD", cfg.Currency.Base)
	require.Equal(t, time.Hour, cfg.Exchange.CacheTTL)

	require.Equal(t, uint64(1000), cfg.Auction.TxnFee)
	require.Equal(t, uint64(100000), cfg.Auction.AssetHoldingBuffer)
	require.Equal(t, uint32(7), cfg.Auction.NumGlobalInts)
	require.Equal(t, uint32(2), cfg.Auction.NumGlobalByteSlices)

	require.Equal(t, time.Minute, cfg.Scheduler.DispatchNotificationsInterval)
	require.Equal(t, 2*time.Minute, cfg.Scheduler.ReconcileLedgerInterval)
	require.Equal(t, 50, cfg.Packs.TargetInventory)
}

func TestFormatIndex(t *testing.T) {
	cfg := ElasticConfig{Prefix: "marketplace"}
	require.Equal(t, "marketplace-packs", FormatIndex(cfg, "packs"))
}
