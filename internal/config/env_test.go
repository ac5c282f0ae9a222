package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", c.Port)
	require.Equal(t, "badger", c.StoreDriver)
	require.Equal(t, 5*time.Minute, c.ApprovalTimeout)
	require.Equal(t, 30*time.Second, c.ConfirmTimeout)
	require.Equal(t, 50, c.RelayBurst)
	require.Equal(t, "coingecko", c.PriceSource)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9191")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("APPROVAL_TIMEOUT", "90s")
	t.Setenv("RELAY_RATE_PER_SECOND", "0.5")

	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, "9191", c.Port)
	require.Equal(t, "sqlite", c.StoreDriver)
	require.Equal(t, 90*time.Second, c.ApprovalTimeout)
	require.InDelta(t, 0.5, c.RelayRate, 1e-9)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"STORE_DRIVER":     "redis",
		"PRICE_SOURCE":     "oracle",
		"APPROVAL_TIMEOUT": "0s",
	}
	for env, value := range tests {
		t.Run(env, func(t *testing.T) {
			t.Setenv(env, value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestInitAndGet(t *testing.T) {
	t.Setenv("SOLANA_RPC_URL", "http://127.0.0.1:8899")
	require.NoError(t, Init())
	require.Equal(t, "http://127.0.0.1:8899", GetSolanaRPCURL())
	require.Equal(t, "8080", GetPort())
}
