package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/AlexZinkM/wallet-agent/internal/config"

	"github.com/stretchr/testify/require"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestOpenPersistsAcrossRestarts(t *testing.T) {
	for _, driver := range []string{"badger", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), "wallet")
			if driver == "sqlite" {
				path += ".db"
			}
			t.Setenv("STORE_DRIVER", driver)
			t.Setenv("STORE_PATH", path)
			cfg, err := config.Load()
			require.NoError(t, err)

			a, err := Open(ctx, cfg)
			require.NoError(t, err)
			_, err = a.Wallet.Import(ctx, testMnemonic, []byte("pw"))
			require.NoError(t, err)
			_, err = a.Registry.Grant(ctx, "https://dapp.example", "HAgk14JpMQLgt6rVgv7cBQFJWFto5Dqxi472uT3DKpqk")
			require.NoError(t, err)
			require.True(t, a.Wallet.Unlocked())
			require.NoError(t, a.Close())

			b, err := Open(ctx, cfg)
			require.NoError(t, err)
			defer b.Close()

			// the session does not survive a restart, the vault and grants do
			require.False(t, b.Wallet.Unlocked())
			accounts, err := b.Wallet.Accounts(ctx)
			require.NoError(t, err)
			require.Len(t, accounts, 1)
			grant, err := b.Registry.IsConnected(ctx, "https://dapp.example")
			require.NoError(t, err)
			require.NotNil(t, grant)
		})
	}
}

func TestPriceSourceSelection(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("PRICE_SOURCE", "backend")
	cfg, err := config.Load()
	require.NoError(t, err)

	a, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()
	require.NotNil(t, a.Backend)
}
