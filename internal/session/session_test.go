package session

import (
	"context"
	"testing"

	"github.com/AlexZinkM/wallet-agent/internal/model"
	"github.com/AlexZinkM/wallet-agent/internal/store"

	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	s := New(kv)

	require.False(t, s.HasSeed())
	unlocked, err := s.Unlocked(ctx)
	require.NoError(t, err)
	require.False(t, unlocked)

	err = s.WithSeed(func(string) error { return nil })
	require.ErrorIs(t, err, model.ErrWalletLocked)

	require.NoError(t, s.SetSeed(ctx, "abandon about"))
	require.True(t, s.HasSeed())
	unlocked, err = s.Unlocked(ctx)
	require.NoError(t, err)
	require.True(t, unlocked)

	var seen string
	require.NoError(t, s.WithSeed(func(m string) error {
		seen = m
		return nil
	}))
	require.Equal(t, "abandon about", seen)

	raw, err := kv.Get(ctx, "session/walletUnlocked")
	require.NoError(t, err)
	require.Equal(t, "true", string(raw))

	require.NoError(t, s.ClearSeed(ctx))
	require.False(t, s.HasSeed())
	unlocked, err = s.Unlocked(ctx)
	require.NoError(t, err)
	require.False(t, unlocked)
}

func TestSetSeedRejectsEmpty(t *testing.T) {
	s := New(store.NewMemory())
	require.Error(t, s.SetSeed(context.Background(), ""))
	require.False(t, s.HasSeed())
}
