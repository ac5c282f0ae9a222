package wallet

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/AlexZinkM/wallet-agent/internal/model"
	"github.com/AlexZinkM/wallet-agent/internal/registry"
	"github.com/AlexZinkM/wallet-agent/internal/session"
	"github.com/AlexZinkM/wallet-agent/internal/store"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

const (
	testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	testPassword = "correct-horse-battery-staple12"
	account0     = "HAgk14JpMQLgt6rVgv7cBQFJWFto5Dqxi472uT3DKpqk"
	account1     = "Hh8QwFUA6MtVu1qAoq12ucvFHNwCcVTV7hpWjeY1Hztb"
	account2     = "7WktogJEd2wQ9eH2oWusmcoFTgeYi6rS632UviTBJ2jm"
)

type fakeChain struct {
	lamports uint64
	sentTo   string
	sentAmt  uint64
	sentFrom string
}

func (f *fakeChain) GetBalance(context.Context, string) (uint64, error) {
	return f.lamports, nil
}

func (f *fakeChain) TransferSOL(_ context.Context, key solana.PrivateKey, to string, lamports uint64, _ time.Duration) (*model.SendResponse, error) {
	f.sentFrom = key.PublicKey().String()
	f.sentTo = to
	f.sentAmt = lamports
	return &model.SendResponse{TxID: "sig", Status: "confirmed"}, nil
}

type fakePrices struct {
	price float64
	err   error
}

func (f fakePrices) GetSOLPriceUSD(context.Context) (float64, error) { return f.price, f.err }

type testEnv struct {
	svc      *Service
	vault    *store.Vault
	session  *session.Session
	registry *registry.Registry
	chain    *fakeChain
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	vault := store.NewVault(store.NewMemory())
	sess := session.New(store.NewMemory())
	reg := registry.New(vault)
	require.NoError(t, reg.Hydrate(context.Background()))
	chain := &fakeChain{}

	opts = append([]Option{WithChain(chain), WithRegistry(reg)}, opts...)
	return &testEnv{
		svc:      New(vault, sess, opts...),
		vault:    vault,
		session:  sess,
		registry: reg,
		chain:    chain,
	}
}

func (e *testEnv) importFixed(t *testing.T) {
	t.Helper()
	acc, err := e.svc.Import(context.Background(), testMnemonic, []byte(testPassword))
	require.NoError(t, err)
	require.Equal(t, account0, acc.Address)
}

func TestImportKnownVector(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	exists, err := env.svc.Exists(ctx)
	require.NoError(t, err)
	require.False(t, exists)

	acc, err := env.svc.Import(ctx, "  ABANDON abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about ", []byte(testPassword))
	require.NoError(t, err)
	require.Equal(t, account0, acc.Address)
	require.Equal(t, "Account 0", acc.Name)
	require.Equal(t, "m/44'/501'/0'/0'", acc.DerivationPath)
	require.True(t, env.svc.Unlocked())

	selected, err := env.svc.SelectedAccount(ctx)
	require.NoError(t, err)
	require.Equal(t, acc, selected)

	_, err = env.svc.Import(ctx, testMnemonic, []byte(testPassword))
	require.ErrorIs(t, err, model.ErrWalletExists)
}

func TestImportInvalidMnemonic(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Import(context.Background(), "abandon abandon", []byte(testPassword))
	require.ErrorIs(t, err, model.ErrInvalidMnemonic)

	exists, err := env.svc.Exists(context.Background())
	require.NoError(t, err)
	require.False(t, exists)
}

func TestCreate(t *testing.T) {
	env := newTestEnv(t)
	mnemonic, acc, err := env.svc.Create(context.Background(), []byte(testPassword))
	require.NoError(t, err)
	require.Len(t, strings.Fields(mnemonic), 12)
	require.EqualValues(t, 0, acc.Index)

	revealed, err := env.svc.RevealMnemonic(context.Background(), []byte(testPassword))
	require.NoError(t, err)
	require.Equal(t, mnemonic, revealed)
}

func TestLockUnlock(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.importFixed(t)

	require.NoError(t, env.svc.Lock(ctx))
	require.False(t, env.svc.Unlocked())

	_, err := env.svc.AddAccount(ctx)
	require.ErrorIs(t, err, model.ErrWalletLocked)

	require.ErrorIs(t, env.svc.Unlock(ctx, []byte("wrong")), model.ErrWrongPassword)
	require.False(t, env.svc.Unlocked())

	require.NoError(t, env.svc.Unlock(ctx, []byte(testPassword)))
	require.True(t, env.svc.Unlocked())
}

func TestUnlockWithoutWallet(t *testing.T) {
	env := newTestEnv(t)
	require.ErrorIs(t, env.svc.Unlock(context.Background(), []byte(testPassword)), model.ErrNoWallet)
}

func TestAddAccounts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.importFixed(t)

	acc, err := env.svc.AddAccount(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, acc.Index)
	require.Equal(t, account1, acc.Address)
	require.Equal(t, "Account 1", acc.Name)

	acc, err = env.svc.AddAccountAt(ctx, 5)
	require.NoError(t, err)
	require.EqualValues(t, 5, acc.Index)

	acc, err = env.svc.AddAccount(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 6, acc.Index)

	accounts, err := env.svc.Accounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 4)
}

func TestAddAccountAtDuplicateIndex(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.importFixed(t)
	_, err := env.svc.AddAccountAt(ctx, 2)
	require.NoError(t, err)

	before, err := env.vault.Accounts(ctx)
	require.NoError(t, err)

	_, err = env.svc.AddAccountAt(ctx, 2)
	require.ErrorIs(t, err, model.ErrAccountExists)

	after, err := env.vault.Accounts(ctx)
	require.NoError(t, err)
	require.Equal(t, before, after)
	require.Equal(t, account2, after[1].Address)
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.importFixed(t)

	require.ErrorIs(t, env.svc.DeleteAccount(ctx, 0), model.ErrLastAccount)

	_, err := env.svc.AddAccountAt(ctx, 3)
	require.NoError(t, err)
	_, err = env.svc.AddAccountAt(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, env.svc.Select(ctx, 1))

	_, err = env.registry.Grant(ctx, "https://dapp.example", account1)
	require.NoError(t, err)

	// non-selected account: selection unchanged
	require.NoError(t, env.svc.DeleteAccount(ctx, 3))
	selected, err := env.svc.SelectedAccount(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, selected.Index)

	// selected account: lowest remaining index becomes selected
	require.NoError(t, env.svc.DeleteAccount(ctx, 1))
	selected, err = env.svc.SelectedAccount(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, selected.Index)

	accounts, err := env.svc.Accounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	grant, err := env.registry.IsConnected(ctx, "https://dapp.example")
	require.NoError(t, err)
	require.Nil(t, grant)

	require.ErrorIs(t, env.svc.DeleteAccount(ctx, 9), model.ErrAccountNotFound)
}

func TestSelectAndRename(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.importFixed(t)

	require.ErrorIs(t, env.svc.Select(ctx, 4), model.ErrAccountNotFound)
	require.NoError(t, env.svc.Rename(ctx, 0, "  Savings "))
	require.Error(t, env.svc.Rename(ctx, 0, "   "))
	require.ErrorIs(t, env.svc.Rename(ctx, 7, "x"), model.ErrAccountNotFound)

	acc, err := env.svc.AccountByAddress(ctx, account0)
	require.NoError(t, err)
	require.Equal(t, "Savings", acc.Name)

	_, err = env.svc.AccountByAddress(ctx, account1)
	require.ErrorIs(t, err, model.ErrAccountNotFound)
}

func TestExportKey(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.importFixed(t)

	_, err := env.svc.ExportKey(ctx, []byte("nope"), 0)
	require.ErrorIs(t, err, model.ErrWrongPassword)

	kf, err := env.svc.ExportKey(ctx, []byte(testPassword), 0)
	require.NoError(t, err)
	require.Equal(t, account0, kf.Address)
	require.Equal(t, "Account 0", kf.Name)

	key, err := solana.PrivateKeyFromBase58(kf.PrivateKey)
	require.NoError(t, err)
	require.Equal(t, account0, key.PublicKey().String())

	png, err := base64.StdEncoding.DecodeString(kf.QR)
	require.NoError(t, err)
	require.Equal(t, []byte("\x89PNG"), png[:4])
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.importFixed(t)

	require.ErrorIs(t, env.svc.ChangePassword(ctx, []byte("bad"), []byte("new-pass")), model.ErrWrongPassword)
	require.NoError(t, env.svc.ChangePassword(ctx, []byte(testPassword), []byte("new-pass")))

	require.ErrorIs(t, env.svc.Unlock(ctx, []byte(testPassword)), model.ErrWrongPassword)
	require.NoError(t, env.svc.Unlock(ctx, []byte("new-pass")))
}

func TestBalance(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, WithPrices(fakePrices{price: 100}))
	env.importFixed(t)
	env.chain.lamports = 1_500_000_000

	b, err := env.svc.Balance(ctx)
	require.NoError(t, err)
	require.Equal(t, account0, b.Address)
	require.Equal(t, "1.500000000", b.SOL)
	require.Equal(t, "100.00", b.PriceUSD)
	require.Equal(t, "150.00", b.USD)
}

func TestBalancePriceFailure(t *testing.T) {
	env := newTestEnv(t, WithPrices(fakePrices{err: errors.New("rate limited")}))
	env.importFixed(t)
	env.chain.lamports = 42

	b, err := env.svc.Balance(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 42, b.Lamports)
	require.Empty(t, b.USD)
}

func TestSendSOL(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.importFixed(t)
	to := solana.NewWallet().PublicKey().String()

	env.chain.lamports = 1000
	_, err := env.svc.SendSOL(ctx, []byte(testPassword), to, "0.5")
	require.ErrorContains(t, err, "insufficient SOL balance")

	_, err = env.svc.SendSOL(ctx, []byte(testPassword), "bogus", "0.5")
	require.ErrorContains(t, err, "invalid Solana address")

	env.chain.lamports = 2_000_000_000
	_, err = env.svc.SendSOL(ctx, []byte("wrong"), to, "0.5")
	require.ErrorIs(t, err, model.ErrWrongPassword)

	resp, err := env.svc.SendSOL(ctx, []byte(testPassword), to, "0.5")
	require.NoError(t, err)
	require.Equal(t, "confirmed", resp.Status)
	require.Equal(t, account0, env.chain.sentFrom)
	require.Equal(t, to, env.chain.sentTo)
	require.EqualValues(t, 500_000_000, env.chain.sentAmt)
}

// flakyKV fails the first write of one key.
type flakyKV struct {
	store.KV
	key    string
	failed bool
}

func (f *flakyKV) Set(ctx context.Context, key string, value []byte) error {
	if key == f.key && !f.failed {
		f.failed = true
		return errors.New("disk full")
	}
	return f.KV.Set(ctx, key, value)
}

func TestImportInterruptedIsRetryable(t *testing.T) {
	ctx := context.Background()
	for _, key := range []string{"accounts", "selectedAccountIndex", "encryptedMnemonic"} {
		t.Run(key, func(t *testing.T) {
			vault := store.NewVault(&flakyKV{KV: store.NewMemory(), key: key})
			svc := New(vault, session.New(store.NewMemory()))

			_, err := svc.Import(ctx, testMnemonic, []byte(testPassword))
			require.EqualError(t, err, "disk full")

			exists, err := svc.Exists(ctx)
			require.NoError(t, err)
			require.False(t, exists)

			acc, err := svc.Import(ctx, testMnemonic, []byte(testPassword))
			require.NoError(t, err)
			require.Equal(t, account0, acc.Address)

			selected, err := svc.SelectedAccount(ctx)
			require.NoError(t, err)
			require.Equal(t, account0, selected.Address)
		})
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.importFixed(t)
	_, err := env.registry.Grant(ctx, "https://dapp.example", account0)
	require.NoError(t, err)

	require.NoError(t, env.svc.Reset(ctx))
	require.False(t, env.svc.Unlocked())

	exists, err := env.svc.Exists(ctx)
	require.NoError(t, err)
	require.False(t, exists)
	accounts, err := env.svc.Accounts(ctx)
	require.NoError(t, err)
	require.Empty(t, accounts)
	sites, err := env.registry.List(ctx)
	require.NoError(t, err)
	require.Empty(t, sites)

	// a fresh wallet can be imported afterwards
	env.importFixed(t)
}
