// Package wallet manages the seed vault and the derived accounts on top of the store and session.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AlexZinkM/wallet-agent/internal/crypto"
	"github.com/AlexZinkM/wallet-agent/internal/model"
	"github.com/AlexZinkM/wallet-agent/internal/registry"
	"github.com/AlexZinkM/wallet-agent/internal/session"
	"github.com/AlexZinkM/wallet-agent/internal/store"

	"github.com/gagliardetto/solana-go"
	log "github.com/sirupsen/logrus"
)

// Chain is the broadcast/confirmation collaborator.
type Chain interface {
	GetBalance(ctx context.Context, address string) (uint64, error)
	TransferSOL(ctx context.Context, key solana.PrivateKey, toAddress string, lamports uint64, confirmTimeout time.Duration) (*model.SendResponse, error)
}

// PriceSource quotes SOL in USD.
type PriceSource interface {
	GetSOLPriceUSD(ctx context.Context) (float64, error)
}

// TokenSource lists SPL token balances.
type TokenSource interface {
	GetTokenBalances(ctx context.Context, address string) ([]model.Token, error)
}

// Service owns the persisted wallet. Account list mutations are serialized.
type Service struct {
	vault    *store.Vault
	session  *session.Session
	registry *registry.Registry

	chain          Chain
	prices         PriceSource
	tokens         TokenSource
	confirmTimeout time.Duration

	mu sync.Mutex
}

// Option configures optional collaborators of the Service.
type Option func(*Service)

func WithChain(c Chain) Option { return func(s *Service) { s.chain = c } }
func WithPrices(p PriceSource) Option { return func(s *Service) { s.prices = p } }
func WithTokens(t TokenSource) Option { return func(s *Service) { s.tokens = t } }
func WithConfirmTimeout(d time.Duration) Option { return func(s *Service) { s.confirmTimeout = d } }
func WithRegistry(r *registry.Registry) Option { return func(s *Service) { s.registry = r } }

func New(vault *store.Vault, sess *session.Session, opts ...Option) *Service {
	s := &Service{
		vault:          vault,
		session:        sess,
		confirmTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Exists reports whether a wallet has been created or imported.
func (s *Service) Exists(ctx context.Context) (bool, error) {
	return s.vault.HasWallet(ctx)
}

// Create generates a new seed phrase and stores it encrypted under password.
// The mnemonic is returned once so the user can back it up.
// password must be []byte for security (caller should zero it after use)
func (s *Service) Create(ctx context.Context, password []byte) (string, model.Account, error) {
	mnemonic, err := crypto.NewMnemonic()
	if err != nil {
		return "", model.Account{}, fmt.Errorf("failed to generate mnemonic: %w", err)
	}

	account, err := s.Import(ctx, mnemonic, password)
	if err != nil {
		return "", model.Account{}, err
	}
	return mnemonic, account, nil
}

// Import stores an existing seed phrase encrypted under password, derives account 0,
// selects it and unlocks the session.
func (s *Service) Import(ctx context.Context, mnemonic string, password []byte) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Refuse to overwrite an existing wallet
	exists, err := s.vault.HasWallet(ctx)
	if err != nil {
		return model.Account{}, err
	}
	if exists {
		return model.Account{}, model.ErrWalletExists
	}

	normalized, err := crypto.NormalizeMnemonic(mnemonic)
	if err != nil {
		return model.Account{}, err
	}

	// Derive first account
	account, err := crypto.DeriveAccount(normalized, 0)
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to derive account: %w", err)
	}
	account.Name = defaultName(0)

	blob, err := crypto.EncryptMnemonic(normalized, password)
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to encrypt wallet: %w", err)
	}

	// The encrypted seed marks the wallet as existing, so it is written last:
	// a failure before it leaves the vault retryable.
	if err := s.vault.SetAccounts(ctx, []model.Account{account}); err != nil {
		return model.Account{}, err
	}
	if err := s.vault.SetSelectedIndex(ctx, 0); err != nil {
		return model.Account{}, err
	}
	if err := s.vault.SetEncryptedMnemonic(ctx, blob); err != nil {
		return model.Account{}, err
	}

	if err := s.session.SetSeed(ctx, normalized); err != nil {
		return model.Account{}, err
	}

	log.WithField("address", account.Address).Info("wallet stored")
	return account, nil
}

// Reset locks the session and erases the vault, grants included. It is the way out of a
// wallet whose password is lost or whose records are damaged.
func (s *Service) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.session.ClearSeed(ctx); err != nil {
		return err
	}
	if err := s.vault.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear vault: %w", err)
	}
	if s.registry != nil {
		if err := s.registry.RevokeAll(ctx); err != nil {
			return err
		}
	}
	log.Warn("wallet reset")
	return nil
}

// Unlock decrypts the seed into the session. A wrong password yields model.ErrWrongPassword.
func (s *Service) Unlock(ctx context.Context, password []byte) error {
	mnemonic, err := s.decrypt(ctx, password)
	if err != nil {
		return err
	}
	return s.session.SetSeed(ctx, mnemonic)
}

// Lock wipes the session seed.
func (s *Service) Lock(ctx context.Context) error {
	return s.session.ClearSeed(ctx)
}

// Unlocked reports whether the session currently holds the seed.
func (s *Service) Unlocked() bool {
	return s.session.HasSeed()
}

// SigningKey decrypts the vault with password and derives the key of the account
// at address for a single operation. The caller must clear() the key after use.
func (s *Service) SigningKey(ctx context.Context, password []byte, address string) (solana.PrivateKey, error) {
	account, err := s.AccountByAddress(ctx, address)
	if err != nil {
		return nil, err
	}

	mnemonic, err := s.decrypt(ctx, password)
	if err != nil {
		return nil, err
	}

	key, err := crypto.DerivePrivateKey(mnemonic, account.Index)
	if err != nil {
		return nil, err
	}
	if key.PublicKey().String() != account.Address {
		clear(key)
		return nil, fmt.Errorf("derived key does not match account %d", account.Index)
	}
	return key, nil
}

// decrypt opens the vault, mapping authentication failures to model.ErrWrongPassword.
func (s *Service) decrypt(ctx context.Context, password []byte) (string, error) {
	blob, err := s.vault.EncryptedMnemonic(ctx)
	if err != nil {
		return "", err
	}

	mnemonic, err := crypto.DecryptMnemonic(blob, password)
	if err != nil {
		if errors.Is(err, model.ErrAuthentication) {
			return "", model.ErrWrongPassword
		}
		return "", err
	}
	return mnemonic, nil
}
