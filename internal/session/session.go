// Package session holds the cleartext seed while the wallet is unlocked.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/AlexZinkM/wallet-agent/internal/model"
	"github.com/AlexZinkM/wallet-agent/internal/store"
)

// Namespace is the ephemeral store namespace for session-scoped records.
const Namespace = "session"

const keyWalletUnlocked = "walletUnlocked"

// Session is the in-memory unlocked state. The seed never touches durable storage;
// only the walletUnlocked flag is written, and only to the ephemeral KV handed to New.
type Session struct {
	mu   sync.RWMutex
	seed []byte
	kv   store.KV
}

// New binds a session to an ephemeral KV (normally store.NewMemory()).
func New(kv store.KV) *Session {
	return &Session{kv: store.Namespace(kv, Namespace)}
}

// KV returns the session-scoped ephemeral namespace.
func (s *Session) KV() store.KV {
	return s.kv
}

// SetSeed stores the mnemonic for the unlocked session, replacing and wiping any previous one.
func (s *Session) SetSeed(ctx context.Context, mnemonic string) error {
	if mnemonic == "" {
		return errors.New("empty seed")
	}
	s.mu.Lock()
	clear(s.seed)
	s.seed = []byte(mnemonic)
	s.mu.Unlock()

	return s.kv.Set(ctx, keyWalletUnlocked, []byte("true"))
}

// ClearSeed wipes the seed and drops every session record.
func (s *Session) ClearSeed(ctx context.Context) error {
	s.mu.Lock()
	clear(s.seed)
	s.seed = nil
	s.mu.Unlock()

	return s.kv.Delete(ctx, keyWalletUnlocked)
}

func (s *Session) HasSeed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seed) > 0
}

// Unlocked reports the persisted walletUnlocked flag.
func (s *Session) Unlocked(ctx context.Context) (bool, error) {
	raw, err := s.kv.Get(ctx, keyWalletUnlocked)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return string(raw) == "true", nil
}

// WithSeed lends the mnemonic to fn for the duration of the call.
// Returns model.ErrWalletLocked if there is no seed.
func (s *Session) WithSeed(fn func(mnemonic string) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.seed) == 0 {
		return model.ErrWalletLocked
	}
	return fn(string(s.seed))
}
