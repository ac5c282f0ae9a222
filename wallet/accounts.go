package wallet

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/AlexZinkM/wallet-agent/internal/crypto"
	"github.com/AlexZinkM/wallet-agent/internal/common"
	"github.com/AlexZinkM/wallet-agent/internal/model"

	log "github.com/sirupsen/logrus"
)

const maxNameLen = 32

func defaultName(index uint32) string {
	return fmt.Sprintf("Account %d", index)
}

// Accounts returns the stored accounts ordered by index.
func (s *Service) Accounts(ctx context.Context) ([]model.Account, error) {
	accounts, err := s.vault.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(accounts, func(a, b model.Account) int {
		return cmp.Compare(a.Index, b.Index)
	})
	return accounts, nil
}

// SelectedAccount returns the selected account, falling back to the lowest index when the
// stored selection is missing. model.ErrNoWallet when there are no accounts.
func (s *Service) SelectedAccount(ctx context.Context) (model.Account, error) {
	accounts, err := s.Accounts(ctx)
	if err != nil {
		return model.Account{}, err
	}
	if len(accounts) == 0 {
		return model.Account{}, model.ErrNoWallet
	}

	index, ok, err := s.vault.SelectedIndex(ctx)
	if err != nil {
		return model.Account{}, err
	}
	if ok {
		if i := findIndex(accounts, index); i >= 0 {
			return accounts[i], nil
		}
	}
	return accounts[0], nil
}

// AccountByAddress looks up an account by its base58 address.
func (s *Service) AccountByAddress(ctx context.Context, address string) (model.Account, error) {
	accounts, err := s.vault.Accounts(ctx)
	if err != nil {
		return model.Account{}, err
	}
	for _, a := range accounts {
		if a.Address == address {
			return a, nil
		}
	}
	return model.Account{}, model.ErrAccountNotFound
}

// Select makes the account at index the selected one.
func (s *Service) Select(ctx context.Context, index uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.vault.Accounts(ctx)
	if err != nil {
		return err
	}
	if findIndex(accounts, index) < 0 {
		return model.ErrAccountNotFound
	}
	return s.vault.SetSelectedIndex(ctx, index)
}

// Rename changes the display label of an account.
func (s *Service) Rename(ctx context.Context, index uint32, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("account name cannot be empty")
	}
	if len([]rune(name)) > maxNameLen {
		return fmt.Errorf("account name longer than %d characters", maxNameLen)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.vault.Accounts(ctx)
	if err != nil {
		return err
	}
	i := findIndex(accounts, index)
	if i < 0 {
		return model.ErrAccountNotFound
	}
	accounts[i].Name = name
	return s.vault.SetAccounts(ctx, accounts)
}

// AddAccount derives the account after the highest existing index.
// Needs an unlocked session.
func (s *Service) AddAccount(ctx context.Context) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.vault.Accounts(ctx)
	if err != nil {
		return model.Account{}, err
	}
	var next uint32
	for _, a := range accounts {
		if a.Index >= next {
			next = a.Index + 1
		}
	}
	return s.addLocked(ctx, accounts, next)
}

// AddAccountAt derives the account at a specific index. An index already in the list is
// rejected with model.ErrAccountExists and nothing is changed.
func (s *Service) AddAccountAt(ctx context.Context, index uint32) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.vault.Accounts(ctx)
	if err != nil {
		return model.Account{}, err
	}
	if findIndex(accounts, index) >= 0 {
		return model.Account{}, fmt.Errorf("%w: index %d", model.ErrAccountExists, index)
	}
	return s.addLocked(ctx, accounts, index)
}

func (s *Service) addLocked(ctx context.Context, accounts []model.Account, index uint32) (model.Account, error) {
	var account model.Account
	err := s.session.WithSeed(func(mnemonic string) error {
		var err error
		account, err = crypto.DeriveAccount(mnemonic, index)
		return err
	})
	if err != nil {
		return model.Account{}, err
	}
	account.Name = defaultName(index)

	if err := s.vault.SetAccounts(ctx, append(accounts, account)); err != nil {
		return model.Account{}, err
	}
	log.WithFields(log.Fields{"index": index, "address": common.TruncateAddress(account.Address)}).Info("account added")
	return account, nil
}

// DeleteAccount removes exactly one account. The last remaining account cannot be deleted.
// If the deleted account was selected, the remaining account with the lowest index is selected.
// Grants pointing at the removed address are revoked.
func (s *Service) DeleteAccount(ctx context.Context, index uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.vault.Accounts(ctx)
	if err != nil {
		return err
	}
	i := findIndex(accounts, index)
	if i < 0 {
		return model.ErrAccountNotFound
	}
	if len(accounts) == 1 {
		return model.ErrLastAccount
	}

	removed := accounts[i]
	remaining := slices.Delete(slices.Clone(accounts), i, i+1)

	selected, ok, err := s.vault.SelectedIndex(ctx)
	if err != nil {
		return err
	}

	if err := s.vault.SetAccounts(ctx, remaining); err != nil {
		return err
	}

	if !ok || selected == index {
		lowest := slices.MinFunc(remaining, func(a, b model.Account) int {
			return cmp.Compare(a.Index, b.Index)
		})
		if err := s.vault.SetSelectedIndex(ctx, lowest.Index); err != nil {
			return err
		}
	}

	if s.registry != nil {
		if err := s.registry.RevokeAddress(ctx, removed.Address); err != nil {
			return err
		}
	}

	log.WithField("index", index).Info("account deleted")
	return nil
}

func findIndex(accounts []model.Account, index uint32) int {
	return slices.IndexFunc(accounts, func(a model.Account) bool { return a.Index == index })
}
