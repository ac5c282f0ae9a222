package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/AlexZinkM/wallet-agent/internal/model"
)

// VaultNamespace is the durable namespace holding the wallet.
const VaultNamespace = "wallet"

const (
	keyEncryptedMnemonic = "encryptedMnemonic"
	keyAccounts          = "accounts"
	keySelectedAccount   = "selectedAccountIndex"
	keyConnectedSites    = "connectedSites"
)

// Vault gives typed access to the persisted wallet records.
type Vault struct {
	kv KV
}

func NewVault(kv KV) *Vault {
	return &Vault{kv: Namespace(kv, VaultNamespace)}
}

// EncryptedMnemonic returns model.ErrNoWallet when no wallet has been created yet.
func (v *Vault) EncryptedMnemonic(ctx context.Context) (*model.EncryptedMnemonic, error) {
	var blob model.EncryptedMnemonic
	if err := v.getJSON(ctx, keyEncryptedMnemonic, &blob); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, model.ErrNoWallet
		}
		return nil, err
	}
	return &blob, nil
}

func (v *Vault) SetEncryptedMnemonic(ctx context.Context, blob *model.EncryptedMnemonic) error {
	return v.setJSON(ctx, keyEncryptedMnemonic, blob)
}

// HasWallet reports whether an encrypted seed is stored.
func (v *Vault) HasWallet(ctx context.Context) (bool, error) {
	_, err := v.kv.Get(ctx, keyEncryptedMnemonic)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Accounts returns the account list ordered as stored; empty when none.
func (v *Vault) Accounts(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	if err := v.getJSON(ctx, keyAccounts, &accounts); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return accounts, nil
}

func (v *Vault) SetAccounts(ctx context.Context, accounts []model.Account) error {
	return v.setJSON(ctx, keyAccounts, accounts)
}

// SelectedIndex returns the selected account index and whether one is set.
func (v *Vault) SelectedIndex(ctx context.Context) (uint32, bool, error) {
	raw, err := v.kv.Get(ctx, keySelectedAccount)
	if errors.Is(err, ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	idx, err := strconv.ParseUint(string(raw), 10, 32)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt %s: %w", keySelectedAccount, err)
	}
	return uint32(idx), true, nil
}

func (v *Vault) SetSelectedIndex(ctx context.Context, index uint32) error {
	return v.kv.Set(ctx, keySelectedAccount, []byte(strconv.FormatUint(uint64(index), 10)))
}

// ConnectedSites returns the origin -> grant map; never nil.
func (v *Vault) ConnectedSites(ctx context.Context) (map[string]model.ConnectionGrant, error) {
	sites := make(map[string]model.ConnectionGrant)
	if err := v.getJSON(ctx, keyConnectedSites, &sites); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return sites, nil
}

func (v *Vault) SetConnectedSites(ctx context.Context, sites map[string]model.ConnectionGrant) error {
	return v.setJSON(ctx, keyConnectedSites, sites)
}

// Clear removes every wallet record.
func (v *Vault) Clear(ctx context.Context) error {
	return v.kv.DeletePrefix(ctx, "")
}

func (v *Vault) getJSON(ctx context.Context, key string, out any) error {
	raw, err := v.kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("corrupt %s: %w", key, err)
	}
	return nil
}

func (v *Vault) setJSON(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return v.kv.Set(ctx, key, raw)
}
