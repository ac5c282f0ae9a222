package wallet

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/AlexZinkM/wallet-agent/internal/crypto"
	"github.com/AlexZinkM/wallet-agent/internal/model"

	log "github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"
)

// RevealMnemonic returns the seed phrase for backup after re-checking the password.
func (s *Service) RevealMnemonic(ctx context.Context, password []byte) (string, error) {
	return s.decrypt(ctx, password)
}

// ExportKey returns the key file of the account at index, including a QR code of its address.
// password must be []byte for security (caller should zero it after use)
func (s *Service) ExportKey(ctx context.Context, password []byte, index uint32) (*model.KeyFile, error) {
	accounts, err := s.vault.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	i := findIndex(accounts, index)
	if i < 0 {
		return nil, model.ErrAccountNotFound
	}
	account := accounts[i]

	key, err := s.SigningKey(ctx, password, account.Address)
	if err != nil {
		return nil, err
	}
	defer clear(key)

	// Generate QR code
	qrCode, err := generateQRCode(account.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}

	name := account.Name
	if name == "" {
		name = defaultName(account.Index)
	}

	log.WithField("index", index).Warn("private key exported")
	return &model.KeyFile{
		PrivateKey:     key.String(),
		Address:        account.Address,
		Name:           name,
		DerivationPath: account.DerivationPath,
		QR:             qrCode,
	}, nil
}

// ChangePassword re-encrypts the seed under newPassword.
// Both passwords must be []byte for security (caller should zero them after use)
func (s *Service) ChangePassword(ctx context.Context, oldPassword, newPassword []byte) error {
	if len(newPassword) == 0 {
		return fmt.Errorf("new password cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mnemonic, err := s.decrypt(ctx, oldPassword)
	if err != nil {
		return err
	}

	blob, err := crypto.EncryptMnemonic(mnemonic, newPassword)
	if err != nil {
		return fmt.Errorf("failed to encrypt wallet: %w", err)
	}
	if err := s.vault.SetEncryptedMnemonic(ctx, blob); err != nil {
		return err
	}

	log.Info("wallet password changed")
	return nil
}

// generateQRCode generates QR code of address in base64
func generateQRCode(address string) (string, error) {
	qr, err := qrcode.New(address, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	// Get PNG image
	png, err := qr.PNG(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate PNG: %w", err)
	}

	// Encode to base64
	return base64.StdEncoding.EncodeToString(png), nil
}
