package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/AlexZinkM/wallet-agent/internal/model"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// PBKDF2 parameters for the seed vault. Must stay stable: every stored blob
	// was sealed with them and there is no version field.
	kdfIterations = 100000
	kdfKeyLen     = 32 // AES-256
	saltLen       = 16
	nonceLen      = 12
)

// EncryptMnemonic seals the mnemonic under a key derived from password with a fresh salt and nonce.
// password must be []byte for security (caller should zero it after use)
func EncryptMnemonic(mnemonic string, password []byte) (*model.EncryptedMnemonic, error) {
	if mnemonic == "" {
		return nil, errors.New("mnemonic is empty")
	}
	if len(password) == 0 {
		return nil, errors.New("password is empty")
	}

	// Generate salt and nonce
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	aesGCM, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}

	plaintext := []byte(mnemonic)
	defer clear(plaintext) // wipe plaintext bytes from memory

	return &model.EncryptedMnemonic{
		Cipher: aesGCM.Seal(nil, nonce, plaintext, nil),
		Salt:   salt,
		IV:     nonce,
	}, nil
}

// newGCM derives the vault key from password and salt and wraps it in AES-GCM.
func newGCM(password, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(password, salt, kdfIterations, kdfKeyLen, sha256.New)
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}
