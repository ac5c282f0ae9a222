package crypto

import (
	"strings"

	"github.com/AlexZinkM/wallet-agent/internal/model"

	"github.com/tyler-smith/go-bip39"
)

// mnemonicEntropyBits gives a 12 word phrase
const mnemonicEntropyBits = 128

// NewMnemonic generates a fresh BIP-39 seed phrase.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(mnemonicEntropyBits)
	if err != nil {
		return "", err
	}
	defer clear(entropy)

	return bip39.NewMnemonic(entropy)
}

// NormalizeMnemonic trims and collapses whitespace and lowercases the words,
// then checks the BIP-39 checksum.
func NormalizeMnemonic(mnemonic string) (string, error) {
	normalized := strings.Join(strings.Fields(strings.ToLower(mnemonic)), " ")
	if normalized == "" || !bip39.IsMnemonicValid(normalized) {
		return "", model.ErrInvalidMnemonic
	}
	return normalized, nil
}
