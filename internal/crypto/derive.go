package crypto

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"

	"github.com/AlexZinkM/wallet-agent/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/tyler-smith/go-bip39"
)

const (
	solanaCoinType  = 501
	purpose         = 44
	hardenedOffset  = 0x80000000
	slip10CurveSeed = "ed25519 seed"
)

// DerivationPath returns the hardened Solana path for an account index: m/44'/501'/index'/0'
func DerivationPath(index uint32) string {
	return fmt.Sprintf("m/%d'/%d'/%d'/0'", purpose, solanaCoinType, index)
}

// DeriveAccount derives the public account record for index.
// Deterministic in (mnemonic, index); safe for concurrent use.
func DeriveAccount(mnemonic string, index uint32) (model.Account, error) {
	key, err := DerivePrivateKey(mnemonic, index)
	if err != nil {
		return model.Account{}, err
	}
	defer clear(key)

	return model.Account{
		Index:          index,
		Address:        key.PublicKey().String(),
		DerivationPath: DerivationPath(index),
	}, nil
}

// DerivePrivateKey derives the full 64-byte ed25519 signing key for index.
// Caller must zero the returned key after use.
func DerivePrivateKey(mnemonic string, index uint32) (solana.PrivateKey, error) {
	if mnemonic == "" {
		return nil, model.ErrWalletLocked
	}
	if index >= hardenedOffset {
		return nil, fmt.Errorf("account index %d out of range", index)
	}

	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidMnemonic, err)
	}
	defer clear(seed)

	key, chainCode := slip10Master(seed)
	for _, segment := range []uint32{purpose, solanaCoinType, index, 0} {
		key, chainCode = slip10Child(key, chainCode, segment+hardenedOffset)
	}
	defer clear(key)
	defer clear(chainCode)

	return solana.PrivateKey(ed25519.NewKeyFromSeed(key)), nil
}

// slip10Master computes the SLIP-0010 ed25519 master key and chain code from a BIP-39 seed.
func slip10Master(seed []byte) (key, chainCode []byte) {
	mac := hmac.New(sha512.New, []byte(slip10CurveSeed))
	mac.Write(seed)
	sum := mac.Sum(nil)
	return sum[:32], sum[32:]
}

// slip10Child derives a hardened child. ed25519 only supports hardened derivation,
// so index must already carry the hardened offset.
func slip10Child(key, chainCode []byte, index uint32) ([]byte, []byte) {
	data := make([]byte, 0, 1+len(key)+4)
	data = append(data, 0x00)
	data = append(data, key...)
	data = binary.BigEndian.AppendUint32(data, index)
	defer clear(data)

	mac := hmac.New(sha512.New, chainCode)
	mac.Write(data)
	sum := mac.Sum(nil)

	clear(key)
	clear(chainCode)
	return sum[:32], sum[32:]
}
