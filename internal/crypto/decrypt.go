package crypto

import (
	"fmt"

	"github.com/AlexZinkM/wallet-agent/internal/model"
)

// DecryptMnemonic opens a blob produced by EncryptMnemonic.
// A wrong password and a tampered blob are both reported as model.ErrAuthentication;
// this is the only password check in the wallet.
// password must be []byte for security (caller should zero it after use)
func DecryptMnemonic(blob *model.EncryptedMnemonic, password []byte) (string, error) {
	if blob == nil {
		return "", model.ErrNoWallet
	}
	if len(blob.Salt) != saltLen || len(blob.IV) != nonceLen || len(blob.Cipher) == 0 {
		return "", fmt.Errorf("%w: malformed blob", model.ErrAuthentication)
	}

	aesGCM, err := newGCM(password, blob.Salt)
	if err != nil {
		return "", err
	}

	plaintext, err := aesGCM.Open(nil, blob.IV, blob.Cipher, nil)
	if err != nil {
		return "", model.ErrAuthentication
	}
	defer clear(plaintext) // wipe decrypted bytes from memory

	return string(plaintext), nil
}
