package model

// EncryptedMnemonic is the at-rest form of the seed phrase (stored under "encryptedMnemonic").
// Byte fields are base64 encoded in JSON.
type EncryptedMnemonic struct {
	Cipher []byte `json:"cipher"`
	Salt   []byte `json:"salt"`
	IV     []byte `json:"iv"`
}

// Account is a derived wallet account. Index, Address and DerivationPath never change
// after creation; Name is a mutable display label.
type Account struct {
	Index          uint32 `json:"index"`
	Address        string `json:"address"`
	DerivationPath string `json:"derivationPath"`
	Name           string `json:"name,omitempty"`
}

// KeyFile is the exported private key document for a single account
type KeyFile struct {
	PrivateKey     string `json:"privateKey"` // base58, 64 bytes
	Address        string `json:"address"`
	Name           string `json:"name"`
	DerivationPath string `json:"derivationPath"`
	QR             string `json:"QR"` // base64 PNG of the address
}
