package model

// CreateRequest represents request for POST /wallet/create and /wallet/import
type CreateRequest struct {
	Password string `json:"password" binding:"required"`
	Mnemonic string `json:"mnemonic,omitempty"`
}

// CreateResponse represents response for POST /wallet/create and /wallet/import.
// Mnemonic is only set for freshly generated wallets so the user can back it up.
type CreateResponse struct {
	Success  bool    `json:"success"`
	Message  string  `json:"message"`
	Account  Account `json:"account"`
	Mnemonic string  `json:"mnemonic,omitempty"`
}

// PasswordRequest carries a passphrase for unlock and reveal operations
type PasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// AccountRequest represents request for POST /wallet/accounts.
// A nil Index picks the next free index.
type AccountRequest struct {
	Index *uint32 `json:"index,omitempty"`
}

// RenameRequest represents request for PATCH /wallet/accounts/{index}
type RenameRequest struct {
	Name string `json:"name" binding:"required"`
}

// SelectRequest represents request for POST /wallet/select
type SelectRequest struct {
	Index uint32 `json:"index"`
}

// AccountsResponse lists accounts together with the selected index
type AccountsResponse struct {
	Accounts      []Account `json:"accounts"`
	SelectedIndex uint32    `json:"selectedAccountIndex"`
	Unlocked      bool      `json:"unlocked"`
}

// SuccessResponse acknowledges operations that return nothing else
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// SitesResponse lists the origins holding a connection grant
type SitesResponse struct {
	Sites []ConnectionGrant `json:"sites"`
}

// HealthResponse represents response for GET /health
type HealthResponse struct {
	Status      string `json:"status"`
	ApprovalUIs int    `json:"approvalUis"`
	Pending     int    `json:"pending"`
}
