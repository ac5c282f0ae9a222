package model

import "encoding/json"

// ApprovalKind is the decision a human is asked to make.
type ApprovalKind string

const (
	ApprovalConnect             ApprovalKind = "connect"
	ApprovalSignTransaction     ApprovalKind = "signTransaction"
	ApprovalSignAllTransactions ApprovalKind = "signAllTransactions"
	ApprovalSignMessage         ApprovalKind = "signMessage"
)

// RequiresPassword reports whether approving this kind needs the passphrase re-entered.
func (k ApprovalKind) RequiresPassword() bool {
	return k != ApprovalConnect
}

// LaunchParams is everything a decision surface needs to render a request.
type LaunchParams struct {
	ApprovalID   uint64       `json:"approvalId"`
	Kind         ApprovalKind `json:"kind"`
	Origin       string       `json:"origin"`
	Address      string       `json:"address"`
	Transaction  []byte       `json:"transaction,omitempty"`
	Transactions [][]byte     `json:"transactions,omitempty"`
	Message      []byte       `json:"message,omitempty"`
	Display      string       `json:"display,omitempty"`
}

// ApprovalDecision is sent by a decision surface to settle a request.
// Password is required to approve signing kinds.
type ApprovalDecision struct {
	ApprovalID uint64          `json:"approvalId"`
	Approved   bool            `json:"approved"`
	Password   string          `json:"password,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}
