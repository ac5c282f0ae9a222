package model

import (
	"errors"
)

// ErrorResponse is the consistent JSON structure for all API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Sentinel errors shared by the vault, the broker and the page-side components.
var (
	ErrAuthentication   = errors.New("authentication failed")
	ErrWrongPassword    = errors.New("wrong password")
	ErrWalletLocked     = errors.New("wallet locked")
	ErrNoWallet         = errors.New("no wallet found")
	ErrWalletExists     = errors.New("wallet already exists")
	ErrNotConnected     = errors.New("not connected")
	ErrUserRejected     = errors.New("user rejected")
	ErrTimeout          = errors.New("request timeout")
	ErrTransport        = errors.New("extension context not available")
	ErrNotInitialized   = errors.New("not initialized")
	ErrAccountExists    = errors.New("account already exists")
	ErrAccountNotFound  = errors.New("account not found")
	ErrLastAccount      = errors.New("cannot delete last account")
	ErrInvalidMnemonic  = errors.New("invalid mnemonic phrase")
	ErrUnknownRequest   = errors.New("unknown message type")
	ErrApprovalNotFound = errors.New("approval not found")
	ErrRateLimited      = errors.New("too many requests")
)

// Messages a page is allowed to see. Anything else collapses into MsgRejected.
const (
	MsgRejected     = "User rejected"
	MsgNotConnected = "Not connected"
	MsgNoWallet     = "No wallet found. Please create or import a wallet first."
	MsgRateLimited  = "Too many requests"
)

// PublicError converts a broker-side error into the string handed back to the page.
// Wrong passwords, locked wallets and internal failures are indistinguishable from a
// rejection so a page cannot probe wallet state.
func PublicError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotConnected):
		return MsgNotConnected
	case errors.Is(err, ErrNoWallet):
		return MsgNoWallet
	case errors.Is(err, ErrRateLimited):
		return MsgRateLimited
	case errors.Is(err, ErrUnknownRequest):
		return err.Error()
	default:
		return MsgRejected
	}
}

// ErrorFromMessage maps an error string received from the relay back to a sentinel
// where one exists, so page-side callers can still use errors.Is.
func ErrorFromMessage(msg string) error {
	switch msg {
	case MsgRejected:
		return ErrUserRejected
	case MsgNotConnected:
		return ErrNotConnected
	case MsgNoWallet:
		return ErrNoWallet
	case MsgRateLimited:
		return ErrRateLimited
	case ErrTransport.Error():
		return ErrTransport
	default:
		return &RemoteError{Message: msg}
	}
}

// RemoteError carries an error string the agent or relay returned verbatim.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}
