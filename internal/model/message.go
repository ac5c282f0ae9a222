package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// RequestKind identifies a page request crossing the relay.
type RequestKind string

const (
	KindConnect             RequestKind = "SAIFU_CONNECT"
	KindDisconnect          RequestKind = "SAIFU_DISCONNECT"
	KindGetAccount          RequestKind = "SAIFU_GET_ACCOUNT"
	KindSignTransaction     RequestKind = "SAIFU_SIGN_TRANSACTION"
	KindSignAllTransactions RequestKind = "SAIFU_SIGN_ALL_TRANSACTIONS"
	KindSignMessage         RequestKind = "SAIFU_SIGN_MESSAGE"
)

// Sentinel targets tagging window messages in each direction.
const (
	TargetInpage  = "saifu-inpage"
	TargetContent = "saifu-content"
)

// Params is the closed set of request payloads. Only types in this package implement it.
type Params interface {
	Kind() RequestKind
	validate() error
}

// ConnectParams asks for the selected account's address.
// OnlyIfTrusted succeeds silently for origins that already hold a grant and never prompts.
type ConnectParams struct {
	OnlyIfTrusted bool `json:"onlyIfTrusted"`
}

type DisconnectParams struct{}

type GetAccountParams struct{}

// SignTransactionParams carries one serialized transaction (wire format, base64 in JSON).
type SignTransactionParams struct {
	Transaction []byte `json:"transaction"`
}

type SignAllTransactionsParams struct {
	Transactions [][]byte `json:"transactions"`
}

// SignMessageParams carries arbitrary bytes to sign; Display is a rendering hint ("utf8" or "hex").
type SignMessageParams struct {
	Message []byte `json:"message"`
	Display string `json:"display,omitempty"`
}

func (ConnectParams) Kind() RequestKind             { return KindConnect }
func (DisconnectParams) Kind() RequestKind          { return KindDisconnect }
func (GetAccountParams) Kind() RequestKind          { return KindGetAccount }
func (SignTransactionParams) Kind() RequestKind     { return KindSignTransaction }
func (SignAllTransactionsParams) Kind() RequestKind { return KindSignAllTransactions }
func (SignMessageParams) Kind() RequestKind         { return KindSignMessage }

func (ConnectParams) validate() error    { return nil }
func (DisconnectParams) validate() error { return nil }
func (GetAccountParams) validate() error { return nil }

func (p SignTransactionParams) validate() error {
	if len(p.Transaction) == 0 {
		return errors.New("transaction is required")
	}
	return nil
}

func (p SignAllTransactionsParams) validate() error {
	if len(p.Transactions) == 0 {
		return errors.New("transactions are required")
	}
	for i, tx := range p.Transactions {
		if len(tx) == 0 {
			return fmt.Errorf("transaction %d is empty", i)
		}
	}
	return nil
}

func (p SignMessageParams) validate() error {
	if p.Message == nil {
		return errors.New("message is required")
	}
	switch p.Display {
	case "", "utf8", "hex":
		return nil
	default:
		return fmt.Errorf("unsupported display %q", p.Display)
	}
}

// DecodeParams decodes the raw params of a request into the variant matching kind.
func DecodeParams(kind RequestKind, raw json.RawMessage) (Params, error) {
	var p Params
	switch kind {
	case KindConnect:
		var v ConnectParams
		if err := unmarshalParams(raw, &v); err != nil {
			return nil, err
		}
		p = v
	case KindDisconnect:
		p = DisconnectParams{}
	case KindGetAccount:
		p = GetAccountParams{}
	case KindSignTransaction:
		var v SignTransactionParams
		if err := unmarshalParams(raw, &v); err != nil {
			return nil, err
		}
		p = v
	case KindSignAllTransactions:
		var v SignAllTransactionsParams
		if err := unmarshalParams(raw, &v); err != nil {
			return nil, err
		}
		p = v
	case KindSignMessage:
		var v SignMessageParams
		if err := unmarshalParams(raw, &v); err != nil {
			return nil, err
		}
		p = v
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownRequest, kind)
	}

	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s params: %w", kind, err)
	}
	return p, nil
}

// EncodeParams marshals params for transport.
func EncodeParams(p Params) (json.RawMessage, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}
	return raw, nil
}

func unmarshalParams(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode params: %w", err)
	}
	return nil
}

// AgentRequest is what the relay forwards to the agent. Origin is set by the relay only.
type AgentRequest struct {
	Type   RequestKind     `json:"type"`
	Params json.RawMessage `json:"params,omitempty"`
	Origin string          `json:"origin"`
}

// Response is either a result or an error string, never both.
type Response struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// ResultResponse wraps v as a successful response.
func ResultResponse(v any) Response {
	raw, err := json.Marshal(v)
	if err != nil {
		return Response{Error: MsgRejected}
	}
	return Response{Result: raw}
}

// ErrorResponseOf wraps err as a page-safe error response.
func ErrorResponseOf(err error) Response {
	return Response{Error: PublicError(err)}
}

// Decode unmarshals the result into v.
func (r Response) Decode(v any) error {
	if r.Error != "" {
		return ErrorFromMessage(r.Error)
	}
	if len(r.Result) == 0 {
		return errors.New("empty result")
	}
	return json.Unmarshal(r.Result, v)
}

// Results per request kind.
type (
	ConnectResult struct {
		PublicKey string `json:"publicKey"`
	}
	AccountResult struct {
		PublicKey *string `json:"publicKey"`
	}
	DisconnectResult struct {
		Success bool `json:"success"`
	}
	SignTransactionResult struct {
		SignedTransaction []byte `json:"signedTransaction"`
	}
	SignAllTransactionsResult struct {
		SignedTransactions [][]byte `json:"signedTransactions"`
	}
	SignMessageResult struct {
		Signature []byte `json:"signature"`
	}
)

// PageMessage is posted on a window between the page and the relay.
type PageMessage struct {
	Target string      `json:"target"`
	Type   RequestKind `json:"type"`
	Data   PageData    `json:"data"`
}

// PageData carries the request id both ways plus params on the way in and
// result or error on the way out.
type PageData struct {
	ID     uint64          `json:"id"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}
