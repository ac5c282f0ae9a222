package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AlexZinkM/wallet-agent/internal/model"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// sign derives the key for params.Address under password and produces the result payload
// for the approved request.
func (b *Broker) sign(ctx context.Context, params model.LaunchParams, password []byte) (json.RawMessage, error) {
	key, err := b.wallet.SigningKey(ctx, password, params.Address)
	if err != nil {
		return nil, err
	}
	defer clear(key)

	var result any
	switch params.Kind {
	case model.ApprovalSignTransaction:
		signed, err := SignTransaction(key, params.Transaction)
		if err != nil {
			return nil, err
		}
		result = model.SignTransactionResult{SignedTransaction: signed}

	case model.ApprovalSignAllTransactions:
		signed := make([][]byte, 0, len(params.Transactions))
		for i, raw := range params.Transactions {
			tx, err := SignTransaction(key, raw)
			if err != nil {
				return nil, fmt.Errorf("transaction %d: %w", i, err)
			}
			signed = append(signed, tx)
		}
		result = model.SignAllTransactionsResult{SignedTransactions: signed}

	case model.ApprovalSignMessage:
		sig, err := key.Sign(params.Message)
		if err != nil {
			return nil, fmt.Errorf("failed to sign message: %w", err)
		}
		result = model.SignMessageResult{Signature: sig[:]}

	default:
		return nil, fmt.Errorf("approval kind %q does not sign", params.Kind)
	}

	return json.Marshal(result)
}

// SignTransaction adds key's signature to a serialized transaction in the slot of the
// matching required signer and returns the re-serialized transaction.
// Signatures of other signers are kept.
func SignTransaction(key solana.PrivateKey, raw []byte) ([]byte, error) {
	tx, err := decodeTransaction(raw)
	if err != nil {
		return nil, err
	}

	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}

	// Find our slot among the required signers
	signer := key.PublicKey()
	required := int(tx.Message.Header.NumRequiredSignatures)
	slot := -1
	for i := 0; i < required && i < len(tx.Message.AccountKeys); i++ {
		if tx.Message.AccountKeys[i].Equals(signer) {
			slot = i
			break
		}
	}
	if slot < 0 {
		return nil, fmt.Errorf("account %s is not a required signer", signer)
	}

	if len(tx.Signatures) != required {
		sigs := make([]solana.Signature, required)
		copy(sigs, tx.Signatures)
		tx.Signatures = sigs
	}

	sig, err := key.Sign(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	tx.Signatures[slot] = sig

	out, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction: %w", err)
	}
	return out, nil
}

func decodeTransaction(raw []byte) (*solana.Transaction, error) {
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid transaction: %w", err)
	}
	return tx, nil
}
