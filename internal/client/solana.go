package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AlexZinkM/wallet-agent/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	log "github.com/sirupsen/logrus"
)

const (
	// SolFeeLamports is the base fee of a single-signature transaction (0.000005 SOL)
	SolFeeLamports = 5000

	defaultPollInterval = time.Second
)

// SolanaClient is a client for working with Solana RPC
type SolanaClient struct {
	rpcClient    *rpc.Client
	rpcURL       string
	pollInterval time.Duration
}

// NewSolanaClient creates a new Solana client against rpcURL.
func NewSolanaClient(rpcURL string) *SolanaClient {
	return &SolanaClient{
		rpcClient:    rpc.New(rpcURL),
		rpcURL:       rpcURL,
		pollInterval: defaultPollInterval,
	}
}

// GetBalance gets SOL balance in lamports for address
func (c *SolanaClient) GetBalance(ctx context.Context, address string) (uint64, error) {
	owner, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return 0, fmt.Errorf("invalid Solana address: %w", err)
	}

	balance, err := c.rpcClient.GetBalance(ctx, owner, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("failed to get SOL balance: %w", err)
	}
	return balance.Value, nil
}

// CreateSOLTransaction builds and signs a SOL transfer from key to toAddress.
// key must be full 64-byte Solana private key (caller should zero it after use)
func (c *SolanaClient) CreateSOLTransaction(ctx context.Context, key solana.PrivateKey, toAddress string, lamports uint64) (*solana.Transaction, error) {
	toPubkey, err := solana.PublicKeyFromBase58(toAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}

	// Validate private key (full 64-byte key)
	if len(key) != 64 {
		return nil, errors.New("invalid private key length: expected 64 bytes")
	}
	if lamports == 0 {
		return nil, errors.New("amount must be greater than 0")
	}
	from := key.PublicKey()

	// Get latest blockhash
	recent, err := c.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	// Create transfer instruction
	transferInstruction := system.NewTransferInstruction(
		lamports,
		from,
		toPubkey,
	).Build()

	// Create transaction
	tx, err := solana.NewTransaction(
		[]solana.Instruction{transferInstruction},
		recent.Value.Blockhash,
		solana.TransactionPayer(from),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	// Sign transaction
	_, err = tx.Sign(func(pub solana.PublicKey) *solana.PrivateKey {
		if from.Equals(pub) {
			return &key
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return tx, nil
}

// SendTransaction submits an already signed transaction.
func (c *SolanaClient) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := c.rpcClient.SendTransactionWithOpts(
		ctx,
		tx,
		rpc.TransactionOpts{
			SkipPreflight:       false, // Transaction validation before node
			PreflightCommitment: rpc.CommitmentConfirmed,
		},
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return sig, nil
}

// ConfirmTransaction polls the signature status every poll interval until the transaction
// is confirmed or finalized, the cluster reports an error, or timeout elapses.
// Returns the confirmation status reached.
func (c *SolanaClient) ConfirmTransaction(ctx context.Context, sig solana.Signature, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		status, err := c.signatureStatus(ctx, sig)
		switch {
		case err != nil && !errors.Is(err, errNotLanded):
			return "", err
		case err == nil:
			return status, nil
		}

		log.WithFields(log.Fields{"signature": sig.String(), "attempt": attempt}).Debug("transaction not confirmed yet")

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: transaction confirmation timeout after %s, signature %s",
				model.ErrTimeout, timeout, sig)
		case <-ticker.C:
		}
	}
}

var errNotLanded = errors.New("transaction not confirmed")

func (c *SolanaClient) signatureStatus(ctx context.Context, sig solana.Signature) (string, error) {
	out, err := c.rpcClient.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		// transient RPC failures are retried until the deadline
		log.WithError(err).Debug("failed to get signature status")
		return "", errNotLanded
	}
	if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
		return "", errNotLanded
	}

	status := out.Value[0]
	switch status.ConfirmationStatus {
	case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
		if status.Err != nil {
			return "", fmt.Errorf("transaction failed: %v", status.Err)
		}
		return string(status.ConfirmationStatus), nil
	default:
		return "", errNotLanded
	}
}

// TransferSOL builds, signs, sends and confirms a SOL transfer.
func (c *SolanaClient) TransferSOL(ctx context.Context, key solana.PrivateKey, toAddress string, lamports uint64, confirmTimeout time.Duration) (*model.SendResponse, error) {
	tx, err := c.CreateSOLTransaction(ctx, key, toAddress, lamports)
	if err != nil {
		return nil, err
	}

	sig, err := c.SendTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}

	status, err := c.ConfirmTransaction(ctx, sig, confirmTimeout)
	if err != nil {
		return nil, err
	}

	return &model.SendResponse{
		TxID:   sig.String(),
		Status: status,
	}, nil
}
