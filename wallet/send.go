package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlexZinkM/wallet-agent/internal/client"
	"github.com/AlexZinkM/wallet-agent/internal/common"
	"github.com/AlexZinkM/wallet-agent/internal/model"

	"github.com/gagliardetto/solana-go"
	log "github.com/sirupsen/logrus"
)

// SendSOL sends amount SOL from the selected account to toAddress and waits for confirmation.
// password must be []byte for security (caller should zero it after use)
func (s *Service) SendSOL(ctx context.Context, password []byte, toAddress, amount string) (*model.SendResponse, error) {
	if s.chain == nil {
		return nil, errors.New("no chain client configured")
	}

	// Validate recipient address
	if !isValidSolanaAddress(toAddress) {
		return nil, fmt.Errorf("invalid Solana address")
	}

	// Convert amount to lamports (string-based, no float precision loss)
	lamports, err := common.SOLToLamports(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	account, err := s.SelectedAccount(ctx)
	if err != nil {
		return nil, err
	}

	// Check SOL sufficiency (amount + fee)
	balance, err := s.chain.GetBalance(ctx, account.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to check balance: %w", err)
	}
	required := lamports + client.SolFeeLamports
	if balance < required {
		// Calculate max amount user can send
		var maxLamports uint64
		if balance > client.SolFeeLamports {
			maxLamports = balance - client.SolFeeLamports
		}
		return nil, fmt.Errorf("insufficient SOL balance. Transaction fee: %s SOL. Max you can send: %s SOL",
			common.LamportsToSOL(client.SolFeeLamports), common.LamportsToSOL(maxLamports))
	}

	// Derive signing key fresh for this transfer
	key, err := s.SigningKey(ctx, password, account.Address)
	if err != nil {
		return nil, err
	}
	defer clear(key)

	resp, err := s.chain.TransferSOL(ctx, key, toAddress, lamports, s.confirmTimeout)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"txid": resp.TxID, "status": resp.Status, "to": common.TruncateAddress(toAddress)}).Info("SOL sent")
	return resp, nil
}

// isValidSolanaAddress validates a Solana address
func isValidSolanaAddress(address string) bool {
	_, err := solana.PublicKeyFromBase58(address)
	return err == nil
}
