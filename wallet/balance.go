package wallet

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/AlexZinkM/wallet-agent/internal/common"
	"github.com/AlexZinkM/wallet-agent/internal/model"

	log "github.com/sirupsen/logrus"
)

// Balance gets the SOL balance of the selected account and its USD value.
// A failing price source leaves the USD fields empty rather than failing the call.
func (s *Service) Balance(ctx context.Context) (*model.BalanceResponse, error) {
	if s.chain == nil {
		return nil, errors.New("no chain client configured")
	}

	account, err := s.SelectedAccount(ctx)
	if err != nil {
		return nil, err
	}

	// Get SOL (lamports) balance
	lamports, err := s.chain.GetBalance(ctx, account.Address)
	if err != nil {
		return nil, err
	}

	// Convert to display string (no float precision loss)
	sol := common.LamportsToSOL(lamports)
	resp := &model.BalanceResponse{
		Address:  account.Address,
		SOL:      sol,
		Lamports: lamports,
	}

	if s.prices == nil {
		return resp, nil
	}
	price, err := s.prices.GetSOLPriceUSD(ctx)
	if err != nil {
		log.WithError(err).Warn("failed to get SOL price")
		return resp, nil
	}

	// Calculate USD (use float only for display, not for critical operations)
	solFloat, _ := strconv.ParseFloat(sol, 64)
	resp.PriceUSD = fmt.Sprintf("%.2f", price)
	resp.USD = fmt.Sprintf("%.2f", solFloat*price)
	return resp, nil
}

// Tokens lists SPL token balances of the selected account.
func (s *Service) Tokens(ctx context.Context) ([]model.Token, error) {
	if s.tokens == nil {
		return nil, errors.New("no token source configured")
	}
	account, err := s.SelectedAccount(ctx)
	if err != nil {
		return nil, err
	}
	return s.tokens.GetTokenBalances(ctx, account.Address)
}
