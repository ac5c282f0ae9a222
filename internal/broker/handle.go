package broker

import (
	"context"
	"fmt"

	"github.com/AlexZinkM/wallet-agent/internal/model"

	log "github.com/sirupsen/logrus"
)

// Handle answers one request forwarded by the relay. Errors are converted into the
// page-safe strings of model.PublicError.
func (b *Broker) Handle(ctx context.Context, req model.AgentRequest) model.Response {
	logger := log.WithFields(log.Fields{"type": req.Type, "origin": req.Origin})

	if req.Origin == "" {
		logger.Warn("request without origin")
		return model.ErrorResponseOf(model.ErrUserRejected)
	}

	params, err := model.DecodeParams(req.Type, req.Params)
	if err != nil {
		logger.WithError(err).Warn("invalid request")
		return model.ErrorResponseOf(err)
	}

	var result any
	switch p := params.(type) {
	case model.ConnectParams:
		result, err = b.connect(ctx, req.Origin, p)
	case model.DisconnectParams:
		result, err = b.disconnect(ctx, req.Origin)
	case model.GetAccountParams:
		result, err = b.getAccount(ctx, req.Origin)
	case model.SignTransactionParams:
		result, err = b.signTransaction(ctx, req.Origin, p)
	case model.SignAllTransactionsParams:
		result, err = b.signAllTransactions(ctx, req.Origin, p)
	case model.SignMessageParams:
		result, err = b.signMessage(ctx, req.Origin, p)
	default:
		err = fmt.Errorf("%w: %s", model.ErrUnknownRequest, req.Type)
	}
	if err != nil {
		logger.WithError(err).Debug("request failed")
		return model.ErrorResponseOf(err)
	}
	return model.ResultResponse(result)
}

func (b *Broker) connect(ctx context.Context, origin string, p model.ConnectParams) (any, error) {
	grant, err := b.grants.IsConnected(ctx, origin)
	if err != nil {
		return nil, err
	}

	// silent re-check: never prompts
	if p.OnlyIfTrusted {
		if grant == nil {
			return nil, model.ErrUserRejected
		}
		return model.ConnectResult{PublicKey: grant.Address}, nil
	}

	account, err := b.wallet.SelectedAccount(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := b.Open(ctx, model.LaunchParams{
		Kind:    model.ApprovalConnect,
		Origin:  origin,
		Address: account.Address,
	}); err != nil {
		return nil, err
	}

	granted, err := b.grants.Grant(ctx, origin, account.Address)
	if err != nil {
		return nil, err
	}
	return model.ConnectResult{PublicKey: granted.Address}, nil
}

func (b *Broker) disconnect(ctx context.Context, origin string) (any, error) {
	if err := b.grants.Revoke(ctx, origin); err != nil {
		return nil, err
	}
	return model.DisconnectResult{Success: true}, nil
}

func (b *Broker) getAccount(ctx context.Context, origin string) (any, error) {
	grant, err := b.grants.IsConnected(ctx, origin)
	if err != nil {
		return nil, err
	}
	if grant == nil {
		return model.AccountResult{}, nil
	}
	return model.AccountResult{PublicKey: &grant.Address}, nil
}

// requireGrant fails with model.ErrNotConnected before any surface is opened.
func (b *Broker) requireGrant(ctx context.Context, origin string) (*model.ConnectionGrant, error) {
	grant, err := b.grants.IsConnected(ctx, origin)
	if err != nil {
		return nil, err
	}
	if grant == nil {
		return nil, model.ErrNotConnected
	}
	return grant, nil
}

func (b *Broker) signTransaction(ctx context.Context, origin string, p model.SignTransactionParams) (any, error) {
	grant, err := b.requireGrant(ctx, origin)
	if err != nil {
		return nil, err
	}
	if _, err := decodeTransaction(p.Transaction); err != nil {
		return nil, err
	}

	return b.Open(ctx, model.LaunchParams{
		Kind:        model.ApprovalSignTransaction,
		Origin:      origin,
		Address:     grant.Address,
		Transaction: p.Transaction,
	})
}

func (b *Broker) signAllTransactions(ctx context.Context, origin string, p model.SignAllTransactionsParams) (any, error) {
	grant, err := b.requireGrant(ctx, origin)
	if err != nil {
		return nil, err
	}
	for _, raw := range p.Transactions {
		if _, err := decodeTransaction(raw); err != nil {
			return nil, err
		}
	}

	return b.Open(ctx, model.LaunchParams{
		Kind:         model.ApprovalSignAllTransactions,
		Origin:       origin,
		Address:      grant.Address,
		Transactions: p.Transactions,
	})
}

func (b *Broker) signMessage(ctx context.Context, origin string, p model.SignMessageParams) (any, error) {
	grant, err := b.requireGrant(ctx, origin)
	if err != nil {
		return nil, err
	}

	return b.Open(ctx, model.LaunchParams{
		Kind:    model.ApprovalSignMessage,
		Origin:  origin,
		Address: grant.Address,
		Message: p.Message,
		Display: p.Display,
	})
}
