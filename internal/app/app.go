// Package app assembles the wallet stack shared by the agent daemon and the management CLI.
package app

import (
	"context"
	"fmt"

	"github.com/AlexZinkM/wallet-agent/internal/client"
	"github.com/AlexZinkM/wallet-agent/internal/config"
	"github.com/AlexZinkM/wallet-agent/internal/logging"
	"github.com/AlexZinkM/wallet-agent/internal/registry"
	"github.com/AlexZinkM/wallet-agent/internal/session"
	"github.com/AlexZinkM/wallet-agent/internal/store"
	"github.com/AlexZinkM/wallet-agent/wallet"

	log "github.com/sirupsen/logrus"
)

// App holds the opened store and the components built on it.
type App struct {
	Config   *config.Config
	Store    store.KV
	Vault    *store.Vault
	Session  *session.Session
	Registry *registry.Registry
	Wallet   *wallet.Service
	Backend  *client.BackendClient
}

// Open opens the durable store, hydrates the connection registry and wires the wallet
// to its chain, price and token collaborators. The session lives in memory only.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	kv, err := store.Open(cfg.StoreDriver, cfg.StorePath, logging.NewBadgerLogger())
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	vault := store.NewVault(kv)
	reg := registry.New(vault)
	if err := reg.Hydrate(ctx); err != nil {
		kv.Close()
		return nil, fmt.Errorf("failed to load connected sites: %w", err)
	}
	sess := session.New(store.NewMemory())

	backend := client.NewBackendClient(cfg.BackendAPIURL)
	var prices wallet.PriceSource = client.NewCoinGeckoClient()
	if cfg.PriceSource == "backend" {
		prices = backend
	}

	svc := wallet.New(vault, sess,
		wallet.WithRegistry(reg),
		wallet.WithChain(client.NewSolanaClient(cfg.SolanaRPCURL)),
		wallet.WithPrices(prices),
		wallet.WithTokens(backend),
		wallet.WithConfirmTimeout(cfg.ConfirmTimeout),
	)

	log.WithFields(log.Fields{
		"store":  cfg.StoreDriver,
		"rpc":    cfg.SolanaRPCURL,
		"prices": cfg.PriceSource,
	}).Debug("wallet stack ready")

	return &App{
		Config:   cfg,
		Store:    kv,
		Vault:    vault,
		Session:  sess,
		Registry: reg,
		Wallet:   svc,
		Backend:  backend,
	}, nil
}

// Close locks the wallet and closes the store.
func (a *App) Close() error {
	if err := a.Wallet.Lock(context.Background()); err != nil {
		log.WithError(err).Warn("failed to clear session")
	}
	return a.Store.Close()
}
