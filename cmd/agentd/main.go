// Command agentd runs the wallet agent: it answers relayed page requests, hosts the approval
// windows and serves the local wallet API.
//
// @title        Wallet Agent API
// @version      1.0
// @description  Local non-custodial Solana wallet agent: page request relay, approval gate and wallet management.
// @host         localhost:8080
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlexZinkM/wallet-agent/internal/api"
	"github.com/AlexZinkM/wallet-agent/internal/app"
	"github.com/AlexZinkM/wallet-agent/internal/broker"
	"github.com/AlexZinkM/wallet-agent/internal/config"
	"github.com/AlexZinkM/wallet-agent/internal/handler"
	"github.com/AlexZinkM/wallet-agent/internal/logging"
	"github.com/AlexZinkM/wallet-agent/internal/store"
	"github.com/AlexZinkM/wallet-agent/internal/surface"

	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := config.Init(); err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	cfg := config.Get()
	if err := logging.Setup(cfg.LogLevel); err != nil {
		log.WithError(err).Fatal("invalid log level")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Fatal("agent stopped")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	a, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	hub := surface.NewHub()
	launches := store.Namespace(a.Session.KV(), "launch")
	b := broker.New(a.Wallet, a.Registry, hub, launches, cfg.ApprovalTimeout)
	hub.SetDecider(b)

	router := api.SetupRouter(api.Deps{
		Agent:    handler.NewAgentHandler(b, hub),
		Wallet:   handler.NewWalletHandler(a.Wallet, a.Registry),
		Surfaces: hub,
	})

	// pending /rpc calls see ctx end and settle as rejected
	srv := &http.Server{
		Addr:              "127.0.0.1:" + config.GetPort(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("wallet agent listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("forced shutdown")
		return srv.Close()
	}
	return nil
}
