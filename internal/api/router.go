package api

import (
	"net/http"

	_ "github.com/AlexZinkM/wallet-agent/docs"
	"github.com/AlexZinkM/wallet-agent/internal/common"
	"github.com/AlexZinkM/wallet-agent/internal/handler"
	"github.com/AlexZinkM/wallet-agent/internal/model"

	log "github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Deps are the components the router exposes.
type Deps struct {
	Agent    *handler.AgentHandler
	Wallet   *handler.WalletHandler
	Surfaces http.Handler // websocket endpoint for approval windows
}

// SetupRouter sets up router with handlers
func SetupRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	// Relay and approval surfaces
	mux.HandleFunc("GET /health", d.Agent.Health)
	mux.HandleFunc("POST /rpc", d.Agent.RPC)
	mux.Handle("GET /approval/ws", d.Surfaces)
	mux.HandleFunc("GET /approval/pending", d.Agent.Pending)
	mux.HandleFunc("POST /approval/respond", d.Agent.Respond)

	// Wallet management
	mux.HandleFunc("POST /wallet/create", d.Wallet.Create)
	mux.HandleFunc("POST /wallet/import", d.Wallet.Import)
	mux.HandleFunc("POST /wallet/unlock", d.Wallet.Unlock)
	mux.HandleFunc("POST /wallet/lock", d.Wallet.Lock)
	mux.HandleFunc("GET /wallet/accounts", d.Wallet.Accounts)
	mux.HandleFunc("POST /wallet/accounts", d.Wallet.AddAccount)
	mux.HandleFunc("DELETE /wallet/accounts/{index}", d.Wallet.DeleteAccount)
	mux.HandleFunc("PATCH /wallet/accounts/{index}", d.Wallet.RenameAccount)
	mux.HandleFunc("POST /wallet/select", d.Wallet.Select)
	mux.HandleFunc("GET /wallet/balance", d.Wallet.Balance)
	mux.HandleFunc("GET /wallet/tokens", d.Wallet.Tokens)
	mux.HandleFunc("POST /wallet/send", d.Wallet.Send)
	mux.HandleFunc("GET /wallet/sites", d.Wallet.Sites)
	mux.HandleFunc("DELETE /wallet/sites", d.Wallet.RevokeSites)

	return requireLocalCaller(mux)
}

// requireLocalCaller refuses requests not addressed to a loopback host, which stops DNS
// rebinding, and browser requests coming from any page but the agent's own.
// Requests without an Origin header (relay, CLI) pass.
func requireLocalCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !common.IsLocalCaller(r.Host, r.Header.Get("Origin")) {
			log.WithFields(log.Fields{"host": r.Host, "origin": r.Header.Get("Origin"), "path": r.URL.Path}).Warn("non-local request refused")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":"` + model.MsgRejected + `"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
