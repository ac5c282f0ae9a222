package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/AlexZinkM/wallet-agent/internal/model"
	"github.com/AlexZinkM/wallet-agent/wallet"
)

// Sites is the part of the connection registry the management API exposes.
type Sites interface {
	List(ctx context.Context) ([]model.ConnectionGrant, error)
	Revoke(ctx context.Context, origin string) error
	RevokeAll(ctx context.Context) error
}

// WalletHandler serves wallet management for the local wallet UI.
type WalletHandler struct {
	wallet *wallet.Service
	sites  Sites
}

func NewWalletHandler(w *wallet.Service, sites Sites) *WalletHandler {
	return &WalletHandler{wallet: w, sites: sites}
}

// Create handles POST /wallet/create
// @Summary      Create new wallet
// @Description  Generates a seed phrase, encrypts it with the password and derives account 0. The phrase is returned once for backup.
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.PasswordRequest  true  "Wallet password"
// @Success      200      {object}  model.CreateResponse
// @Failure      409      {object}  model.ErrorResponse
// @Router       /wallet/create [post]
func (h *WalletHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.PasswordRequest
	if !decode(w, r, &req) {
		return
	}
	password := []byte(req.Password)
	defer clear(password) // Always clear password from memory

	if len(password) == 0 {
		badRequest(w, errors.New("password is required"))
		return
	}

	mnemonic, account, err := h.wallet.Create(r.Context(), password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.CreateResponse{
		Success:  true,
		Message:  "Wallet created successfully",
		Account:  account,
		Mnemonic: mnemonic,
	})
}

// Import handles POST /wallet/import
// @Summary      Import wallet
// @Description  Restores a wallet from a BIP-39 seed phrase
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.CreateRequest  true  "Seed phrase and password"
// @Success      200      {object}  model.CreateResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Router       /wallet/import [post]
func (h *WalletHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req model.CreateRequest
	if !decode(w, r, &req) {
		return
	}
	password := []byte(req.Password)
	defer clear(password)

	if len(password) == 0 {
		badRequest(w, errors.New("password is required"))
		return
	}

	account, err := h.wallet.Import(r.Context(), req.Mnemonic, password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.CreateResponse{
		Success: true,
		Message: "Wallet imported successfully",
		Account: account,
	})
}

// Unlock handles POST /wallet/unlock
// @Summary      Unlock wallet
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.PasswordRequest  true  "Wallet password"
// @Success      200      {object}  model.SuccessResponse
// @Failure      401      {object}  model.ErrorResponse
// @Router       /wallet/unlock [post]
func (h *WalletHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	var req model.PasswordRequest
	if !decode(w, r, &req) {
		return
	}
	password := []byte(req.Password)
	defer clear(password)

	if err := h.wallet.Unlock(r.Context(), password); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true, Message: "Wallet unlocked"})
}

// Lock handles POST /wallet/lock
// @Summary      Lock wallet
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.SuccessResponse
// @Router       /wallet/lock [post]
func (h *WalletHandler) Lock(w http.ResponseWriter, r *http.Request) {
	if err := h.wallet.Lock(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true, Message: "Wallet locked"})
}

// Accounts handles GET /wallet/accounts
// @Summary      List accounts
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.AccountsResponse
// @Router       /wallet/accounts [get]
func (h *WalletHandler) Accounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.wallet.Accounts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	selected, err := h.wallet.SelectedAccount(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.AccountsResponse{
		Accounts:      accounts,
		SelectedIndex: selected.Index,
		Unlocked:      h.wallet.Unlocked(),
	})
}

// AddAccount handles POST /wallet/accounts
// @Summary      Derive a new account
// @Description  Needs an unlocked wallet. Without an index the next free index is used.
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.AccountRequest  false  "Optional index"
// @Success      200      {object}  model.Account
// @Failure      409      {object}  model.ErrorResponse
// @Failure      423      {object}  model.ErrorResponse
// @Router       /wallet/accounts [post]
func (h *WalletHandler) AddAccount(w http.ResponseWriter, r *http.Request) {
	var req model.AccountRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}

	var (
		account model.Account
		err     error
	)
	if req.Index != nil {
		account, err = h.wallet.AddAccountAt(r.Context(), *req.Index)
	} else {
		account, err = h.wallet.AddAccount(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// DeleteAccount handles DELETE /wallet/accounts/{index}
// @Summary      Delete account
// @Description  The last remaining account cannot be deleted. Grants issued to the account are revoked.
// @Tags         wallet
// @Produce      json
// @Param        index  path      int  true  "Account index"
// @Success      200    {object}  model.SuccessResponse
// @Failure      409    {object}  model.ErrorResponse
// @Router       /wallet/accounts/{index} [delete]
func (h *WalletHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	if err := h.wallet.DeleteAccount(r.Context(), index); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true})
}

// RenameAccount handles PATCH /wallet/accounts/{index}
// @Summary      Rename account
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        index    path      int                  true  "Account index"
// @Param        request  body      model.RenameRequest  true  "New name"
// @Success      200      {object}  model.SuccessResponse
// @Router       /wallet/accounts/{index} [patch]
func (h *WalletHandler) RenameAccount(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	var req model.RenameRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.wallet.Rename(r.Context(), index, req.Name); err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			writeError(w, err)
			return
		}
		badRequest(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true})
}

// Select handles POST /wallet/select
// @Summary      Select account
// @Description  The selected account is offered to pages on connect
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.SelectRequest  true  "Account index"
// @Success      200      {object}  model.SuccessResponse
// @Router       /wallet/select [post]
func (h *WalletHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req model.SelectRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.wallet.Select(r.Context(), req.Index); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true})
}

// Balance handles GET /wallet/balance
// @Summary      Get selected account balance
// @Description  Gets SOL balance of the selected account with its USD value
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.BalanceResponse
// @Router       /wallet/balance [get]
func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.wallet.Balance(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

// Tokens handles GET /wallet/tokens
// @Summary      Get SPL token balances of the selected account
// @Tags         wallet
// @Produce      json
// @Success      200  {array}  model.Token
// @Router       /wallet/tokens [get]
func (h *WalletHandler) Tokens(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.wallet.Tokens(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

// Send handles POST /wallet/send
// @Summary      Send SOL
// @Description  Sends SOL from the selected account and waits for confirmation
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.SendRequest  true  "Payment data"
// @Success      200      {object}  model.SendResponse
// @Failure      401      {object}  model.ErrorResponse
// @Router       /wallet/send [post]
func (h *WalletHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req model.SendRequest
	if !decode(w, r, &req) {
		return
	}
	password := []byte(req.Password)
	defer clear(password) // Always clear password from memory

	resp, err := h.wallet.SendSOL(r.Context(), password, req.ToAddress, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Sites handles GET /wallet/sites
// @Summary      List connected sites
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.SitesResponse
// @Router       /wallet/sites [get]
func (h *WalletHandler) Sites(w http.ResponseWriter, r *http.Request) {
	sites, err := h.sites.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.SitesResponse{Sites: sites})
}

// RevokeSites handles DELETE /wallet/sites
// @Summary      Revoke connection grants
// @Description  Revokes the grant of one origin, or every grant when origin is omitted
// @Tags         wallet
// @Produce      json
// @Param        origin  query     string  false  "Origin to revoke"
// @Success      200     {object}  model.SuccessResponse
// @Router       /wallet/sites [delete]
func (h *WalletHandler) RevokeSites(w http.ResponseWriter, r *http.Request) {
	var err error
	if origin := r.URL.Query().Get("origin"); origin != "" {
		err = h.sites.Revoke(r.Context(), origin)
	} else {
		err = h.sites.RevokeAll(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true})
}

func pathIndex(w http.ResponseWriter, r *http.Request) (uint32, bool) {
	index, err := strconv.ParseUint(r.PathValue("index"), 10, 32)
	if err != nil {
		badRequest(w, fmt.Errorf("invalid account index %q", r.PathValue("index")))
		return 0, false
	}
	return uint32(index), true
}
