package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AlexZinkM/wallet-agent/internal/model"

	log "github.com/sirupsen/logrus"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Debug("failed to write response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, code := statusOf(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("request failed")
	}
	writeJSON(w, status, model.ErrorResponse{Error: err.Error(), Code: code})
}

func badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: err.Error(), Code: "bad_request"})
}

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrWrongPassword):
		return http.StatusUnauthorized, "wrong_password"
	case errors.Is(err, model.ErrWalletLocked):
		return http.StatusLocked, "wallet_locked"
	case errors.Is(err, model.ErrNoWallet):
		return http.StatusNotFound, "no_wallet"
	case errors.Is(err, model.ErrAccountNotFound):
		return http.StatusNotFound, "account_not_found"
	case errors.Is(err, model.ErrApprovalNotFound):
		return http.StatusNotFound, "approval_not_found"
	case errors.Is(err, model.ErrWalletExists):
		return http.StatusConflict, "wallet_exists"
	case errors.Is(err, model.ErrAccountExists):
		return http.StatusConflict, "account_exists"
	case errors.Is(err, model.ErrLastAccount):
		return http.StatusConflict, "last_account"
	case errors.Is(err, model.ErrInvalidMnemonic):
		return http.StatusBadRequest, "invalid_mnemonic"
	case errors.Is(err, model.ErrNotInitialized):
		return http.StatusServiceUnavailable, "not_initialized"
	default:
		return http.StatusInternalServerError, ""
	}
}

// decode reads a JSON body into v, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, err)
		return false
	}
	return true
}
