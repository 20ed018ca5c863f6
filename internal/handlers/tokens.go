package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chetan5734v/freelancer/internal/api/middleware"
	"github.com/chetan5734v/freelancer/internal/models"
	"github.com/chetan5734v/freelancer/internal/store"
)

// BalanceResponse is the caller's current token balance.
type BalanceResponse struct {
	Tokens int `json:"tokens"`
}

// TokenBalance returns the caller's balance.
func (h *Handler) TokenBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.tokens.Balance(r.Context(), middleware.GetUsername(r.Context()))
	if errors.Is(err, store.ErrNotFound) {
		h.Error(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to load balance")
		return
	}
	h.JSON(w, http.StatusOK, BalanceResponse{Tokens: balance})
}

// HistoryResponse is the caller's balance plus their full ledger.
type HistoryResponse struct {
	Tokens  int                 `json:"tokens"`
	History []models.TokenEntry `json:"history"`
}

// TokenHistory returns the caller's ledger, oldest first.
func (h *Handler) TokenHistory(w http.ResponseWriter, r *http.Request) {
	balance, history, err := h.tokens.History(r.Context(), middleware.GetUsername(r.Context()))
	if errors.Is(err, store.ErrNotFound) {
		h.Error(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if history == nil {
		history = []models.TokenEntry{}
	}
	h.JSON(w, http.StatusOK, HistoryResponse{Tokens: balance, History: history})
}

// PurchaseRequest names the token package to buy.
type PurchaseRequest struct {
	Package string `json:"package"`
}

// PurchaseResponse confirms a token purchase.
type PurchaseResponse struct {
	Package     string `json:"package"`
	TokensAdded int    `json:"tokensAdded"`
	NewBalance  int    `json:"newBalance"`
}

// PurchaseTokens credits a named token package to the caller. There is
// no payment gateway here; billing settles out of band.
func (h *Handler) PurchaseTokens(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	username := middleware.GetUsername(r.Context())
	pkg, balance, ok, err := h.tokens.Purchase(r.Context(), username, req.Package)
	if !ok {
		h.Error(w, http.StatusBadRequest, "unknown token package")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("username", username).Str("package", req.Package).Msg("failed to credit purchase")
		h.Error(w, http.StatusInternalServerError, "failed to credit tokens")
		return
	}

	h.JSON(w, http.StatusOK, PurchaseResponse{
		Package:     req.Package,
		TokensAdded: pkg.Tokens,
		NewBalance:  balance,
	})
}
