package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/faceforge/faceforge-api/internal/models"
	"github.com/faceforge/faceforge-api/internal/service"
)

// BalanceHandler handles credit balance endpoints.
type BalanceHandler struct {
	balanceSvc *service.BalanceService
}

// NewBalanceHandler creates a new balance handler.
func NewBalanceHandler(balanceSvc *service.BalanceService) *BalanceHandler {
	return &BalanceHandler{balanceSvc: balanceSvc}
}

// GetBalanceOutput represents the caller's credit balance.
type GetBalanceOutput struct {
	Body struct {
		Credits       int64 `json:"credits"`
		LifetimeAdded int64 `json:"lifetime_added"`
		LifetimeSpent int64 `json:"lifetime_spent"`
	}
}

// GetBalance returns the caller's credit balance.
func (h *BalanceHandler) GetBalance(ctx context.Context, input *struct{}) (*GetBalanceOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	balance, err := h.balanceSvc.GetBalance(ctx, userID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get balance")
	}

	out := &GetBalanceOutput{}
	out.Body.Credits = balance.Credits
	out.Body.LifetimeAdded = balance.LifetimeAdded
	out.Body.LifetimeSpent = balance.LifetimeSpent
	return out, nil
}

// ListTransactionsInput represents a ledger history request.
type ListTransactionsInput struct {
	Limit  int `query:"limit" default:"50" minimum:"1" maximum:"100"`
	Offset int `query:"offset" default:"0" minimum:"0"`
}

// ListTransactionsOutput represents a page of ledger entries.
type ListTransactionsOutput struct {
	Body struct {
		Transactions []*models.CreditTransaction `json:"transactions"`
	}
}

// ListTransactions returns the caller's ledger entries, newest first.
func (h *BalanceHandler) ListTransactions(ctx context.Context, input *ListTransactionsInput) (*ListTransactionsOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	txs, err := h.balanceSvc.GetTransactionHistory(ctx, userID, input.Limit, input.Offset)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list transactions")
	}

	out := &ListTransactionsOutput{}
	out.Body.Transactions = txs
	return out, nil
}
