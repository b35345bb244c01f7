package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/faceforge/faceforge-api/internal/config"
	"github.com/faceforge/faceforge-api/internal/models"
	"github.com/faceforge/faceforge-api/internal/repository"
)

var (
	// ErrInsufficientCredits indicates the user cannot afford the operation.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrDuplicatePayment indicates a payment ID was already credited.
	ErrDuplicatePayment = errors.New("duplicate payment - already processed")
)

// BalanceService handles user credit operations outside the swap pipeline.
type BalanceService struct {
	repos  *repository.Repositories
	cfg    *config.Config
	logger *slog.Logger
}

// NewBalanceService creates a new balance service.
func NewBalanceService(repos *repository.Repositories, cfg *config.Config, logger *slog.Logger) *BalanceService {
	return &BalanceService{repos: repos, cfg: cfg, logger: logger}
}

// GetBalance retrieves a user's current balance.
func (s *BalanceService) GetBalance(ctx context.Context, userID string) (*models.UserBalance, error) {
	balance, err := s.repos.Billing.GetBalance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// GrantSignupBonus credits the configured signup bonus once per user. The
// user id doubles as the idempotency key, so replayed identity events are
// harmless.
func (s *BalanceService) GrantSignupBonus(ctx context.Context, userID string) error {
	if s.cfg.SignupCredits <= 0 {
		return nil
	}
	paymentID := "signup:" + userID
	_, err := s.repos.Billing.AddCredits(ctx, userID, models.TxTypeBonus, s.cfg.SignupCredits,
		&paymentID, fmt.Sprintf("Welcome bonus - %d credits", s.cfg.SignupCredits))
	if errors.Is(err, repository.ErrDuplicatePayment) {
		s.logger.Debug("signup bonus already granted", "user_id", userID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to grant signup bonus: %w", err)
	}

	s.logger.Info("signup bonus granted", "user_id", userID, "credits", s.cfg.SignupCredits)
	return nil
}

// RecordPurchase credits a paid top-up. The payment ID makes the operation
// idempotent: webhook redeliveries surface ErrDuplicatePayment.
func (s *BalanceService) RecordPurchase(ctx context.Context, userID, paymentID string, credits int64) (*models.CreditTransaction, error) {
	if credits <= 0 {
		return nil, fmt.Errorf("purchase credits must be positive, got %d", credits)
	}

	tx, err := s.repos.Billing.AddCredits(ctx, userID, models.TxTypePurchase, credits,
		&paymentID, fmt.Sprintf("Credit purchase - %d credits", credits))
	if errors.Is(err, repository.ErrDuplicatePayment) {
		return nil, ErrDuplicatePayment
	}
	if err != nil {
		return nil, fmt.Errorf("failed to record purchase: %w", err)
	}

	s.logger.Info("purchase credited",
		"user_id", userID,
		"payment_id", paymentID,
		"credits", credits,
		"balance", tx.BalanceAfter,
	)
	return tx, nil
}

// GetTransactionHistory returns the user's ledger entries, newest first.
func (s *BalanceService) GetTransactionHistory(ctx context.Context, userID string, limit, offset int) ([]*models.CreditTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	txs, err := s.repos.Billing.ListTransactions(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}
