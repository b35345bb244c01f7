package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// UserCleanupService removes all data belonging to a user after the identity
// provider reports the account deleted. It works directly on the database:
// deletion cuts across every repository and must not depend on their
// read-model shapes.
type UserCleanupService struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewUserCleanupService creates a new user cleanup service.
func NewUserCleanupService(db *sql.DB, logger *slog.Logger) *UserCleanupService {
	return &UserCleanupService{db: db, logger: logger}
}

// DeleteAllUserData removes the user's profile, balance, ledger, and swap
// records in one transaction. The credit ledger is append-only in normal
// operation; account deletion is the single sanctioned exception.
func (s *UserCleanupService) DeleteAllUserData(ctx context.Context, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	tables := []string{"face_swaps", "credit_transactions", "user_balances", "user_profiles"}
	for _, table := range tables {
		res, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE user_id = ?", userID)
		if err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			s.logger.Debug("deleted user rows", "table", table, "user_id", userID, "rows", n)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user deletion: %w", err)
	}

	s.logger.Info("user data deleted", "user_id", userID)
	return nil
}
