package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/faceforge/faceforge-api/internal/models"
)

var (
	// ErrInsufficientCredits indicates the balance cannot cover the swap cost.
	// Raised before any debit or record creation; the balance is untouched.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrDuplicatePayment indicates a payment id was already credited.
	ErrDuplicatePayment = errors.New("duplicate payment - already processed")
)

// SQLiteBillingRepository implements BillingRepository for SQLite.
//
// Every balance mutation happens inside a single sql.Tx together with its
// ledger entry, so sum(deltas) always equals currentBalance - initialBalance
// and concurrent requests from one user serialize on the balance row.
type SQLiteBillingRepository struct {
	db *sql.DB
}

// NewSQLiteBillingRepository creates a new SQLite billing repository.
func NewSQLiteBillingRepository(db *sql.DB) *SQLiteBillingRepository {
	return &SQLiteBillingRepository{db: db}
}

func (r *SQLiteBillingRepository) GetBalance(ctx context.Context, userID string) (*models.UserBalance, error) {
	return getBalanceTx(ctx, r.db, userID)
}

// querier abstracts over *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func getBalanceTx(ctx context.Context, q querier, userID string) (*models.UserBalance, error) {
	query := `SELECT user_id, credits, lifetime_added, lifetime_spent, updated_at
		FROM user_balances WHERE user_id = ?`
	var b models.UserBalance
	var updatedAt string
	err := q.QueryRowContext(ctx, query, userID).Scan(&b.UserID, &b.Credits,
		&b.LifetimeAdded, &b.LifetimeSpent, &updatedAt)
	if err == sql.ErrNoRows {
		return &models.UserBalance{UserID: userID, UpdatedAt: time.Now()}, nil
	}
	if err != nil {
		return nil, err
	}
	b.UpdatedAt = parseTime(updatedAt)
	return &b, nil
}

func upsertBalanceTx(ctx context.Context, q querier, b *models.UserBalance) error {
	query := `INSERT INTO user_balances (user_id, credits, lifetime_added, lifetime_spent, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			credits = excluded.credits,
			lifetime_added = excluded.lifetime_added,
			lifetime_spent = excluded.lifetime_spent,
			updated_at = excluded.updated_at`
	_, err := q.ExecContext(ctx, query, b.UserID, b.Credits, b.LifetimeAdded,
		b.LifetimeSpent, formatTime(b.UpdatedAt))
	return err
}

func insertTransactionTx(ctx context.Context, q querier, tx *models.CreditTransaction) error {
	query := `INSERT INTO credit_transactions (id, user_id, type, delta, balance_before,
		balance_after, payment_id, face_swap_id, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := q.ExecContext(ctx, query, tx.ID, tx.UserID, tx.Type, tx.Delta,
		tx.BalanceBefore, tx.BalanceAfter, tx.PaymentID, tx.FaceSwapID,
		tx.Description, formatTime(tx.CreatedAt))
	return err
}

func (r *SQLiteBillingRepository) DebitForSwap(ctx context.Context, userID string, cost int64, rec *models.FaceSwapRecord) (*models.CreditTransaction, error) {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = dbTx.Rollback() }()

	balance, err := getBalanceTx(ctx, dbTx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}
	if balance.Credits < cost {
		return nil, ErrInsufficientCredits
	}

	now := time.Now()
	ledger := &models.CreditTransaction{
		ID:            ulid.Make().String(),
		UserID:        userID,
		Type:          models.TxTypeUsage,
		Delta:         -cost,
		BalanceBefore: balance.Credits,
		BalanceAfter:  balance.Credits - cost,
		FaceSwapID:    &rec.ID,
		Description:   fmt.Sprintf("Face swap %q - %d credits", rec.TemplateTitle, cost),
		CreatedAt:     now,
	}

	balance.Credits -= cost
	balance.LifetimeSpent += cost
	balance.UpdatedAt = now
	if err := upsertBalanceTx(ctx, dbTx, balance); err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	if err := insertTransactionTx(ctx, dbTx, ledger); err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	rec.Status = models.SwapProcessing
	rec.CreditsCharged = cost
	rec.TransactionID = &ledger.ID
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if err := insertSwapRecordTx(ctx, dbTx, rec); err != nil {
		return nil, fmt.Errorf("failed to create swap record: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit debit: %w", err)
	}

	return ledger, nil
}

func (r *SQLiteBillingRepository) RefundSwap(ctx context.Context, userID, swapID string, amount int64, reason string) (*models.CreditTransaction, error) {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = dbTx.Rollback() }()

	balance, err := getBalanceTx(ctx, dbTx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}

	now := time.Now()
	ledger := &models.CreditTransaction{
		ID:            ulid.Make().String(),
		UserID:        userID,
		Type:          models.TxTypeBonus,
		Delta:         amount,
		BalanceBefore: balance.Credits,
		BalanceAfter:  balance.Credits + amount,
		FaceSwapID:    &swapID,
		Description:   "Face swap failed - refunded: " + reason,
		CreatedAt:     now,
	}

	balance.Credits += amount
	balance.LifetimeAdded += amount
	balance.UpdatedAt = now
	if err := upsertBalanceTx(ctx, dbTx, balance); err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	if err := insertTransactionTx(ctx, dbTx, ledger); err != nil {
		return nil, fmt.Errorf("failed to record refund: %w", err)
	}

	// Mark the swap failed in the same transaction so the ledger and audit
	// trail can never disagree about the outcome.
	if _, err := dbTx.ExecContext(ctx,
		`UPDATE face_swaps SET status = ?, error_message = ?, updated_at = ? WHERE id = ? AND status = ?`,
		models.SwapFailed, reason, formatTime(now), swapID, models.SwapProcessing); err != nil {
		return nil, fmt.Errorf("failed to mark swap failed: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit refund: %w", err)
	}

	return ledger, nil
}

func (r *SQLiteBillingRepository) AddCredits(ctx context.Context, userID string, txType models.CreditTransactionType, amount int64, paymentID *string, description string) (*models.CreditTransaction, error) {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = dbTx.Rollback() }()

	balance, err := getBalanceTx(ctx, dbTx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}

	now := time.Now()
	ledger := &models.CreditTransaction{
		ID:            ulid.Make().String(),
		UserID:        userID,
		Type:          txType,
		Delta:         amount,
		BalanceBefore: balance.Credits,
		BalanceAfter:  balance.Credits + amount,
		PaymentID:     paymentID,
		Description:   description,
		CreatedAt:     now,
	}

	if err := insertTransactionTx(ctx, dbTx, ledger); err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrDuplicatePayment
		}
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	balance.Credits += amount
	balance.LifetimeAdded += amount
	balance.UpdatedAt = now
	if err := upsertBalanceTx(ctx, dbTx, balance); err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit credit: %w", err)
	}

	return ledger, nil
}

func (r *SQLiteBillingRepository) ListTransactions(ctx context.Context, userID string, limit, offset int) ([]*models.CreditTransaction, error) {
	query := `SELECT id, user_id, type, delta, balance_before, balance_after,
		payment_id, face_swap_id, description, created_at
		FROM credit_transactions WHERE user_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var transactions []*models.CreditTransaction
	for rows.Next() {
		var tx models.CreditTransaction
		var paymentID, faceSwapID sql.NullString
		var createdAt string

		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Type, &tx.Delta, &tx.BalanceBefore,
			&tx.BalanceAfter, &paymentID, &faceSwapID, &tx.Description, &createdAt); err != nil {
			return nil, err
		}

		if paymentID.Valid {
			tx.PaymentID = &paymentID.String
		}
		if faceSwapID.Valid {
			tx.FaceSwapID = &faceSwapID.String
		}
		tx.CreatedAt = parseTime(createdAt)

		transactions = append(transactions, &tx)
	}

	return transactions, rows.Err()
}

// isDuplicateKeyError checks if an error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "duplicate key")
}
