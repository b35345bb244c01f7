// Package repository contains the persistence layer.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/faceforge/faceforge-api/internal/models"
)

// TemplateRepository handles template persistence.
type TemplateRepository interface {
	Create(ctx context.Context, t *models.Template) error
	GetByID(ctx context.Context, id string) (*models.Template, error)
	// List returns templates, optionally filtered to active ones and/or a
	// brand domain (templates with an empty brand_domain match every domain).
	List(ctx context.Context, activeOnly bool, brandDomain string) ([]*models.Template, error)
	Update(ctx context.Context, t *models.Template) error
	Delete(ctx context.Context, id string) error
	// IncrementUsage bumps the usage counter by one. Lost updates under
	// extreme concurrency are acceptable; the counter only feeds a
	// popularity heuristic.
	IncrementUsage(ctx context.Context, id string) error
}

// ProfileRepository handles user preference profiles.
type ProfileRepository interface {
	// Get returns nil, nil when no profile exists yet.
	Get(ctx context.Context, userID string) (*models.UserProfile, error)
	Upsert(ctx context.Context, p *models.UserProfile) error
	// AppendTemplateUse appends to the usage history, creating the profile
	// if needed.
	AppendTemplateUse(ctx context.Context, userID, templateID string, usedAt time.Time) error
}

// ScreenerRepository handles screener questions.
type ScreenerRepository interface {
	Create(ctx context.Context, q *models.ScreenerQuestion) error
	GetByID(ctx context.Context, id string) (*models.ScreenerQuestion, error)
	// List returns questions ordered by their presentation order.
	List(ctx context.Context, activeOnly bool) ([]*models.ScreenerQuestion, error)
	Update(ctx context.Context, q *models.ScreenerQuestion) error
	Delete(ctx context.Context, id string) error
}

// SwapRepository handles face swap audit records outside the debit
// transaction (terminal-state updates and reads).
type SwapRepository interface {
	// Create inserts a record directly; used for guest swaps, which bypass
	// the ledger.
	Create(ctx context.Context, rec *models.FaceSwapRecord) error
	GetByID(ctx context.Context, id string) (*models.FaceSwapRecord, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*models.FaceSwapRecord, error)
	// MarkCompleted transitions processing -> completed. resultURL may be nil
	// when the swap succeeded but the upload failed.
	MarkCompleted(ctx context.Context, id string, resultURL *string, uploadFailed bool) error
	// MarkFailed transitions processing -> failed.
	MarkFailed(ctx context.Context, id string, errMsg string) error
}

// BillingRepository owns the credit ledger. The balance is mutated only
// inside this repository's transactions so concurrent swap requests can
// never both pass the balance check against a stale balance.
type BillingRepository interface {
	GetBalance(ctx context.Context, userID string) (*models.UserBalance, error)
	// DebitForSwap atomically verifies balance >= cost, debits it, creates
	// the FaceSwapRecord in processing state and appends the usage ledger
	// entry. Returns ErrInsufficientCredits without side effects when the
	// balance is too low.
	DebitForSwap(ctx context.Context, userID string, cost int64, rec *models.FaceSwapRecord) (*models.CreditTransaction, error)
	// RefundSwap atomically re-credits the exact debited amount, appends a
	// compensating bonus entry and marks the swap record failed.
	RefundSwap(ctx context.Context, userID, swapID string, amount int64, reason string) (*models.CreditTransaction, error)
	// AddCredits appends a positive ledger entry (bonus or purchase). When
	// paymentID is non-nil a duplicate id returns ErrDuplicatePayment.
	AddCredits(ctx context.Context, userID string, txType models.CreditTransactionType, amount int64, paymentID *string, description string) (*models.CreditTransaction, error)
	ListTransactions(ctx context.Context, userID string, limit, offset int) ([]*models.CreditTransaction, error)
}

// BrandRepository handles multi-tenant brand configuration.
type BrandRepository interface {
	Upsert(ctx context.Context, b *models.BrandConfig) error
	GetByDomain(ctx context.Context, domain string) (*models.BrandConfig, error)
	List(ctx context.Context) ([]*models.BrandConfig, error)
	Delete(ctx context.Context, domain string) error
}

// Repositories aggregates all repository implementations.
type Repositories struct {
	Template TemplateRepository
	Profile  ProfileRepository
	Screener ScreenerRepository
	Swap     SwapRepository
	Billing  BillingRepository
	Brand    BrandRepository
}

// NewRepositories creates all SQLite-backed repositories.
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Template: NewSQLiteTemplateRepository(db),
		Profile:  NewSQLiteProfileRepository(db),
		Screener: NewSQLiteScreenerRepository(db),
		Swap:     NewSQLiteSwapRepository(db),
		Billing:  NewSQLiteBillingRepository(db),
		Brand:    NewSQLiteBrandRepository(db),
	}
}
