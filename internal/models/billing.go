package models

import "time"

// ========================================
// User Balance
// ========================================

// UserBalance tracks a user's credit balance. Credits are the unit debited
// per paid swap. Mutated only inside the billing repository's transactions.
type UserBalance struct {
	UserID        string    `json:"user_id"`
	Credits       int64     `json:"credits"`
	LifetimeAdded int64     `json:"lifetime_added"`
	LifetimeSpent int64     `json:"lifetime_spent"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ========================================
// Credit Transactions
// ========================================

// CreditTransactionType defines the type of credit transaction.
type CreditTransactionType string

const (
	TxTypeUsage    CreditTransactionType = "usage"    // swap deduction
	TxTypeBonus    CreditTransactionType = "bonus"    // signup bonus or failure refund
	TxTypePurchase CreditTransactionType = "purchase" // paid top-up
)

// CreditTransaction is an immutable ledger entry. Entries are only appended,
// never mutated or deleted: a failed swap gets a compensating positive-delta
// entry rather than removal of the debit.
type CreditTransaction struct {
	ID            string                `json:"id"`
	UserID        string                `json:"user_id"`
	Type          CreditTransactionType `json:"type"`
	Delta         int64                 `json:"delta"` // positive=credit, negative=debit
	BalanceBefore int64                 `json:"balance_before"`
	BalanceAfter  int64                 `json:"balance_after"` // invariant: BalanceBefore + Delta

	// Idempotency and references
	PaymentID  *string `json:"payment_id,omitempty"`   // UNIQUE - prevents double-credit on purchases
	FaceSwapID *string `json:"face_swap_id,omitempty"` // originating swap for usage/refund entries

	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// ========================================
// Face Swap Records
// ========================================

// SwapStatus is the lifecycle state of one provider invocation.
// Transitions are one-directional: processing -> completed | failed.
type SwapStatus string

const (
	SwapProcessing SwapStatus = "processing"
	SwapCompleted  SwapStatus = "completed"
	SwapFailed     SwapStatus = "failed"
)

// FaceSwapRecord is the audit trail for one swap attempt. Created inside the
// same transaction as the credit debit; updated to a terminal state once the
// provider call and upload resolve.
type FaceSwapRecord struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	TemplateID     string     `json:"template_id,omitempty"`
	TemplateTitle  string     `json:"template_title,omitempty"`
	Status         SwapStatus `json:"status"`
	CreditsCharged int64      `json:"credits_charged"`
	TransactionID  *string    `json:"transaction_id,omitempty"`
	// ResultURL is nil while processing. After completion it holds the stored
	// result location, or stays nil with ResultUploadFailed set when the swap
	// succeeded but the upload did not.
	ResultURL          *string   `json:"result_url,omitempty"`
	ResultUploadFailed bool      `json:"result_upload_failed,omitempty"`
	ErrorMessage       string    `json:"error_message,omitempty"`
	Provider           string    `json:"provider,omitempty"`
	IsGuest            bool      `json:"is_guest"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
