package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/faceforge/faceforge-api/internal/models"
)

func newProcessingRecord(id, userID string) *models.FaceSwapRecord {
	return &models.FaceSwapRecord{
		ID:            id,
		UserID:        userID,
		TemplateID:    "tpl-1",
		TemplateTitle: "Summer Wedding",
		Provider:      "gemini",
	}
}

func TestDebitForSwap(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	if _, err := repos.Billing.AddCredits(ctx, "user-1", models.TxTypeBonus, 5, nil, "Signup bonus"); err != nil {
		t.Fatalf("AddCredits failed: %v", err)
	}

	rec := newProcessingRecord("swap-1", "user-1")
	tx, err := repos.Billing.DebitForSwap(ctx, "user-1", 1, rec)
	if err != nil {
		t.Fatalf("DebitForSwap failed: %v", err)
	}

	if tx.Delta != -1 {
		t.Errorf("expected delta -1, got %d", tx.Delta)
	}
	if tx.BalanceBefore != 5 || tx.BalanceAfter != 4 {
		t.Errorf("expected balance 5 -> 4, got %d -> %d", tx.BalanceBefore, tx.BalanceAfter)
	}

	balance, err := repos.Billing.GetBalance(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if balance.Credits != 4 {
		t.Errorf("expected 4 credits, got %d", balance.Credits)
	}
	if balance.LifetimeSpent != 1 {
		t.Errorf("expected lifetime_spent 1, got %d", balance.LifetimeSpent)
	}

	// The swap record must exist in processing state, linked to the ledger entry.
	stored, err := repos.Swap.GetByID(ctx, "swap-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored == nil {
		t.Fatal("expected swap record to exist")
	}
	if stored.Status != models.SwapProcessing {
		t.Errorf("expected processing status, got %s", stored.Status)
	}
	if stored.TransactionID == nil || *stored.TransactionID != tx.ID {
		t.Error("expected swap record to reference the debit transaction")
	}
}

func TestDebitForSwapInsufficientCredits(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	rec := newProcessingRecord("swap-1", "user-1")
	_, err := repos.Billing.DebitForSwap(ctx, "user-1", 1, rec)
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}

	// No side effects: no swap record, no ledger entries, balance untouched.
	stored, err := repos.Swap.GetByID(ctx, "swap-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored != nil {
		t.Error("expected no swap record after failed debit")
	}

	txs, err := repos.Billing.ListTransactions(ctx, "user-1", 10, 0)
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("expected empty ledger, got %d entries", len(txs))
	}

	balance, err := repos.Billing.GetBalance(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if balance.Credits != 0 {
		t.Errorf("expected 0 credits, got %d", balance.Credits)
	}
}

func TestRefundSwap(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	if _, err := repos.Billing.AddCredits(ctx, "user-1", models.TxTypeBonus, 3, nil, "Signup bonus"); err != nil {
		t.Fatalf("AddCredits failed: %v", err)
	}

	rec := newProcessingRecord("swap-1", "user-1")
	if _, err := repos.Billing.DebitForSwap(ctx, "user-1", 2, rec); err != nil {
		t.Fatalf("DebitForSwap failed: %v", err)
	}

	refund, err := repos.Billing.RefundSwap(ctx, "user-1", "swap-1", 2, "provider returned no image")
	if err != nil {
		t.Fatalf("RefundSwap failed: %v", err)
	}
	if refund.Type != models.TxTypeBonus {
		t.Errorf("expected bonus refund entry, got %s", refund.Type)
	}
	if refund.Delta != 2 {
		t.Errorf("expected delta 2, got %d", refund.Delta)
	}

	balance, err := repos.Billing.GetBalance(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if balance.Credits != 3 {
		t.Errorf("expected balance restored to 3, got %d", balance.Credits)
	}

	stored, err := repos.Swap.GetByID(ctx, "swap-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.Status != models.SwapFailed {
		t.Errorf("expected failed status after refund, got %s", stored.Status)
	}
	if stored.ErrorMessage != "provider returned no image" {
		t.Errorf("unexpected error message: %q", stored.ErrorMessage)
	}
}

func TestLedgerConservation(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	// Mix of credits, debits and a refund. sum(deltas) must equal the final
	// balance since the user started from zero.
	if _, err := repos.Billing.AddCredits(ctx, "user-1", models.TxTypeBonus, 3, nil, "Signup bonus"); err != nil {
		t.Fatalf("AddCredits failed: %v", err)
	}
	paymentID := "pay_123"
	if _, err := repos.Billing.AddCredits(ctx, "user-1", models.TxTypePurchase, 10, &paymentID, "Credit pack"); err != nil {
		t.Fatalf("AddCredits failed: %v", err)
	}
	if _, err := repos.Billing.DebitForSwap(ctx, "user-1", 1, newProcessingRecord("swap-1", "user-1")); err != nil {
		t.Fatalf("DebitForSwap failed: %v", err)
	}
	if _, err := repos.Billing.DebitForSwap(ctx, "user-1", 1, newProcessingRecord("swap-2", "user-1")); err != nil {
		t.Fatalf("DebitForSwap failed: %v", err)
	}
	if _, err := repos.Billing.RefundSwap(ctx, "user-1", "swap-2", 1, "timeout"); err != nil {
		t.Fatalf("RefundSwap failed: %v", err)
	}

	txs, err := repos.Billing.ListTransactions(ctx, "user-1", 100, 0)
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(txs) != 5 {
		t.Fatalf("expected 5 ledger entries, got %d", len(txs))
	}

	var sum int64
	for _, tx := range txs {
		sum += tx.Delta
		if tx.BalanceAfter != tx.BalanceBefore+tx.Delta {
			t.Errorf("entry %s violates balance_after = balance_before + delta", tx.ID)
		}
	}

	balance, err := repos.Billing.GetBalance(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if sum != balance.Credits {
		t.Errorf("ledger sum %d does not match balance %d", sum, balance.Credits)
	}
	if balance.Credits != 12 {
		t.Errorf("expected final balance 12, got %d", balance.Credits)
	}
}

func TestAddCreditsDuplicatePayment(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	paymentID := "pay_abc"
	if _, err := repos.Billing.AddCredits(ctx, "user-1", models.TxTypePurchase, 10, &paymentID, "Credit pack"); err != nil {
		t.Fatalf("AddCredits failed: %v", err)
	}

	_, err := repos.Billing.AddCredits(ctx, "user-1", models.TxTypePurchase, 10, &paymentID, "Credit pack")
	if !errors.Is(err, ErrDuplicatePayment) {
		t.Fatalf("expected ErrDuplicatePayment, got %v", err)
	}

	// The duplicate must not have credited anything.
	balance, err := repos.Billing.GetBalance(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if balance.Credits != 10 {
		t.Errorf("expected 10 credits after duplicate rejection, got %d", balance.Credits)
	}
}

func TestGetBalanceNewUser(t *testing.T) {
	repos := setupTestRepos(t)

	balance, err := repos.Billing.GetBalance(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if balance.Credits != 0 {
		t.Errorf("expected zero balance for new user, got %d", balance.Credits)
	}
	if balance.UserID != "never-seen" {
		t.Errorf("expected user id to be set, got %q", balance.UserID)
	}
}

func TestListTransactionsPagination(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := repos.Billing.AddCredits(ctx, "user-1", models.TxTypeBonus, 1, nil, "Bonus"); err != nil {
			t.Fatalf("AddCredits failed: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	page, err := repos.Billing.ListTransactions(ctx, "user-1", 2, 0)
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(page))
	}
	if page[0].CreatedAt.Before(page[1].CreatedAt) {
		t.Error("expected newest-first ordering")
	}

	rest, err := repos.Billing.ListTransactions(ctx, "user-1", 10, 2)
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(rest) != 3 {
		t.Errorf("expected 3 remaining entries, got %d", len(rest))
	}
}
