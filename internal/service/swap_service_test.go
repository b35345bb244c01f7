package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/faceforge/faceforge-api/internal/models"
)

const fakeResult = "data:image/jpeg;base64,cmVzdWx0"

func TestProcessSwapSuccess(t *testing.T) {
	repos := setupTestRepos(t)
	seedCredits(t, repos, "user-1", 5)
	seedTemplate(t, repos, "tpl-1", "Garden Wedding", "Swap into a garden wedding.")

	prov := &fakeProvider{result: fakeResult}
	up := &fakeUploader{enabled: true}
	svc := newTestSwapService(repos, prov, up)

	res, err := svc.ProcessSwap(context.Background(), SwapRequest{
		UserID:      "user-1",
		SourceImage: "data:image/jpeg;base64,c3Jj",
		TargetImage: "https://cdn.example.com/tpl-1.jpg",
		TemplateID:  "tpl-1",
	})
	if err != nil {
		t.Fatalf("ProcessSwap failed: %v", err)
	}

	if res.ResultImage != fakeResult {
		t.Error("expected provider result to be returned")
	}
	if res.CreditsRemaining != 4 {
		t.Errorf("expected 4 credits remaining, got %d", res.CreditsRemaining)
	}
	if res.ResultURL == nil || !strings.Contains(*res.ResultURL, res.FaceSwapID) {
		t.Error("expected stored result URL")
	}

	// Template prompt flows into the provider call.
	if prov.lastIn.Prompt != "Swap into a garden wedding." {
		t.Errorf("expected template prompt, got %q", prov.lastIn.Prompt)
	}

	rec, err := repos.Swap.GetByID(context.Background(), res.FaceSwapID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if rec.Status != models.SwapCompleted {
		t.Errorf("expected completed record, got %s", rec.Status)
	}

	// Success side effects: usage counter and profile history.
	tpl, _ := repos.Template.GetByID(context.Background(), "tpl-1")
	if tpl.UsageCount != 1 {
		t.Errorf("expected usage count 1, got %d", tpl.UsageCount)
	}
	profile, _ := repos.Profile.Get(context.Background(), "user-1")
	if profile == nil || len(profile.UsedTemplates) != 1 {
		t.Error("expected usage history entry")
	}
}

func TestProcessSwapInsufficientCredits(t *testing.T) {
	repos := setupTestRepos(t)
	prov := &fakeProvider{result: fakeResult}
	svc := newTestSwapService(repos, prov, &fakeUploader{})

	_, err := svc.ProcessSwap(context.Background(), SwapRequest{
		UserID:      "broke-user",
		SourceImage: "data:image/jpeg;base64,c3Jj",
		TargetImage: "https://cdn.example.com/t.jpg",
	})
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
	if prov.calls != 0 {
		t.Error("provider must not be called when the balance check fails")
	}
}

func TestProcessSwapProviderFailureRefunds(t *testing.T) {
	repos := setupTestRepos(t)
	seedCredits(t, repos, "user-1", 3)

	prov := &fakeProvider{err: errors.New("backend exploded")}
	svc := newTestSwapService(repos, prov, &fakeUploader{})

	_, err := svc.ProcessSwap(context.Background(), SwapRequest{
		UserID:      "user-1",
		SourceImage: "data:image/jpeg;base64,c3Jj",
		TargetImage: "https://cdn.example.com/t.jpg",
	})
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}

	// Failed swaps net to zero: the debit is exactly cancelled.
	balance, err := repos.Billing.GetBalance(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if balance.Credits != 3 {
		t.Errorf("expected balance restored to 3, got %d", balance.Credits)
	}

	// Both ledger sides are present; nothing was deleted.
	txs, err := repos.Billing.ListTransactions(context.Background(), "user-1", 10, 0)
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(txs) != 3 { // seed + debit + refund
		t.Fatalf("expected 3 ledger entries, got %d", len(txs))
	}

	// The audit record reached its failed terminal state.
	swaps, err := repos.Swap.ListByUserID(context.Background(), "user-1", 10, 0)
	if err != nil {
		t.Fatalf("ListByUserID failed: %v", err)
	}
	if len(swaps) != 1 || swaps[0].Status != models.SwapFailed {
		t.Errorf("expected one failed swap record, got %+v", swaps)
	}
}

func TestProcessSwapGuestSkipsLedger(t *testing.T) {
	repos := setupTestRepos(t)
	prov := &fakeProvider{result: fakeResult}
	svc := newTestSwapService(repos, prov, &fakeUploader{})

	res, err := svc.ProcessSwap(context.Background(), SwapRequest{
		GuestSessionID: "session-abc",
		SourceImage:    "data:image/jpeg;base64,c3Jj",
		TargetImage:    "https://cdn.example.com/t.jpg",
	})
	if err != nil {
		t.Fatalf("ProcessSwap failed: %v", err)
	}
	if res.CreditsRemaining != -1 {
		t.Errorf("guest swaps have no balance, got %d", res.CreditsRemaining)
	}

	rec, err := repos.Swap.GetByID(context.Background(), res.FaceSwapID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !rec.IsGuest || rec.UserID != "guest:session-abc" {
		t.Errorf("expected guest record under synthetic id, got %+v", rec)
	}

	txs, err := repos.Billing.ListTransactions(context.Background(), "guest:session-abc", 10, 0)
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(txs) != 0 {
		t.Error("guest swaps must not create ledger entries")
	}
}

func TestProcessSwapUploadFailureIsNonFatal(t *testing.T) {
	repos := setupTestRepos(t)
	seedCredits(t, repos, "user-1", 2)

	prov := &fakeProvider{result: fakeResult}
	up := &fakeUploader{enabled: true, err: errors.New("bucket unavailable")}
	svc := newTestSwapService(repos, prov, up)

	res, err := svc.ProcessSwap(context.Background(), SwapRequest{
		UserID:      "user-1",
		SourceImage: "data:image/jpeg;base64,c3Jj",
		TargetImage: "https://cdn.example.com/t.jpg",
	})
	if err != nil {
		t.Fatalf("upload failure must not fail the swap: %v", err)
	}
	if res.ResultImage != fakeResult {
		t.Error("user must still receive the result inline")
	}
	if res.ResultURL != nil {
		t.Error("expected nil result URL after upload failure")
	}
	if res.CreditsRemaining != 1 {
		t.Errorf("swap succeeded, credit stays spent: got %d remaining", res.CreditsRemaining)
	}

	rec, _ := repos.Swap.GetByID(context.Background(), res.FaceSwapID)
	if rec.Status != models.SwapCompleted || !rec.ResultUploadFailed {
		t.Errorf("expected completed record with upload-failed marker, got %+v", rec)
	}
}

func TestProcessSwapReconcileFailureRefunds(t *testing.T) {
	repos := setupTestRepos(t)
	seedCredits(t, repos, "user-1", 2)

	svc := newTestSwapService(repos, &fakeProvider{result: fakeResult}, &fakeUploader{})
	svc.reconcile = func(ctx context.Context, client *http.Client, templateRef, resultDataURL string) (string, error) {
		return "", errors.New("undecodable result")
	}

	_, err := svc.ProcessSwap(context.Background(), SwapRequest{
		UserID:      "user-1",
		SourceImage: "data:image/jpeg;base64,c3Jj",
		TargetImage: "https://cdn.example.com/t.jpg",
	})
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}

	balance, err := repos.Billing.GetBalance(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if balance.Credits != 2 {
		t.Errorf("expected full refund, got %d credits", balance.Credits)
	}
}

func TestProcessSwapValidatesInput(t *testing.T) {
	repos := setupTestRepos(t)
	prov := &fakeProvider{result: fakeResult}
	svc := newTestSwapService(repos, prov, &fakeUploader{})

	// Missing images are a client error, not a processing failure.
	_, err := svc.ProcessSwap(context.Background(), SwapRequest{UserID: "u"})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for missing images, got %v", err)
	}
	_, err = svc.ProcessSwap(context.Background(), SwapRequest{
		UserID:      "u",
		SourceImage: "data:image/jpeg;base64,c3Jj",
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for missing target, got %v", err)
	}
	if prov.calls != 0 {
		t.Error("provider must not be called for invalid input")
	}
}

func TestProcessSwapGroupContextFlowsThrough(t *testing.T) {
	repos := setupTestRepos(t)
	seedCredits(t, repos, "user-1", 2)

	prov := &fakeProvider{result: fakeResult}
	svc := newTestSwapService(repos, prov, &fakeUploader{})

	_, err := svc.ProcessSwap(context.Background(), SwapRequest{
		UserID:      "user-1",
		SourceImage: "data:image/jpeg;base64,c3Jj",
		TargetImage: "https://cdn.example.com/t.jpg",
		IsGroupSwap: true,
		FaceIndex:   2,
		TotalFaces:  4,
		SlotType:    "pet",
		SlotLabel:   "the corgi",
	})
	if err != nil {
		t.Fatalf("ProcessSwap failed: %v", err)
	}
	if !prov.lastIn.IsGroupSwap || prov.lastIn.FaceIndex != 2 || prov.lastIn.TotalFaces != 4 {
		t.Errorf("group targeting did not reach the provider: %+v", prov.lastIn)
	}
	if prov.lastIn.SlotType != "pet" || prov.lastIn.SlotLabel != "the corgi" {
		t.Errorf("slot context did not reach the provider: %+v", prov.lastIn)
	}
}
