package repository

import (
	"context"
	"testing"
	"time"

	"github.com/faceforge/faceforge-api/internal/models"
)

func TestSwapMarkCompleted(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	now := time.Now()
	rec := &models.FaceSwapRecord{
		ID:        "swap-1",
		UserID:    "guest:abc",
		Status:    models.SwapProcessing,
		Provider:  "wavespeed",
		IsGuest:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repos.Swap.Create(ctx, rec); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	url := "https://cdn.example.com/results/swap-1.jpg"
	if err := repos.Swap.MarkCompleted(ctx, "swap-1", &url, false); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}

	got, err := repos.Swap.GetByID(ctx, "swap-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.SwapCompleted {
		t.Errorf("expected completed, got %s", got.Status)
	}
	if got.ResultURL == nil || *got.ResultURL != url {
		t.Error("expected result URL to be stored")
	}

	// Terminal states are final: a later MarkFailed must not regress it.
	if err := repos.Swap.MarkFailed(ctx, "swap-1", "late failure"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}
	got, err = repos.Swap.GetByID(ctx, "swap-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.SwapCompleted {
		t.Errorf("completed swap was overwritten to %s", got.Status)
	}
}

func TestSwapMarkCompletedUploadFailed(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	now := time.Now()
	rec := &models.FaceSwapRecord{
		ID:        "swap-1",
		UserID:    "user-1",
		Status:    models.SwapProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repos.Swap.Create(ctx, rec); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Swap succeeded but the result could not be stored; still completed.
	if err := repos.Swap.MarkCompleted(ctx, "swap-1", nil, true); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}

	got, err := repos.Swap.GetByID(ctx, "swap-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.SwapCompleted {
		t.Errorf("expected completed, got %s", got.Status)
	}
	if got.ResultURL != nil {
		t.Error("expected nil result URL")
	}
	if !got.ResultUploadFailed {
		t.Error("expected result_upload_failed flag")
	}
}

func TestSwapListByUserID(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	for i, id := range []string{"swap-1", "swap-2", "swap-3"} {
		now := time.Now().Add(time.Duration(i) * time.Millisecond)
		rec := &models.FaceSwapRecord{
			ID:        id,
			UserID:    "user-1",
			Status:    models.SwapProcessing,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := repos.Swap.Create(ctx, rec); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	records, err := repos.Swap.ListByUserID(ctx, "user-1", 2, 0)
	if err != nil {
		t.Fatalf("ListByUserID failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != "swap-3" {
		t.Errorf("expected newest first, got %s", records[0].ID)
	}

	other, err := repos.Swap.ListByUserID(ctx, "user-2", 10, 0)
	if err != nil {
		t.Fatalf("ListByUserID failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected no records for other user, got %d", len(other))
	}
}
