package repository

import (
	"context"
	"testing"
	"time"

	"github.com/faceforge/faceforge-api/internal/models"
)

func TestProfileGetMissing(t *testing.T) {
	repos := setupTestRepos(t)

	p, err := repos.Profile.Get(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p != nil {
		t.Error("expected nil profile for unknown user")
	}
}

func TestProfileUpsertRoundTrip(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	now := time.Now()
	p := &models.UserProfile{
		UserID:            "user-1",
		BodyTypes:         []string{"athletic"},
		Occasions:         []string{"wedding", "party"},
		Moods:             []string{"energetic"},
		Styles:            []string{"vibrant"},
		FavoriteTemplates: []string{"tpl-1"},
		AnsweredQuestions: []string{"q-1"},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := repos.Profile.Upsert(ctx, p); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := repos.Profile.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected profile to exist")
	}
	if len(got.Occasions) != 2 || got.Occasions[0] != "wedding" {
		t.Errorf("occasions did not round-trip: %+v", got.Occasions)
	}
	if !got.IsFavorite("tpl-1") {
		t.Error("expected tpl-1 to be a favorite")
	}
	if !got.HasAnswered("q-1") {
		t.Error("expected q-1 to be answered")
	}

	// Upsert again with changes; must update, not duplicate.
	got.Moods = []string{"relaxed"}
	if err := repos.Profile.Upsert(ctx, got); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}
	again, err := repos.Profile.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(again.Moods) != 1 || again.Moods[0] != "relaxed" {
		t.Errorf("update did not persist: %+v", again.Moods)
	}
}

func TestProfileAppendTemplateUse(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	// Appending to a missing profile creates it.
	usedAt := time.Now().Add(-time.Hour)
	if err := repos.Profile.AppendTemplateUse(ctx, "user-1", "tpl-1", usedAt); err != nil {
		t.Fatalf("AppendTemplateUse failed: %v", err)
	}
	if err := repos.Profile.AppendTemplateUse(ctx, "user-1", "tpl-2", time.Now()); err != nil {
		t.Fatalf("AppendTemplateUse failed: %v", err)
	}

	got, err := repos.Profile.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected profile to be created")
	}
	if len(got.UsedTemplates) != 2 {
		t.Fatalf("expected 2 usage entries, got %d", len(got.UsedTemplates))
	}
	if got.UsedTemplates[0].TemplateID != "tpl-1" {
		t.Errorf("expected first use to be tpl-1, got %s", got.UsedTemplates[0].TemplateID)
	}
}
