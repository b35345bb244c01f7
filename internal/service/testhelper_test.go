package service

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"testing"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/faceforge/faceforge-api/internal/config"
	"github.com/faceforge/faceforge-api/internal/database/migrations"
	"github.com/faceforge/faceforge-api/internal/models"
	"github.com/faceforge/faceforge-api/internal/provider"
	"github.com/faceforge/faceforge-api/internal/repository"
)

// setupTestRepos creates repositories over an in-memory SQLite database.
func setupTestRepos(t *testing.T) *repository.Repositories {
	t.Helper()

	db, err := sql.Open("libsql", ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}
	if err := migrations.Run(db, nil); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return repository.NewRepositories(db)
}

func testConfig() *config.Config {
	return &config.Config{
		SwapCost:      1,
		SignupCredits: 3,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// fakeProvider returns canned results or errors.
type fakeProvider struct {
	result string
	err    error
	calls  int
	lastIn provider.Input
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Swap(ctx context.Context, in provider.Input) (*provider.Result, error) {
	f.calls++
	f.lastIn = in
	if f.err != nil {
		return nil, f.err
	}
	return &provider.Result{ResultImage: f.result}, nil
}

// fakeUploader satisfies resultUploader without real object storage.
type fakeUploader struct {
	enabled bool
	err     error
	uploads int
}

func (f *fakeUploader) IsEnabled() bool { return f.enabled }

func (f *fakeUploader) UploadSwapResult(ctx context.Context, swapID, resultDataURL string) (string, error) {
	f.uploads++
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.example.com/results/" + swapID + ".jpg", nil
}

// newTestSwapService wires a swap service with fakes and a pass-through
// reconciliation step.
func newTestSwapService(repos *repository.Repositories, p provider.Provider, up resultUploader) *SwapService {
	return &SwapService{
		repos:    repos,
		provider: p,
		storage:  up,
		cfg:      testConfig(),
		logger:   testLogger(),
		reconcile: func(ctx context.Context, client *http.Client, templateRef, resultDataURL string) (string, error) {
			return resultDataURL, nil
		},
	}
}

// seedCredits grants a starting balance through the ledger.
func seedCredits(t *testing.T, repos *repository.Repositories, userID string, credits int64) {
	t.Helper()
	if _, err := repos.Billing.AddCredits(context.Background(), userID, models.TxTypeBonus,
		credits, nil, "test seed"); err != nil {
		t.Fatalf("failed to seed credits: %v", err)
	}
}

// seedTemplate inserts a minimal active template.
func seedTemplate(t *testing.T, repos *repository.Repositories, id, title, prompt string) {
	t.Helper()
	now := time.Now()
	tpl := &models.Template{
		ID:         id,
		Title:      title,
		ImageURL:   "https://cdn.example.com/" + id + ".jpg",
		Prompt:     prompt,
		Categories: []string{"test"},
		IsActive:   true,
		FaceCount:  1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := repos.Template.Create(context.Background(), tpl); err != nil {
		t.Fatalf("failed to seed template: %v", err)
	}
}
