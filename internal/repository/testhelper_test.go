package repository

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/faceforge/faceforge-api/internal/database/migrations"
	"github.com/faceforge/faceforge-api/internal/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
// It runs migrations and returns a database connection that will be cleaned up
// when the test completes.
func setupTestDB(t *testing.T) *sql.DB {
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

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// setupTestRepos creates all repositories using a test database.
func setupTestRepos(t *testing.T) *Repositories {
	t.Helper()
	db := setupTestDB(t)
	return NewRepositories(db)
}

// insertTestBalance seeds a user balance directly.
func insertTestBalance(t *testing.T, db *sql.DB, userID string, credits int64) {
	t.Helper()
	query := `
		INSERT INTO user_balances (user_id, credits, lifetime_added, lifetime_spent, updated_at)
		VALUES (?, ?, ?, 0, datetime('now'))
	`
	if _, err := db.Exec(query, userID, credits, credits); err != nil {
		t.Fatalf("failed to insert test balance: %v", err)
	}
}

// testTemplate builds a minimal active template for tests.
func testTemplate(id, title string) *models.Template {
	now := time.Now()
	return &models.Template{
		ID:        id,
		Title:     title,
		ImageURL:  "https://cdn.example.com/" + id + ".jpg",
		IsActive:  true,
		FaceCount: 1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
