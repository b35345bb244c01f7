package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/faceforge/faceforge-api/internal/models"
)

// SQLiteProfileRepository implements ProfileRepository for SQLite.
type SQLiteProfileRepository struct {
	db *sql.DB
}

// NewSQLiteProfileRepository creates a new SQLite profile repository.
func NewSQLiteProfileRepository(db *sql.DB) *SQLiteProfileRepository {
	return &SQLiteProfileRepository{db: db}
}

const profileColumns = `user_id, body_types, occasions, moods, styles,
	used_templates, favorite_templates, answered_questions, created_at, updated_at`

func (r *SQLiteProfileRepository) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE user_id = ?`

	var p models.UserProfile
	var bodyTypes, occasions, moods, styles, used, favorites, answered string
	var createdAt, updatedAt string

	err := r.db.QueryRowContext(ctx, query, userID).Scan(&p.UserID, &bodyTypes, &occasions,
		&moods, &styles, &used, &favorites, &answered, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	fromJSONText(bodyTypes, &p.BodyTypes)
	fromJSONText(occasions, &p.Occasions)
	fromJSONText(moods, &p.Moods)
	fromJSONText(styles, &p.Styles)
	fromJSONText(used, &p.UsedTemplates)
	fromJSONText(favorites, &p.FavoriteTemplates)
	fromJSONText(answered, &p.AnsweredQuestions)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)

	return &p, nil
}

func (r *SQLiteProfileRepository) Upsert(ctx context.Context, p *models.UserProfile) error {
	query := `INSERT INTO user_profiles (` + profileColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			body_types = excluded.body_types,
			occasions = excluded.occasions,
			moods = excluded.moods,
			styles = excluded.styles,
			used_templates = excluded.used_templates,
			favorite_templates = excluded.favorite_templates,
			answered_questions = excluded.answered_questions,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		p.UserID, jsonText(p.BodyTypes), jsonText(p.Occasions), jsonText(p.Moods),
		jsonText(p.Styles), jsonText(p.UsedTemplates), jsonText(p.FavoriteTemplates),
		jsonText(p.AnsweredQuestions), formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	return err
}

func (r *SQLiteProfileRepository) AppendTemplateUse(ctx context.Context, userID, templateID string, usedAt time.Time) error {
	p, err := r.Get(ctx, userID)
	if err != nil {
		return err
	}
	if p == nil {
		now := time.Now()
		p = &models.UserProfile{UserID: userID, CreatedAt: now, UpdatedAt: now}
	}
	p.UsedTemplates = append(p.UsedTemplates, models.TemplateUse{TemplateID: templateID, UsedAt: usedAt})
	p.UpdatedAt = time.Now()
	return r.Upsert(ctx, p)
}
