package repository

import (
	"context"
	"database/sql"

	"github.com/faceforge/faceforge-api/internal/models"
)

// SQLiteScreenerRepository implements ScreenerRepository for SQLite.
type SQLiteScreenerRepository struct {
	db *sql.DB
}

// NewSQLiteScreenerRepository creates a new SQLite screener repository.
func NewSQLiteScreenerRepository(db *sql.DB) *SQLiteScreenerRepository {
	return &SQLiteScreenerRepository{db: db}
}

const screenerColumns = `id, ord, multi_select, option_keys, translations, category,
	is_active, target_gender, min_prior_uses, created_at, updated_at`

func (r *SQLiteScreenerRepository) Create(ctx context.Context, q *models.ScreenerQuestion) error {
	query := `INSERT INTO screener_questions (` + screenerColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		q.ID, q.Order, q.MultiSelect, jsonText(q.OptionKeys), jsonText(q.Translations),
		q.Category, q.IsActive, q.TargetGender, q.MinPriorUses,
		formatTime(q.CreatedAt), formatTime(q.UpdatedAt))
	return err
}

func (r *SQLiteScreenerRepository) GetByID(ctx context.Context, id string) (*models.ScreenerQuestion, error) {
	query := `SELECT ` + screenerColumns + ` FROM screener_questions WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	q, err := scanScreenerQuestion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return q, err
}

func (r *SQLiteScreenerRepository) List(ctx context.Context, activeOnly bool) ([]*models.ScreenerQuestion, error) {
	query := `SELECT ` + screenerColumns + ` FROM screener_questions`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY ord ASC, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var questions []*models.ScreenerQuestion
	for rows.Next() {
		q, err := scanScreenerQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}

	return questions, rows.Err()
}

func (r *SQLiteScreenerRepository) Update(ctx context.Context, q *models.ScreenerQuestion) error {
	query := `UPDATE screener_questions SET ord = ?, multi_select = ?, option_keys = ?,
		translations = ?, category = ?, is_active = ?, target_gender = ?,
		min_prior_uses = ?, updated_at = ?
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		q.Order, q.MultiSelect, jsonText(q.OptionKeys), jsonText(q.Translations),
		q.Category, q.IsActive, q.TargetGender, q.MinPriorUses,
		formatTime(q.UpdatedAt), q.ID)
	return err
}

func (r *SQLiteScreenerRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM screener_questions WHERE id = ?`, id)
	return err
}

func scanScreenerQuestion(s scanner) (*models.ScreenerQuestion, error) {
	var q models.ScreenerQuestion
	var optionKeys, translations string
	var createdAt, updatedAt string

	if err := s.Scan(&q.ID, &q.Order, &q.MultiSelect, &optionKeys, &translations,
		&q.Category, &q.IsActive, &q.TargetGender, &q.MinPriorUses,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}

	fromJSONText(optionKeys, &q.OptionKeys)
	fromJSONText(translations, &q.Translations)
	q.CreatedAt = parseTime(createdAt)
	q.UpdatedAt = parseTime(updatedAt)

	return &q, nil
}
