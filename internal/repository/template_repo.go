package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/faceforge/faceforge-api/internal/models"
)

// SQLiteTemplateRepository implements TemplateRepository for SQLite.
type SQLiteTemplateRepository struct {
	db *sql.DB
}

// NewSQLiteTemplateRepository creates a new SQLite template repository.
func NewSQLiteTemplateRepository(db *sql.DB) *SQLiteTemplateRepository {
	return &SQLiteTemplateRepository{db: db}
}

const templateColumns = `id, title, description, image_url, variant_urls, prompt, categories, metadata,
	is_active, is_premium, usage_count, brand_domain, face_count, group_slots, created_at, updated_at`

func (r *SQLiteTemplateRepository) Create(ctx context.Context, t *models.Template) error {
	query := `INSERT INTO templates (` + templateColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.Title, t.Description, t.ImageURL, jsonText(t.VariantURLs), t.Prompt,
		jsonText(t.Categories), jsonText(t.Metadata),
		t.IsActive, t.IsPremium, t.UsageCount, t.BrandDomain, t.FaceCount,
		jsonText(t.GroupSlots), formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	return err
}

func (r *SQLiteTemplateRepository) GetByID(ctx context.Context, id string) (*models.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	t, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

func (r *SQLiteTemplateRepository) List(ctx context.Context, activeOnly bool, brandDomain string) ([]*models.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE 1=1`
	var args []any
	if activeOnly {
		query += ` AND is_active = 1`
	}
	if brandDomain != "" {
		// Templates with no brand filter are visible to every tenant.
		query += ` AND (brand_domain = '' OR brand_domain = ?)`
		args = append(args, brandDomain)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var templates []*models.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}

	return templates, rows.Err()
}

func (r *SQLiteTemplateRepository) Update(ctx context.Context, t *models.Template) error {
	query := `UPDATE templates SET title = ?, description = ?, image_url = ?, variant_urls = ?,
		prompt = ?, categories = ?, metadata = ?, is_active = ?, is_premium = ?,
		brand_domain = ?, face_count = ?, group_slots = ?, updated_at = ?
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		t.Title, t.Description, t.ImageURL, jsonText(t.VariantURLs), t.Prompt,
		jsonText(t.Categories), jsonText(t.Metadata), t.IsActive, t.IsPremium,
		t.BrandDomain, t.FaceCount, jsonText(t.GroupSlots),
		formatTime(time.Now()), t.ID)
	return err
}

func (r *SQLiteTemplateRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	return err
}

func (r *SQLiteTemplateRepository) IncrementUsage(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE templates SET usage_count = usage_count + 1 WHERE id = ?`, id)
	return err
}

// scanner abstracts over *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTemplate(s scanner) (*models.Template, error) {
	var t models.Template
	var variantURLs, categories, metadata, groupSlots string
	var createdAt, updatedAt string

	if err := s.Scan(&t.ID, &t.Title, &t.Description, &t.ImageURL, &variantURLs, &t.Prompt,
		&categories, &metadata, &t.IsActive, &t.IsPremium, &t.UsageCount,
		&t.BrandDomain, &t.FaceCount, &groupSlots, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	fromJSONText(variantURLs, &t.VariantURLs)
	fromJSONText(categories, &t.Categories)
	fromJSONText(metadata, &t.Metadata)
	fromJSONText(groupSlots, &t.GroupSlots)
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)

	return &t, nil
}
