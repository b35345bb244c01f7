package repository

import (
	"context"
	"database/sql"

	"github.com/faceforge/faceforge-api/internal/models"
)

// SQLiteBrandRepository implements BrandRepository for SQLite.
type SQLiteBrandRepository struct {
	db *sql.DB
}

// NewSQLiteBrandRepository creates a new SQLite brand repository.
func NewSQLiteBrandRepository(db *sql.DB) *SQLiteBrandRepository {
	return &SQLiteBrandRepository{db: db}
}

func (r *SQLiteBrandRepository) Upsert(ctx context.Context, b *models.BrandConfig) error {
	query := `INSERT INTO brand_configs (domain, name, logo_url, theme_color, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(domain) DO UPDATE SET
			name = excluded.name,
			logo_url = excluded.logo_url,
			theme_color = excluded.theme_color,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query, b.Domain, b.Name, b.LogoURL, b.ThemeColor,
		b.IsActive, formatTime(b.CreatedAt), formatTime(b.UpdatedAt))
	return err
}

func (r *SQLiteBrandRepository) GetByDomain(ctx context.Context, domain string) (*models.BrandConfig, error) {
	query := `SELECT domain, name, logo_url, theme_color, is_active, created_at, updated_at
		FROM brand_configs WHERE domain = ?`

	var b models.BrandConfig
	var createdAt, updatedAt string
	err := r.db.QueryRowContext(ctx, query, domain).Scan(&b.Domain, &b.Name,
		&b.LogoURL, &b.ThemeColor, &b.IsActive, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	b.CreatedAt = parseTime(createdAt)
	b.UpdatedAt = parseTime(updatedAt)

	return &b, nil
}

func (r *SQLiteBrandRepository) List(ctx context.Context) ([]*models.BrandConfig, error) {
	query := `SELECT domain, name, logo_url, theme_color, is_active, created_at, updated_at
		FROM brand_configs ORDER BY domain ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var brands []*models.BrandConfig
	for rows.Next() {
		var b models.BrandConfig
		var createdAt, updatedAt string
		if err := rows.Scan(&b.Domain, &b.Name, &b.LogoURL, &b.ThemeColor,
			&b.IsActive, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		b.CreatedAt = parseTime(createdAt)
		b.UpdatedAt = parseTime(updatedAt)
		brands = append(brands, &b)
	}

	return brands, rows.Err()
}

func (r *SQLiteBrandRepository) Delete(ctx context.Context, domain string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM brand_configs WHERE domain = ?`, domain)
	return err
}
