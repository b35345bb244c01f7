package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/faceforge/faceforge-api/internal/models"
)

// SQLiteSwapRepository implements SwapRepository for SQLite.
type SQLiteSwapRepository struct {
	db *sql.DB
}

// NewSQLiteSwapRepository creates a new SQLite swap repository.
func NewSQLiteSwapRepository(db *sql.DB) *SQLiteSwapRepository {
	return &SQLiteSwapRepository{db: db}
}

const swapColumns = `id, user_id, template_id, template_title, status, credits_charged,
	transaction_id, result_url, result_upload_failed, error_message, provider, is_guest,
	created_at, updated_at`

func insertSwapRecordTx(ctx context.Context, q querier, rec *models.FaceSwapRecord) error {
	query := `INSERT INTO face_swaps (` + swapColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := q.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.TemplateID, rec.TemplateTitle, rec.Status,
		rec.CreditsCharged, rec.TransactionID, rec.ResultURL, rec.ResultUploadFailed,
		rec.ErrorMessage, rec.Provider, rec.IsGuest,
		formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt))
	return err
}

func (r *SQLiteSwapRepository) Create(ctx context.Context, rec *models.FaceSwapRecord) error {
	return insertSwapRecordTx(ctx, r.db, rec)
}

func (r *SQLiteSwapRepository) GetByID(ctx context.Context, id string) (*models.FaceSwapRecord, error) {
	query := `SELECT ` + swapColumns + ` FROM face_swaps WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	rec, err := scanSwapRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

func (r *SQLiteSwapRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*models.FaceSwapRecord, error) {
	query := `SELECT ` + swapColumns + ` FROM face_swaps
		WHERE user_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []*models.FaceSwapRecord
	for rows.Next() {
		rec, err := scanSwapRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func (r *SQLiteSwapRepository) MarkCompleted(ctx context.Context, id string, resultURL *string, uploadFailed bool) error {
	// Guarded on current status so a late refund can't flip a completed swap.
	query := `UPDATE face_swaps SET status = ?, result_url = ?, result_upload_failed = ?, updated_at = ?
		WHERE id = ? AND status = ?`
	_, err := r.db.ExecContext(ctx, query,
		models.SwapCompleted, resultURL, uploadFailed, formatTime(time.Now()),
		id, models.SwapProcessing)
	return err
}

func (r *SQLiteSwapRepository) MarkFailed(ctx context.Context, id string, errMsg string) error {
	query := `UPDATE face_swaps SET status = ?, error_message = ?, updated_at = ?
		WHERE id = ? AND status = ?`
	_, err := r.db.ExecContext(ctx, query,
		models.SwapFailed, errMsg, formatTime(time.Now()),
		id, models.SwapProcessing)
	return err
}

func scanSwapRecord(s scanner) (*models.FaceSwapRecord, error) {
	var rec models.FaceSwapRecord
	var transactionID, resultURL sql.NullString
	var createdAt, updatedAt string

	if err := s.Scan(&rec.ID, &rec.UserID, &rec.TemplateID, &rec.TemplateTitle,
		&rec.Status, &rec.CreditsCharged, &transactionID, &resultURL,
		&rec.ResultUploadFailed, &rec.ErrorMessage, &rec.Provider, &rec.IsGuest,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if transactionID.Valid {
		rec.TransactionID = &transactionID.String
	}
	if resultURL.Valid {
		rec.ResultURL = &resultURL.String
	}
	rec.CreatedAt = parseTime(createdAt)
	rec.UpdatedAt = parseTime(updatedAt)

	return &rec, nil
}
