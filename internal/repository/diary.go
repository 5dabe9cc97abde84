package repository

import (
	"context"
	"fmt"

	"togethermiles-backend/internal/apperr"
	"togethermiles-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DiaryRepository handles database operations for diary entries
type DiaryRepository struct {
	db *pgxpool.Pool
}

// NewDiaryRepository creates a new diary repository
func NewDiaryRepository(db *pgxpool.Pool) *DiaryRepository {
	return &DiaryRepository{db: db}
}

// Create inserts a new diary entry
func (r *DiaryRepository) Create(ctx context.Context, e *models.DiaryEntry) error {
	query := `
		INSERT INTO diary_entries (id, couple_id, title, content, visibility, written_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		e.ID, e.CoupleID, e.Title, e.Content, e.Visibility, e.WrittenBy, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create diary entry: %w", err)
	}
	return nil
}

// ListVisible returns entries newest first, filtered by the visibility rule.
func (r *DiaryRepository) ListVisible(ctx context.Context, coupleID, viewerNickname string) ([]*models.DiaryEntry, error) {
	query := `
		SELECT id, couple_id, title, content, visibility, written_by, created_at
		FROM diary_entries
		WHERE couple_id = $1 AND (visibility = 'both' OR written_by = $2)
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, coupleID, viewerNickname)
	if err != nil {
		return nil, fmt.Errorf("failed to list diary entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.DiaryEntry
	for rows.Next() {
		var e models.DiaryEntry
		err := rows.Scan(&e.ID, &e.CoupleID, &e.Title, &e.Content, &e.Visibility, &e.WrittenBy, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan diary entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating diary entries: %w", err)
	}
	return entries, nil
}

// Delete removes an entry written by the caller
func (r *DiaryRepository) Delete(ctx context.Context, id, ownerNickname string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM diary_entries WHERE id = $1 AND written_by = $2`, id, ownerNickname)
	if err != nil {
		return fmt.Errorf("failed to delete diary entry: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("diary entry %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}
