package repository

import (
	"context"
	"errors"
	"fmt"

	"togethermiles-backend/internal/apperr"
	"togethermiles-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MediaRepository handles database operations for one media table. The
// gallery_photos and snap_moments tables share a shape, so the same
// repository is instantiated once per table.
type MediaRepository struct {
	db    *pgxpool.Pool
	table string
}

// NewGalleryRepository creates a repository over gallery_photos
func NewGalleryRepository(db *pgxpool.Pool) *MediaRepository {
	return &MediaRepository{db: db, table: "gallery_photos"}
}

// NewSnapRepository creates a repository over snap_moments
func NewSnapRepository(db *pgxpool.Pool) *MediaRepository {
	return &MediaRepository{db: db, table: "snap_moments"}
}

// Create inserts a new media record
func (r *MediaRepository) Create(ctx context.Context, m *models.Media) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, couple_id, file_url, caption, uploaded_by, visibility, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.table)
	_, err := r.db.Exec(ctx, query,
		m.ID, m.CoupleID, m.FileURL, m.Caption, m.UploadedBy, m.Visibility, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create %s record: %w", r.table, err)
	}
	return nil
}

// ListVisible returns media in descending creation order, already filtered by
// the visibility rule: shared records plus the viewer's own private ones.
func (r *MediaRepository) ListVisible(ctx context.Context, coupleID, viewerNickname string) ([]*models.Media, error) {
	query := fmt.Sprintf(`
		SELECT id, couple_id, file_url, caption, uploaded_by, visibility, created_at
		FROM %s
		WHERE couple_id = $1 AND (visibility = 'both' OR uploaded_by = $2)
		ORDER BY created_at DESC
	`, r.table)
	rows, err := r.db.Query(ctx, query, coupleID, viewerNickname)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.table, err)
	}
	defer rows.Close()

	var media []*models.Media
	for rows.Next() {
		var m models.Media
		err := rows.Scan(&m.ID, &m.CoupleID, &m.FileURL, &m.Caption, &m.UploadedBy, &m.Visibility, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", r.table, err)
		}
		media = append(media, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", r.table, err)
	}
	return media, nil
}

// Delete removes a media record owned by the caller
func (r *MediaRepository) Delete(ctx context.Context, id, ownerNickname string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND uploaded_by = $2`, r.table)
	result, err := r.db.Exec(ctx, query, id, ownerNickname)
	if err != nil {
		return fmt.Errorf("failed to delete %s record: %w", r.table, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s record %s: %w", r.table, id, apperr.ErrNotFound)
	}
	return nil
}

// GetByID retrieves one media record
func (r *MediaRepository) GetByID(ctx context.Context, id string) (*models.Media, error) {
	query := fmt.Sprintf(`
		SELECT id, couple_id, file_url, caption, uploaded_by, visibility, created_at
		FROM %s WHERE id = $1
	`, r.table)
	var m models.Media
	err := r.db.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.CoupleID, &m.FileURL, &m.Caption, &m.UploadedBy, &m.Visibility, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s record %s: %w", r.table, id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get %s record: %w", r.table, err)
	}
	return &m, nil
}
