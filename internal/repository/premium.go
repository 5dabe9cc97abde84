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

// PremiumRepository handles database operations for counseling requests
type PremiumRepository struct {
	db *pgxpool.Pool
}

// NewPremiumRepository creates a new premium repository
func NewPremiumRepository(db *pgxpool.Pool) *PremiumRepository {
	return &PremiumRepository{db: db}
}

// Create inserts a new premium request
func (r *PremiumRepository) Create(ctx context.Context, req *models.PremiumRequest) error {
	query := `
		INSERT INTO premium_requests (id, couple_id, requested_by, plan, amount, screenshot_url, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		req.ID, req.CoupleID, req.RequestedBy, req.Plan, req.Amount, req.ScreenshotURL, req.Status, req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create premium request: %w", err)
	}
	return nil
}

// ListByCouple returns requests newest first.
func (r *PremiumRepository) ListByCouple(ctx context.Context, coupleID string) ([]*models.PremiumRequest, error) {
	query := `
		SELECT id, couple_id, requested_by, plan, amount, screenshot_url, status, created_at
		FROM premium_requests
		WHERE couple_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, coupleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list premium requests: %w", err)
	}
	defer rows.Close()

	var requests []*models.PremiumRequest
	for rows.Next() {
		var req models.PremiumRequest
		err := rows.Scan(
			&req.ID, &req.CoupleID, &req.RequestedBy, &req.Plan, &req.Amount,
			&req.ScreenshotURL, &req.Status, &req.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan premium request: %w", err)
		}
		requests = append(requests, &req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating premium requests: %w", err)
	}
	return requests, nil
}

// SetScreenshot attaches the payment screenshot URL.
func (r *PremiumRepository) SetScreenshot(ctx context.Context, id, coupleID, url string) (*models.PremiumRequest, error) {
	query := `
		UPDATE premium_requests
		SET screenshot_url = $3
		WHERE id = $1 AND couple_id = $2
		RETURNING id, couple_id, requested_by, plan, amount, screenshot_url, status, created_at
	`
	var req models.PremiumRequest
	err := r.db.QueryRow(ctx, query, id, coupleID, url).Scan(
		&req.ID, &req.CoupleID, &req.RequestedBy, &req.Plan, &req.Amount,
		&req.ScreenshotURL, &req.Status, &req.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("premium request %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to attach screenshot: %w", err)
	}
	return &req, nil
}
