package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PushTokenRepository stores one APNs device token per partner.
type PushTokenRepository struct {
	db *pgxpool.Pool
}

// NewPushTokenRepository creates a new push token repository
func NewPushTokenRepository(db *pgxpool.Pool) *PushTokenRepository {
	return &PushTokenRepository{db: db}
}

// Upsert registers or replaces the device token for a partner.
func (r *PushTokenRepository) Upsert(ctx context.Context, coupleID, nickname, deviceToken string) error {
	query := `
		INSERT INTO push_tokens (couple_id, nickname, device_token, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (couple_id, nickname) DO UPDATE
		SET device_token = EXCLUDED.device_token, updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.Exec(ctx, query, coupleID, nickname, deviceToken, time.Now()); err != nil {
		return fmt.Errorf("failed to upsert push token: %w", err)
	}
	return nil
}

// Get returns the device token for a partner, or "" when none is registered.
func (r *PushTokenRepository) Get(ctx context.Context, coupleID, nickname string) (string, error) {
	var token string
	err := r.db.QueryRow(ctx,
		`SELECT device_token FROM push_tokens WHERE couple_id = $1 AND nickname = $2`,
		coupleID, nickname,
	).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get push token: %w", err)
	}
	return token, nil
}
