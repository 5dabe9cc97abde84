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

// CoupleRepository handles database operations for couples
type CoupleRepository struct {
	db *pgxpool.Pool
}

// NewCoupleRepository creates a new couple repository
func NewCoupleRepository(db *pgxpool.Pool) *CoupleRepository {
	return &CoupleRepository{db: db}
}

const coupleColumns = `
	id, partner1_username, partner1_nickname, partner1_phone, partner1_role,
	partner2_username, partner2_nickname, partner2_phone, partner2_role, created_at
`

func scanCouple(row pgx.Row) (*models.Couple, error) {
	var c models.Couple
	var p2Username, p2Nickname, p2Phone, p2Role *string
	err := row.Scan(
		&c.ID,
		&c.Partner1.Username, &c.Partner1.Nickname, &c.Partner1.Phone, &c.Partner1.Role,
		&p2Username, &p2Nickname, &p2Phone, &p2Role,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p2Username != nil {
		c.Partner2 = &models.Partner{
			Username: *p2Username,
			Nickname: *p2Nickname,
			Phone:    *p2Phone,
			Role:     *p2Role,
		}
	}
	return &c, nil
}

// Create inserts a new couple with partner1 filled. A non-empty clientToken
// makes retries idempotent: a second insert with the same token is a no-op
// and the existing couple is returned instead.
func (r *CoupleRepository) Create(ctx context.Context, couple *models.Couple, clientToken string) (*models.Couple, error) {
	query := `
		INSERT INTO couples (id, client_token, partner1_username, partner1_nickname, partner1_phone, partner1_role, created_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7)
		ON CONFLICT (client_token) DO NOTHING
	`
	result, err := r.db.Exec(ctx, query,
		couple.ID, clientToken,
		couple.Partner1.Username, couple.Partner1.Nickname, couple.Partner1.Phone, couple.Partner1.Role,
		couple.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create couple: %w", err)
	}
	if result.RowsAffected() == 0 {
		// Retry of an earlier submission: hand back the couple it created.
		return r.GetByClientToken(ctx, clientToken)
	}
	return couple, nil
}

// GetByID retrieves a couple by its code
func (r *CoupleRepository) GetByID(ctx context.Context, id string) (*models.Couple, error) {
	query := `SELECT ` + coupleColumns + ` FROM couples WHERE id = $1`
	couple, err := scanCouple(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("couple %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get couple: %w", err)
	}
	return couple, nil
}

// GetByClientToken retrieves a couple by the idempotency token it was created with
func (r *CoupleRepository) GetByClientToken(ctx context.Context, token string) (*models.Couple, error) {
	query := `SELECT ` + coupleColumns + ` FROM couples WHERE client_token = $1`
	couple, err := scanCouple(r.db.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("couple for token: %w", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get couple by token: %w", err)
	}
	return couple, nil
}

// CodeExists checks if a couple code already exists
func (r *CoupleRepository) CodeExists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM couples WHERE id = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check code existence: %w", err)
	}
	return exists, nil
}

// SetPartner2 fills the partner2 fields with a single conditional update.
// The WHERE clause is the whole concurrency story: of two simultaneous joins
// exactly one sees partner2_username still NULL. Returns ErrNotFound when the
// id does not resolve and ErrAlreadyFull when the slot is taken.
func (r *CoupleRepository) SetPartner2(ctx context.Context, id string, p models.Partner) (*models.Couple, error) {
	query := `
		UPDATE couples
		SET partner2_username = $2, partner2_nickname = $3, partner2_phone = $4, partner2_role = $5
		WHERE id = $1 AND partner2_username IS NULL
	`
	result, err := r.db.Exec(ctx, query, id, p.Username, p.Nickname, p.Phone, p.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to join couple: %w", err)
	}
	if result.RowsAffected() == 0 {
		// Did not match: either the couple is missing or already full.
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("couple %s: %w", id, apperr.ErrAlreadyFull)
	}
	return r.GetByID(ctx, id)
}
