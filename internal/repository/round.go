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

// RoundRepository handles database operations for truth-or-dare rounds
type RoundRepository struct {
	db *pgxpool.Pool
}

// NewRoundRepository creates a new round repository
func NewRoundRepository(db *pgxpool.Pool) *RoundRepository {
	return &RoundRepository{db: db}
}

// Create inserts a new round
func (r *RoundRepository) Create(ctx context.Context, round *models.Round) error {
	query := `
		INSERT INTO truth_or_dare (id, couple_id, type, question, is_custom, asked_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		round.ID, round.CoupleID, round.Type, round.Question, round.IsCustom, round.AskedBy, round.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create round: %w", err)
	}
	return nil
}

// GetByID retrieves a round by ID
func (r *RoundRepository) GetByID(ctx context.Context, id string) (*models.Round, error) {
	query := `
		SELECT id, couple_id, type, question, is_custom, asked_by, answer, answered_by, created_at
		FROM truth_or_dare
		WHERE id = $1
	`
	var round models.Round
	err := r.db.QueryRow(ctx, query, id).Scan(
		&round.ID, &round.CoupleID, &round.Type, &round.Question, &round.IsCustom,
		&round.AskedBy, &round.Answer, &round.AnsweredBy, &round.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("round %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	return &round, nil
}

// SetAnswer attaches the partner's answer. The WHERE answer IS NULL guard
// makes a second submission a no-op instead of an overwrite; the stored round
// is returned either way so replays converge on the same state.
func (r *RoundRepository) SetAnswer(ctx context.Context, id, answer, answeredBy string) (*models.Round, error) {
	query := `
		UPDATE truth_or_dare
		SET answer = $2, answered_by = $3
		WHERE id = $1 AND answer IS NULL
	`
	if _, err := r.db.Exec(ctx, query, id, answer, answeredBy); err != nil {
		return nil, fmt.Errorf("failed to answer round: %w", err)
	}
	return r.GetByID(ctx, id)
}

// ListByCouple returns rounds in descending creation order (newest first).
func (r *RoundRepository) ListByCouple(ctx context.Context, coupleID string) ([]*models.Round, error) {
	query := `
		SELECT id, couple_id, type, question, is_custom, asked_by, answer, answered_by, created_at
		FROM truth_or_dare
		WHERE couple_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, coupleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	defer rows.Close()

	var rounds []*models.Round
	for rows.Next() {
		var round models.Round
		err := rows.Scan(
			&round.ID, &round.CoupleID, &round.Type, &round.Question, &round.IsCustom,
			&round.AskedBy, &round.Answer, &round.AnsweredBy, &round.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		rounds = append(rounds, &round)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rounds: %w", err)
	}
	return rounds, nil
}
