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

// TodoRepository handles database operations for couple todos
type TodoRepository struct {
	db *pgxpool.Pool
}

// NewTodoRepository creates a new todo repository
func NewTodoRepository(db *pgxpool.Pool) *TodoRepository {
	return &TodoRepository{db: db}
}

// Create inserts a new todo
func (r *TodoRepository) Create(ctx context.Context, t *models.Todo) error {
	query := `
		INSERT INTO couple_todos (id, couple_id, place, status, added_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query, t.ID, t.CoupleID, t.Place, t.Status, t.AddedBy, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}
	return nil
}

// ListByCouple returns todos newest first.
func (r *TodoRepository) ListByCouple(ctx context.Context, coupleID string) ([]*models.Todo, error) {
	query := `
		SELECT id, couple_id, place, status, added_by, created_at
		FROM couple_todos
		WHERE couple_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, coupleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	var todos []*models.Todo
	for rows.Next() {
		var t models.Todo
		if err := rows.Scan(&t.ID, &t.CoupleID, &t.Place, &t.Status, &t.AddedBy, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating todos: %w", err)
	}
	return todos, nil
}

// SetStatus updates a todo's status and returns the stored row.
func (r *TodoRepository) SetStatus(ctx context.Context, id string, status models.TodoStatus) (*models.Todo, error) {
	query := `
		UPDATE couple_todos
		SET status = $2
		WHERE id = $1
		RETURNING id, couple_id, place, status, added_by, created_at
	`
	var t models.Todo
	err := r.db.QueryRow(ctx, query, id, status).Scan(
		&t.ID, &t.CoupleID, &t.Place, &t.Status, &t.AddedBy, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("todo %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update todo status: %w", err)
	}
	return &t, nil
}
