package services

import (
	"context"
	"fmt"
	"time"

	"togethermiles-backend/internal/models"
	"togethermiles-backend/internal/stream"

	"github.com/google/uuid"
)

// TodoStore is the slice of the todo repository the service uses.
type TodoStore interface {
	Create(ctx context.Context, t *models.Todo) error
	ListByCouple(ctx context.Context, coupleID string) ([]*models.Todo, error)
	SetStatus(ctx context.Context, id string, status models.TodoStatus) (*models.Todo, error)
}

// TodoService handles the couple's places-to-visit list.
type TodoService struct {
	todos TodoStore
	hub   *stream.Hub
}

// NewTodoService creates a new todo service
func NewTodoService(todos TodoStore, hub *stream.Hub) *TodoService {
	return &TodoService{todos: todos, hub: hub}
}

// Add creates a pending todo.
func (s *TodoService) Add(ctx context.Context, sess *models.Session, place string) (*models.Todo, error) {
	todo := &models.Todo{
		ID:        uuid.New().String(),
		CoupleID:  sess.CoupleID,
		Place:     place,
		Status:    models.TodoPending,
		AddedBy:   sess.Nickname,
		CreatedAt: time.Now(),
	}

	if err := s.todos.Create(ctx, todo); err != nil {
		return nil, fmt.Errorf("failed to add todo: %w", err)
	}

	s.hub.Publish(todo.CoupleID, stream.Event{
		Action:   stream.ActionInsert,
		Category: models.CategoryCoupleTodo,
		Record:   todo,
	})
	return todo, nil
}

// SetStatus marks a place visited or cancelled.
func (s *TodoService) SetStatus(ctx context.Context, id string, status models.TodoStatus) (*models.Todo, error) {
	if status != models.TodoVisited && status != models.TodoCancelled {
		return nil, fmt.Errorf("invalid todo status %q", status)
	}

	todo, err := s.todos.SetStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.hub.Publish(todo.CoupleID, stream.Event{
		Action:   stream.ActionUpdate,
		Category: models.CategoryCoupleTodo,
		Record:   todo,
	})
	return todo, nil
}

// List returns todos newest first.
func (s *TodoService) List(ctx context.Context, coupleID string) ([]*models.Todo, error) {
	return s.todos.ListByCouple(ctx, coupleID)
}
