package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"togethermiles-backend/internal/middleware"
	"togethermiles-backend/internal/models"
	"togethermiles-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// TodoHandler handles the shared places-to-visit list.
type TodoHandler struct {
	todos *services.TodoService
}

// NewTodoHandler creates a new todo handler
func NewTodoHandler(todos *services.TodoService) *TodoHandler {
	return &TodoHandler{todos: todos}
}

// List handles GET /api/v1/todos
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	todos, err := h.todos.List(r.Context(), sess.CoupleID)
	if err != nil {
		log.Error().Err(err).Str("couple_id", sess.CoupleID).Msg("Failed to list todos")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"todos": todos})
}

// AddTodoRequest is the body for POST /api/v1/todos
type AddTodoRequest struct {
	Place string `json:"place"`
}

// Add handles POST /api/v1/todos
func (h *TodoHandler) Add(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	var req AddTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Place = strings.TrimSpace(req.Place)
	if req.Place == "" {
		respondError(w, "place is required", http.StatusBadRequest)
		return
	}

	todo, err := h.todos.Add(r.Context(), sess, req.Place)
	if err != nil {
		log.Error().Err(err).Str("couple_id", sess.CoupleID).Msg("Failed to add todo")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, todo)
}

// SetStatusRequest is the body for PATCH /api/v1/todos/{todo_id}
type SetStatusRequest struct {
	Status string `json:"status"`
}

// SetStatus handles PATCH /api/v1/todos/{todo_id}
func (h *TodoHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	todoID := chi.URLParam(r, "todo_id")

	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	status := models.TodoStatus(req.Status)
	if status != models.TodoVisited && status != models.TodoCancelled {
		respondError(w, "status must be visited or cancelled", http.StatusBadRequest)
		return
	}

	todo, err := h.todos.SetStatus(r.Context(), todoID, status)
	if err != nil {
		log.Error().Err(err).Str("todo_id", todoID).Msg("Failed to update todo")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, todo)
}
