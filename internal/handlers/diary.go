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

// DiaryHandler handles diary endpoints.
type DiaryHandler struct {
	diary *services.DiaryService
}

// NewDiaryHandler creates a new diary handler
func NewDiaryHandler(diary *services.DiaryService) *DiaryHandler {
	return &DiaryHandler{diary: diary}
}

// List handles GET /api/v1/diary
func (h *DiaryHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	entries, err := h.diary.List(r.Context(), sess)
	if err != nil {
		log.Error().Err(err).Str("couple_id", sess.CoupleID).Msg("Failed to list diary entries")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

// CreateDiaryRequest is the body for POST /api/v1/diary
type CreateDiaryRequest struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Visibility string `json:"visibility"`
}

// Create handles POST /api/v1/diary
func (h *DiaryHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	var req CreateDiaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	if req.Title == "" || req.Content == "" {
		respondError(w, "title and content are required", http.StatusBadRequest)
		return
	}
	visibility := models.Visibility(req.Visibility)
	if visibility == "" {
		visibility = models.VisibilityBoth
	}
	if visibility != models.VisibilityBoth && visibility != models.VisibilityOnlyMe {
		respondError(w, "visibility must be both or only_me", http.StatusBadRequest)
		return
	}

	entry, err := h.diary.Create(r.Context(), sess, req.Title, req.Content, visibility)
	if err != nil {
		log.Error().Err(err).Str("couple_id", sess.CoupleID).Msg("Failed to create diary entry")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

// Delete handles DELETE /api/v1/diary/{entry_id}
func (h *DiaryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	entryID := chi.URLParam(r, "entry_id")

	if err := h.diary.Delete(r.Context(), sess, entryID); err != nil {
		log.Error().Err(err).Str("entry_id", entryID).Msg("Failed to delete diary entry")
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
