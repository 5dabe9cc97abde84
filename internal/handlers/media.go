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

// MediaHandler serves one photo collection, either the shared gallery or
// snap moments, depending on the service it wraps.
type MediaHandler struct {
	media *services.MediaService
	name  string
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(media *services.MediaService, name string) *MediaHandler {
	return &MediaHandler{media: media, name: name}
}

// List handles GET /api/v1/{gallery|snaps}
func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	items, err := h.media.List(r.Context(), sess)
	if err != nil {
		log.Error().Err(err).Str("couple_id", sess.CoupleID).Msgf("Failed to list %s", h.name)
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"photos": items})
}

// UploadURLRequest is the body for POST .../upload-url
type UploadURLRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

// UploadURL handles POST /api/v1/{gallery|snaps}/upload-url and returns a
// presigned PUT target for the photo bytes.
func (h *MediaHandler) UploadURL(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	var req UploadURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Filename) == "" {
		respondError(w, "filename is required", http.StatusBadRequest)
		return
	}
	if req.ContentType == "" {
		req.ContentType = "image/jpeg"
	}

	target, err := h.media.NewUploadTarget(r.Context(), sess, req.Filename, req.ContentType)
	if err != nil {
		log.Error().Err(err).Str("couple_id", sess.CoupleID).Msg("Failed to presign upload")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, target)
}

// CreateMediaRequest is the body for POST /api/v1/{gallery|snaps}
type CreateMediaRequest struct {
	FileURL    string  `json:"file_url"`
	Caption    *string `json:"caption,omitempty"`
	Visibility string  `json:"visibility"`
}

// Create handles POST /api/v1/{gallery|snaps}, recording an uploaded photo.
func (h *MediaHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	var req CreateMediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.FileURL == "" {
		respondError(w, "file_url is required", http.StatusBadRequest)
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

	item, err := h.media.Create(r.Context(), sess, req.FileURL, req.Caption, visibility)
	if err != nil {
		log.Error().Err(err).Str("couple_id", sess.CoupleID).Msgf("Failed to create %s photo", h.name)
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

// Delete handles DELETE /api/v1/{gallery|snaps}/{photo_id}
func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	photoID := chi.URLParam(r, "photo_id")

	if err := h.media.Delete(r.Context(), sess, photoID); err != nil {
		log.Error().Err(err).Str("photo_id", photoID).Msgf("Failed to delete %s photo", h.name)
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
