package handlers

import (
	"encoding/json"
	"net/http"

	"togethermiles-backend/internal/middleware"
	"togethermiles-backend/internal/models"
	"togethermiles-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// PremiumHandler handles premium upgrade requests.
type PremiumHandler struct {
	premium *services.PremiumService
}

// NewPremiumHandler creates a new premium handler
func NewPremiumHandler(premium *services.PremiumService) *PremiumHandler {
	return &PremiumHandler{premium: premium}
}

// List handles GET /api/v1/premium
func (h *PremiumHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	requests, err := h.premium.List(r.Context(), sess.CoupleID)
	if err != nil {
		log.Error().Err(err).Str("couple_id", sess.CoupleID).Msg("Failed to list premium requests")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"requests": requests})
}

// CreatePremiumRequest is the body for POST /api/v1/premium
type CreatePremiumRequest struct {
	Plan string `json:"plan"`
}

// Create handles POST /api/v1/premium
func (h *PremiumHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	var req CreatePremiumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	plan := models.PremiumPlan(req.Plan)
	if plan != models.PlanVoice && plan != models.PlanVideo {
		respondError(w, "plan must be voice or video", http.StatusBadRequest)
		return
	}

	request, err := h.premium.Create(r.Context(), sess, plan)
	if err != nil {
		log.Error().Err(err).Str("couple_id", sess.CoupleID).Msg("Failed to create premium request")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, request)
}

// ScreenshotURLRequest is the body for POST /api/v1/premium/{request_id}/screenshot-url
type ScreenshotURLRequest struct {
	ContentType string `json:"content_type"`
}

// ScreenshotURL handles POST /api/v1/premium/{request_id}/screenshot-url and
// returns a presigned PUT target for the payment screenshot.
func (h *PremiumHandler) ScreenshotURL(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	requestID := chi.URLParam(r, "request_id")

	var req ScreenshotURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ContentType == "" {
		req.ContentType = "image/jpeg"
	}

	target, err := h.premium.NewScreenshotTarget(r.Context(), sess, requestID, req.ContentType)
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID).Msg("Failed to presign screenshot upload")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, target)
}

// AttachScreenshotRequest is the body for POST /api/v1/premium/{request_id}/screenshot
type AttachScreenshotRequest struct {
	FileURL string `json:"file_url"`
}

// AttachScreenshot handles POST /api/v1/premium/{request_id}/screenshot
func (h *PremiumHandler) AttachScreenshot(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	requestID := chi.URLParam(r, "request_id")

	var req AttachScreenshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.FileURL == "" {
		respondError(w, "file_url is required", http.StatusBadRequest)
		return
	}

	request, err := h.premium.AttachScreenshot(r.Context(), sess, requestID, req.FileURL)
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID).Msg("Failed to attach screenshot")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, request)
}
