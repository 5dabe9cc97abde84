package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"togethermiles-backend/internal/middleware"
	"togethermiles-backend/internal/repository"
	"togethermiles-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// NotificationHandler handles notification endpoints.
type NotificationHandler struct {
	notifier   *services.Notifier
	pushTokens *repository.PushTokenRepository
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifier *services.Notifier, pushTokens *repository.PushTokenRepository) *NotificationHandler {
	return &NotificationHandler{notifier: notifier, pushTokens: pushTokens}
}

// List handles GET /api/v1/notifications?limit=N
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	notifications, err := h.notifier.List(r.Context(), sess.CoupleID, sess.Nickname, limit)
	if err != nil {
		log.Error().Err(err).Str("couple_id", sess.CoupleID).Msg("Failed to list notifications")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"notifications": notifications})
}

// MarkAllRead handles POST /api/v1/notifications/read
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	ids, err := h.notifier.MarkAllRead(r.Context(), sess.CoupleID, sess.Nickname)
	if err != nil {
		log.Error().Err(err).Str("couple_id", sess.CoupleID).Msg("Failed to mark notifications read")
		respondServiceError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"read_ids": ids})
}

// RegisterTokenRequest is the body for POST /api/v1/notifications/push-token
type RegisterTokenRequest struct {
	DeviceToken string `json:"device_token"`
}

// RegisterToken handles POST /api/v1/notifications/push-token
func (h *NotificationHandler) RegisterToken(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	var req RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.DeviceToken == "" {
		respondError(w, "device_token is required", http.StatusBadRequest)
		return
	}

	if err := h.pushTokens.Upsert(r.Context(), sess.CoupleID, sess.Nickname, req.DeviceToken); err != nil {
		log.Error().Err(err).Str("couple_id", sess.CoupleID).Msg("Failed to register push token")
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
