package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"togethermiles-backend/internal/middleware"
	"togethermiles-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// MessageHandler handles chat endpoints.
type MessageHandler struct {
	messages *services.MessageService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messages *services.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// List handles GET /api/v1/messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	messages, err := h.messages.List(r.Context(), sess.CoupleID)
	if err != nil {
		log.Error().Err(err).Str("couple_id", sess.CoupleID).Msg("Failed to list messages")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

// SendRequest is the body for POST /api/v1/messages
type SendRequest struct {
	Text string `json:"text"`
}

// Send handles POST /api/v1/messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		respondError(w, "text is required", http.StatusBadRequest)
		return
	}

	msg, err := h.messages.Send(r.Context(), sess, req.Text)
	if err != nil {
		log.Error().Err(err).Str("couple_id", sess.CoupleID).Msg("Failed to send message")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, msg)
}
