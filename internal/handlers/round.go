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

// RoundHandler handles truth-or-dare endpoints.
type RoundHandler struct {
	rounds *services.RoundService
}

// NewRoundHandler creates a new round handler
func NewRoundHandler(rounds *services.RoundService) *RoundHandler {
	return &RoundHandler{rounds: rounds}
}

// List handles GET /api/v1/rounds
func (h *RoundHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	rounds, err := h.rounds.List(r.Context(), sess.CoupleID)
	if err != nil {
		log.Error().Err(err).Str("couple_id", sess.CoupleID).Msg("Failed to list rounds")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"rounds": rounds})
}

// PlayRequest is the body for POST /api/v1/rounds
type PlayRequest struct {
	Type     string `json:"type"`
	Question string `json:"question,omitempty"`
}

// Create handles POST /api/v1/rounds: a random round when question is empty,
// a custom one otherwise.
func (h *RoundHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	var req PlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	roundType := models.RoundType(req.Type)
	if roundType != models.RoundTruth && roundType != models.RoundDare {
		respondError(w, "type must be truth or dare", http.StatusBadRequest)
		return
	}

	var round *models.Round
	var err error
	if question := strings.TrimSpace(req.Question); question != "" {
		round, err = h.rounds.AskCustom(r.Context(), sess, roundType, question)
	} else {
		round, err = h.rounds.Play(r.Context(), sess, roundType)
	}
	if err != nil {
		log.Error().Err(err).Str("couple_id", sess.CoupleID).Msg("Failed to create round")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, round)
}

// AnswerRequest is the body for POST /api/v1/rounds/{round_id}/answer
type AnswerRequest struct {
	Answer string `json:"answer"`
}

// Answer handles POST /api/v1/rounds/{round_id}/answer
func (h *RoundHandler) Answer(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	roundID := chi.URLParam(r, "round_id")

	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Answer = strings.TrimSpace(req.Answer)
	if req.Answer == "" {
		respondError(w, "answer is required", http.StatusBadRequest)
		return
	}

	round, err := h.rounds.Answer(r.Context(), sess, roundID, req.Answer)
	if err != nil {
		log.Error().Err(err).Str("round_id", roundID).Msg("Failed to answer round")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, round)
}
