package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"togethermiles-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// PairingHandler handles couple creation, joining and sign-in.
type PairingHandler struct {
	pairing *services.PairingService
}

// NewPairingHandler creates a new pairing handler
func NewPairingHandler(pairing *services.PairingService) *PairingHandler {
	return &PairingHandler{pairing: pairing}
}

// CreateCouple handles POST /api/v1/couples
func (h *PairingHandler) CreateCouple(w http.ResponseWriter, r *http.Request) {
	var req services.CreateCoupleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Nickname = strings.TrimSpace(req.Nickname)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Username == "" || req.Nickname == "" || req.Phone == "" {
		respondError(w, "username, nickname and phone are required", http.StatusBadRequest)
		return
	}
	if req.Role != "boy" && req.Role != "girl" {
		respondError(w, "role must be boy or girl", http.StatusBadRequest)
		return
	}

	result, err := h.pairing.CreateCouple(r.Context(), req)
	if err != nil {
		log.Error().Err(err).Str("username", req.Username).Msg("Failed to create couple")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("couple_id", result.Couple.ID).
		Str("username", req.Username).
		Msg("Couple created")
	respondJSON(w, http.StatusCreated, result)
}

// JoinCouple handles POST /api/v1/couples/join
func (h *PairingHandler) JoinCouple(w http.ResponseWriter, r *http.Request) {
	var req services.JoinCoupleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.CoupleID = strings.ToUpper(strings.TrimSpace(req.CoupleID))
	req.Username = strings.TrimSpace(req.Username)
	req.Nickname = strings.TrimSpace(req.Nickname)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.CoupleID == "" || req.Username == "" || req.Nickname == "" || req.Phone == "" {
		respondError(w, "couple_id, username, nickname and phone are required", http.StatusBadRequest)
		return
	}
	if req.Role != "boy" && req.Role != "girl" {
		respondError(w, "role must be boy or girl", http.StatusBadRequest)
		return
	}

	result, err := h.pairing.JoinCouple(r.Context(), req)
	if err != nil {
		log.Error().Err(err).Str("couple_id", req.CoupleID).Msg("Failed to join couple")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("couple_id", req.CoupleID).
		Str("username", req.Username).
		Msg("Partner joined couple")
	respondJSON(w, http.StatusOK, result)
}

// SignInRequest is the body for POST /api/v1/couples/sign-in
type SignInRequest struct {
	CoupleID string `json:"couple_id"`
	Username string `json:"username"`
}

// SignIn handles POST /api/v1/couples/sign-in
func (h *PairingHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.CoupleID = strings.ToUpper(strings.TrimSpace(req.CoupleID))
	req.Username = strings.TrimSpace(req.Username)
	if req.CoupleID == "" || req.Username == "" {
		respondError(w, "couple_id and username are required", http.StatusBadRequest)
		return
	}

	result, err := h.pairing.SignIn(r.Context(), req.CoupleID, req.Username)
	if err != nil {
		log.Error().Err(err).Str("couple_id", req.CoupleID).Msg("Sign-in failed")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
