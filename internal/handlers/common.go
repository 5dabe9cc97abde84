package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"togethermiles-backend/internal/apperr"
)

// errUnknownCategory is reported for subscribe requests naming a category
// this server does not stream.
var errUnknownCategory = errors.New("unknown category")

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// statusFor maps taxonomy errors to HTTP status codes. Pairing and sign-in
// errors surface directly; the user corrects their input, there is no
// automatic retry.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrAlreadyFull), errors.Is(err, apperr.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrUsernameMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrUploadFailed):
		return http.StatusBadGateway
	case errors.Is(err, apperr.ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError maps a service error to its status and sends it.
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, err.Error(), statusFor(err))
}
