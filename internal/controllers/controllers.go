package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"gamejournal/internal/services"
	"gamejournal/internal/storage"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
	ErrGetEntries = errors.New("failed to get entries")
	ErrEncoding   = errors.New("failed to encode")
	ErrCreate     = errors.New("failed to create")
	ErrUpdate     = errors.New("failed to update")
	ErrDelete     = errors.New("failed to delete")
)

type errorResponse struct {
	Error     string `json:"error"`
	RequestID int64  `json:"request_id,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// respondError maps the service error taxonomy onto HTTP statuses:
// validation 400, not-found (and foreign-resource access) 404,
// conflicts 409, upstream metadata failures 502, the rest 500.
func respondError(w http.ResponseWriter, err error) {
	var validationErr *services.ValidationError
	var duplicateErr *services.DuplicatePendingError

	switch {
	case errors.As(err, &validationErr):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: validationErr.Error()})
	case errors.As(err, &duplicateErr):
		respondJSON(w, http.StatusConflict, errorResponse{
			Error:     duplicateErr.Error(),
			RequestID: duplicateErr.RequestID,
		})
	case errors.Is(err, services.ErrInvalidTarget):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrNotFriends):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, services.ErrAlreadyFriends),
		errors.Is(err, services.ErrUsernameTaken),
		errors.Is(err, storage.ErrExists):
		respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrUpstream):
		respondJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
	default:
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
