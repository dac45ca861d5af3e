package controllers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"gamejournal/internal/middleware"
	"gamejournal/internal/models"
	"gamejournal/internal/services"

	"github.com/go-chi/chi/v5"
)

type EntryServicer interface {
	ListForUser(userID int64, gameID *int64, status *models.EntryStatus) ([]services.EntryResponse, error)
	Create(userID int64, req services.CreateEntryRequest) (*models.Entry, error)
	Update(userID, entryID int64, req services.UpdateEntryRequest) (*models.Entry, error)
	Delete(userID, entryID int64) error
	ListSessions(userID, entryID int64) ([]models.PlaySession, error)
	CreateSession(userID, entryID int64, req services.CreateSessionRequest) (*models.PlaySession, error)
	DeleteSession(userID, entryID, sessionID int64) error
	Stats(userID int64) (*services.UserStats, error)
}

type EntryController struct {
	service EntryServicer
	log     *slog.Logger
}

func NewEntryController(s EntryServicer, log *slog.Logger) *EntryController {
	return &EntryController{
		service: s,
		log:     log,
	}
}

// List godoc
// @Summary      List own game entries
// @Tags         entries
// @Produce      json
// @Param        game_id  query  int     false  "Filter by game id"
// @Param        status   query  string  false  "Filter by status (WISHLIST, PLAYING, PLAYED, DROPPED)"
// @Success      200  {array}  services.EntryResponse
// @Router       /entries [get]
func (c *EntryController) List(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.entries.List"

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	query := r.URL.Query()

	var gameID *int64
	if raw := query.Get("game_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid game_id"})
			return
		}
		gameID = &id
	}

	var status *models.EntryStatus
	if raw := query.Get("status"); raw != "" {
		s := models.EntryStatus(raw)
		if !s.Valid() {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid status"})
			return
		}
		status = &s
	}

	entries, err := c.service.ListForUser(userID, gameID, status)
	if err != nil {
		c.log.Error(ErrGetEntries.Error(),
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, entries)
}

func (c *EntryController) Create(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.entries.Create"

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req services.CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	entry, err := c.service.Create(userID, req)
	if err != nil {
		c.log.Error(ErrCreate.Error(),
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, entry)
}

func (c *EntryController) Update(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.entries.Update"

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	entryID, err := pathID(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid entry id"})
		return
	}

	var req services.UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	entry, err := c.service.Update(userID, entryID, req)
	if err != nil {
		c.log.Error(ErrUpdate.Error(),
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, entry)
}

func (c *EntryController) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.entries.Delete"

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	entryID, err := pathID(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid entry id"})
		return
	}

	if err := c.service.Delete(userID, entryID); err != nil {
		c.log.Error(ErrDelete.Error(),
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *EntryController) ListSessions(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.entries.ListSessions"

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	entryID, err := pathID(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid entry id"})
		return
	}

	sessions, err := c.service.ListSessions(userID, entryID)
	if err != nil {
		c.log.Error(ErrGetEntries.Error(),
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, sessions)
}

func (c *EntryController) CreateSession(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.entries.CreateSession"

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	entryID, err := pathID(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid entry id"})
		return
	}

	var req services.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	session, err := c.service.CreateSession(userID, entryID, req)
	if err != nil {
		c.log.Error(ErrCreate.Error(),
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (c *EntryController) DeleteSession(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.entries.DeleteSession"

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	entryID, err := pathID(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid entry id"})
		return
	}

	sessionID, err := pathID(r, "sessionID")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid session id"})
		return
	}

	if err := c.service.DeleteSession(userID, entryID, sessionID); err != nil {
		c.log.Error(ErrDelete.Error(),
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *EntryController) Stats(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.entries.Stats"

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	stats, err := c.service.Stats(userID)
	if err != nil {
		c.log.Error(ErrGetEntries.Error(),
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
