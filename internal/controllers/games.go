package controllers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"gamejournal/internal/clients/rawg"
	"gamejournal/internal/models"
	"gamejournal/internal/services"
)

type GameServicer interface {
	List(query string, limit, offset int) ([]models.Game, error)
	GetByID(id int64) (*models.Game, error)
	Create(req services.CreateGameRequest) (*models.Game, error)
	Update(id int64, req services.UpdateGameRequest) (*models.Game, error)
	SearchExternal(ctx context.Context, query string) ([]rawg.SearchResult, error)
	Import(ctx context.Context, rawgID int64) (*models.Game, error)
	Backfill(ctx context.Context, limit int) (*services.BackfillReport, error)
}

type GameController struct {
	service GameServicer
	log     *slog.Logger
}

func NewGameController(s GameServicer, log *slog.Logger) *GameController {
	return &GameController{
		service: s,
		log:     log,
	}
}

func (c *GameController) List(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.games.List"

	limit, offset := pageParams(r, 0)

	games, err := c.service.List(r.URL.Query().Get("q"), limit, offset)
	if err != nil {
		c.log.Error("failed to list games",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, games)
}

func (c *GameController) GetByID(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.games.GetByID"

	gameID, err := pathID(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid game id"})
		return
	}

	game, err := c.service.GetByID(gameID)
	if err != nil {
		c.log.Error("failed to get game",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, game)
}

func (c *GameController) Create(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.games.Create"

	var req services.CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	game, err := c.service.Create(req)
	if err != nil {
		c.log.Error(ErrCreate.Error(),
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, game)
}

func (c *GameController) Update(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.games.Update"

	gameID, err := pathID(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid game id"})
		return
	}

	var req services.UpdateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	game, err := c.service.Update(gameID, req)
	if err != nil {
		c.log.Error(ErrUpdate.Error(),
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, game)
}

// SearchExternal godoc
// @Summary      Search the external metadata service
// @Tags         games
// @Produce      json
// @Param        q  query  string  true  "Search term"
// @Success      200  {array}  rawg.SearchResult
// @Failure      502  {object}  errorResponse
// @Router       /search/games [get]
func (c *GameController) SearchExternal(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.games.SearchExternal"

	results, err := c.service.SearchExternal(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		c.log.Error("external search failed",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, results)
}

type importGameBody struct {
	RawgID int64 `json:"rawg_id"`
}

func (c *GameController) Import(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.games.Import"

	var body importGameBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.RawgID <= 0 {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	game, err := c.service.Import(r.Context(), body.RawgID)
	if err != nil {
		c.log.Error("import failed",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, game)
}

type backfillBody struct {
	Limit int `json:"limit"`
}

// Backfill godoc
// @Summary      Refresh metadata for cataloged games
// @Tags         games
// @Accept       json
// @Produce      json
// @Success      200  {object}  services.BackfillReport
// @Router       /import/backfill [post]
func (c *GameController) Backfill(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.games.Backfill"

	var body backfillBody
	if r.Body != nil {
		// The limit is optional; an empty body means the default batch.
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	report, err := c.service.Backfill(r.Context(), body.Limit)
	if err != nil {
		c.log.Error("backfill failed",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}
