package controllers

import (
	"context"
	"log/slog"
	"net/http"

	"gamejournal/internal/services"
)

type DiscoverServicer interface {
	Discover(ctx context.Context, sort, query string, limit, offset int) ([]services.GameStats, error)
	GameDetail(gameID int64) (*services.GameDetailResponse, error)
}

type DiscoverController struct {
	service DiscoverServicer
	log     *slog.Logger
}

func NewDiscoverController(s DiscoverServicer, log *slog.Logger) *DiscoverController {
	return &DiscoverController{
		service: s,
		log:     log,
	}
}

// Discover godoc
// @Summary      Public ranked game listing
// @Tags         discover
// @Produce      json
// @Param        sort    query  string  false  "trending | top | new | popular"
// @Param        q       query  string  false  "Title filter"
// @Param        limit   query  int     false  "Page size (1-100, default 24)"
// @Param        offset  query  int     false  "Offset (default 0)"
// @Success      200  {array}  services.GameStats
// @Router       /public/games [get]
func (c *DiscoverController) Discover(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.discover.Discover"

	query := r.URL.Query()
	limit, offset := pageParams(r, 0)

	games, err := c.service.Discover(r.Context(), query.Get("sort"), query.Get("q"), limit, offset)
	if err != nil {
		c.log.Error("failed to discover games",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, games)
}

// GameDetail godoc
// @Summary      Public game detail with aggregates and recent entries
// @Tags         discover
// @Produce      json
// @Param        id  path  int  true  "Game id"
// @Success      200  {object}  services.GameDetailResponse
// @Failure      404  {object}  errorResponse
// @Router       /public/games/{id} [get]
func (c *DiscoverController) GameDetail(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.discover.GameDetail"

	gameID, err := pathID(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid game id"})
		return
	}

	detail, err := c.service.GameDetail(gameID)
	if err != nil {
		c.log.Error("failed to get game detail",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, detail)
}
