package controllers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"gamejournal/internal/middleware"
	"gamejournal/internal/services"
)

type FavoriteServicer interface {
	Get(userID int64) ([]services.FavoriteResponse, error)
	Replace(userID int64, gameIDs []int64) error
}

type FavoriteController struct {
	service FavoriteServicer
	log     *slog.Logger
}

func NewFavoriteController(s FavoriteServicer, log *slog.Logger) *FavoriteController {
	return &FavoriteController{
		service: s,
		log:     log,
	}
}

func (c *FavoriteController) Get(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.favorites.Get"

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	favorites, err := c.service.Get(userID)
	if err != nil {
		c.log.Error("failed to get favorites",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, favorites)
}

type replaceFavoritesBody struct {
	GameIDs []int64 `json:"game_ids"`
}

// Replace godoc
// @Summary      Replace the pinned favorites (up to 9, ordered)
// @Tags         favorites
// @Accept       json
// @Produce      json
// @Success      200  {array}  services.FavoriteResponse
// @Failure      400  {object}  errorResponse
// @Router       /favorites [put]
func (c *FavoriteController) Replace(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.favorites.Replace"

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var body replaceFavoritesBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := c.service.Replace(userID, body.GameIDs); err != nil {
		c.log.Error(ErrUpdate.Error(),
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondError(w, err)
		return
	}

	favorites, err := c.service.Get(userID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, favorites)
}
