package controllers

import (
	"log/slog"
	"net/http"
	"strconv"

	"gamejournal/internal/middleware"
	"gamejournal/internal/services"
)

type FeedServicer interface {
	Feed(userID int64, limit, offset int) ([]services.FeedItem, error)
}

type FeedController struct {
	service FeedServicer
	log     *slog.Logger
}

func NewFeedController(s FeedServicer, log *slog.Logger) *FeedController {
	return &FeedController{
		service: s,
		log:     log,
	}
}

// Feed godoc
// @Summary      Activity stream for the user and their friends
// @Tags         feed
// @Produce      json
// @Param        limit   query  int  false  "Page size (1-200, default 50)"
// @Param        offset  query  int  false  "Offset (default 0)"
// @Success      200  {array}  services.FeedItem
// @Router       /feed [get]
func (c *FeedController) Feed(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.feed.Feed"

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	limit, offset := pageParams(r, 0)

	items, err := c.service.Feed(userID, limit, offset)
	if err != nil {
		c.log.Error("failed to compose feed",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, items)
}

// pageParams parses limit/offset leniently: garbage input falls back
// to the defaults instead of failing the request.
func pageParams(r *http.Request, defaultLimit int) (int, int) {
	query := r.URL.Query()

	limit := defaultLimit
	if raw := query.Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	offset := 0
	if raw := query.Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			offset = parsed
		}
	}

	return limit, offset
}
