package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gamejournal/internal/cache"
	"gamejournal/internal/models"
	"gamejournal/internal/storage"
	"gamejournal/internal/storage/mariadb"

	"gorm.io/gorm"
)

const (
	discoverDefaultLimit = 24
	discoverMaxLimit     = 100

	// Entries updated inside this window count as "recent" for the
	// trending sort.
	recentWindow = 90 * 24 * time.Hour

	discoverCacheTTL  = time.Minute
	recentEntriesSize = 20
)

type GameStats struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	ReleaseYear  *int       `json:"release_year"`
	CoverURL     string     `json:"cover_url"`
	RatingsCount int        `json:"ratings_count"`
	AvgScore     *float64   `json:"avg_score"`
	LastEntryAt  *time.Time `json:"last_entry_at"`
	RecentCount  int        `json:"recent_count"`
}

type StatusBreakdown struct {
	Wishlist int `json:"wishlist"`
	Playing  int `json:"playing"`
	Played   int `json:"played"`
	Dropped  int `json:"dropped"`
}

type RecentEntry struct {
	ID         int64              `json:"id"`
	Username   string             `json:"username"`
	Status     models.EntryStatus `json:"status"`
	Score      *int               `json:"score"`
	FinishedAt *time.Time         `json:"finished_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

type GameDetailResponse struct {
	Game          GameStats       `json:"game"`
	Description   string          `json:"description"`
	Genres        []string        `json:"genres"`
	StatusCounts  StatusBreakdown `json:"status_counts"`
	RecentEntries []RecentEntry   `json:"recent_entries"`
}

type DiscoverService struct {
	storage *mariadb.Storage
	cache   *cache.Cache
	log     *slog.Logger
}

func NewDiscoverService(s *mariadb.Storage, c *cache.Cache, log *slog.Logger) *DiscoverService {
	return &DiscoverService{
		storage: s,
		cache:   c,
		log:     log,
	}
}

// Discover aggregates entry statistics per game and serves a sorted
// page. Results are cached briefly; discovery tolerates stale counts.
func (s *DiscoverService) Discover(ctx context.Context, sort, query string, limit, offset int) ([]GameStats, error) {
	const op = "services.discover.Discover"

	sort = normalizeSort(sort)
	limit = ClampLimit(limit, discoverDefaultLimit, discoverMaxLimit)
	if offset < 0 {
		offset = 0
	}

	cacheKey := fmt.Sprintf("discover:%s:%s:%d:%d", sort, query, limit, offset)
	var cached []GameStats
	if hit, err := s.cache.GetJSON(ctx, cacheKey, &cached); err != nil {
		s.log.Warn("discover cache read failed", slog.String("error", err.Error()))
	} else if hit {
		return cached, nil
	}

	db := s.aggregated()
	if query != "" {
		db = db.Where("games.title LIKE ?", "%"+query+"%")
	}

	switch sort {
	case "top":
		db = db.Having("ratings_count > 0").
			Order("avg_score desc, ratings_count desc, games.title asc")
	case "new":
		db = db.Order("games.release_year desc, recent_count desc, ratings_count desc, games.title asc")
	case "popular":
		db = db.Order("ratings_count desc, avg_score desc, games.title asc")
	default: // trending
		db = db.Order("recent_count desc, ratings_count desc, last_entry_at desc, games.title asc")
	}

	var results []GameStats
	if err := db.Offset(offset).Limit(limit).Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if results == nil {
		results = []GameStats{}
	}

	if err := s.cache.SetJSON(ctx, cacheKey, results, discoverCacheTTL); err != nil {
		s.log.Warn("discover cache write failed", slog.String("error", err.Error()))
	}

	return results, nil
}

func (s *DiscoverService) aggregated() *gorm.DB {
	cutoff := time.Now().Add(-recentWindow)

	return s.storage.DB.Table("games").
		Select(`games.id, games.title, games.release_year, games.cover_url,
			COUNT(CASE WHEN entries.score IS NOT NULL THEN 1 END) AS ratings_count,
			AVG(CASE WHEN entries.score IS NOT NULL THEN entries.score END) AS avg_score,
			MAX(entries.updated_at) AS last_entry_at,
			COUNT(CASE WHEN entries.updated_at >= ? THEN 1 END) AS recent_count`, cutoff).
		Joins("LEFT JOIN entries ON entries.game_id = games.id").
		Group("games.id, games.title, games.release_year, games.cover_url")
}

// GameDetail returns the aggregates plus a per-status breakdown and
// the most recent entries for one game.
func (s *DiscoverService) GameDetail(gameID int64) (*GameDetailResponse, error) {
	const op = "services.discover.GameDetail"

	var game models.Game
	err := s.storage.DB.Preload("Genres").First(&game, gameID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var stats GameStats
	err = s.aggregated().Where("games.id = ?", gameID).Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var counts []struct {
		Status models.EntryStatus
		Count  int
	}
	err = s.storage.DB.Table("entries").
		Select("status, COUNT(*) AS count").
		Where("game_id = ?", gameID).
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	breakdown := StatusBreakdown{}
	for _, c := range counts {
		switch c.Status {
		case models.StatusWishlist:
			breakdown.Wishlist = c.Count
		case models.StatusPlaying:
			breakdown.Playing = c.Count
		case models.StatusPlayed:
			breakdown.Played = c.Count
		case models.StatusDropped:
			breakdown.Dropped = c.Count
		}
	}

	// Recent entries skip notes; they are not public.
	var recent []RecentEntry
	err = s.storage.DB.Table("entries").
		Select("entries.id, profiles.username, entries.status, entries.score, entries.finished_at, entries.updated_at").
		Joins("JOIN profiles ON profiles.user_id = entries.user_id").
		Where("entries.game_id = ?", gameID).
		Order("entries.updated_at desc").
		Limit(recentEntriesSize).
		Scan(&recent).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if recent == nil {
		recent = []RecentEntry{}
	}

	genres := make([]string, 0, len(game.Genres))
	for _, g := range game.Genres {
		genres = append(genres, g.Name)
	}

	return &GameDetailResponse{
		Game:          stats,
		Description:   game.Description,
		Genres:        genres,
		StatusCounts:  breakdown,
		RecentEntries: recent,
	}, nil
}

func normalizeSort(sort string) string {
	switch sort {
	case "trending", "top", "new", "popular":
		return sort
	}
	return "trending"
}
