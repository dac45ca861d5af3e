package services

import (
	"fmt"
	"log/slog"
	"time"

	"gamejournal/internal/models"
	"gamejournal/internal/storage/mariadb"
)

const (
	feedDefaultLimit = 50
	feedMaxLimit     = 200
)

type FeedItem struct {
	ID        int64               `json:"id"`
	UserID    int64               `json:"user_id"`
	Username  string              `json:"username"`
	GameID    int64               `json:"game_id"`
	GameTitle string              `json:"game_title"`
	CoverURL  string              `json:"cover_url"`
	Verb      models.ActivityVerb `json:"verb"`
	Status    *models.EntryStatus `json:"status,omitempty"`
	Score     *int                `json:"score,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

type FeedService struct {
	storage *mariadb.Storage
	friends *FriendService
	log     *slog.Logger
}

func NewFeedService(s *mariadb.Storage, friends *FriendService, log *slog.Logger) *FeedService {
	return &FeedService{
		storage: s,
		friends: friends,
		log:     log,
	}
}

// Feed merges the activity of the user and their friends, newest
// first. The fan-out happens at read time; nothing is precomputed.
func (s *FeedService) Feed(userID int64, limit, offset int) ([]FeedItem, error) {
	const op = "services.feed.Feed"

	limit = ClampLimit(limit, feedDefaultLimit, feedMaxLimit)
	if offset < 0 {
		offset = 0
	}

	friendIDs, err := s.friends.FriendIDsOf(userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	actorIDs := append(friendIDs, userID)

	var items []FeedItem
	err = s.storage.DB.Table("activities").
		Select(`activities.id, activities.user_id, profiles.username,
			activities.game_id, games.title AS game_title, games.cover_url,
			activities.verb, activities.status, activities.score, activities.created_at`).
		Joins("JOIN profiles ON profiles.user_id = activities.user_id").
		Joins("JOIN games ON games.id = activities.game_id").
		Where("activities.user_id IN ?", actorIDs).
		Order("activities.created_at desc, activities.id desc").
		Offset(offset).
		Limit(limit).
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if items == nil {
		items = []FeedItem{}
	}

	return items, nil
}

// ClampLimit applies the default for unset values and the hard cap
// for oversized ones.
func ClampLimit(limit, def, max int) int {
	if limit == 0 {
		return def
	}
	if limit < 1 {
		return 1
	}
	if limit > max {
		return max
	}
	return limit
}
