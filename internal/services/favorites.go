package services

import (
	"fmt"
	"log/slog"

	"gamejournal/internal/models"
	"gamejournal/internal/storage/mariadb"
)

type FavoriteResponse struct {
	Position    int    `json:"position"`
	GameID      int64  `json:"game_id"`
	Title       string `json:"title"`
	CoverURL    string `json:"cover_url"`
	ReleaseYear *int   `json:"release_year"`
}

type FavoriteService struct {
	storage *mariadb.Storage
	log     *slog.Logger
}

func NewFavoriteService(s *mariadb.Storage, log *slog.Logger) *FavoriteService {
	return &FavoriteService{
		storage: s,
		log:     log,
	}
}

func (s *FavoriteService) Get(userID int64) ([]FavoriteResponse, error) {
	const op = "services.favorites.Get"

	var favorites []FavoriteResponse
	err := s.storage.DB.Table("favorite_games").
		Select("favorite_games.position, games.id AS game_id, games.title, games.cover_url, games.release_year").
		Joins("JOIN games ON games.id = favorite_games.game_id").
		Where("favorite_games.user_id = ?", userID).
		Order("favorite_games.position asc").
		Scan(&favorites).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if favorites == nil {
		favorites = []FavoriteResponse{}
	}

	return favorites, nil
}

// Replace swaps the entire pinned set in one transaction. Positions
// are the order of the supplied ids.
func (s *FavoriteService) Replace(userID int64, gameIDs []int64) error {
	const op = "services.favorites.Replace"

	if len(gameIDs) > models.MaxFavorites {
		return &ValidationError{
			Field:  "game_ids",
			Reason: fmt.Sprintf("at most %d favorites allowed", models.MaxFavorites),
		}
	}

	seen := make(map[int64]bool, len(gameIDs))
	for _, id := range gameIDs {
		if seen[id] {
			return &ValidationError{Field: "game_ids", Reason: "duplicate game"}
		}
		seen[id] = true
	}

	if len(gameIDs) > 0 {
		var count int64
		err := s.storage.DB.Model(&models.Game{}).Where("id IN ?", gameIDs).Count(&count).Error
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if count != int64(len(gameIDs)) {
			return &ValidationError{Field: "game_ids", Reason: "unknown game"}
		}
	}

	tx := s.storage.DB.Begin()
	if tx.Error != nil {
		return fmt.Errorf("%s: %w", op, tx.Error)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("user_id = ?", userID).Delete(&models.FavoriteGame{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("%s: %w", op, err)
	}

	for position, gameID := range gameIDs {
		favorite := models.FavoriteGame{
			UserID:   userID,
			GameID:   gameID,
			Position: position,
		}
		if err := tx.Create(&favorite).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
