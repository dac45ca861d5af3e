package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gamejournal/internal/clients/rawg"
	"gamejournal/internal/models"
	"gamejournal/internal/storage"
	"gamejournal/internal/storage/mariadb"

	"gorm.io/gorm"
)

type CreateGameRequest struct {
	Title       string `json:"title"`
	ReleaseYear *int   `json:"release_year"`
	CoverURL    string `json:"cover_url"`
	Description string `json:"description"`
}

type UpdateGameRequest struct {
	Title       *string `json:"title"`
	ReleaseYear *int    `json:"release_year"`
	CoverURL    *string `json:"cover_url"`
	Description *string `json:"description"`
}

type BackfillReport struct {
	Updated int      `json:"updated"`
	Errors  []string `json:"errors"`
}

// MetadataClient is the external game-metadata collaborator.
type MetadataClient interface {
	Search(ctx context.Context, query string) ([]rawg.SearchResult, error)
	FetchDetail(ctx context.Context, rawgID int64) (*rawg.GameDetail, error)
}

type GameService struct {
	storage  *mariadb.Storage
	metadata MetadataClient
	log      *slog.Logger
}

func NewGameService(s *mariadb.Storage, metadata MetadataClient, log *slog.Logger) *GameService {
	return &GameService{
		storage:  s,
		metadata: metadata,
		log:      log,
	}
}

func (s *GameService) List(query string, limit, offset int) ([]models.Game, error) {
	const op = "services.games.List"

	limit = ClampLimit(limit, discoverDefaultLimit, discoverMaxLimit)
	if offset < 0 {
		offset = 0
	}

	db := s.storage.DB.Order("id desc")
	if query != "" {
		db = db.Where("title LIKE ?", "%"+query+"%")
	}

	var games []models.Game
	if err := db.Offset(offset).Limit(limit).Find(&games).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return games, nil
}

func (s *GameService) GetByID(id int64) (*models.Game, error) {
	const op = "services.games.GetByID"

	var game models.Game
	err := s.storage.DB.Preload("Genres").First(&game, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &game, nil
}

func (s *GameService) Create(req CreateGameRequest) (*models.Game, error) {
	const op = "services.games.Create"

	if req.Title == "" {
		return nil, &ValidationError{Field: "title", Reason: "is required"}
	}

	game := &models.Game{
		Title:       req.Title,
		ReleaseYear: req.ReleaseYear,
		CoverURL:    req.CoverURL,
		Description: req.Description,
	}

	if err := s.storage.DB.Create(game).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return game, nil
}

func (s *GameService) Update(id int64, req UpdateGameRequest) (*models.Game, error) {
	const op = "services.games.Update"

	game, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, &ValidationError{Field: "title", Reason: "cannot be empty"}
		}
		game.Title = *req.Title
	}
	if req.ReleaseYear != nil {
		game.ReleaseYear = req.ReleaseYear
	}
	if req.CoverURL != nil {
		game.CoverURL = *req.CoverURL
	}
	if req.Description != nil {
		game.Description = *req.Description
	}

	if err := s.storage.DB.Save(game).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return game, nil
}

// SearchExternal proxies a metadata lookup; failures map to the
// upstream sentinel rather than a bare 500.
func (s *GameService) SearchExternal(ctx context.Context, query string) ([]rawg.SearchResult, error) {
	const op = "services.games.SearchExternal"

	if query == "" {
		return nil, &ValidationError{Field: "q", Reason: "is required"}
	}

	results, err := s.metadata.Search(ctx, query)
	if err != nil {
		s.log.Error("metadata search failed",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		return nil, ErrUpstream
	}

	return results, nil
}

// Import upserts a game from the metadata service. The HTTP fetch
// happens before any transaction is opened.
func (s *GameService) Import(ctx context.Context, rawgID int64) (*models.Game, error) {
	const op = "services.games.Import"

	detail, err := s.metadata.FetchDetail(ctx, rawgID)
	if err != nil {
		s.log.Error("metadata fetch failed",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		return nil, ErrUpstream
	}
	if detail.Title == "" {
		return nil, ErrUpstream
	}

	return s.upsertFromDetail(rawgID, detail)
}

func (s *GameService) upsertFromDetail(rawgID int64, detail *rawg.GameDetail) (*models.Game, error) {
	const op = "services.games.upsertFromDetail"

	game, err := s.findForImport(rawgID, detail.Title)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tx := s.storage.DB.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("%s: %w", op, tx.Error)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if game == nil {
		game = &models.Game{Title: detail.Title, RawgID: &rawgID}
		if err := tx.Create(game).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else if game.RawgID == nil {
		game.RawgID = &rawgID
	}

	mergeGame(game, detail)

	if err := tx.Save(game).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.attachGenres(tx, game, detail.Genres); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return game, nil
}

func (s *GameService) findForImport(rawgID int64, title string) (*models.Game, error) {
	var game models.Game

	err := s.storage.DB.Where("rawg_id = ?", rawgID).First(&game).Error
	if err == nil {
		return &game, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = s.storage.DB.Where("title = ?", title).First(&game).Error
	if err == nil {
		return &game, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return nil, nil
}

// mergeGame fills fields only if they are currently empty; manual
// edits always win over imported metadata.
func mergeGame(game *models.Game, detail *rawg.GameDetail) {
	if game.CoverURL == "" && detail.ImageURL != "" {
		game.CoverURL = detail.ImageURL
	}
	if game.Description == "" && detail.Description != "" {
		game.Description = rawg.StripHTML(detail.Description)
	}
	if game.ReleaseYear == nil && detail.ReleaseYear != nil {
		game.ReleaseYear = detail.ReleaseYear
	}
}

func (s *GameService) attachGenres(tx *gorm.DB, game *models.Game, names []string) error {
	for _, name := range names {
		var genre models.Genre
		err := tx.Where("name = ?", name).First(&genre).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			genre = models.Genre{Name: name}
			if err := tx.Create(&genre).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		if err := tx.Model(game).Association("Genres").Append(&genre); err != nil {
			return err
		}
	}
	return nil
}

// Backfill refreshes metadata for up to limit games. One failing game
// is reported and skipped; it never aborts the batch.
func (s *GameService) Backfill(ctx context.Context, limit int) (*BackfillReport, error) {
	const op = "services.games.Backfill"

	if limit <= 0 {
		limit = 200
	}

	var games []models.Game
	if err := s.storage.DB.Order("id asc").Limit(limit).Find(&games).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	report := &BackfillReport{}
	for _, game := range games {
		if err := s.backfillOne(ctx, &game); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("[%d] %s: %s", game.ID, game.Title, err))
			continue
		}
		report.Updated++

		// Be nice to the upstream API.
		time.Sleep(250 * time.Millisecond)
	}

	return report, nil
}

func (s *GameService) backfillOne(ctx context.Context, game *models.Game) error {
	rawgID := int64(0)
	if game.RawgID != nil {
		rawgID = *game.RawgID
	} else {
		results, err := s.metadata.Search(ctx, game.Title)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			return errors.New("no metadata match")
		}
		rawgID = results[0].RawgID
	}

	detail, err := s.metadata.FetchDetail(ctx, rawgID)
	if err != nil {
		return err
	}

	_, err = s.upsertFromDetail(rawgID, detail)
	return err
}
