package services

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"gamejournal/internal/clients/rawg"
	"gamejournal/internal/storage"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

type mockMetadata struct {
	mock.Mock
}

func (m *mockMetadata) Search(ctx context.Context, query string) ([]rawg.SearchResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]rawg.SearchResult), args.Error(1)
}

func (m *mockMetadata) FetchDetail(ctx context.Context, rawgID int64) (*rawg.GameDetail, error) {
	args := m.Called(ctx, rawgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rawg.GameDetail), args.Error(1)
}

func TestGameService_List(t *testing.T) {
	store, mock := setupMockDB(t)
	defer store.Close()

	service := NewGameService(store, nil, discardLogger())

	t.Run("newest first", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `games` ORDER BY id desc")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).
				AddRow(2, "Celeste").
				AddRow(1, "Hades"))

		games, err := service.List("", 0, 0)

		assert.NoError(t, err)
		assert.Len(t, games, 2)
		assert.Equal(t, "Celeste", games[0].Title)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("title filter", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("WHERE title LIKE ?")).
			WithArgs("%hade%", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(1, "Hades"))

		games, err := service.List("hade", 0, 0)

		assert.NoError(t, err)
		assert.Len(t, games, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGameService_Create(t *testing.T) {
	store, mock := setupMockDB(t)
	defer store.Close()

	service := NewGameService(store, nil, discardLogger())

	t.Run("title is required", func(t *testing.T) {
		game, err := service.Create(CreateGameRequest{})

		assert.Nil(t, game)
		var validation *ValidationError
		assert.ErrorAs(t, err, &validation)
		assert.Equal(t, "title", validation.Field)
	})

	t.Run("success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO `games`").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		game, err := service.Create(CreateGameRequest{Title: "Hades"})

		assert.NoError(t, err)
		assert.Equal(t, int64(1), game.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGameService_SearchExternal(t *testing.T) {
	store, _ := setupMockDB(t)
	defer store.Close()

	t.Run("empty query", func(t *testing.T) {
		service := NewGameService(store, nil, discardLogger())

		results, err := service.SearchExternal(context.Background(), "")

		assert.Nil(t, results)
		var validation *ValidationError
		assert.ErrorAs(t, err, &validation)
	})

	t.Run("upstream failure maps to the sentinel", func(t *testing.T) {
		metadata := new(mockMetadata)
		metadata.On("Search", mock.Anything, "hades").
			Return(nil, errors.New("rawg: status 503"))
		service := NewGameService(store, metadata, discardLogger())

		results, err := service.SearchExternal(context.Background(), "hades")

		assert.Nil(t, results)
		assert.ErrorIs(t, err, ErrUpstream)
		metadata.AssertExpectations(t)
	})

	t.Run("passes results through", func(t *testing.T) {
		metadata := new(mockMetadata)
		metadata.On("Search", mock.Anything, "hades").
			Return([]rawg.SearchResult{{RawgID: 274, Title: "Hades"}}, nil)
		service := NewGameService(store, metadata, discardLogger())

		results, err := service.SearchExternal(context.Background(), "hades")

		assert.NoError(t, err)
		assert.Len(t, results, 1)
		assert.Equal(t, int64(274), results[0].RawgID)
		metadata.AssertExpectations(t)
	})
}

func TestGameService_Import(t *testing.T) {
	t.Run("creates a missing game with metadata", func(t *testing.T) {
		store, dbmock := setupMockDB(t)
		defer store.Close()

		year := 2020
		metadata := new(mockMetadata)
		metadata.On("FetchDetail", mock.Anything, int64(274)).
			Return(&rawg.GameDetail{
				Title:       "Hades",
				ReleaseYear: &year,
				ImageURL:    "https://img/hades.jpg",
				Description: "<p>Roguelike.</p>",
				Genres:      []string{"Roguelike"},
			}, nil)
		service := NewGameService(store, metadata, discardLogger())

		dbmock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `games` WHERE rawg_id = ?")).
			WillReturnError(gorm.ErrRecordNotFound)
		dbmock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `games` WHERE title = ?")).
			WillReturnError(gorm.ErrRecordNotFound)
		dbmock.ExpectBegin()
		dbmock.ExpectExec("INSERT INTO `games`").
			WillReturnResult(sqlmock.NewResult(1, 1))
		dbmock.ExpectExec("UPDATE `games` SET").
			WillReturnResult(sqlmock.NewResult(0, 1))
		dbmock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `genres` WHERE name = ?")).
			WillReturnError(gorm.ErrRecordNotFound)
		dbmock.ExpectExec("INSERT INTO `genres`").
			WillReturnResult(sqlmock.NewResult(2, 1))
		// Association.Append upserts the genre before writing the join row.
		dbmock.ExpectExec("INSERT INTO `genres`").
			WillReturnResult(sqlmock.NewResult(2, 1))
		dbmock.ExpectExec("INSERT INTO `game_genres`").
			WillReturnResult(sqlmock.NewResult(0, 1))
		dbmock.ExpectCommit()

		game, err := service.Import(context.Background(), 274)

		assert.NoError(t, err)
		assert.Equal(t, "Hades", game.Title)
		assert.Equal(t, int64(274), *game.RawgID)
		assert.Equal(t, "https://img/hades.jpg", game.CoverURL)
		assert.Equal(t, "Roguelike.", game.Description)
		metadata.AssertExpectations(t)
		assert.NoError(t, dbmock.ExpectationsWereMet())
	})

	t.Run("manual fields win over imported metadata", func(t *testing.T) {
		store, dbmock := setupMockDB(t)
		defer store.Close()

		metadata := new(mockMetadata)
		metadata.On("FetchDetail", mock.Anything, int64(274)).
			Return(&rawg.GameDetail{Title: "Hades", Description: "<p>Imported.</p>"}, nil)
		service := NewGameService(store, metadata, discardLogger())

		dbmock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `games` WHERE rawg_id = ?")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "title", "rawg_id", "description"}).
				AddRow(1, "Hades", 274, "Hand written."))
		dbmock.ExpectBegin()
		dbmock.ExpectExec("UPDATE `games` SET").
			WillReturnResult(sqlmock.NewResult(0, 1))
		dbmock.ExpectCommit()

		game, err := service.Import(context.Background(), 274)

		assert.NoError(t, err)
		assert.Equal(t, "Hand written.", game.Description)
		metadata.AssertExpectations(t)
		assert.NoError(t, dbmock.ExpectationsWereMet())
	})

	t.Run("upstream failure", func(t *testing.T) {
		store, _ := setupMockDB(t)
		defer store.Close()

		metadata := new(mockMetadata)
		metadata.On("FetchDetail", mock.Anything, int64(274)).
			Return(nil, errors.New("rawg: status 500"))
		service := NewGameService(store, metadata, discardLogger())

		game, err := service.Import(context.Background(), 274)

		assert.Nil(t, game)
		assert.ErrorIs(t, err, ErrUpstream)
		metadata.AssertExpectations(t)
	})
}

func TestGameService_Backfill(t *testing.T) {
	t.Run("reports per-game errors and keeps going", func(t *testing.T) {
		store, dbmock := setupMockDB(t)
		defer store.Close()

		metadata := new(mockMetadata)
		metadata.On("Search", mock.Anything, "Unknown Game").
			Return([]rawg.SearchResult{}, nil)
		service := NewGameService(store, metadata, discardLogger())

		dbmock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `games` ORDER BY id asc")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "title", "rawg_id"}).
				AddRow(1, "Unknown Game", nil))

		report, err := service.Backfill(context.Background(), 10)

		assert.NoError(t, err)
		assert.Equal(t, 0, report.Updated)
		assert.Len(t, report.Errors, 1)
		assert.Contains(t, report.Errors[0], "Unknown Game")
		metadata.AssertExpectations(t)
		assert.NoError(t, dbmock.ExpectationsWereMet())
	})
}

func TestGameService_GetByID(t *testing.T) {
	store, mock := setupMockDB(t)
	defer store.Close()

	service := NewGameService(store, nil, discardLogger())

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `games` WHERE `games`.`id` = ? ORDER BY `games`.`id` LIMIT ?")).
			WithArgs(99, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		game, err := service.GetByID(99)

		assert.Nil(t, game)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
