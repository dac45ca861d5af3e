package services

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"gamejournal/internal/storage"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDiscoverService_Discover(t *testing.T) {
	store, mock := setupMockDB(t)
	defer store.Close()

	service := NewDiscoverService(store, nil, discardLogger())
	ctx := context.Background()

	statsColumns := []string{"id", "title", "release_year", "cover_url", "ratings_count", "avg_score", "last_entry_at", "recent_count"}

	t.Run("trending is the default sort", func(t *testing.T) {
		mock.ExpectQuery("ORDER BY recent_count desc, ratings_count desc, last_entry_at desc, games.title asc").
			WillReturnRows(sqlmock.NewRows(statsColumns).
				AddRow(1, "Hades", 2020, "", 4, 8.5, time.Now(), 3).
				AddRow(2, "Celeste", 2018, "", 2, 9.0, time.Now(), 1))

		games, err := service.Discover(ctx, "bogus", "", 0, 0)

		assert.NoError(t, err)
		assert.Len(t, games, 2)
		assert.Equal(t, "Hades", games[0].Title)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("top keeps only rated games", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("HAVING ratings_count > 0 ORDER BY avg_score desc, ratings_count desc, games.title asc")).
			WillReturnRows(sqlmock.NewRows(statsColumns).
				AddRow(2, "Celeste", 2018, "", 2, 9.0, time.Now(), 1))

		games, err := service.Discover(ctx, "top", "", 0, 0)

		assert.NoError(t, err)
		assert.Len(t, games, 1)
		assert.Equal(t, 2, games[0].RatingsCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("title filter", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("games.title LIKE ?")).
			WithArgs(sqlmock.AnyArg(), "%hades%").
			WillReturnRows(sqlmock.NewRows(statsColumns).
				AddRow(1, "Hades", 2020, "", 4, 8.5, time.Now(), 3))

		games, err := service.Discover(ctx, "popular", "hades", 0, 0)

		assert.NoError(t, err)
		assert.Len(t, games, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty page comes back as an empty slice", func(t *testing.T) {
		mock.ExpectQuery("SELECT games.id, games.title").
			WillReturnRows(sqlmock.NewRows(statsColumns))

		games, err := service.Discover(ctx, "new", "", 0, 0)

		assert.NoError(t, err)
		assert.NotNil(t, games)
		assert.Empty(t, games)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDiscoverService_GameDetail(t *testing.T) {
	store, mock := setupMockDB(t)
	defer store.Close()

	service := NewDiscoverService(store, nil, discardLogger())

	t.Run("missing game", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `games` WHERE `games`.`id` = ? ORDER BY `games`.`id` LIMIT ?")).
			WillReturnError(gorm.ErrRecordNotFound)

		detail, err := service.GameDetail(99)

		assert.Nil(t, detail)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("aggregates with status breakdown and recent entries", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `games` WHERE `games`.`id` = ? ORDER BY `games`.`id` LIMIT ?")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description"}).
				AddRow(1, "Hades", "Roguelike."))
		mock.ExpectQuery("SELECT \\* FROM `game_genres`").
			WillReturnRows(sqlmock.NewRows([]string{"game_id", "genre_id"}).AddRow(1, 2))
		mock.ExpectQuery("SELECT \\* FROM `genres`").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(2, "Roguelike"))
		mock.ExpectQuery(regexp.QuoteMeta("games.id = ?")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "title", "ratings_count", "avg_score", "recent_count"}).
				AddRow(1, "Hades", 4, 8.5, 3))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) AS count FROM `entries`")).
			WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
				AddRow("PLAYING", 2).
				AddRow("PLAYED", 5))
		mock.ExpectQuery(regexp.QuoteMeta("JOIN profiles ON profiles.user_id = entries.user_id")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "status", "score"}).
				AddRow(10, "ana", "PLAYED", 9))

		detail, err := service.GameDetail(1)

		assert.NoError(t, err)
		assert.Equal(t, "Roguelike.", detail.Description)
		assert.Equal(t, []string{"Roguelike"}, detail.Genres)
		assert.Equal(t, 2, detail.StatusCounts.Playing)
		assert.Equal(t, 5, detail.StatusCounts.Played)
		assert.Len(t, detail.RecentEntries, 1)
		assert.Equal(t, "ana", detail.RecentEntries[0].Username)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 24, ClampLimit(0, 24, 100))
	assert.Equal(t, 1, ClampLimit(-5, 24, 100))
	assert.Equal(t, 100, ClampLimit(500, 24, 100))
	assert.Equal(t, 42, ClampLimit(42, 24, 100))
}
