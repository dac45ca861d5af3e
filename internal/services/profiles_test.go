package services

import (
	"regexp"
	"testing"
	"time"

	"gamejournal/internal/storage"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestProfileService_EnsureProfile(t *testing.T) {
	store, mock := setupMockDB(t)
	defer store.Close()

	service := NewProfileService(store, NewFriendService(store, nil), nil)

	t.Run("existing profile is left alone", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `profiles` WHERE user_id = ?")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "username"}).AddRow(1, 5, "ana"))

		err := service.EnsureProfile(5, "ana")

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing profile is created", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `profiles` WHERE user_id = ?")).
			WillReturnError(gorm.ErrRecordNotFound)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO `profiles`").
			WillReturnResult(sqlmock.NewResult(2, 1))
		mock.ExpectCommit()

		err := service.EnsureProfile(6, "bob")

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProfileService_UpdateUsername(t *testing.T) {
	store, mock := setupMockDB(t)
	defer store.Close()

	service := NewProfileService(store, NewFriendService(store, nil), nil)

	t.Run("rejects malformed names", func(t *testing.T) {
		for _, name := range []string{"ab", "null byte\x00", "way_too_long_username_here", "spaces in it", "émile"} {
			profile, err := service.UpdateUsername(5, name)

			assert.Nil(t, profile)
			var validation *ValidationError
			assert.ErrorAs(t, err, &validation)
			assert.Equal(t, "username", validation.Field)
		}
	})

	t.Run("taken names conflict case-insensitively", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("LOWER(username) = ? AND user_id <> ?")).
			WithArgs("anagrams", 5, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "username"}).AddRow(2, 9, "AnaGrams"))

		profile, err := service.UpdateUsername(5, "anagrams")

		assert.Nil(t, profile)
		assert.ErrorIs(t, err, ErrUsernameTaken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("renames", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("LOWER(username) = ? AND user_id <> ?")).
			WillReturnError(gorm.ErrRecordNotFound)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `profiles` WHERE user_id = ?")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "username"}).AddRow(1, 5, "ana"))
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `profiles` SET").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		profile, err := service.UpdateUsername(5, "ana_v2")

		assert.NoError(t, err)
		assert.Equal(t, "ana_v2", profile.Username)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProfileService_Public(t *testing.T) {
	store, mock := setupMockDB(t)
	defer store.Close()

	service := NewProfileService(store, NewFriendService(store, nil), nil)

	t.Run("unknown username", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("LOWER(username) = ?")).
			WillReturnError(gorm.ErrRecordNotFound)

		profile, err := service.Public("ghost", 0)

		assert.Nil(t, profile)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("anonymous viewer gets no relationship", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("LOWER(username) = ?")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "username", "avatar"}).
				AddRow(1, 5, "ana", "a.png"))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `friendships` WHERE user_a_id = ? OR user_b_id = ?")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_a_id", "user_b_id"}).
				AddRow(1, 2, 5))
		mock.ExpectQuery(regexp.QuoteMeta("profiles.user_id IN (?)")).
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "username", "avatar"}).
				AddRow(2, "bob", ""))
		mock.ExpectQuery(regexp.QuoteMeta("JOIN games ON games.id = entries.game_id")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "status", "updated_at", "game_id", "title"}).
				AddRow(9, "PLAYED", time.Now(), 3, "Hades"))

		profile, err := service.Public("ana", 0)

		assert.NoError(t, err)
		assert.Equal(t, "ana", profile.Username)
		assert.Equal(t, 1, profile.FriendCount)
		assert.Len(t, profile.RecentEntries, 1)
		assert.Equal(t, "Hades", profile.RecentEntries[0].Game.Title)
		assert.Nil(t, profile.Relationship)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("authenticated viewer sees the relationship", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("LOWER(username) = ?")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "username"}).
				AddRow(1, 5, "ana"))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `friendships` WHERE user_a_id = ? OR user_b_id = ?")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_a_id", "user_b_id"}))
		mock.ExpectQuery(regexp.QuoteMeta("JOIN games ON games.id = entries.game_id")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "status", "updated_at", "game_id", "title"}))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `friendships` WHERE user_a_id = ? AND user_b_id = ?")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_a_id", "user_b_id"}).AddRow(3, 2, 5))

		profile, err := service.Public("ana", 2)

		assert.NoError(t, err)
		assert.NotNil(t, profile.Relationship)
		assert.Equal(t, RelationFriends, profile.Relationship.State)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
