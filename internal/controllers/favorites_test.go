package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gamejournal/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockFavoriteService struct {
	mock.Mock
}

func (m *MockFavoriteService) Get(userID int64) ([]services.FavoriteResponse, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.FavoriteResponse), args.Error(1)
}

func (m *MockFavoriteService) Replace(userID int64, gameIDs []int64) error {
	args := m.Called(userID, gameIDs)
	return args.Error(0)
}

func TestFavoriteController_Replace(t *testing.T) {
	t.Run("returns the refreshed list", func(t *testing.T) {
		mockService := &MockFavoriteService{}
		ctrl := NewFavoriteController(mockService, testLogger())

		mockService.On("Replace", int64(1), []int64{4, 3}).Return(nil)
		mockService.On("Get", int64(1)).
			Return([]services.FavoriteResponse{
				{Position: 0, GameID: 4, Title: "Celeste"},
				{Position: 1, GameID: 3, Title: "Hades"},
			}, nil)

		body := bytes.NewBufferString(`{"game_ids": [4, 3]}`)
		req := authedRequest("PUT", "/api/favorites", body, 1)
		w := httptest.NewRecorder()

		ctrl.Replace(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var favorites []services.FavoriteResponse
		assert.NoError(t, json.NewDecoder(w.Body).Decode(&favorites))
		assert.Len(t, favorites, 2)
		assert.Equal(t, "Celeste", favorites[0].Title)
		mockService.AssertExpectations(t)
	})

	t.Run("too many favorites is a 400", func(t *testing.T) {
		mockService := &MockFavoriteService{}
		ctrl := NewFavoriteController(mockService, testLogger())

		mockService.On("Replace", int64(1), mock.Anything).
			Return(&services.ValidationError{Field: "game_ids", Reason: "at most 9 favorites allowed"})

		body := bytes.NewBufferString(`{"game_ids": [1,2,3,4,5,6,7,8,9,10]}`)
		req := authedRequest("PUT", "/api/favorites", body, 1)
		w := httptest.NewRecorder()

		ctrl.Replace(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("unauthorized", func(t *testing.T) {
		ctrl := NewFavoriteController(&MockFavoriteService{}, testLogger())

		req := httptest.NewRequest("PUT", "/api/favorites", bytes.NewBufferString(`{"game_ids": []}`))
		w := httptest.NewRecorder()

		ctrl.Replace(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
