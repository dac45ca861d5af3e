package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gamejournal/internal/services"
	"gamejournal/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockDiscoverService struct {
	mock.Mock
}

func (m *MockDiscoverService) Discover(ctx context.Context, sort, query string, limit, offset int) ([]services.GameStats, error) {
	args := m.Called(ctx, sort, query, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.GameStats), args.Error(1)
}

func (m *MockDiscoverService) GameDetail(gameID int64) (*services.GameDetailResponse, error) {
	args := m.Called(gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.GameDetailResponse), args.Error(1)
}

func TestDiscoverController_Discover(t *testing.T) {
	t.Run("forwards sort and query", func(t *testing.T) {
		mockService := &MockDiscoverService{}
		ctrl := NewDiscoverController(mockService, testLogger())

		mockService.On("Discover", mock.Anything, "top", "hades", 0, 0).
			Return([]services.GameStats{{ID: 1, Title: "Hades", RatingsCount: 4}}, nil)

		req := httptest.NewRequest("GET", "/api/public/games?sort=top&q=hades", nil)
		w := httptest.NewRecorder()

		ctrl.Discover(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var games []services.GameStats
		assert.NoError(t, json.NewDecoder(w.Body).Decode(&games))
		assert.Len(t, games, 1)
		mockService.AssertExpectations(t)
	})
}

func TestDiscoverController_GameDetail(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockService := &MockDiscoverService{}
		ctrl := NewDiscoverController(mockService, testLogger())

		mockService.On("GameDetail", int64(1)).
			Return(&services.GameDetailResponse{
				Game:   services.GameStats{ID: 1, Title: "Hades"},
				Genres: []string{"Roguelike"},
			}, nil)

		req := withPathParam(httptest.NewRequest("GET", "/api/public/games/1", nil), "id", "1")
		w := httptest.NewRecorder()

		ctrl.GameDetail(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var detail services.GameDetailResponse
		assert.NoError(t, json.NewDecoder(w.Body).Decode(&detail))
		assert.Equal(t, "Hades", detail.Game.Title)
		mockService.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockService := &MockDiscoverService{}
		ctrl := NewDiscoverController(mockService, testLogger())

		mockService.On("GameDetail", int64(99)).Return(nil, storage.ErrNotFound)

		req := withPathParam(httptest.NewRequest("GET", "/api/public/games/99", nil), "id", "99")
		w := httptest.NewRecorder()

		ctrl.GameDetail(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("malformed id", func(t *testing.T) {
		ctrl := NewDiscoverController(&MockDiscoverService{}, testLogger())

		req := withPathParam(httptest.NewRequest("GET", "/api/public/games/x", nil), "id", "x")
		w := httptest.NewRecorder()

		ctrl.GameDetail(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
