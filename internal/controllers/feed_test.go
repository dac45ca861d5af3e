package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gamejournal/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockFeedService struct {
	mock.Mock
}

func (m *MockFeedService) Feed(userID int64, limit, offset int) ([]services.FeedItem, error) {
	args := m.Called(userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.FeedItem), args.Error(1)
}

func TestFeedController_Feed(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockService := &MockFeedService{}
		ctrl := NewFeedController(mockService, testLogger())

		mockService.On("Feed", int64(1), 0, 0).
			Return([]services.FeedItem{{ID: 30, Username: "bob", GameTitle: "Hades", Verb: "RATED"}}, nil)

		req := authedRequest("GET", "/api/feed", nil, 1)
		w := httptest.NewRecorder()

		ctrl.Feed(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var items []services.FeedItem
		assert.NoError(t, json.NewDecoder(w.Body).Decode(&items))
		assert.Len(t, items, 1)
		assert.Equal(t, "bob", items[0].Username)
		mockService.AssertExpectations(t)
	})

	t.Run("passes pagination through", func(t *testing.T) {
		mockService := &MockFeedService{}
		ctrl := NewFeedController(mockService, testLogger())

		mockService.On("Feed", int64(1), 10, 20).
			Return([]services.FeedItem{}, nil)

		req := authedRequest("GET", "/api/feed?limit=10&offset=20", nil, 1)
		w := httptest.NewRecorder()

		ctrl.Feed(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("garbage pagination falls back to defaults", func(t *testing.T) {
		mockService := &MockFeedService{}
		ctrl := NewFeedController(mockService, testLogger())

		mockService.On("Feed", int64(1), 0, 0).
			Return([]services.FeedItem{}, nil)

		req := authedRequest("GET", "/api/feed?limit=abc&offset=-5", nil, 1)
		w := httptest.NewRecorder()

		ctrl.Feed(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("unauthorized", func(t *testing.T) {
		ctrl := NewFeedController(&MockFeedService{}, testLogger())

		req := httptest.NewRequest("GET", "/api/feed", nil)
		w := httptest.NewRecorder()

		ctrl.Feed(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
