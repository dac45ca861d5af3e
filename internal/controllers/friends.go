package controllers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"gamejournal/internal/middleware"
	"gamejournal/internal/models"
	"gamejournal/internal/services"
)

type FriendServicer interface {
	SendRequest(fromID, toID int64) (*models.FriendRequest, error)
	Accept(requestID, actingUserID int64) error
	Decline(requestID, actingUserID int64) error
	Cancel(requestID, actingUserID int64) error
	Unfriend(userID, otherID int64) error
	FriendsOf(userID int64) ([]services.FriendInfo, error)
	ListPending(userID int64, incoming bool) ([]services.PendingRequest, error)
}

type FriendController struct {
	service FriendServicer
	log     *slog.Logger
}

func NewFriendController(s FriendServicer, log *slog.Logger) *FriendController {
	return &FriendController{
		service: s,
		log:     log,
	}
}

// ListRequests godoc
// @Summary      List own pending friend requests
// @Tags         friends
// @Produce      json
// @Param        direction  query  string  true  "incoming or outgoing"
// @Success      200  {array}  services.PendingRequest
// @Router       /friend-requests [get]
func (c *FriendController) ListRequests(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.friends.ListRequests"

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	direction := r.URL.Query().Get("direction")
	if direction != "incoming" && direction != "outgoing" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "direction must be incoming or outgoing"})
		return
	}

	requests, err := c.service.ListPending(userID, direction == "incoming")
	if err != nil {
		c.log.Error("failed to list requests",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, requests)
}

type sendRequestBody struct {
	ToUserID int64 `json:"to_user_id"`
}

// SendRequest godoc
// @Summary      Send a friend request
// @Tags         friends
// @Accept       json
// @Produce      json
// @Success      201  {object}  models.FriendRequest
// @Failure      400  {object}  errorResponse  "self target"
// @Failure      409  {object}  errorResponse  "already friends or duplicate pending"
// @Router       /friend-requests [post]
func (c *FriendController) SendRequest(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.friends.SendRequest"

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var body sendRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ToUserID <= 0 {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	request, err := c.service.SendRequest(userID, body.ToUserID)
	if err != nil {
		c.log.Error("failed to send request",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, request)
}

func (c *FriendController) Accept(w http.ResponseWriter, r *http.Request) {
	c.respond(w, r, "controllers.friends.Accept", c.service.Accept)
}

func (c *FriendController) Decline(w http.ResponseWriter, r *http.Request) {
	c.respond(w, r, "controllers.friends.Decline", c.service.Decline)
}

func (c *FriendController) Cancel(w http.ResponseWriter, r *http.Request) {
	c.respond(w, r, "controllers.friends.Cancel", c.service.Cancel)
}

func (c *FriendController) respond(w http.ResponseWriter, r *http.Request, op string, action func(requestID, actingUserID int64) error) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	requestID, err := pathID(r, "id")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request id"})
		return
	}

	if err := action(requestID, userID); err != nil {
		c.log.Error("request transition failed",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (c *FriendController) ListFriends(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.friends.ListFriends"

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	friends, err := c.service.FriendsOf(userID)
	if err != nil {
		c.log.Error("failed to list friends",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, friends)
}

func (c *FriendController) Unfriend(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.friends.Unfriend"

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	otherID, err := pathID(r, "userID")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid user id"})
		return
	}

	if err := c.service.Unfriend(userID, otherID); err != nil {
		c.log.Error("failed to unfriend",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
