package controllers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"gamejournal/internal/middleware"
	"gamejournal/internal/models"
	"gamejournal/internal/services"
	"gamejournal/internal/storage/uploads"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxAvatarBytes = 5 << 20

type ProfileServicer interface {
	GetByUserID(userID int64) (*models.Profile, error)
	GetByUsername(username string) (*models.Profile, error)
	UpdateUsername(userID int64, username string) (*models.Profile, error)
	SetAvatar(userID int64, filename string) error
	Public(username string, viewerID int64) (*services.PublicProfile, error)
}

type FriendReader interface {
	FriendsOf(userID int64) ([]services.FriendInfo, error)
}

type ProfileController struct {
	service ProfileServicer
	friends FriendReader
	log     *slog.Logger
	uploads uploads.IUploads
}

func NewProfileController(s ProfileServicer, friends FriendReader, log *slog.Logger, u uploads.IUploads) *ProfileController {
	return &ProfileController{
		service: s,
		friends: friends,
		log:     log,
		uploads: u,
	}
}

func (c *ProfileController) Whoami(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.profile.Whoami"

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	profile, err := c.service.GetByUserID(userID)
	if err != nil {
		c.log.Error("failed to get profile",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// PublicProfile godoc
// @Summary      Public profile by username
// @Tags         profile
// @Produce      json
// @Param        username  path  string  true  "Username"
// @Success      200  {object}  services.PublicProfile
// @Failure      404  {object}  errorResponse
// @Router       /users/{username} [get]
func (c *ProfileController) PublicProfile(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.profile.PublicProfile"

	username := chi.URLParam(r, "username")

	// Anonymous viewers get no relationship block.
	viewerID, _ := middleware.UserIDFromContext(r.Context())

	profile, err := c.service.Public(username, viewerID)
	if err != nil {
		c.log.Error("failed to get public profile",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

func (c *ProfileController) PublicFriends(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.profile.PublicFriends"

	username := chi.URLParam(r, "username")

	profile, err := c.service.GetByUsername(username)
	if err != nil {
		c.log.Error("failed to get public profile",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondError(w, err)
		return
	}

	friends, err := c.friends.FriendsOf(profile.UserID)
	if err != nil {
		c.log.Error("failed to list friends",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, friends)
}

type updateUsernameBody struct {
	Username string `json:"username"`
}

func (c *ProfileController) UpdateUsername(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.profile.UpdateUsername"

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var body updateUsernameBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	profile, err := c.service.UpdateUsername(userID, body.Username)
	if err != nil {
		c.log.Error(ErrUpdate.Error(),
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

func (c *ProfileController) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.profile.UploadAvatar"

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "cannot parse form"})
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "avatar not provided"})
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		c.log.Error("failed to read avatar",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to read avatar"})
		return
	}

	filename := uuid.New().String() + filepath.Ext(header.Filename)
	if err := c.uploads.SaveImage(imageData, filename); err != nil {
		c.log.Error("failed to save avatar",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to save avatar"})
		return
	}

	if err := c.service.SetAvatar(userID, filename); err != nil {
		_ = c.uploads.DeleteImage(filename)
		c.log.Error(ErrUpdate.Error(),
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"avatar": filename})
}
