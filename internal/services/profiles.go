package services

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"gamejournal/internal/models"
	"gamejournal/internal/storage"
	"gamejournal/internal/storage/mariadb"

	"gorm.io/gorm"
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)

type PublicEntry struct {
	ID        int64              `json:"id"`
	Status    models.EntryStatus `json:"status"`
	UpdatedAt time.Time          `json:"updated_at"`
	Game      GameBrief          `json:"game"`
}

type PublicProfile struct {
	UserID        int64         `json:"user_id"`
	Username      string        `json:"username"`
	Avatar        string        `json:"avatar"`
	FriendCount   int           `json:"friend_count"`
	FriendPreview []FriendInfo  `json:"friend_preview"`
	RecentEntries []PublicEntry `json:"recent_entries"`
	Relationship  *Relationship `json:"relationship,omitempty"`
}

type ProfileService struct {
	storage *mariadb.Storage
	friends *FriendService
	log     *slog.Logger
}

func NewProfileService(s *mariadb.Storage, friends *FriendService, log *slog.Logger) *ProfileService {
	return &ProfileService{
		storage: s,
		friends: friends,
		log:     log,
	}
}

// EnsureProfile upserts the local row mirroring the identity service's
// user. Called from the auth middleware on every authenticated request.
func (s *ProfileService) EnsureProfile(userID int64, username string) error {
	const op = "services.profiles.EnsureProfile"

	var profile models.Profile
	err := s.storage.DB.Where("user_id = ?", userID).First(&profile).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}

	profile = models.Profile{UserID: userID, Username: username, CreatedAt: time.Now()}
	if err := s.storage.DB.Create(&profile).Error; err != nil {
		if storage.IsDuplicateKey(err) {
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *ProfileService) GetByUserID(userID int64) (*models.Profile, error) {
	const op = "services.profiles.GetByUserID"

	var profile models.Profile
	err := s.storage.DB.Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &profile, nil
}

func (s *ProfileService) GetByUsername(username string) (*models.Profile, error) {
	const op = "services.profiles.GetByUsername"

	var profile models.Profile
	err := s.storage.DB.Where("LOWER(username) = ?", strings.ToLower(username)).
		First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &profile, nil
}

// UpdateUsername validates the new name and enforces case-insensitive
// uniqueness.
func (s *ProfileService) UpdateUsername(userID int64, username string) (*models.Profile, error) {
	const op = "services.profiles.UpdateUsername"

	if !usernameRe.MatchString(username) {
		return nil, &ValidationError{
			Field:  "username",
			Reason: "must be 3-20 characters, letters, digits and underscore only",
		}
	}

	var taken models.Profile
	err := s.storage.DB.Where("LOWER(username) = ? AND user_id <> ?",
		strings.ToLower(username), userID).First(&taken).Error
	if err == nil {
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	profile, err := s.GetByUserID(userID)
	if err != nil {
		return nil, err
	}

	profile.Username = username
	if err := s.storage.DB.Save(profile).Error; err != nil {
		if storage.IsDuplicateKey(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return profile, nil
}

func (s *ProfileService) SetAvatar(userID int64, filename string) error {
	const op = "services.profiles.SetAvatar"

	profile, err := s.GetByUserID(userID)
	if err != nil {
		return err
	}

	profile.Avatar = filename
	if err := s.storage.DB.Save(profile).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Public returns the slim profile view: recent entries without notes,
// a friend preview, and the viewer's relationship when authenticated
// (viewerID <= 0 means anonymous).
func (s *ProfileService) Public(username string, viewerID int64) (*PublicProfile, error) {
	const op = "services.profiles.Public"

	profile, err := s.GetByUsername(username)
	if err != nil {
		return nil, err
	}

	friends, err := s.friends.FriendsOf(profile.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	preview := friends
	if len(preview) > 6 {
		preview = preview[:6]
	}

	var rows []struct {
		ID          int64
		Status      models.EntryStatus
		UpdatedAt   time.Time
		GameID      int64
		Title       string
		ReleaseYear *int
	}
	err = s.storage.DB.Table("entries").
		Select("entries.id, entries.status, entries.updated_at, games.id AS game_id, games.title, games.release_year").
		Joins("JOIN games ON games.id = entries.game_id").
		Where("entries.user_id = ?", profile.UserID).
		Order("entries.updated_at desc").
		Limit(10).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	recent := make([]PublicEntry, 0, len(rows))
	for _, r := range rows {
		recent = append(recent, PublicEntry{
			ID:        r.ID,
			Status:    r.Status,
			UpdatedAt: r.UpdatedAt,
			Game:      GameBrief{ID: r.GameID, Title: r.Title, ReleaseYear: r.ReleaseYear},
		})
	}

	result := &PublicProfile{
		UserID:        profile.UserID,
		Username:      profile.Username,
		Avatar:        profile.Avatar,
		FriendCount:   len(friends),
		FriendPreview: preview,
		RecentEntries: recent,
	}

	if viewerID > 0 {
		relationship, err := s.friends.RelationshipStatus(viewerID, profile.UserID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result.Relationship = relationship
	}

	return result, nil
}
