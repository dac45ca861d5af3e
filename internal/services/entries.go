package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gamejournal/internal/models"
	"gamejournal/internal/storage"
	"gamejournal/internal/storage/mariadb"

	"gorm.io/gorm"
)

type GameBrief struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	ReleaseYear *int   `json:"release_year"`
}

type EntryResponse struct {
	ID           int64              `json:"id"`
	Game         GameBrief          `json:"game"`
	Status       models.EntryStatus `json:"status"`
	Score        *int               `json:"score"`
	StartedAt    *time.Time         `json:"started_at"`
	FinishedAt   *time.Time         `json:"finished_at"`
	Notes        string             `json:"notes"`
	UpdatedAt    time.Time          `json:"updated_at"`
	TotalMinutes int                `json:"total_minutes"`
}

type CreateEntryRequest struct {
	GameID     int64              `json:"game_id"`
	Status     models.EntryStatus `json:"status"`
	Score      *int               `json:"score"`
	StartedAt  *time.Time         `json:"started_at"`
	FinishedAt *time.Time         `json:"finished_at"`
	Notes      string             `json:"notes"`
}

// UpdateEntryRequest is a partial patch; nil fields keep their value.
type UpdateEntryRequest struct {
	Status     *models.EntryStatus `json:"status"`
	Score      *int                `json:"score"`
	StartedAt  *time.Time          `json:"started_at"`
	FinishedAt *time.Time          `json:"finished_at"`
	Notes      *string             `json:"notes"`
}

type CreateSessionRequest struct {
	PlayedOn    time.Time `json:"played_on"`
	DurationMin int       `json:"duration_min"`
	Note        string    `json:"note"`
}

type UserStats struct {
	Total        int64 `json:"total"`
	Wishlist     int64 `json:"wishlist"`
	Playing      int64 `json:"playing"`
	Played       int64 `json:"played"`
	Dropped      int64 `json:"dropped"`
	TotalMinutes int   `json:"total_minutes"`
}

type EntryService struct {
	storage *mariadb.Storage
	log     *slog.Logger
}

func NewEntryService(s *mariadb.Storage, log *slog.Logger) *EntryService {
	return &EntryService{
		storage: s,
		log:     log,
	}
}

func validateScore(score *int) error {
	if score != nil && (*score < 0 || *score > 10) {
		return &ValidationError{Field: "score", Reason: "must be between 0 and 10"}
	}
	return nil
}

func validateDates(started, finished *time.Time) error {
	if started != nil && finished != nil && finished.Before(*started) {
		return &ValidationError{Field: "finished_at", Reason: "finish date cannot be before start date"}
	}
	return nil
}

// ListForUser returns the user's entries newest-first, each with a
// minimal game representation and the summed session minutes.
func (s *EntryService) ListForUser(userID int64, gameID *int64, status *models.EntryStatus) ([]EntryResponse, error) {
	const op = "services.entries.ListForUser"

	db := s.storage.DB.Where("user_id = ?", userID)
	if gameID != nil {
		db = db.Where("game_id = ?", *gameID)
	}
	if status != nil {
		db = db.Where("status = ?", *status)
	}

	var entries []models.Entry
	if err := db.Order("updated_at desc").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(entries) == 0 {
		return []EntryResponse{}, nil
	}

	entryIDs := make([]int64, 0, len(entries))
	gameIDs := make([]int64, 0, len(entries))
	for _, e := range entries {
		entryIDs = append(entryIDs, e.ID)
		gameIDs = append(gameIDs, e.GameID)
	}

	games, err := s.gamesByID(gameIDs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	minutes, err := s.minutesByEntry(entryIDs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	results := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		results = append(results, EntryResponse{
			ID:           e.ID,
			Game:         games[e.GameID],
			Status:       e.Status,
			Score:        e.Score,
			StartedAt:    e.StartedAt,
			FinishedAt:   e.FinishedAt,
			Notes:        e.Notes,
			UpdatedAt:    e.UpdatedAt,
			TotalMinutes: minutes[e.ID],
		})
	}

	return results, nil
}

func (s *EntryService) gamesByID(ids []int64) (map[int64]GameBrief, error) {
	var games []models.Game
	if err := s.storage.DB.Where("id IN ?", ids).Find(&games).Error; err != nil {
		return nil, err
	}

	byID := make(map[int64]GameBrief, len(games))
	for _, g := range games {
		byID[g.ID] = GameBrief{ID: g.ID, Title: g.Title, ReleaseYear: g.ReleaseYear}
	}
	return byID, nil
}

func (s *EntryService) minutesByEntry(entryIDs []int64) (map[int64]int, error) {
	var sums []struct {
		EntryID int64
		Total   int
	}
	err := s.storage.DB.Table("play_sessions").
		Select("entry_id, COALESCE(SUM(duration_min), 0) AS total").
		Where("entry_id IN ?", entryIDs).
		Group("entry_id").
		Scan(&sums).Error
	if err != nil {
		return nil, err
	}

	byEntry := make(map[int64]int, len(sums))
	for _, s := range sums {
		byEntry[s.EntryID] = s.Total
	}
	return byEntry, nil
}

// Create inserts the entry and, in the same transaction, records the
// activities implied by the supplied fields.
func (s *EntryService) Create(userID int64, req CreateEntryRequest) (*models.Entry, error) {
	const op = "services.entries.Create"

	status := req.Status
	if status == "" {
		status = models.StatusWishlist
	}
	if !status.Valid() {
		return nil, &ValidationError{Field: "status", Reason: "unknown status"}
	}
	if err := validateScore(req.Score); err != nil {
		return nil, err
	}
	if err := validateDates(req.StartedAt, req.FinishedAt); err != nil {
		return nil, err
	}

	var game models.Game
	if err := s.storage.DB.First(&game, req.GameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ValidationError{Field: "game_id", Reason: "game does not exist"}
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var existing models.Entry
	err := s.storage.DB.Where("user_id = ? AND game_id = ?", userID, req.GameID).
		First(&existing).Error
	if err == nil {
		return nil, storage.ErrExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entry := &models.Entry{
		UserID:     userID,
		GameID:     req.GameID,
		Status:     status,
		Score:      req.Score,
		StartedAt:  req.StartedAt,
		FinishedAt: req.FinishedAt,
		Notes:      req.Notes,
		UpdatedAt:  time.Now(),
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

	if err := tx.Create(entry).Error; err != nil {
		tx.Rollback()
		if storage.IsDuplicateKey(err) {
			return nil, storage.ErrExists
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entryStatus := entry.Status
	if err := s.record(tx, entry, models.VerbStatusChanged, &entryStatus, nil); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if entry.Score != nil {
		if err := s.record(tx, entry, models.VerbRated, nil, entry.Score); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return entry, nil
}

// Update applies a partial patch. Activities fire only for fields that
// actually changed; a write that changes nothing records nothing.
func (s *EntryService) Update(userID, entryID int64, req UpdateEntryRequest) (*models.Entry, error) {
	const op = "services.entries.Update"

	entry, err := s.ownedEntry(userID, entryID)
	if err != nil {
		return nil, err
	}

	statusChanged := false
	if req.Status != nil && *req.Status != entry.Status {
		if !req.Status.Valid() {
			return nil, &ValidationError{Field: "status", Reason: "unknown status"}
		}
		entry.Status = *req.Status
		statusChanged = true
	}

	scoreChanged := false
	if req.Score != nil {
		if err := validateScore(req.Score); err != nil {
			return nil, err
		}
		if entry.Score == nil || *entry.Score != *req.Score {
			entry.Score = req.Score
			scoreChanged = true
		}
	}

	if req.StartedAt != nil {
		entry.StartedAt = req.StartedAt
	}
	if req.FinishedAt != nil {
		entry.FinishedAt = req.FinishedAt
	}
	if err := validateDates(entry.StartedAt, entry.FinishedAt); err != nil {
		return nil, err
	}
	if req.Notes != nil {
		entry.Notes = *req.Notes
	}

	entry.UpdatedAt = time.Now()

	tx := s.storage.DB.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("%s: %w", op, tx.Error)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Save(entry).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if statusChanged {
		entryStatus := entry.Status
		if err := s.record(tx, entry, models.VerbStatusChanged, &entryStatus, nil); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	if scoreChanged {
		if err := s.record(tx, entry, models.VerbRated, nil, entry.Score); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return entry, nil
}

// Delete removes the entry with its sessions and activities.
func (s *EntryService) Delete(userID, entryID int64) error {
	const op = "services.entries.Delete"

	entry, err := s.ownedEntry(userID, entryID)
	if err != nil {
		return err
	}

	tx := s.storage.DB.Begin()
	if tx.Error != nil {
		return fmt.Errorf("%s: %w", op, tx.Error)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("entry_id = ?", entry.ID).Delete(&models.PlaySession{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Where("entry_id = ?", entry.ID).Delete(&models.Activity{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Delete(&models.Entry{}, entry.ID).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *EntryService) ListSessions(userID, entryID int64) ([]models.PlaySession, error) {
	const op = "services.entries.ListSessions"

	entry, err := s.ownedEntry(userID, entryID)
	if err != nil {
		return nil, err
	}

	var sessions []models.PlaySession
	err = s.storage.DB.Where("entry_id = ?", entry.ID).
		Order("played_on desc, id desc").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sessions, nil
}

func (s *EntryService) CreateSession(userID, entryID int64, req CreateSessionRequest) (*models.PlaySession, error) {
	const op = "services.entries.CreateSession"

	if req.DurationMin <= 0 {
		return nil, &ValidationError{Field: "duration_min", Reason: "must be a positive integer"}
	}
	if req.PlayedOn.IsZero() {
		return nil, &ValidationError{Field: "played_on", Reason: "is required"}
	}

	entry, err := s.ownedEntry(userID, entryID)
	if err != nil {
		return nil, err
	}

	session := &models.PlaySession{
		EntryID:     entry.ID,
		PlayedOn:    req.PlayedOn,
		DurationMin: req.DurationMin,
		Note:        req.Note,
		CreatedAt:   time.Now(),
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

	if err := tx.Create(session).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.record(tx, entry, models.VerbSessionLogged, nil, nil); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return session, nil
}

func (s *EntryService) DeleteSession(userID, entryID, sessionID int64) error {
	const op = "services.entries.DeleteSession"

	entry, err := s.ownedEntry(userID, entryID)
	if err != nil {
		return err
	}

	result := s.storage.DB.Where("id = ? AND entry_id = ?", sessionID, entry.ID).
		Delete(&models.PlaySession{})
	if result.Error != nil {
		return fmt.Errorf("%s: %w", op, result.Error)
	}
	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s *EntryService) Stats(userID int64) (*UserStats, error) {
	const op = "services.entries.Stats"

	stats := &UserStats{}

	var counts []struct {
		Status models.EntryStatus
		Count  int64
	}
	err := s.storage.DB.Table("entries").
		Select("status, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, c := range counts {
		stats.Total += c.Count
		switch c.Status {
		case models.StatusWishlist:
			stats.Wishlist = c.Count
		case models.StatusPlaying:
			stats.Playing = c.Count
		case models.StatusPlayed:
			stats.Played = c.Count
		case models.StatusDropped:
			stats.Dropped = c.Count
		}
	}

	var minutes struct{ Total int }
	err = s.storage.DB.Table("play_sessions").
		Select("COALESCE(SUM(play_sessions.duration_min), 0) AS total").
		Joins("JOIN entries ON entries.id = play_sessions.entry_id").
		Where("entries.user_id = ?", userID).
		Scan(&minutes).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	stats.TotalMinutes = minutes.Total

	return stats, nil
}

func (s *EntryService) ownedEntry(userID, entryID int64) (*models.Entry, error) {
	const op = "services.entries.ownedEntry"

	var entry models.Entry
	err := s.storage.DB.Where("id = ? AND user_id = ?", entryID, userID).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 404 for foreign entries too, to avoid leaking their existence.
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &entry, nil
}

// record appends one activity row inside the caller's transaction.
func (s *EntryService) record(tx *gorm.DB, entry *models.Entry, verb models.ActivityVerb, status *models.EntryStatus, score *int) error {
	entryID := entry.ID
	activity := &models.Activity{
		UserID:    entry.UserID,
		GameID:    entry.GameID,
		EntryID:   &entryID,
		Verb:      verb,
		Status:    status,
		Score:     score,
		CreatedAt: time.Now(),
	}
	return tx.Create(activity).Error
}
