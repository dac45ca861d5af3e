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

// RelationshipState describes viewer→target from the viewer's side.
type RelationshipState string

const (
	RelationSelf     RelationshipState = "SELF"
	RelationFriends  RelationshipState = "FRIENDS"
	RelationOutgoing RelationshipState = "OUTGOING"
	RelationIncoming RelationshipState = "INCOMING"
	RelationNone     RelationshipState = "NONE"
)

type Relationship struct {
	State     RelationshipState `json:"state"`
	RequestID int64             `json:"request_id,omitempty"`
}

type FriendInfo struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type PendingRequest struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type FriendService struct {
	storage *mariadb.Storage
	log     *slog.Logger
}

func NewFriendService(s *mariadb.Storage, log *slog.Logger) *FriendService {
	return &FriendService{
		storage: s,
		log:     log,
	}
}

// SendRequest runs the request state machine keyed on the existing row
// and its direction:
//
//	pending, either direction  -> DuplicatePendingError(existing id)
//	accepted, same direction   -> ensure edge, ErrAlreadyFriends
//	declined/canceled, same    -> reopen the row as pending
//	anything else              -> insert a fresh pending row
//
// A unique-key violation on insert means a concurrent call won the
// race; the losing call re-reads and reopens instead of failing.
func (s *FriendService) SendRequest(fromID, toID int64) (*models.FriendRequest, error) {
	const op = "services.friends.SendRequest"

	if fromID == toID {
		return nil, ErrInvalidTarget
	}

	if friends, err := s.edgeExists(fromID, toID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	} else if friends {
		return nil, ErrAlreadyFriends
	}

	var pending models.FriendRequest
	err := s.storage.DB.Where(
		"((from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)) AND status = ?",
		fromID, toID, toID, fromID, models.RequestPending,
	).First(&pending).Error
	if err == nil {
		return nil, &DuplicatePendingError{RequestID: pending.ID}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var prior models.FriendRequest
	err = s.storage.DB.Where(
		"from_user_id = ? AND to_user_id = ?", fromID, toID,
	).First(&prior).Error
	if err == nil {
		switch prior.Status {
		case models.RequestAccepted:
			// The edge should exist already; recreate it if it was lost.
			if err := s.ensureEdge(s.storage.DB, fromID, toID); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			return nil, ErrAlreadyFriends
		case models.RequestDeclined, models.RequestCanceled:
			return s.reopen(&prior)
		case models.RequestPending:
			return nil, &DuplicatePendingError{RequestID: prior.ID}
		}
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	request := &models.FriendRequest{
		FromUserID: fromID,
		ToUserID:   toID,
		Status:     models.RequestPending,
		CreatedAt:  time.Now(),
	}
	if err := s.storage.DB.Create(request).Error; err != nil {
		if storage.IsDuplicateKey(err) {
			return s.reopenAfterRace(fromID, toID)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return request, nil
}

func (s *FriendService) reopen(request *models.FriendRequest) (*models.FriendRequest, error) {
	const op = "services.friends.reopen"

	request.Status = models.RequestPending
	request.RespondedAt = nil
	request.CreatedAt = time.Now()

	err := s.storage.DB.Model(&models.FriendRequest{}).
		Where("id = ?", request.ID).
		Updates(map[string]interface{}{
			"status":       models.RequestPending,
			"responded_at": nil,
			"created_at":   request.CreatedAt,
		}).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return request, nil
}

func (s *FriendService) reopenAfterRace(fromID, toID int64) (*models.FriendRequest, error) {
	const op = "services.friends.reopenAfterRace"

	var existing models.FriendRequest
	err := s.storage.DB.Where(
		"from_user_id = ? AND to_user_id = ?", fromID, toID,
	).First(&existing).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if existing.Status == models.RequestPending {
		return &existing, nil
	}
	return s.reopen(&existing)
}

// Accept creates the friendship edge and closes the request in one
// transaction. Only the recipient of a pending request may accept.
func (s *FriendService) Accept(requestID, actingUserID int64) error {
	const op = "services.friends.Accept"

	request, err := s.pendingFor(requestID)
	if err != nil {
		return err
	}
	if request.ToUserID != actingUserID {
		return storage.ErrNotFound
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

	if err := s.ensureEdge(tx, request.FromUserID, request.ToUserID); err != nil {
		tx.Rollback()
		return fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now()
	err = tx.Model(&models.FriendRequest{}).
		Where("id = ?", request.ID).
		Updates(map[string]interface{}{
			"status":       models.RequestAccepted,
			"responded_at": now,
		}).Error
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Decline is recipient-only; Cancel is sender-only.
func (s *FriendService) Decline(requestID, actingUserID int64) error {
	return s.close(requestID, actingUserID, models.RequestDeclined)
}

func (s *FriendService) Cancel(requestID, actingUserID int64) error {
	return s.close(requestID, actingUserID, models.RequestCanceled)
}

func (s *FriendService) close(requestID, actingUserID int64, status models.RequestStatus) error {
	const op = "services.friends.close"

	request, err := s.pendingFor(requestID)
	if err != nil {
		return err
	}

	switch status {
	case models.RequestDeclined:
		if request.ToUserID != actingUserID {
			return storage.ErrNotFound
		}
	case models.RequestCanceled:
		if request.FromUserID != actingUserID {
			return storage.ErrNotFound
		}
	}

	now := time.Now()
	err = s.storage.DB.Model(&models.FriendRequest{}).
		Where("id = ? AND status = ?", request.ID, models.RequestPending).
		Updates(map[string]interface{}{
			"status":       status,
			"responded_at": now,
		}).Error
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *FriendService) pendingFor(requestID int64) (*models.FriendRequest, error) {
	const op = "services.friends.pendingFor"

	var request models.FriendRequest
	err := s.storage.DB.First(&request, requestID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if request.Status != models.RequestPending {
		return nil, storage.ErrNotFound
	}

	return &request, nil
}

func (s *FriendService) Unfriend(userID, otherID int64) error {
	const op = "services.friends.Unfriend"

	a, b := models.FriendPair(userID, otherID)
	result := s.storage.DB.Where("user_a_id = ? AND user_b_id = ?", a, b).
		Delete(&models.Friendship{})
	if result.Error != nil {
		return fmt.Errorf("%s: %w", op, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFriends
	}

	return nil
}

// FriendIDsOf collects the other slot of every edge touching the user.
func (s *FriendService) FriendIDsOf(userID int64) ([]int64, error) {
	const op = "services.friends.FriendIDsOf"

	var edges []models.Friendship
	err := s.storage.DB.Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Find(&edges).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ids := make([]int64, 0, len(edges))
	for _, e := range edges {
		if e.UserAID == userID {
			ids = append(ids, e.UserBID)
		} else {
			ids = append(ids, e.UserAID)
		}
	}

	return ids, nil
}

func (s *FriendService) FriendsOf(userID int64) ([]FriendInfo, error) {
	const op = "services.friends.FriendsOf"

	ids, err := s.FriendIDsOf(userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(ids) == 0 {
		return []FriendInfo{}, nil
	}

	var friends []FriendInfo
	err = s.storage.DB.Table("profiles").
		Select("profiles.user_id, profiles.username, profiles.avatar").
		Where("profiles.user_id IN ?", ids).
		Order("profiles.username asc").
		Scan(&friends).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return friends, nil
}

// ListPending returns the pending requests in one direction, with the
// counterpart's username for display.
func (s *FriendService) ListPending(userID int64, incoming bool) ([]PendingRequest, error) {
	const op = "services.friends.ListPending"

	db := s.storage.DB.Table("friend_requests").
		Where("friend_requests.status = ?", models.RequestPending)

	if incoming {
		db = db.Select("friend_requests.id, friend_requests.from_user_id AS user_id, profiles.username, friend_requests.created_at").
			Joins("JOIN profiles ON profiles.user_id = friend_requests.from_user_id").
			Where("friend_requests.to_user_id = ?", userID)
	} else {
		db = db.Select("friend_requests.id, friend_requests.to_user_id AS user_id, profiles.username, friend_requests.created_at").
			Joins("JOIN profiles ON profiles.user_id = friend_requests.to_user_id").
			Where("friend_requests.from_user_id = ?", userID)
	}

	var requests []PendingRequest
	if err := db.Order("friend_requests.created_at desc").Scan(&requests).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return requests, nil
}

// RelationshipStatus resolves identity, then the edge, then pending
// requests in each direction.
func (s *FriendService) RelationshipStatus(viewerID, targetID int64) (*Relationship, error) {
	const op = "services.friends.RelationshipStatus"

	if viewerID == targetID {
		return &Relationship{State: RelationSelf}, nil
	}

	friends, err := s.edgeExists(viewerID, targetID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if friends {
		return &Relationship{State: RelationFriends}, nil
	}

	var request models.FriendRequest
	err = s.storage.DB.Where(
		"from_user_id = ? AND to_user_id = ? AND status = ?",
		viewerID, targetID, models.RequestPending,
	).First(&request).Error
	if err == nil {
		return &Relationship{State: RelationOutgoing, RequestID: request.ID}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = s.storage.DB.Where(
		"from_user_id = ? AND to_user_id = ? AND status = ?",
		targetID, viewerID, models.RequestPending,
	).First(&request).Error
	if err == nil {
		return &Relationship{State: RelationIncoming, RequestID: request.ID}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Relationship{State: RelationNone}, nil
}

func (s *FriendService) edgeExists(userID, otherID int64) (bool, error) {
	a, b := models.FriendPair(userID, otherID)

	var edge models.Friendship
	err := s.storage.DB.Where("user_a_id = ? AND user_b_id = ?", a, b).
		First(&edge).Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

func (s *FriendService) ensureEdge(tx *gorm.DB, userID, otherID int64) error {
	a, b := models.FriendPair(userID, otherID)

	var edge models.Friendship
	err := tx.Where("user_a_id = ? AND user_b_id = ?", a, b).First(&edge).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	err = tx.Create(&models.Friendship{UserAID: a, UserBID: b, CreatedAt: time.Now()}).Error
	if err != nil && storage.IsDuplicateKey(err) {
		return nil
	}
	return err
}
