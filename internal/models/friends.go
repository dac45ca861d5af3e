package models

import "time"

// Friendship is an undirected edge. The pair is normalized before
// persistence: UserAID < UserBID always holds, so (A,B) and (B,A)
// can never both exist.
type Friendship struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	UserAID   int64     `json:"user_a_id" gorm:"uniqueIndex:idx_friend_pair;not null"`
	UserBID   int64     `json:"user_b_id" gorm:"uniqueIndex:idx_friend_pair;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// FriendPair returns the canonical slot order for a friendship edge.
func FriendPair(a, b int64) (int64, int64) {
	if a < b {
		return a, b
	}
	return b, a
}

type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestAccepted RequestStatus = "ACCEPTED"
	RequestDeclined RequestStatus = "DECLINED"
	RequestCanceled RequestStatus = "CANCELED"
)

// FriendRequest keeps at most one row per direction; a declined or
// canceled row is reopened by a fresh request instead of inserting a
// duplicate.
type FriendRequest struct {
	ID          int64         `json:"id" gorm:"primaryKey"`
	FromUserID  int64         `json:"from_user_id" gorm:"uniqueIndex:idx_request_pair;not null"`
	ToUserID    int64         `json:"to_user_id" gorm:"uniqueIndex:idx_request_pair;not null"`
	Status      RequestStatus `json:"status" gorm:"type:varchar(10);default:'PENDING'"`
	CreatedAt   time.Time     `json:"created_at"`
	RespondedAt *time.Time    `json:"responded_at"`
}
