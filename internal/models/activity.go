package models

import "time"

type ActivityVerb string

const (
	VerbRated         ActivityVerb = "RATED"
	VerbStatusChanged ActivityVerb = "STATUS_CHANGED"
	VerbSessionLogged ActivityVerb = "SESSION_LOGGED"
)

// Activity is an append-only audit event. Rows are never updated or
// deleted outside of entry cascade deletion.
type Activity struct {
	ID        int64        `json:"id" gorm:"primaryKey"`
	UserID    int64        `json:"user_id" gorm:"index;not null"`
	GameID    int64        `json:"game_id" gorm:"not null"`
	EntryID   *int64       `json:"entry_id"`
	Verb      ActivityVerb `json:"verb" gorm:"type:varchar(20);not null"`
	Status    *EntryStatus `json:"status" gorm:"type:varchar(10)"`
	Score     *int         `json:"score"`
	CreatedAt time.Time    `json:"created_at" gorm:"index"`
}
