package models

import "time"

type EntryStatus string

const (
	StatusWishlist EntryStatus = "WISHLIST"
	StatusPlaying  EntryStatus = "PLAYING"
	StatusPlayed   EntryStatus = "PLAYED"
	StatusDropped  EntryStatus = "DROPPED"
)

func (s EntryStatus) Valid() bool {
	switch s {
	case StatusWishlist, StatusPlaying, StatusPlayed, StatusDropped:
		return true
	}
	return false
}

// Entry is one user's tracking record for one game. A user has at most
// one entry per game.
type Entry struct {
	ID         int64       `json:"id" gorm:"primaryKey"`
	UserID     int64       `json:"user_id" gorm:"uniqueIndex:idx_user_game;not null"`
	GameID     int64       `json:"game_id" gorm:"uniqueIndex:idx_user_game;not null"`
	Status     EntryStatus `json:"status" gorm:"type:varchar(10);default:'WISHLIST'"`
	Score      *int        `json:"score"`
	StartedAt  *time.Time  `json:"started_at" gorm:"type:date"`
	FinishedAt *time.Time  `json:"finished_at" gorm:"type:date"`
	Notes      string      `json:"notes" gorm:"type:text"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

type PlaySession struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	EntryID     int64     `json:"entry_id" gorm:"index;not null"`
	PlayedOn    time.Time `json:"played_on" gorm:"type:date;not null"`
	DurationMin int       `json:"duration_min" gorm:"not null"`
	Note        string    `json:"note" gorm:"size:200"`
	CreatedAt   time.Time `json:"created_at"`
}
