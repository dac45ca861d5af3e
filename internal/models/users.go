package models

import "time"

// Profile mirrors the identity service's user record. The identity
// service owns authentication; a profile row is upserted on first
// authenticated request.
type Profile struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	UserID    int64     `json:"user_id" gorm:"uniqueIndex;not null"`
	Username  string    `json:"username" gorm:"size:20;uniqueIndex;not null"`
	Avatar    string    `json:"avatar" gorm:"size:500"`
	CreatedAt time.Time `json:"created_at"`
}
