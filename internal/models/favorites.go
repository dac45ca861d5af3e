package models

// MaxFavorites caps the number of pinned games per user.
const MaxFavorites = 9

// FavoriteGame is a pinned game with an explicit display position.
// The whole set is replaced on update, never patched in place.
type FavoriteGame struct {
	ID       int64 `json:"id" gorm:"primaryKey"`
	UserID   int64 `json:"user_id" gorm:"uniqueIndex:idx_user_favorite;not null"`
	GameID   int64 `json:"game_id" gorm:"uniqueIndex:idx_user_favorite;not null"`
	Position int   `json:"position" gorm:"not null"`
}
