package models

import "time"

type Game struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"size:200;not null"`
	ReleaseYear *int      `json:"release_year"`
	CoverURL    string    `json:"cover_url" gorm:"size:500"`
	Description string    `json:"description" gorm:"type:text"`
	RawgID      *int64    `json:"rawg_id" gorm:"uniqueIndex"`
	Genres      []Genre   `json:"genres" gorm:"many2many:game_genres"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Genre struct {
	ID   int64  `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:100;uniqueIndex"`
}
