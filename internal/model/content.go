package model

import "time"

// PlayerRanking is a leaderboard entry.
type PlayerRanking struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	PlayerName string    `json:"player_name"`
	Stars      int       `json:"stars"`
	Rank       int       `json:"rank"`
	ImageURL   *string   `json:"image_url"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HeroSetting is the storefront banner. At most one is active.
type HeroSetting struct {
	ID              int64     `json:"id"`
	BackgroundImage string    `json:"background_image"`
	VideoThumbnail  *string   `json:"video_thumbnail"`
	IsActive        bool      `json:"is_active"`
	UpdatedAt       time.Time `json:"updated_at"`
}
