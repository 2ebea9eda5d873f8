package models

import "time"

// SportPreference associates a username with a single free-text sport.
type SportPreference struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Sport     string    `json:"sport"`
	CreatedAt time.Time `json:"created_at"`
}
