package models

import "time"

// User is a Twitch viewer known to the panel. The display name is a cache
// refreshed opportunistically on join/lookup; it may go stale between visits.
type User struct {
	ID          string    `json:"id"` // Twitch user id
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
