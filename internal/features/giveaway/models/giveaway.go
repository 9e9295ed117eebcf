package models

import (
	"strings"
	"time"
)

// GiveawayState is the lifecycle state of a giveaway.
type GiveawayState string

const (
	GiveawayStateOpen   GiveawayState = "open"
	GiveawayStateClosed GiveawayState = "closed" // terminal, reroll only swaps the winner
)

// Giveaway is a time-bounded contest with a participant set and at most one
// recorded winner.
type Giveaway struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Image       string        `json:"image,omitempty"`
	Prize       string        `json:"prize,omitempty"`
	CashPrize   float64       `json:"cash_prize,omitempty"`
	WinnerCount int           `json:"winner_count"`
	DrawAt      *time.Time    `json:"draw_at,omitempty"` // absolute instant, UTC
	State       GiveawayState `json:"state"`
	WinnerID    *string       `json:"winner_id,omitempty"` // Twitch user id
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (g *Giveaway) IsOpen() bool {
	return g.State == GiveawayStateOpen
}

func (g *Giveaway) HasWinner() bool {
	return g.WinnerID != nil && *g.WinnerID != ""
}

// IsDue reports whether the scheduled draw time has elapsed. Both sides are
// absolute instants; never compare formatted local-time strings.
func (g *Giveaway) IsDue(now time.Time) bool {
	return g.DrawAt != nil && !g.DrawAt.After(now)
}

// GiveawayCreate carries the admin create request.
type GiveawayCreate struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Image       string     `json:"image"`
	Prize       string     `json:"prize"`
	CashPrize   float64    `json:"cash_prize" binding:"gte=0"`
	WinnerCount int        `json:"winner_count" binding:"gte=0"`
	DrawAt      *time.Time `json:"draw_at"`
}

// Validate rejects input the binding tags cannot express.
func (c *GiveawayCreate) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

// GiveawayUpdate carries the admin edit request; nil fields keep their value.
type GiveawayUpdate struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Image       *string    `json:"image,omitempty"`
	Prize       *string    `json:"prize,omitempty"`
	CashPrize   *float64   `json:"cash_prize,omitempty" binding:"omitempty,gte=0"`
	DrawAt      *time.Time `json:"draw_at,omitempty"`
}

// WinnerInfo pairs the recorded winner with the cached display name.
type WinnerInfo struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// GiveawayResponse is a giveaway annotated for a specific caller.
type GiveawayResponse struct {
	Giveaway
	ParticipantsCount int64       `json:"participants_count"`
	IsParticipating   *bool       `json:"is_participating,omitempty"` // only for authenticated callers
	Winner            *WinnerInfo `json:"winner,omitempty"`
}
