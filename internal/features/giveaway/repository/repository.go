package repository

import (
	"context"
	"errors"

	"twitch-giveaway-backend/internal/features/giveaway/models"
	usermodels "twitch-giveaway-backend/internal/features/user/models"
)

var (
	ErrGiveawayNotFound     = errors.New("giveaway not found")
	ErrDuplicateParticipant = errors.New("user already participates in giveaway")
)

// GiveawayRepository is the persistence contract for giveaways, participants
// and winners. The store is the single source of truth; state transitions go
// through the conditional updates below so that two in-flight operations can
// never both close or draw the same giveaway.
type GiveawayRepository interface {
	Create(ctx context.Context, giveaway *models.Giveaway) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Giveaway, error)
	Update(ctx context.Context, giveaway *models.Giveaway) error
	Delete(ctx context.Context, id int64) error

	// List returns giveaways, newest first. openOnly filters to open state.
	List(ctx context.Context, openOnly bool) ([]*models.Giveaway, error)

	// ListDueCandidates returns open giveaways with a scheduled draw time,
	// ordered by draw time ascending. The caller compares draw_at against
	// its own clock; the query deliberately does not.
	ListDueCandidates(ctx context.Context) ([]*models.Giveaway, error)

	// CloseIfOpen transitions open -> closed. Returns false when the
	// giveaway was not open (already closed or missing).
	CloseIfOpen(ctx context.Context, id int64) (bool, error)

	// AssignWinner closes the giveaway and records the winner in one
	// statement. It succeeds only while the giveaway is open or closed
	// without a winner. Returns false otherwise.
	AssignWinner(ctx context.Context, id int64, userID string) (bool, error)

	// OverwriteWinner replaces the recorded winner of a closed giveaway.
	// Returns false unless the giveaway is closed with a winner on record.
	OverwriteWinner(ctx context.Context, id int64, userID string) (bool, error)

	AddParticipant(ctx context.Context, giveawayID int64, userID string) error
	RemoveParticipant(ctx context.Context, giveawayID int64, userID string) (bool, error)
	IsParticipant(ctx context.Context, giveawayID int64, userID string) (bool, error)
	GetParticipants(ctx context.Context, giveawayID int64) ([]string, error)
	GetParticipantUsers(ctx context.Context, giveawayID int64) ([]*usermodels.User, error)
	GetParticipantsCount(ctx context.Context, giveawayID int64) (int64, error)

	// ParticipantCounts returns live COUNT(*) per giveaway id.
	ParticipantCounts(ctx context.Context, giveawayIDs []int64) (map[int64]int64, error)

	// ParticipationSet reports which of the given giveaways the user joined.
	ParticipationSet(ctx context.Context, userID string, giveawayIDs []int64) (map[int64]bool, error)
}
