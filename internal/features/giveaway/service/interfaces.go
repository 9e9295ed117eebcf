package service

import (
	"context"

	"twitch-giveaway-backend/internal/features/giveaway/models"
	usermodels "twitch-giveaway-backend/internal/features/user/models"
)

// GiveawayService owns the giveaway lifecycle: creation, participation,
// closing, winner draws and rerolls. The HTTP layer and the auto-draw
// scheduler both go through this interface.
type GiveawayService interface {
	Create(ctx context.Context, input *models.GiveawayCreate) (*models.Giveaway, error)
	GetByID(ctx context.Context, id int64, viewerID string) (*models.GiveawayResponse, error)
	List(ctx context.Context, viewerID string, isAdmin bool) ([]*models.GiveawayResponse, error)
	Update(ctx context.Context, id int64, input *models.GiveawayUpdate) (*models.Giveaway, error)
	Delete(ctx context.Context, id int64) error

	Join(ctx context.Context, id int64, userID, displayName string) error
	Leave(ctx context.Context, id int64, userID string) error
	Participants(ctx context.Context, id int64) ([]*usermodels.User, error)

	Close(ctx context.Context, id int64) error
	DrawWinner(ctx context.Context, id int64) (*models.WinnerInfo, error)
	RerollWinner(ctx context.Context, id int64) (*models.WinnerInfo, error)
}

// Notifier receives committed draw outcomes. Implementations must not block
// the caller; delivery failures stay on the notification side.
type Notifier interface {
	NotifyWinner(giveaway *models.Giveaway, winner *usermodels.User, participants int64, reroll bool)
}

// DrawGuard grants per-giveaway mutual exclusion for the close/draw/reroll
// path, so only one in-flight operation can transition a giveaway.
type DrawGuard interface {
	TryLock(ctx context.Context, giveawayID int64) (bool, error)
	Unlock(ctx context.Context, giveawayID int64)
}
