package service

import (
	"context"
	"sync"
	"time"

	appErrors "twitch-giveaway-backend/internal/common/errors"
	"twitch-giveaway-backend/internal/common/logger"
	"twitch-giveaway-backend/internal/features/giveaway/repository"
)

// Clock supplies the current instant. The scheduler compares scheduled draw
// times against this single source, never against database-side time.
type Clock func() time.Time

// AutoDrawService periodically draws winners for giveaways whose scheduled
// draw time has elapsed. One pass runs at a time; giveaways are processed
// sequentially in draw-time order, and a failure on one never blocks the rest.
type AutoDrawService struct {
	ctx      context.Context
	cancel   context.CancelFunc
	repo     repository.GiveawayRepository
	service  GiveawayService
	clock    Clock
	interval time.Duration
	wg       sync.WaitGroup
}

func NewAutoDrawService(repo repository.GiveawayRepository, service GiveawayService, interval time.Duration, clock Clock) *AutoDrawService {
	ctx, cancel := context.WithCancel(context.Background())
	if clock == nil {
		clock = time.Now
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &AutoDrawService{
		ctx:      ctx,
		cancel:   cancel,
		repo:     repo,
		service:  service,
		clock:    clock,
		interval: interval,
	}
}

func (s *AutoDrawService) Start() {
	logger.Info().Dur("interval", s.interval).Msg("Starting auto-draw service")
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.RunOnce(s.ctx); err != nil {
					logger.Error().Err(err).Msg("Auto-draw pass failed")
				}
			case <-s.ctx.Done():
				return
			}
		}
	}()
}

func (s *AutoDrawService) Stop() {
	logger.Info().Msg("Stopping auto-draw service")
	s.cancel()
	s.wg.Wait()
	logger.Info().Msg("Auto-draw service stopped")
}

// RunOnce executes a single scheduler pass: load open giveaways with a
// scheduled draw, filter the due ones against the injected clock, then close
// or draw each in order. Also serves the manual check endpoint.
func (s *AutoDrawService) RunOnce(ctx context.Context) error {
	candidates, err := s.repo.ListDueCandidates(ctx)
	if err != nil {
		return appErrors.NewDatabaseError("list due giveaways", err)
	}

	now := s.clock()
	processed := 0

	for _, giveaway := range candidates {
		if !giveaway.IsDue(now) {
			continue
		}
		processed++
		s.processDue(ctx, giveaway.ID)
	}

	if processed > 0 {
		logger.Info().Int("processed", processed).Msg("Auto-draw pass completed")
	}
	return nil
}

func (s *AutoDrawService) processDue(ctx context.Context, giveawayID int64) {
	winner, err := s.service.DrawWinner(ctx, giveawayID)
	if err != nil {
		appErr, ok := appErrors.AsAppError(err)
		switch {
		case ok && appErr.Code == appErrors.ErrCodeNoParticipants:
			logger.Info().
				Int64("giveaway_id", giveawayID).
				Msg("Auto-draw: no participants, giveaway closed without winner")
		case ok && appErr.Code == appErrors.ErrCodeInvalidState:
			// Another actor drew between listing and processing.
			logger.Debug().
				Int64("giveaway_id", giveawayID).
				Msg("Auto-draw: giveaway already processed")
		default:
			logger.Error().Err(err).
				Int64("giveaway_id", giveawayID).
				Msg("Auto-draw: failed to draw winner")
		}
		return
	}

	logger.Info().
		Int64("giveaway_id", giveawayID).
		Str("winner_id", winner.UserID).
		Msg("Auto-draw: winner drawn")
}
