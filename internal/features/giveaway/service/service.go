package service

import (
	"context"
	"errors"
	"fmt"

	appErrors "twitch-giveaway-backend/internal/common/errors"
	"twitch-giveaway-backend/internal/common/logger"
	"twitch-giveaway-backend/internal/features/giveaway/models"
	"twitch-giveaway-backend/internal/features/giveaway/repository"
	usermodels "twitch-giveaway-backend/internal/features/user/models"
	userrepo "twitch-giveaway-backend/internal/features/user/repository"
	"twitch-giveaway-backend/internal/utils/random"
)

type giveawayService struct {
	repo     repository.GiveawayRepository
	users    userrepo.UserRepository
	notifier Notifier
	guard    DrawGuard
}

// NewGiveawayService wires the lifecycle service. The guard serializes
// close/draw/reroll per giveaway; the notifier receives committed outcomes.
func NewGiveawayService(
	repo repository.GiveawayRepository,
	users userrepo.UserRepository,
	notifier Notifier,
	guard DrawGuard,
) GiveawayService {
	return &giveawayService{
		repo:     repo,
		users:    users,
		notifier: notifier,
		guard:    guard,
	}
}

func (s *giveawayService) Create(ctx context.Context, input *models.GiveawayCreate) (*models.Giveaway, error) {
	if err := input.Validate(); err != nil {
		return nil, appErrors.NewValidationError("title", "must not be empty")
	}

	winnerCount := input.WinnerCount
	if winnerCount <= 0 {
		winnerCount = 1
	}

	giveaway := &models.Giveaway{
		Title:       input.Title,
		Description: input.Description,
		Image:       input.Image,
		Prize:       input.Prize,
		CashPrize:   input.CashPrize,
		WinnerCount: winnerCount,
		DrawAt:      input.DrawAt,
		State:       models.GiveawayStateOpen,
	}

	id, err := s.repo.Create(ctx, giveaway)
	if err != nil {
		return nil, appErrors.NewDatabaseError("create giveaway", err)
	}

	created, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.NewDatabaseError("load created giveaway", err)
	}

	logger.Info().
		Int64("giveaway_id", created.ID).
		Str("title", created.Title).
		Msg("Giveaway created")

	return created, nil
}

func (s *giveawayService) GetByID(ctx context.Context, id int64, viewerID string) (*models.GiveawayResponse, error) {
	giveaway, err := s.getGiveaway(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.annotate(ctx, giveaway, viewerID)
}

func (s *giveawayService) List(ctx context.Context, viewerID string, isAdmin bool) ([]*models.GiveawayResponse, error) {
	giveaways, err := s.repo.List(ctx, !isAdmin)
	if err != nil {
		return nil, appErrors.NewDatabaseError("list giveaways", err)
	}

	ids := make([]int64, 0, len(giveaways))
	for _, g := range giveaways {
		ids = append(ids, g.ID)
	}

	counts, err := s.repo.ParticipantCounts(ctx, ids)
	if err != nil {
		return nil, appErrors.NewDatabaseError("count participants", err)
	}

	var joined map[int64]bool
	if viewerID != "" {
		joined, err = s.repo.ParticipationSet(ctx, viewerID, ids)
		if err != nil {
			return nil, appErrors.NewDatabaseError("load participation", err)
		}
	}

	responses := make([]*models.GiveawayResponse, 0, len(giveaways))
	for _, g := range giveaways {
		resp := &models.GiveawayResponse{
			Giveaway:          *g,
			ParticipantsCount: counts[g.ID],
		}
		if joined != nil {
			participating := joined[g.ID]
			resp.IsParticipating = &participating
		}
		if g.HasWinner() {
			resp.Winner = s.winnerInfo(ctx, *g.WinnerID)
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

func (s *giveawayService) Update(ctx context.Context, id int64, input *models.GiveawayUpdate) (*models.Giveaway, error) {
	giveaway, err := s.getGiveaway(ctx, id)
	if err != nil {
		return nil, err
	}
	if !giveaway.IsOpen() {
		return nil, appErrors.NewInvalidStateError(id, string(giveaway.State), "update")
	}

	if input.Title != nil {
		create := models.GiveawayCreate{Title: *input.Title}
		if err := create.Validate(); err != nil {
			return nil, appErrors.NewValidationError("title", "must not be empty")
		}
		giveaway.Title = *input.Title
	}
	if input.Description != nil {
		giveaway.Description = *input.Description
	}
	if input.Image != nil {
		giveaway.Image = *input.Image
	}
	if input.Prize != nil {
		giveaway.Prize = *input.Prize
	}
	if input.CashPrize != nil {
		if *input.CashPrize < 0 {
			return nil, appErrors.NewValidationError("cash_prize", "must not be negative")
		}
		giveaway.CashPrize = *input.CashPrize
	}
	if input.DrawAt != nil {
		giveaway.DrawAt = input.DrawAt
	}

	if err := s.repo.Update(ctx, giveaway); err != nil {
		if errors.Is(err, repository.ErrGiveawayNotFound) {
			return nil, appErrors.NewGiveawayNotFoundError(id)
		}
		return nil, appErrors.NewDatabaseError("update giveaway", err)
	}

	return s.getGiveaway(ctx, id)
}

func (s *giveawayService) Delete(ctx context.Context, id int64) error {
	if _, err := s.getGiveaway(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.NewDatabaseError("delete giveaway", err)
	}

	logger.Info().Int64("giveaway_id", id).Msg("Giveaway deleted")
	return nil
}

func (s *giveawayService) Join(ctx context.Context, id int64, userID, displayName string) error {
	giveaway, err := s.getGiveaway(ctx, id)
	if err != nil {
		return err
	}
	if !giveaway.IsOpen() {
		return appErrors.NewInvalidStateError(id, string(giveaway.State), "join")
	}

	user := &usermodels.User{ID: userID, DisplayName: displayName}
	if err := s.users.Upsert(ctx, user); err != nil {
		return appErrors.NewDatabaseError("upsert user", err)
	}

	if err := s.repo.AddParticipant(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrDuplicateParticipant) {
			return appErrors.NewAlreadyParticipatingError(id, userID)
		}
		return appErrors.NewDatabaseError("add participant", err)
	}

	logger.Info().
		Int64("giveaway_id", id).
		Str("user_id", userID).
		Msg("User joined giveaway")
	return nil
}

func (s *giveawayService) Leave(ctx context.Context, id int64, userID string) error {
	if _, err := s.getGiveaway(ctx, id); err != nil {
		return err
	}

	removed, err := s.repo.RemoveParticipant(ctx, id, userID)
	if err != nil {
		return appErrors.NewDatabaseError("remove participant", err)
	}
	if !removed {
		return appErrors.NewNotParticipatingError(id, userID)
	}

	logger.Info().
		Int64("giveaway_id", id).
		Str("user_id", userID).
		Msg("User left giveaway")
	return nil
}

func (s *giveawayService) Participants(ctx context.Context, id int64) ([]*usermodels.User, error) {
	if _, err := s.getGiveaway(ctx, id); err != nil {
		return nil, err
	}
	users, err := s.repo.GetParticipantUsers(ctx, id)
	if err != nil {
		return nil, appErrors.NewDatabaseError("list participants", err)
	}
	return users, nil
}

func (s *giveawayService) Close(ctx context.Context, id int64) error {
	locked, err := s.guard.TryLock(ctx, id)
	if err != nil {
		return appErrors.NewDatabaseError("acquire draw guard", err)
	}
	if !locked {
		return appErrors.New(appErrors.ErrCodeInvalidState, fmt.Sprintf("giveaway %d is being processed", id)).
			WithDetail("giveaway_id", id)
	}
	defer s.guard.Unlock(ctx, id)

	if _, err := s.getGiveaway(ctx, id); err != nil {
		return err
	}

	closed, err := s.repo.CloseIfOpen(ctx, id)
	if err != nil {
		return appErrors.NewDatabaseError("close giveaway", err)
	}
	if !closed {
		return appErrors.NewAlreadyClosedError(id)
	}

	logger.Info().Int64("giveaway_id", id).Msg("Giveaway closed")
	return nil
}

// DrawWinner closes the giveaway and selects one winner uniformly from the
// participant set. A giveaway with no participants is still closed, then the
// draw fails. Works on open giveaways and on closed ones without a winner,
// so the manual path and the scheduler share the same entry point.
func (s *giveawayService) DrawWinner(ctx context.Context, id int64) (*models.WinnerInfo, error) {
	locked, err := s.guard.TryLock(ctx, id)
	if err != nil {
		return nil, appErrors.NewDatabaseError("acquire draw guard", err)
	}
	if !locked {
		return nil, appErrors.New(appErrors.ErrCodeInvalidState, fmt.Sprintf("giveaway %d is being processed", id)).
			WithDetail("giveaway_id", id)
	}
	defer s.guard.Unlock(ctx, id)

	giveaway, err := s.getGiveaway(ctx, id)
	if err != nil {
		return nil, err
	}
	if !giveaway.IsOpen() && giveaway.HasWinner() {
		return nil, appErrors.NewInvalidStateError(id, string(giveaway.State), "draw")
	}

	participants, err := s.repo.GetParticipants(ctx, id)
	if err != nil {
		return nil, appErrors.NewDatabaseError("load participants", err)
	}

	if len(participants) == 0 {
		if _, err := s.repo.CloseIfOpen(ctx, id); err != nil {
			return nil, appErrors.NewDatabaseError("close giveaway", err)
		}
		logger.Warn().Int64("giveaway_id", id).Msg("Draw requested with no participants, giveaway closed without winner")
		return nil, appErrors.NewNoParticipantsError(id)
	}

	winnerID, err := random.Pick(participants)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeInternal, "winner selection failed")
	}

	assigned, err := s.repo.AssignWinner(ctx, id, winnerID)
	if err != nil {
		return nil, appErrors.NewDatabaseError("assign winner", err)
	}
	if !assigned {
		// A concurrent actor drew first.
		return nil, appErrors.NewInvalidStateError(id, string(models.GiveawayStateClosed), "draw")
	}

	winner := s.winnerUser(ctx, winnerID)

	logger.Info().
		Int64("giveaway_id", id).
		Str("winner_id", winnerID).
		Int("participants", len(participants)).
		Msg("Winner drawn")

	s.notifier.NotifyWinner(giveaway, winner, int64(len(participants)), false)

	return &models.WinnerInfo{UserID: winner.ID, DisplayName: winner.DisplayName}, nil
}

// RerollWinner replaces the winner of a closed giveaway, never re-selecting
// the previous one unless they are the sole participant, in which case the
// reroll fails and the recorded winner stands.
func (s *giveawayService) RerollWinner(ctx context.Context, id int64) (*models.WinnerInfo, error) {
	locked, err := s.guard.TryLock(ctx, id)
	if err != nil {
		return nil, appErrors.NewDatabaseError("acquire draw guard", err)
	}
	if !locked {
		return nil, appErrors.New(appErrors.ErrCodeInvalidState, fmt.Sprintf("giveaway %d is being processed", id)).
			WithDetail("giveaway_id", id)
	}
	defer s.guard.Unlock(ctx, id)

	giveaway, err := s.getGiveaway(ctx, id)
	if err != nil {
		return nil, err
	}
	if giveaway.IsOpen() || !giveaway.HasWinner() {
		return nil, appErrors.NewInvalidStateError(id, string(giveaway.State), "reroll")
	}

	participants, err := s.repo.GetParticipants(ctx, id)
	if err != nil {
		return nil, appErrors.NewDatabaseError("load participants", err)
	}

	winnerID, err := random.PickExcluding(participants, *giveaway.WinnerID)
	if err != nil {
		if errors.Is(err, random.ErrNoCandidates) {
			return nil, appErrors.NewNoOtherParticipantsError(id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrCodeInternal, "winner selection failed")
	}

	overwritten, err := s.repo.OverwriteWinner(ctx, id, winnerID)
	if err != nil {
		return nil, appErrors.NewDatabaseError("overwrite winner", err)
	}
	if !overwritten {
		return nil, appErrors.NewInvalidStateError(id, string(giveaway.State), "reroll")
	}

	winner := s.winnerUser(ctx, winnerID)

	logger.Info().
		Int64("giveaway_id", id).
		Str("winner_id", winnerID).
		Str("previous_winner_id", *giveaway.WinnerID).
		Msg("Winner rerolled")

	s.notifier.NotifyWinner(giveaway, winner, int64(len(participants)), true)

	return &models.WinnerInfo{UserID: winner.ID, DisplayName: winner.DisplayName}, nil
}

func (s *giveawayService) getGiveaway(ctx context.Context, id int64) (*models.Giveaway, error) {
	giveaway, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrGiveawayNotFound) {
			return nil, appErrors.NewGiveawayNotFoundError(id)
		}
		return nil, appErrors.NewDatabaseError("load giveaway", err)
	}
	return giveaway, nil
}

func (s *giveawayService) annotate(ctx context.Context, giveaway *models.Giveaway, viewerID string) (*models.GiveawayResponse, error) {
	count, err := s.repo.GetParticipantsCount(ctx, giveaway.ID)
	if err != nil {
		return nil, appErrors.NewDatabaseError("count participants", err)
	}

	resp := &models.GiveawayResponse{
		Giveaway:          *giveaway,
		ParticipantsCount: count,
	}

	if viewerID != "" {
		participating, err := s.repo.IsParticipant(ctx, giveaway.ID, viewerID)
		if err != nil {
			return nil, appErrors.NewDatabaseError("check participation", err)
		}
		resp.IsParticipating = &participating
	}

	if giveaway.HasWinner() {
		resp.Winner = s.winnerInfo(ctx, *giveaway.WinnerID)
	}
	return resp, nil
}

// winnerUser resolves the display name, falling back to the raw id when the
// user row is missing. A draw never fails on a name lookup.
func (s *giveawayService) winnerUser(ctx context.Context, userID string) *usermodels.User {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("Winner display name lookup failed")
		return &usermodels.User{ID: userID, DisplayName: userID}
	}
	if user.DisplayName == "" {
		user.DisplayName = user.ID
	}
	return user
}

func (s *giveawayService) winnerInfo(ctx context.Context, userID string) *models.WinnerInfo {
	user := s.winnerUser(ctx, userID)
	return &models.WinnerInfo{UserID: user.ID, DisplayName: user.DisplayName}
}
