package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kikundi/sacco-engine/internal/domain"
	"github.com/kikundi/sacco-engine/internal/repository"
	customError "github.com/kikundi/sacco-engine/pkg/errors"
)

// FineService manages penalties: manual imposition, lazy interest staging on
// read, and the weekly missed-deposit compliance sweep.
type FineService struct {
	store    repository.Store
	settings *SettingsService
	notifier *Notifier
	log      zerolog.Logger
	now      func() time.Time
}

func NewFineService(store repository.Store, settings *SettingsService, notifier *Notifier, log zerolog.Logger) *FineService {
	return &FineService{
		store:    store,
		settings: settings,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// MemberFines lists a member's open fines, advancing any due interest stage
// before returning. The staging write is best-effort; a failed save is
// logged and the staged balance still returned.
func (s *FineService) MemberFines(ctx context.Context, userID int64) ([]*domain.MemberFine, error) {
	r := s.store.Repos()

	fines, err := r.Fines.ListOpenByUser(ctx, userID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	now := s.now()
	for _, f := range fines {
		if f.ApplyInterest(now) {
			if err := r.Fines.SaveInterest(ctx, f); err != nil {
				s.log.Error().Err(err).Int64("fine_id", f.ID).Msg("failed to persist fine interest stage")
			}
		}
	}
	return fines, nil
}

// Impose records a manual fine against a member.
func (s *FineService) Impose(ctx context.Context, req *domain.ImposeFineRequest) (*domain.MemberFine, error) {
	if !req.Amount.IsPositive() {
		return nil, customError.WrapNotEligible("fine amount must be positive")
	}

	fine := &domain.MemberFine{
		UserID:         req.UserID,
		Title:          req.Title,
		OriginalAmount: req.Amount,
		CurrentBalance: req.Amount,
		Description:    req.Description,
		Status:         domain.FineStatusPending,
		InterestStage:  domain.FineStageNone,
	}
	if err := s.store.Repos().Fines.Create(ctx, fine); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.notifier.NotifyUser(ctx, req.UserID,
		fmt.Sprintf("A fine of %s has been imposed: %s", req.Amount.StringFixed(2), req.Title))
	return fine, nil
}

// RunComplianceSweep fines every active member who has not made the minimum
// weekly deposit this week. One fine per member per week; re-running the
// sweep in the same week finds nobody new. Returns the number of fines
// imposed.
func (s *FineService) RunComplianceSweep(ctx context.Context) (int, error) {
	minDeposit := s.settings.Decimal(ctx, SettingMinWeeklyDeposit)
	penalty := s.settings.Decimal(ctx, SettingPenaltyMissedSavings)

	memberIDs, err := s.store.Repos().Fines.MembersMissingWeeklyDeposit(ctx, minDeposit)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	week := s.now().Format("2006-01-02")
	imposed := 0
	for _, id := range memberIDs {
		fine := &domain.MemberFine{
			UserID:         id,
			Title:          "Missed Weekly Deposit " + week,
			OriginalAmount: penalty,
			CurrentBalance: penalty,
			Description:    fmt.Sprintf("Weekly deposit below the minimum of %s", minDeposit.StringFixed(2)),
			Status:         domain.FineStatusPending,
			InterestStage:  domain.FineStageNone,
		}
		if err := s.store.Repos().Fines.Create(ctx, fine); err != nil {
			s.log.Error().Err(err).Int64("user_id", id).Msg("failed to impose missed-deposit fine")
			continue
		}
		s.notifier.NotifyUser(ctx, id,
			fmt.Sprintf("You missed this week's minimum deposit and have been fined %s.", penalty.StringFixed(2)))
		imposed++
	}

	s.log.Info().Int("fines_imposed", imposed).Msg("compliance sweep finished")
	return imposed, nil
}
