package service

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/kikundi/sacco-engine/internal/domain"
	"github.com/kikundi/sacco-engine/internal/repository"
	customError "github.com/kikundi/sacco-engine/pkg/errors"
)

// Setting keys and their fallback values. A missing or malformed row falls
// back silently so a half-seeded settings table never breaks reads.
const (
	SettingMinSavingsForLoan    = "min_savings_for_loan"
	SettingLoanProcessingFee    = "loan_processing_fee"
	SettingLoanMultiplier       = "loan_multiplier"
	SettingLoanInterestRate     = "loan_interest_rate"
	SettingLoanGraceWeeks       = "loan_grace_weeks"
	SettingMinWeeklyDeposit     = "min_weekly_deposit"
	SettingPenaltyMissedSavings = "penalty_missed_savings"
)

var settingDefaults = map[string]string{
	SettingMinSavingsForLoan:    "5000",
	SettingLoanProcessingFee:    "500",
	SettingLoanMultiplier:       "3",
	SettingLoanInterestRate:     "10",
	SettingLoanGraceWeeks:       "4",
	SettingMinWeeklyDeposit:     "250",
	SettingPenaltyMissedSavings: "50",
}

type SettingsService struct {
	store repository.Store
}

func NewSettingsService(store repository.Store) *SettingsService {
	return &SettingsService{store: store}
}

func (s *SettingsService) raw(ctx context.Context, key string) string {
	value, ok, err := s.store.Repos().Settings.Get(ctx, key)
	if err != nil || !ok {
		return settingDefaults[key]
	}
	return value
}

// Decimal returns the setting as a decimal, falling back on parse failure.
func (s *SettingsService) Decimal(ctx context.Context, key string) decimal.Decimal {
	d, err := decimal.NewFromString(s.raw(ctx, key))
	if err != nil {
		d, _ = decimal.NewFromString(settingDefaults[key])
	}
	return d
}

// Int returns the setting as an int, falling back on parse failure.
func (s *SettingsService) Int(ctx context.Context, key string) int {
	n, err := strconv.Atoi(s.raw(ctx, key))
	if err != nil {
		n, _ = strconv.Atoi(settingDefaults[key])
	}
	return n
}

// List returns every stored setting row.
func (s *SettingsService) List(ctx context.Context) ([]*domain.Setting, error) {
	settings, err := s.store.Repos().Settings.List(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return settings, nil
}

// Update upserts one setting value.
func (s *SettingsService) Update(ctx context.Context, key, value string) error {
	if err := s.store.Repos().Settings.Update(ctx, key, value); err != nil {
		return customError.WrapDatabaseError(err)
	}
	return nil
}
