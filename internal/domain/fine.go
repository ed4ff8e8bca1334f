package domain

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Fine statuses and interest stages.
const (
	FineStatusPending = "PENDING"
	FineStatusCleared = "CLEARED"

	FineStageNone = "NONE"
	FineStageOne  = "STAGE_1_20"
	FineStageTwo  = "STAGE_2_50"
)

// Staged penalty interest: 20% of the original amount once a fine is older
// than 30 days, then 50% of the running balance one year after stage one.
var (
	fineStageOneRate = decimal.NewFromFloat(0.20)
	fineStageTwoRate = decimal.NewFromFloat(0.50)
)

// MemberFine is an interest-accruing penalty. Interest is applied lazily on
// read rather than by a mutation schedule.
type MemberFine struct {
	ID                int64           `json:"id" db:"id"`
	UserID            int64           `json:"user_id" db:"user_id"`
	Title             string          `json:"title" db:"title"`
	OriginalAmount    decimal.Decimal `json:"original_amount" db:"original_amount"`
	CurrentBalance    decimal.Decimal `json:"current_balance" db:"current_balance"`
	Description       string          `json:"description" db:"description"`
	Status            string          `json:"status" db:"status"`
	InterestStage     string          `json:"interest_stage" db:"interest_stage"`
	DateCreated       time.Time       `json:"date_created" db:"date_created"`
	DateStage1Applied sql.NullTime    `json:"date_stage_1_applied" db:"date_stage_1_applied"`
	DateStage2Applied sql.NullTime    `json:"date_stage_2_applied" db:"date_stage_2_applied"`
}

// ApplyInterest advances the fine through its interest stages as of `now` and
// reports whether anything changed. Cleared fines never accrue.
func (f *MemberFine) ApplyInterest(now time.Time) bool {
	if f.Status == FineStatusCleared {
		return false
	}

	changed := false

	daysSinceCreation := int(now.Sub(f.DateCreated).Hours() / 24)
	if f.InterestStage == FineStageNone && daysSinceCreation > 30 {
		f.CurrentBalance = f.CurrentBalance.Add(f.OriginalAmount.Mul(fineStageOneRate))
		f.InterestStage = FineStageOne
		f.DateStage1Applied = sql.NullTime{Time: now, Valid: true}
		changed = true
	}

	if f.InterestStage == FineStageOne && f.DateStage1Applied.Valid {
		daysSinceStage1 := int(now.Sub(f.DateStage1Applied.Time).Hours() / 24)
		if daysSinceStage1 > 365 {
			f.CurrentBalance = f.CurrentBalance.Add(f.CurrentBalance.Mul(fineStageTwoRate))
			f.InterestStage = FineStageTwo
			f.DateStage2Applied = sql.NullTime{Time: now, Valid: true}
			changed = true
		}
	}

	return changed
}

type ImposeFineRequest struct {
	UserID      int64           `json:"user_id" validate:"required"`
	Title       string          `json:"title" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Description string          `json:"description"`
}
