package domain

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func disbursedLoan(totalDue int64, weeks int, repaid int64, disbursedAt time.Time) *LoanApplication {
	return &LoanApplication{
		RepaymentWeeks: weeks,
		AmountRepaid:   decimal.NewFromInt(repaid),
		TotalDue:       decimal.NullDecimal{Decimal: decimal.NewFromInt(totalDue), Valid: true},
		DisbursedAt:    sql.NullTime{Time: disbursedAt, Valid: true},
	}
}

func TestProjectSchedule_NotDisbursed(t *testing.T) {
	loan := &LoanApplication{RepaymentWeeks: 10}
	assert.Nil(t, ProjectSchedule(loan, 4, time.Now()))
}

func TestProjectSchedule(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name            string
		daysSince       int
		repaid          int64
		wantStatus      string
		wantWeeksPassed int
		wantDue         int
		wantExpected    int64
		wantRunning     int64
		wantGraceDays   int
	}{
		{
			name:            "grace period mid way",
			daysSince:       21,
			wantStatus:      ScheduleStatusGrace,
			wantWeeksPassed: 2,
			wantGraceDays:   7,
		},
		{
			name:            "grace boundary day still grace",
			daysSince:       28,
			wantStatus:      ScheduleStatusGrace,
			wantWeeksPassed: 3,
			wantGraceDays:   0,
		},
		{
			name:            "arrears with nothing repaid",
			daysSince:       42,
			wantStatus:      ScheduleStatusArrears,
			wantWeeksPassed: 5,
			wantDue:         2,
			wantExpected:    200,
			wantRunning:     -200,
		},
		{
			name:            "exactly on schedule",
			daysSince:       42,
			repaid:          200,
			wantStatus:      ScheduleStatusUpToDate,
			wantWeeksPassed: 5,
			wantDue:         2,
			wantExpected:    200,
		},
		{
			name:            "ahead of schedule",
			daysSince:       42,
			repaid:          300,
			wantStatus:      ScheduleStatusPrepayment,
			wantWeeksPassed: 5,
			wantDue:         2,
			wantExpected:    200,
			wantRunning:     100,
		},
		{
			name:            "past end of term caps installments",
			daysSince:       200,
			wantStatus:      ScheduleStatusArrears,
			wantWeeksPassed: 28,
			wantDue:         10,
			wantExpected:    1000,
			wantRunning:     -1000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := disbursedLoan(1000, 10, tt.repaid, now.AddDate(0, 0, -tt.daysSince))

			p := ProjectSchedule(loan, 4, now)
			require.NotNil(t, p)

			assert.Equal(t, tt.wantStatus, p.StatusText)
			assert.Equal(t, tt.wantWeeksPassed, p.WeeksPassed)
			assert.True(t, p.WeeklyInstallment.Equal(decimal.NewFromInt(100)))

			if tt.wantStatus == ScheduleStatusGrace {
				assert.Equal(t, tt.wantGraceDays, p.GraceDaysRemaining)
				assert.Equal(t, 0, p.InstallmentsDue)
				assert.True(t, p.ExpectedToDate.IsZero())
				assert.Equal(t, 10, p.WeeksRemaining)
				return
			}

			assert.Equal(t, tt.wantDue, p.InstallmentsDue)
			assert.True(t, p.ExpectedToDate.Equal(decimal.NewFromInt(tt.wantExpected)),
				"expected %d got %s", tt.wantExpected, p.ExpectedToDate)
			assert.True(t, p.RunningBalance.Equal(decimal.NewFromInt(tt.wantRunning)),
				"running %d got %s", tt.wantRunning, p.RunningBalance)
			assert.Equal(t, 10-tt.wantDue, p.WeeksRemaining)
		})
	}
}

func TestProjectSchedule_FreshDisbursement(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	loan := disbursedLoan(1000, 10, 0, now)

	p := ProjectSchedule(loan, 4, now)
	require.NotNil(t, p)

	assert.Equal(t, ScheduleStatusGrace, p.StatusText)
	assert.Equal(t, 0, p.WeeksPassed)
	assert.Equal(t, 28, p.GraceDaysRemaining)
}

func TestProjectSchedule_NoGrace(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	loan := disbursedLoan(1000, 10, 0, now.AddDate(0, 0, -8))

	p := ProjectSchedule(loan, 0, now)
	require.NotNil(t, p)

	// 8 days in: the first week is over, the second installment is due.
	assert.Equal(t, ScheduleStatusArrears, p.StatusText)
	assert.Equal(t, 2, p.InstallmentsDue)
	assert.True(t, p.ExpectedToDate.Equal(decimal.NewFromInt(200)))
}
