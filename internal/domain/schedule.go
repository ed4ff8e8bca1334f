package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Schedule status texts shown on the member dashboard.
const (
	ScheduleStatusGrace      = "GRACE PERIOD"
	ScheduleStatusArrears    = "ARREARS"
	ScheduleStatusPrepayment = "PREPAYMENT"
	ScheduleStatusUpToDate   = "UP TO DATE"
)

// ScheduleProjection is the expected-vs-actual repayment position of an
// active loan as of a given instant. It is recomputed on every read and never
// persisted.
type ScheduleProjection struct {
	WeeklyInstallment  decimal.Decimal `json:"weekly_installment"`
	WeeksPassed        int             `json:"weeks_passed"`
	WeeksRemaining     int             `json:"weeks_remaining"`
	InstallmentsDue    int             `json:"installments_due"`
	ExpectedToDate     decimal.Decimal `json:"expected_to_date"`
	RunningBalance     decimal.Decimal `json:"running_balance"`
	StatusText         string          `json:"status_text"`
	GraceDaysRemaining int             `json:"grace_days_remaining"`
}

// ProjectSchedule derives the repayment position of a disbursed loan at
// `now`. Pure function of its inputs; callers inject the clock.
//
// A repayment week is counted only once it has fully elapsed: the instant
// exactly N*7 days after disbursement still belongs to week N. This keeps the
// floor-based week count and the day-based grace countdown in agreement at
// the grace boundary: at exactly graceWeeks*7 days the projection reports
// GRACE PERIOD with 0 days remaining, and the first installment falls due the
// following day.
//
// Returns nil for loans that have not been disbursed.
func ProjectSchedule(loan *LoanApplication, graceWeeks int, now time.Time) *ScheduleProjection {
	if !loan.DisbursedAt.Valid || !loan.TotalDue.Valid {
		return nil
	}

	weeks := loan.RepaymentWeeks
	if weeks < 1 {
		weeks = 1
	}
	installment := loan.TotalDue.Decimal.Div(decimal.NewFromInt(int64(weeks))).Round(2)

	disbursed := loan.DisbursedAt.Time
	elapsedDays := int(now.Sub(disbursed).Hours() / 24)

	weeksPassed := 0
	if elapsedDays > 0 {
		weeksPassed = (elapsedDays - 1) / 7
	}
	effectiveWeeksPassed := weeksPassed - graceWeeks

	p := &ScheduleProjection{
		WeeklyInstallment: installment,
		WeeksPassed:       weeksPassed,
	}

	if effectiveWeeksPassed < 0 {
		graceEnd := disbursed.AddDate(0, 0, graceWeeks*7)
		remaining := int(math.Ceil(graceEnd.Sub(now).Hours() / 24))
		if remaining < 0 {
			remaining = 0
		}
		p.StatusText = ScheduleStatusGrace
		p.GraceDaysRemaining = remaining
		p.WeeksRemaining = weeks
		p.ExpectedToDate = decimal.Zero
		p.RunningBalance = loan.AmountRepaid
		return p
	}

	installmentsDue := effectiveWeeksPassed + 1
	if installmentsDue > weeks {
		installmentsDue = weeks
	}

	p.InstallmentsDue = installmentsDue
	p.WeeksRemaining = weeks - installmentsDue
	p.ExpectedToDate = installment.Mul(decimal.NewFromInt(int64(installmentsDue)))
	p.RunningBalance = loan.AmountRepaid.Sub(p.ExpectedToDate)

	switch {
	case p.RunningBalance.IsNegative():
		p.StatusText = ScheduleStatusArrears
	case p.RunningBalance.IsPositive():
		p.StatusText = ScheduleStatusPrepayment
	default:
		p.StatusText = ScheduleStatusUpToDate
	}
	return p
}
