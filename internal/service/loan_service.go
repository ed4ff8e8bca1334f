package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kikundi/sacco-engine/internal/domain"
	"github.com/kikundi/sacco-engine/internal/repository"
	customError "github.com/kikundi/sacco-engine/pkg/errors"
)

var oneHundred = decimal.NewFromInt(100)

// LoanService drives the application lifecycle from fee payment through the
// committee workflow to disbursement. Every transition goes through the
// status-guarded conditional update, so two role holders racing on the same
// application cannot both win.
type LoanService struct {
	store    repository.Store
	settings *SettingsService
	notifier *Notifier
	now      func() time.Time
}

func NewLoanService(store repository.Store, settings *SettingsService, notifier *Notifier) *LoanService {
	return &LoanService{
		store:    store,
		settings: settings,
		notifier: notifier,
		now:      time.Now,
	}
}

// eligibility evaluates the savings-threshold gate.
func (s *LoanService) eligibility(ctx context.Context, r repository.Repos, memberID int64) (domain.Eligibility, error) {
	minSavings := s.settings.Decimal(ctx, SettingMinSavingsForLoan)
	current, err := savings(ctx, r, memberID)
	if err != nil {
		return domain.Eligibility{}, err
	}

	e := domain.Eligibility{
		MinSavings:     minSavings,
		CurrentSavings: current,
		Eligible:       current.GreaterThanOrEqual(minSavings),
	}
	if e.Eligible {
		e.Message = "You qualify to apply for a loan."
	} else {
		shortfall := minSavings.Sub(current)
		e.Message = fmt.Sprintf("Save %s more to qualify for a loan.", shortfall.StringFixed(2))
	}
	return e, nil
}

// MemberStatus is the member dashboard read: the latest application, the
// eligibility gate and, for disbursed loans, the schedule projection.
func (s *LoanService) MemberStatus(ctx context.Context, memberID int64) (*domain.MemberLoanStatus, error) {
	r := s.store.Repos()

	elig, err := s.eligibility(ctx, r, memberID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	loan, err := r.Loans.LatestByMember(ctx, memberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.MemberLoanStatus{Status: domain.LoanStatusNone, Eligibility: elig}, nil
		}
		return nil, customError.WrapDatabaseError(err)
	}

	status := &domain.MemberLoanStatus{
		Status:      loan.Status,
		Application: loan,
		Eligibility: elig,
	}
	if loan.DisbursedAt.Valid {
		graceWeeks := s.settings.Int(ctx, SettingLoanGraceWeeks)
		status.Schedule = domain.ProjectSchedule(loan, graceWeeks, s.now())
	}
	return status, nil
}

// InitApplication opens a FEE_PENDING application for an eligible member.
// One open application per member.
func (s *LoanService) InitApplication(ctx context.Context, memberID int64) (*domain.LoanApplication, error) {
	r := s.store.Repos()

	open, err := r.Loans.HasOpenApplication(ctx, memberID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if open {
		return nil, customError.WrapActiveLoanExists(memberID)
	}

	elig, err := s.eligibility(ctx, r, memberID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if !elig.Eligible {
		return nil, customError.WrapNotEligible(elig.Message)
	}

	loan := &domain.LoanApplication{
		MemberID:  memberID,
		Status:    domain.LoanStatusFeePending,
		FeeAmount: s.settings.Decimal(ctx, SettingLoanProcessingFee),
	}
	created, err := r.Loans.Create(ctx, loan)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if !created {
		return nil, customError.WrapActiveLoanExists(memberID)
	}
	return loan, nil
}

// SubmitDetails records the member's requested amount, purpose and repayment
// term, enforcing the savings-multiplier borrowing limit. The limit is
// inclusive: a request exactly at the limit passes.
func (s *LoanService) SubmitDetails(ctx context.Context, memberID int64, req *domain.SubmitDetailsRequest) (*domain.LoanApplication, error) {
	r := s.store.Repos()

	loan, err := r.Loans.GetByID(ctx, req.LoanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapNotFound("loan application", req.LoanID)
		}
		return nil, customError.WrapDatabaseError(err)
	}
	if loan.MemberID != memberID {
		return nil, customError.WrapNotAuthorized("loan application belongs to another member")
	}
	if loan.Status != domain.LoanStatusFeePaid {
		return nil, customError.WrapInvalidState(string(domain.LoanStatusFeePaid), string(loan.Status))
	}

	if !req.Amount.IsPositive() {
		return nil, customError.WrapNotEligible("requested amount must be positive")
	}

	totalSavings, err := r.Deposits.SumCompleted(ctx, memberID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	multiplier := decimal.NewFromInt(int64(s.settings.Int(ctx, SettingLoanMultiplier)))
	maxLimit := totalSavings.Mul(multiplier)
	if req.Amount.GreaterThan(maxLimit) {
		return nil, customError.WrapLimitExceeded(req.Amount.String(), maxLimit.String())
	}

	if err := r.Loans.UpdateDetails(ctx, loan.ID, req.Amount, req.Purpose, req.RepaymentWeeks, domain.LoanStatusPendingGuarantors); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	loan.AmountRequested = req.Amount
	loan.Purpose = req.Purpose
	loan.RepaymentWeeks = req.RepaymentWeeks
	loan.Status = domain.LoanStatusPendingGuarantors
	return loan, nil
}

// transition performs one guarded step of the committee workflow. When the
// guard loses, the application is re-read so the error can name the status
// actually found.
func (s *LoanService) transition(ctx context.Context, loanID int64, from []domain.LoanStatus, to domain.LoanStatus) error {
	r := s.store.Repos()

	moved, err := r.Loans.TransitionStatus(ctx, loanID, from, to)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	if moved {
		return nil
	}

	loan, err := r.Loans.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapNotFound("loan application", loanID)
		}
		return customError.WrapDatabaseError(err)
	}
	return customError.WrapInvalidState(string(from[0]), string(loan.Status))
}

// Verify is the loan officer's check of a fully guaranteed application.
func (s *LoanService) Verify(ctx context.Context, loanID int64) error {
	return s.transition(ctx, loanID,
		[]domain.LoanStatus{domain.LoanStatusSubmitted, domain.LoanStatusPendingGuarantors},
		domain.LoanStatusVerified)
}

// Table places a verified application on the meeting agenda.
func (s *LoanService) Table(ctx context.Context, loanID int64) error {
	if err := s.transition(ctx, loanID, []domain.LoanStatus{domain.LoanStatusVerified}, domain.LoanStatusTabled); err != nil {
		return err
	}
	s.notifier.NotifyAdmins(ctx, fmt.Sprintf("Loan application #%d has been tabled for the next meeting.", loanID))
	return nil
}

// OpenVoting puts a tabled application on the floor.
func (s *LoanService) OpenVoting(ctx context.Context, loanID int64) error {
	if err := s.transition(ctx, loanID, []domain.LoanStatus{domain.LoanStatusTabled}, domain.LoanStatusVoting); err != nil {
		return err
	}
	s.notifier.NotifyAll(ctx, fmt.Sprintf("Voting is now open on loan application #%d.", loanID))
	return nil
}

// Finalize closes the vote with the chair's declared outcome.
func (s *LoanService) Finalize(ctx context.Context, req *domain.FinalizeRequest) error {
	to := domain.LoanStatus(req.Decision)
	if to != domain.LoanStatusApproved && to != domain.LoanStatusRejected {
		return customError.WrapNotEligible("decision must be APPROVED or REJECTED")
	}
	if err := s.transition(ctx, req.LoanID, []domain.LoanStatus{domain.LoanStatusVoting}, to); err != nil {
		return err
	}

	loan, err := s.store.Repos().Loans.GetByID(ctx, req.LoanID)
	if err == nil {
		s.notifier.NotifyUser(ctx, loan.MemberID, fmt.Sprintf("Your loan application has been %s.", req.Decision))
	}
	s.notifier.NotifyAll(ctx, fmt.Sprintf("Voting on loan application #%d has closed: %s.", req.LoanID, req.Decision))
	return nil
}

// Disburse activates an approved loan: fixes flat interest and total due,
// stamps the disbursement time and records the payout transaction. Runs under
// a row lock so a double-click cannot disburse twice.
func (s *LoanService) Disburse(ctx context.Context, loanID int64) (*domain.LoanApplication, error) {
	rate := s.settings.Decimal(ctx, SettingLoanInterestRate)

	var disbursed *domain.LoanApplication
	err := s.store.Atomic(ctx, func(r repository.Repos) error {
		loan, err := r.Loans.GetByIDForUpdate(ctx, loanID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return customError.WrapNotFound("loan application", loanID)
			}
			return customError.WrapDatabaseError(err)
		}
		if loan.Status != domain.LoanStatusApproved {
			return customError.WrapInvalidState(string(domain.LoanStatusApproved), string(loan.Status))
		}

		interest := loan.AmountRequested.Mul(rate).Div(oneHundred).Round(2)
		totalDue := loan.AmountRequested.Add(interest)
		now := s.now()

		ok, err := r.Loans.MarkDisbursed(ctx, loan.ID, interest, totalDue, now)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		if !ok {
			return customError.WrapInvalidState(string(domain.LoanStatusApproved), string(loan.Status))
		}

		payout := &domain.TransactionRecord{
			ID:            uuid.New(),
			UserID:        loan.MemberID,
			Type:          domain.PurposeLoanDisbursement,
			Amount:        loan.AmountRequested,
			Status:        domain.RecordStatusCompleted,
			ReferenceCode: fmt.Sprintf("DISB-%d", loan.ID),
			Description:   fmt.Sprintf("Disbursement of loan #%d", loan.ID),
		}
		if err := r.Transactions.Create(ctx, payout); err != nil {
			return customError.WrapDatabaseError(err)
		}

		loan.Status = domain.LoanStatusActive
		loan.InterestAmount = decimal.NullDecimal{Decimal: interest, Valid: true}
		loan.TotalDue = decimal.NullDecimal{Decimal: totalDue, Valid: true}
		loan.DisbursedAt = sql.NullTime{Time: now, Valid: true}
		disbursed = loan
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(ctx, disbursed.MemberID,
		fmt.Sprintf("Your loan of %s has been disbursed. Total repayable: %s.",
			disbursed.AmountRequested.StringFixed(2), disbursed.TotalDue.Decimal.StringFixed(2)))
	return disbursed, nil
}

// Queue lists applications awaiting action in the given statuses.
func (s *LoanService) Queue(ctx context.Context, statuses ...domain.LoanStatus) ([]*domain.LoanQueueItem, error) {
	items, err := s.store.Repos().Loans.ListQueue(ctx, statuses...)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return items, nil
}

// GetByID fetches one application.
func (s *LoanService) GetByID(ctx context.Context, loanID int64) (*domain.LoanApplication, error) {
	loan, err := s.store.Repos().Loans.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapNotFound("loan application", loanID)
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return loan, nil
}
