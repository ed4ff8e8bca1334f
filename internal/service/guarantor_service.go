package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kikundi/sacco-engine/internal/domain"
	"github.com/kikundi/sacco-engine/internal/repository"
	customError "github.com/kikundi/sacco-engine/pkg/errors"
)

// GuarantorService manages guarantor invitations and decisions, and keeps the
// denormalized guarantor id cache on the loan row in step with the request
// table.
type GuarantorService struct {
	store    repository.Store
	notifier *Notifier
}

func NewGuarantorService(store repository.Store, notifier *Notifier) *GuarantorService {
	return &GuarantorService{store: store, notifier: notifier}
}

// AddGuarantor invites a member to guarantee the caller's application. Until
// responses arrive the cache holds every invited id; after the first decision
// it holds accepted ids only.
func (s *GuarantorService) AddGuarantor(ctx context.Context, memberID int64, req *domain.AddGuarantorRequest) (*domain.GuarantorRequest, error) {
	if req.GuarantorID == memberID {
		return nil, customError.WrapNotEligible("you cannot guarantee your own loan")
	}

	var created *domain.GuarantorRequest
	err := s.store.Atomic(ctx, func(r repository.Repos) error {
		loan, err := r.Loans.GetByIDForUpdate(ctx, req.LoanID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return customError.WrapNotFound("loan application", req.LoanID)
			}
			return customError.WrapDatabaseError(err)
		}
		if loan.MemberID != memberID {
			return customError.WrapNotAuthorized("loan application belongs to another member")
		}
		if loan.Status != domain.LoanStatusPendingGuarantors {
			return customError.WrapInvalidState(string(domain.LoanStatusPendingGuarantors), string(loan.Status))
		}

		if _, err := r.Members.GetByID(ctx, req.GuarantorID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return customError.WrapNotFound("member", req.GuarantorID)
			}
			return customError.WrapDatabaseError(err)
		}

		created = &domain.GuarantorRequest{
			LoanApplicationID: req.LoanID,
			GuarantorID:       req.GuarantorID,
			Status:            domain.GuarantorStatusPending,
			AmountGuaranteed:  req.AmountGuaranteed,
		}
		if err := r.Guarantors.Create(ctx, created); err != nil {
			return customError.WrapDatabaseError(err)
		}

		ids, err := r.Guarantors.IDsByLoan(ctx, req.LoanID, "")
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		if err := r.Loans.SetGuarantorCache(ctx, req.LoanID, ids); err != nil {
			return customError.WrapDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(ctx, req.GuarantorID,
		fmt.Sprintf("You have been asked to guarantee loan application #%d.", req.LoanID))
	return created, nil
}

// Respond records the addressed guarantor's decision. Only the addressee may
// decide, only once. When the last pending invitation is decided and at least
// one guarantor accepted, the application advances to SUBMITTED.
func (s *GuarantorService) Respond(ctx context.Context, memberID int64, req *domain.GuarantorDecisionRequest) error {
	var borrowerID int64
	var submitted bool

	err := s.store.Atomic(ctx, func(r repository.Repos) error {
		gr, err := r.Guarantors.GetByID(ctx, req.RequestID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return customError.WrapNotFound("guarantor request", req.RequestID)
			}
			return customError.WrapDatabaseError(err)
		}
		if gr.GuarantorID != memberID {
			return customError.WrapNotAuthorized("guarantor request is addressed to another member")
		}
		if gr.Status != domain.GuarantorStatusPending {
			return customError.WrapInvalidState(domain.GuarantorStatusPending, gr.Status)
		}

		if err := r.Guarantors.UpdateStatus(ctx, gr.ID, req.Decision); err != nil {
			return customError.WrapDatabaseError(err)
		}

		// Once decisions start landing the cache tracks accepted ids only.
		accepted, err := r.Guarantors.IDsByLoan(ctx, gr.LoanApplicationID, domain.GuarantorStatusAccepted)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		if err := r.Loans.SetGuarantorCache(ctx, gr.LoanApplicationID, accepted); err != nil {
			return customError.WrapDatabaseError(err)
		}

		pending, err := r.Guarantors.CountByLoanAndStatus(ctx, gr.LoanApplicationID, domain.GuarantorStatusPending)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		if pending == 0 && len(accepted) > 0 {
			moved, err := r.Loans.TransitionStatus(ctx, gr.LoanApplicationID,
				[]domain.LoanStatus{domain.LoanStatusPendingGuarantors}, domain.LoanStatusSubmitted)
			if err != nil {
				return customError.WrapDatabaseError(err)
			}
			submitted = moved
		}

		loan, err := r.Loans.GetByID(ctx, gr.LoanApplicationID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		borrowerID = loan.MemberID
		return nil
	})
	if err != nil {
		return err
	}

	verb := "accepted"
	if req.Decision == domain.GuarantorStatusRejected {
		verb = "declined"
	}
	s.notifier.NotifyUser(ctx, borrowerID, fmt.Sprintf("A guarantor has %s your request.", verb))
	if submitted {
		s.notifier.NotifyUser(ctx, borrowerID, "All guarantors have responded. Your application has been submitted for verification.")
	}
	return nil
}

// MyRequests lists invitations addressed to the member.
func (s *GuarantorService) MyRequests(ctx context.Context, memberID int64) ([]*domain.GuarantorView, error) {
	items, err := s.store.Repos().Guarantors.ListByGuarantor(ctx, memberID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return items, nil
}

// LoanRoster lists a loan's guarantors with names.
func (s *GuarantorService) LoanRoster(ctx context.Context, loanID int64) ([]*domain.GuarantorView, error) {
	items, err := s.store.Repos().Guarantors.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return items, nil
}

// SearchMembers finds candidate guarantors by name, excluding the caller.
func (s *GuarantorService) SearchMembers(ctx context.Context, memberID int64, query string) ([]*domain.Member, error) {
	members, err := s.store.Repos().Members.Search(ctx, query, memberID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return members, nil
}
