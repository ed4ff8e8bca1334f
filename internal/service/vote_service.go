package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kikundi/sacco-engine/internal/domain"
	"github.com/kikundi/sacco-engine/internal/repository"
	customError "github.com/kikundi/sacco-engine/pkg/errors"
)

// VoteService records floor votes on applications open for voting.
type VoteService struct {
	store repository.Store
}

func NewVoteService(store repository.Store) *VoteService {
	return &VoteService{store: store}
}

// CastVote records one immutable YES/NO vote. Voting again is a conflict.
func (s *VoteService) CastVote(ctx context.Context, memberID int64, req *domain.CastVoteRequest) error {
	r := s.store.Repos()

	loan, err := r.Loans.GetByID(ctx, req.LoanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapNotFound("loan application", req.LoanID)
		}
		return customError.WrapDatabaseError(err)
	}
	if loan.Status != domain.LoanStatusVoting {
		return customError.WrapInvalidState(string(domain.LoanStatusVoting), string(loan.Status))
	}
	if loan.MemberID == memberID {
		return customError.WrapNotEligible("you cannot vote on your own application")
	}

	inserted, err := r.Votes.Insert(ctx, &domain.Vote{
		LoanApplicationID: req.LoanID,
		UserID:            memberID,
		Vote:              req.Decision,
	})
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	if !inserted {
		return customError.WrapConflict("you have already voted on this application")
	}
	return nil
}

// OpenVotes lists applications on the floor the member has not voted on yet.
func (s *VoteService) OpenVotes(ctx context.Context, memberID int64) ([]*domain.LoanQueueItem, error) {
	items, err := s.store.Repos().Votes.ListOpenForMember(ctx, memberID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return items, nil
}

// LiveTally returns the running YES/NO counts for every application on the
// floor, for the chair's meeting view.
func (s *VoteService) LiveTally(ctx context.Context) ([]*domain.VoteTally, error) {
	tallies, err := s.store.Repos().Votes.LiveTallies(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return tallies, nil
}
