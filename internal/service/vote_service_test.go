package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kikundi/sacco-engine/internal/domain"
	customError "github.com/kikundi/sacco-engine/pkg/errors"
)

func TestCastVote_RequiresFloorStatus(t *testing.T) {
	m := newServiceMocks()
	m.loans.On("GetByID", mock.Anything, int64(3)).Return(
		&domain.LoanApplication{ID: 3, MemberID: 7, Status: domain.LoanStatusTabled}, nil)

	svc := NewVoteService(m.store)

	err := svc.CastVote(context.Background(), 9, &domain.CastVoteRequest{
		LoanID:   3,
		Decision: domain.VoteYes,
	})
	require.Error(t, err)
	assert.Equal(t, customError.ErrCodeInvalidState, customError.CodeOf(err))
	m.votes.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestCastVote_OwnApplicationRejected(t *testing.T) {
	m := newServiceMocks()
	m.loans.On("GetByID", mock.Anything, int64(3)).Return(
		&domain.LoanApplication{ID: 3, MemberID: 7, Status: domain.LoanStatusVoting}, nil)

	svc := NewVoteService(m.store)

	err := svc.CastVote(context.Background(), 7, &domain.CastVoteRequest{
		LoanID:   3,
		Decision: domain.VoteYes,
	})
	require.Error(t, err)
	assert.Equal(t, customError.ErrCodeNotEligible, customError.CodeOf(err))
}

func TestCastVote_SecondVoteConflicts(t *testing.T) {
	m := newServiceMocks()
	m.loans.On("GetByID", mock.Anything, int64(3)).Return(
		&domain.LoanApplication{ID: 3, MemberID: 7, Status: domain.LoanStatusVoting}, nil)
	m.votes.On("Insert", mock.Anything, mock.Anything).Return(false, nil)

	svc := NewVoteService(m.store)

	err := svc.CastVote(context.Background(), 9, &domain.CastVoteRequest{
		LoanID:   3,
		Decision: domain.VoteNo,
	})
	require.Error(t, err)
	assert.Equal(t, customError.ErrCodeConflict, customError.CodeOf(err))
}

func TestCastVote_Success(t *testing.T) {
	m := newServiceMocks()
	m.loans.On("GetByID", mock.Anything, int64(3)).Return(
		&domain.LoanApplication{ID: 3, MemberID: 7, Status: domain.LoanStatusVoting}, nil)
	m.votes.On("Insert", mock.Anything, mock.MatchedBy(func(v *domain.Vote) bool {
		return v.LoanApplicationID == 3 && v.UserID == 9 && v.Vote == domain.VoteYes
	})).Return(true, nil)

	svc := NewVoteService(m.store)

	err := svc.CastVote(context.Background(), 9, &domain.CastVoteRequest{
		LoanID:   3,
		Decision: domain.VoteYes,
	})
	require.NoError(t, err)
	m.votes.AssertExpectations(t)
}
