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

func newGuarantorService(m *serviceMocks) *GuarantorService {
	return NewGuarantorService(m.store, NewNotifier(m.store, testLogger()))
}

func TestAddGuarantor_SelfGuaranteeRejected(t *testing.T) {
	m := newServiceMocks()
	m.stubDefaults()

	svc := newGuarantorService(m)

	_, err := svc.AddGuarantor(context.Background(), 7, &domain.AddGuarantorRequest{
		LoanID:      3,
		GuarantorID: 7,
	})
	require.Error(t, err)
	assert.Equal(t, customError.ErrCodeNotEligible, customError.CodeOf(err))
}

func TestAddGuarantor_RefreshesCacheWithAllInvited(t *testing.T) {
	m := newServiceMocks()
	m.stubDefaults()
	m.loans.On("GetByIDForUpdate", mock.Anything, int64(3)).Return(
		&domain.LoanApplication{ID: 3, MemberID: 7, Status: domain.LoanStatusPendingGuarantors}, nil)
	m.members.On("GetByID", mock.Anything, int64(9)).Return(&domain.Member{ID: 9}, nil)
	m.guarantors.On("Create", mock.Anything, mock.MatchedBy(func(g *domain.GuarantorRequest) bool {
		return g.LoanApplicationID == 3 && g.GuarantorID == 9 && g.Status == domain.GuarantorStatusPending
	})).Return(nil)
	m.guarantors.On("IDsByLoan", mock.Anything, int64(3), "").Return([]int64{8, 9}, nil)
	m.loans.On("SetGuarantorCache", mock.Anything, int64(3), []int64{8, 9}).Return(nil)

	svc := newGuarantorService(m)

	created, err := svc.AddGuarantor(context.Background(), 7, &domain.AddGuarantorRequest{
		LoanID:      3,
		GuarantorID: 9,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.GuarantorStatusPending, created.Status)
	m.guarantors.AssertExpectations(t)
	m.loans.AssertExpectations(t)
}

func TestAddGuarantor_WrongOwner(t *testing.T) {
	m := newServiceMocks()
	m.stubDefaults()
	m.loans.On("GetByIDForUpdate", mock.Anything, int64(3)).Return(
		&domain.LoanApplication{ID: 3, MemberID: 12, Status: domain.LoanStatusPendingGuarantors}, nil)

	svc := newGuarantorService(m)

	_, err := svc.AddGuarantor(context.Background(), 7, &domain.AddGuarantorRequest{
		LoanID:      3,
		GuarantorID: 9,
	})
	require.Error(t, err)
	assert.Equal(t, customError.ErrCodeNotAuthorized, customError.CodeOf(err))
	m.guarantors.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRespond_NonAddresseeRejected(t *testing.T) {
	m := newServiceMocks()
	m.stubDefaults()
	m.guarantors.On("GetByID", mock.Anything, int64(11)).Return(
		&domain.GuarantorRequest{ID: 11, LoanApplicationID: 3, GuarantorID: 9, Status: domain.GuarantorStatusPending}, nil)

	svc := newGuarantorService(m)

	err := svc.Respond(context.Background(), 7, &domain.GuarantorDecisionRequest{
		RequestID: 11,
		Decision:  domain.GuarantorStatusAccepted,
	})
	require.Error(t, err)
	assert.Equal(t, customError.ErrCodeNotAuthorized, customError.CodeOf(err))
	m.guarantors.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestRespond_AlreadyDecided(t *testing.T) {
	m := newServiceMocks()
	m.stubDefaults()
	m.guarantors.On("GetByID", mock.Anything, int64(11)).Return(
		&domain.GuarantorRequest{ID: 11, LoanApplicationID: 3, GuarantorID: 9, Status: domain.GuarantorStatusAccepted}, nil)

	svc := newGuarantorService(m)

	err := svc.Respond(context.Background(), 9, &domain.GuarantorDecisionRequest{
		RequestID: 11,
		Decision:  domain.GuarantorStatusRejected,
	})
	require.Error(t, err)
	assert.Equal(t, customError.ErrCodeInvalidState, customError.CodeOf(err))
}

func TestRespond_LastAcceptanceSubmitsApplication(t *testing.T) {
	m := newServiceMocks()
	m.stubDefaults()
	m.guarantors.On("GetByID", mock.Anything, int64(11)).Return(
		&domain.GuarantorRequest{ID: 11, LoanApplicationID: 3, GuarantorID: 9, Status: domain.GuarantorStatusPending}, nil)
	m.guarantors.On("UpdateStatus", mock.Anything, int64(11), domain.GuarantorStatusAccepted).Return(nil)
	m.guarantors.On("IDsByLoan", mock.Anything, int64(3), domain.GuarantorStatusAccepted).Return([]int64{8, 9}, nil)
	m.loans.On("SetGuarantorCache", mock.Anything, int64(3), []int64{8, 9}).Return(nil)
	m.guarantors.On("CountByLoanAndStatus", mock.Anything, int64(3), domain.GuarantorStatusPending).Return(0, nil)
	m.loans.On("TransitionStatus", mock.Anything, int64(3),
		[]domain.LoanStatus{domain.LoanStatusPendingGuarantors}, domain.LoanStatusSubmitted).Return(true, nil)
	m.loans.On("GetByID", mock.Anything, int64(3)).Return(
		&domain.LoanApplication{ID: 3, MemberID: 7}, nil)

	svc := newGuarantorService(m)

	err := svc.Respond(context.Background(), 9, &domain.GuarantorDecisionRequest{
		RequestID: 11,
		Decision:  domain.GuarantorStatusAccepted,
	})
	require.NoError(t, err)
	m.guarantors.AssertExpectations(t)
	m.loans.AssertExpectations(t)
}

func TestRespond_PendingInvitesHoldSubmission(t *testing.T) {
	m := newServiceMocks()
	m.stubDefaults()
	m.guarantors.On("GetByID", mock.Anything, int64(11)).Return(
		&domain.GuarantorRequest{ID: 11, LoanApplicationID: 3, GuarantorID: 9, Status: domain.GuarantorStatusPending}, nil)
	m.guarantors.On("UpdateStatus", mock.Anything, int64(11), domain.GuarantorStatusAccepted).Return(nil)
	m.guarantors.On("IDsByLoan", mock.Anything, int64(3), domain.GuarantorStatusAccepted).Return([]int64{9}, nil)
	m.loans.On("SetGuarantorCache", mock.Anything, int64(3), []int64{9}).Return(nil)
	m.guarantors.On("CountByLoanAndStatus", mock.Anything, int64(3), domain.GuarantorStatusPending).Return(1, nil)
	m.loans.On("GetByID", mock.Anything, int64(3)).Return(
		&domain.LoanApplication{ID: 3, MemberID: 7}, nil)

	svc := newGuarantorService(m)

	err := svc.Respond(context.Background(), 9, &domain.GuarantorDecisionRequest{
		RequestID: 11,
		Decision:  domain.GuarantorStatusAccepted,
	})
	require.NoError(t, err)
	m.loans.AssertNotCalled(t, "TransitionStatus",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
