package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kikundi/sacco-engine/internal/domain"
	customError "github.com/kikundi/sacco-engine/pkg/errors"
)

func newDividendService(m *serviceMocks) *DividendService {
	return NewDividendService(m.store, NewNotifier(m.store, testLogger()))
}

func TestDeclare_DuplicateYearConflicts(t *testing.T) {
	m := newServiceMocks()
	m.stubDefaults()
	m.dividends.On("ExistsForYear", mock.Anything, 2025).Return(true, nil)

	svc := newDividendService(m)

	_, err := svc.Declare(context.Background(), 1, &domain.DeclareDividendRequest{
		FinancialYear: 2025,
		TotalAmount:   decimal.NewFromInt(100000),
	})
	require.Error(t, err)
	assert.Equal(t, customError.ErrCodeConflict, customError.CodeOf(err))
	m.dividends.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAllocate_ShareBasedIsProRata(t *testing.T) {
	m := newServiceMocks()
	m.stubDefaults()
	m.dividends.On("GetByID", mock.Anything, int64(5)).Return(&domain.Dividend{
		ID:            5,
		FinancialYear: 2025,
		TotalAmount:   decimal.NewFromInt(90000),
		Status:        domain.DividendStatusPending,
	}, nil)
	m.deposits.On("ShareCapitalByMember", mock.Anything).Return([]*domain.MemberShareCapital{
		{MemberID: 1, ShareCapital: decimal.NewFromInt(2000)},
		{MemberID: 2, ShareCapital: decimal.NewFromInt(1000)},
	}, nil)
	m.dividends.On("CreateAllocation", mock.Anything, mock.Anything).Return(nil)
	m.dividends.On("MarkDistributed", mock.Anything, int64(5)).Return(true, nil)
	m.deposits.On("Insert", mock.Anything, mock.Anything).Return(true, nil)

	svc := newDividendService(m)

	allocations, err := svc.Allocate(context.Background(), 5, &domain.AllocateRequest{
		Method: domain.AllocationShareBased,
	})
	require.NoError(t, err)
	require.Len(t, allocations, 2)
	assert.True(t, allocations[0].DividendAmount.Equal(decimal.NewFromInt(60000)),
		"got %s", allocations[0].DividendAmount)
	assert.True(t, allocations[1].DividendAmount.Equal(decimal.NewFromInt(30000)),
		"got %s", allocations[1].DividendAmount)
}

func TestAllocate_EqualSplit(t *testing.T) {
	m := newServiceMocks()
	m.stubDefaults()
	m.dividends.On("GetByID", mock.Anything, int64(5)).Return(&domain.Dividend{
		ID:          5,
		TotalAmount: decimal.NewFromInt(90000),
		Status:      domain.DividendStatusPending,
	}, nil)
	m.deposits.On("ShareCapitalByMember", mock.Anything).Return([]*domain.MemberShareCapital{
		{MemberID: 1, ShareCapital: decimal.NewFromInt(2000)},
		{MemberID: 2, ShareCapital: decimal.NewFromInt(1000)},
		{MemberID: 3, ShareCapital: decimal.NewFromInt(500)},
	}, nil)
	m.dividends.On("CreateAllocation", mock.Anything, mock.Anything).Return(nil)
	m.dividends.On("MarkDistributed", mock.Anything, int64(5)).Return(true, nil)
	m.deposits.On("Insert", mock.Anything, mock.Anything).Return(true, nil)

	svc := newDividendService(m)

	allocations, err := svc.Allocate(context.Background(), 5, &domain.AllocateRequest{
		Method: domain.AllocationEqual,
	})
	require.NoError(t, err)
	require.Len(t, allocations, 3)
	for _, a := range allocations {
		assert.True(t, a.DividendAmount.Equal(decimal.NewFromInt(30000)))
	}
}

func TestAllocate_NoShareholders(t *testing.T) {
	m := newServiceMocks()
	m.stubDefaults()
	m.dividends.On("GetByID", mock.Anything, int64(5)).Return(&domain.Dividend{
		ID:          5,
		TotalAmount: decimal.NewFromInt(90000),
		Status:      domain.DividendStatusPending,
	}, nil)
	m.deposits.On("ShareCapitalByMember", mock.Anything).Return([]*domain.MemberShareCapital{}, nil)

	svc := newDividendService(m)

	_, err := svc.Allocate(context.Background(), 5, &domain.AllocateRequest{
		Method: domain.AllocationEqual,
	})
	require.Error(t, err)
	assert.Equal(t, customError.ErrCodeNotEligible, customError.CodeOf(err))
}
