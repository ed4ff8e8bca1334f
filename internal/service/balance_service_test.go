package service

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kikundi/sacco-engine/internal/domain"
	customError "github.com/kikundi/sacco-engine/pkg/errors"
)

func newBalanceService(m *serviceMocks) *BalanceService {
	return NewBalanceService(m.store, NewNotifier(m.store, testLogger()))
}

func TestFreeSavings_LiabilityReducesBalance(t *testing.T) {
	m := newServiceMocks()
	m.stubDefaults()
	stubSavings(m, 7, 10000, -2000)
	m.guarantors.On("SumAcceptedByGuarantor", mock.Anything, int64(7)).
		Return(decimal.NewFromInt(3000), nil)

	svc := newBalanceService(m)

	free, err := svc.FreeSavings(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, free.Equal(decimal.NewFromInt(5000)), "got %s", free)
}

func TestFreeSavings_NeverNegative(t *testing.T) {
	m := newServiceMocks()
	m.stubDefaults()
	stubSavings(m, 7, 1000, 0)
	m.guarantors.On("SumAcceptedByGuarantor", mock.Anything, int64(7)).
		Return(decimal.NewFromInt(5000), nil)

	svc := newBalanceService(m)

	free, err := svc.FreeSavings(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, free.IsZero())
}

func TestRequestWithdrawal_BlockedByGuaranteeLock(t *testing.T) {
	m := newServiceMocks()
	m.stubDefaults()
	stubSavings(m, 7, 10000, 0)
	m.guarantors.On("SumAcceptedByGuarantor", mock.Anything, int64(7)).
		Return(decimal.NewFromInt(8000), nil)

	svc := newBalanceService(m)

	_, err := svc.RequestWithdrawal(context.Background(), 7, &domain.WithdrawalRequest{
		Amount: decimal.NewFromInt(5000),
	})
	require.Error(t, err)
	assert.Equal(t, customError.ErrCodeLimitExceeded, customError.CodeOf(err))
	m.deposits.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestRequestWithdrawal_Success(t *testing.T) {
	m := newServiceMocks()
	m.stubDefaults()
	stubSavings(m, 7, 10000, 0)
	m.guarantors.On("SumAcceptedByGuarantor", mock.Anything, int64(7)).
		Return(decimal.Zero, nil)
	m.deposits.On("Insert", mock.Anything, mock.MatchedBy(func(d *domain.DepositRecord) bool {
		return d.Type == domain.DepositTypeWithdrawal &&
			d.Amount.Equal(decimal.NewFromInt(-5000)) &&
			strings.HasPrefix(d.TransactionRef, "WTH-")
	})).Return(true, nil)
	m.transactions.On("Create", mock.Anything, mock.MatchedBy(func(txn *domain.TransactionRecord) bool {
		return txn.Type == domain.DepositTypeWithdrawal && txn.Amount.Equal(decimal.NewFromInt(-5000))
	})).Return(nil)

	svc := newBalanceService(m)

	record, err := svc.RequestWithdrawal(context.Background(), 7, &domain.WithdrawalRequest{
		Amount: decimal.NewFromInt(5000),
	})
	require.NoError(t, err)
	assert.True(t, record.Amount.IsNegative())
	m.deposits.AssertExpectations(t)
}

func TestRequestWithdrawal_NonPositiveAmount(t *testing.T) {
	m := newServiceMocks()
	m.stubDefaults()

	svc := newBalanceService(m)

	_, err := svc.RequestWithdrawal(context.Background(), 7, &domain.WithdrawalRequest{
		Amount: decimal.Zero,
	})
	require.Error(t, err)
	assert.Equal(t, customError.ErrCodeNotEligible, customError.CodeOf(err))
}

func TestBalances(t *testing.T) {
	m := newServiceMocks()
	m.stubDefaults()
	stubSavings(m, 7, 10000, -1500)
	m.deposits.On("SumCompletedByType", mock.Anything, int64(7), domain.DepositTypeShareCapital).
		Return(decimal.NewFromInt(2000), nil)

	svc := newBalanceService(m)

	view, err := svc.Balances(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, view.Balance.Equal(decimal.NewFromInt(8500)))
	assert.True(t, view.Shares.Equal(decimal.NewFromInt(2000)))
}
