package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/kikundi/sacco-engine/internal/domain"
	"github.com/kikundi/sacco-engine/internal/repository"
)

// mockStore satisfies repository.Store over the mocked repositories. Atomic
// simply runs the function against the same bundle, so transactional code
// paths are exercised without a database.
type mockStore struct {
	repos repository.Repos
}

func (m *mockStore) Repos() repository.Repos { return m.repos }

func (m *mockStore) Atomic(_ context.Context, fn func(r repository.Repos) error) error {
	return fn(m.repos)
}

type serviceMocks struct {
	loans         *mockLoanRepo
	deposits      *mockDepositRepo
	transactions  *mockTransactionRepo
	guarantors    *mockGuarantorRepo
	votes         *mockVoteRepo
	fines         *mockFineRepo
	dividends     *mockDividendRepo
	members       *mockMemberRepo
	notifications *mockNotificationRepo
	settings      *mockSettingsRepo
	store         *mockStore
}

func newServiceMocks() *serviceMocks {
	m := &serviceMocks{
		loans:         &mockLoanRepo{},
		deposits:      &mockDepositRepo{},
		transactions:  &mockTransactionRepo{},
		guarantors:    &mockGuarantorRepo{},
		votes:         &mockVoteRepo{},
		fines:         &mockFineRepo{},
		dividends:     &mockDividendRepo{},
		members:       &mockMemberRepo{},
		notifications: &mockNotificationRepo{},
		settings:      &mockSettingsRepo{},
	}
	m.store = &mockStore{repos: repository.Repos{
		Loans:         m.loans,
		Deposits:      m.deposits,
		Transactions:  m.transactions,
		Guarantors:    m.guarantors,
		Votes:         m.votes,
		Fines:         m.fines,
		Dividends:     m.dividends,
		Members:       m.members,
		Notifications: m.notifications,
		Settings:      m.settings,
	}}
	return m
}

// stubDefaults wires the common background expectations most tests share:
// settings fall back to their defaults and notifications always succeed.
func (m *serviceMocks) stubDefaults() {
	m.settings.On("Get", mock.Anything, mock.Anything).Return("", false, nil).Maybe()
	m.notifications.On("Insert", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	m.members.On("ListIDsByRole", mock.Anything, mock.Anything).Return([]int64{}, nil).Maybe()
	m.members.On("ListAllIDs", mock.Anything).Return([]int64{}, nil).Maybe()
}

func testLogger() zerolog.Logger { return zerolog.Nop() }

type mockLoanRepo struct{ mock.Mock }

func (m *mockLoanRepo) Create(ctx context.Context, loan *domain.LoanApplication) (bool, error) {
	args := m.Called(ctx, loan)
	return args.Bool(0), args.Error(1)
}

func (m *mockLoanRepo) GetByID(ctx context.Context, id int64) (*domain.LoanApplication, error) {
	args := m.Called(ctx, id)
	if loan, ok := args.Get(0).(*domain.LoanApplication); ok {
		return loan, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLoanRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.LoanApplication, error) {
	args := m.Called(ctx, id)
	if loan, ok := args.Get(0).(*domain.LoanApplication); ok {
		return loan, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLoanRepo) LatestByMember(ctx context.Context, memberID int64) (*domain.LoanApplication, error) {
	args := m.Called(ctx, memberID)
	if loan, ok := args.Get(0).(*domain.LoanApplication); ok {
		return loan, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLoanRepo) HasOpenApplication(ctx context.Context, memberID int64) (bool, error) {
	args := m.Called(ctx, memberID)
	return args.Bool(0), args.Error(1)
}

func (m *mockLoanRepo) OldestActiveByMember(ctx context.Context, memberID int64) (*domain.LoanApplication, error) {
	args := m.Called(ctx, memberID)
	if loan, ok := args.Get(0).(*domain.LoanApplication); ok {
		return loan, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLoanRepo) LatestFeePendingByMember(ctx context.Context, memberID int64) (*domain.LoanApplication, error) {
	args := m.Called(ctx, memberID)
	if loan, ok := args.Get(0).(*domain.LoanApplication); ok {
		return loan, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLoanRepo) UpdateDetails(ctx context.Context, id int64, amount decimal.Decimal, purpose string, weeks int, status domain.LoanStatus) error {
	return m.Called(ctx, id, amount, purpose, weeks, status).Error(0)
}

func (m *mockLoanRepo) TransitionStatus(ctx context.Context, id int64, from []domain.LoanStatus, to domain.LoanStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *mockLoanRepo) MarkDisbursed(ctx context.Context, id int64, interest, totalDue decimal.Decimal, disbursedAt time.Time) (bool, error) {
	args := m.Called(ctx, id, interest, totalDue, disbursedAt)
	return args.Bool(0), args.Error(1)
}

func (m *mockLoanRepo) ApplyRepayment(ctx context.Context, id int64, amountRepaid decimal.Decimal, status domain.LoanStatus) error {
	return m.Called(ctx, id, amountRepaid, status).Error(0)
}

func (m *mockLoanRepo) MarkFeePaid(ctx context.Context, id int64, ref string, amount decimal.Decimal) error {
	return m.Called(ctx, id, ref, amount).Error(0)
}

func (m *mockLoanRepo) SetGuarantorCache(ctx context.Context, loanID int64, guarantorIDs []int64) error {
	return m.Called(ctx, loanID, guarantorIDs).Error(0)
}

func (m *mockLoanRepo) ListQueue(ctx context.Context, statuses ...domain.LoanStatus) ([]*domain.LoanQueueItem, error) {
	args := m.Called(ctx, statuses)
	if items, ok := args.Get(0).([]*domain.LoanQueueItem); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockDepositRepo struct{ mock.Mock }

func (m *mockDepositRepo) Insert(ctx context.Context, d *domain.DepositRecord) (bool, error) {
	args := m.Called(ctx, d)
	return args.Bool(0), args.Error(1)
}

func (m *mockDepositRepo) SumCompletedByType(ctx context.Context, userID int64, depositType string) (decimal.Decimal, error) {
	args := m.Called(ctx, userID, depositType)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockDepositRepo) SumCompleted(ctx context.Context, userID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockDepositRepo) ListAll(ctx context.Context, limit int) ([]*domain.DepositListItem, error) {
	args := m.Called(ctx, limit)
	if items, ok := args.Get(0).([]*domain.DepositListItem); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDepositRepo) ShareCapitalByMember(ctx context.Context) ([]*domain.MemberShareCapital, error) {
	args := m.Called(ctx)
	if rows, ok := args.Get(0).([]*domain.MemberShareCapital); ok {
		return rows, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockTransactionRepo struct{ mock.Mock }

func (m *mockTransactionRepo) Create(ctx context.Context, t *domain.TransactionRecord) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.TransactionRecord, error) {
	args := m.Called(ctx, id)
	if txn, ok := args.Get(0).(*domain.TransactionRecord); ok {
		return txn, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTransactionRepo) GetByReference(ctx context.Context, reference string) (*domain.TransactionRecord, error) {
	args := m.Called(ctx, reference)
	if txn, ok := args.Get(0).(*domain.TransactionRecord); ok {
		return txn, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTransactionRepo) GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*domain.TransactionRecord, error) {
	args := m.Called(ctx, checkoutRequestID)
	if txn, ok := args.Get(0).(*domain.TransactionRecord); ok {
		return txn, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTransactionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status, description string) error {
	return m.Called(ctx, id, status, description).Error(0)
}

func (m *mockTransactionRepo) MarkCompleted(ctx context.Context, id uuid.UUID, reference, description string) error {
	return m.Called(ctx, id, reference, description).Error(0)
}

func (m *mockTransactionRepo) Reassign(ctx context.Context, id uuid.UUID, userID int64, purpose, description string) (bool, error) {
	args := m.Called(ctx, id, userID, purpose, description)
	return args.Bool(0), args.Error(1)
}

func (m *mockTransactionRepo) ListPending(ctx context.Context) ([]*domain.TransactionListItem, error) {
	args := m.Called(ctx)
	if items, ok := args.Get(0).([]*domain.TransactionListItem); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTransactionRepo) ListAll(ctx context.Context, limit int) ([]*domain.TransactionListItem, error) {
	args := m.Called(ctx, limit)
	if items, ok := args.Get(0).([]*domain.TransactionListItem); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTransactionRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]*domain.TransactionRecord, error) {
	args := m.Called(ctx, userID, limit)
	if items, ok := args.Get(0).([]*domain.TransactionRecord); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockGuarantorRepo struct{ mock.Mock }

func (m *mockGuarantorRepo) Create(ctx context.Context, g *domain.GuarantorRequest) error {
	return m.Called(ctx, g).Error(0)
}

func (m *mockGuarantorRepo) GetByID(ctx context.Context, id int64) (*domain.GuarantorRequest, error) {
	args := m.Called(ctx, id)
	if g, ok := args.Get(0).(*domain.GuarantorRequest); ok {
		return g, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGuarantorRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockGuarantorRepo) IDsByLoan(ctx context.Context, loanID int64, status string) ([]int64, error) {
	args := m.Called(ctx, loanID, status)
	if ids, ok := args.Get(0).([]int64); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGuarantorRepo) CountByLoanAndStatus(ctx context.Context, loanID int64, status string) (int, error) {
	args := m.Called(ctx, loanID, status)
	return args.Int(0), args.Error(1)
}

func (m *mockGuarantorRepo) SumAcceptedByGuarantor(ctx context.Context, guarantorID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, guarantorID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockGuarantorRepo) ListByGuarantor(ctx context.Context, guarantorID int64) ([]*domain.GuarantorView, error) {
	args := m.Called(ctx, guarantorID)
	if items, ok := args.Get(0).([]*domain.GuarantorView); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGuarantorRepo) ListByLoan(ctx context.Context, loanID int64) ([]*domain.GuarantorView, error) {
	args := m.Called(ctx, loanID)
	if items, ok := args.Get(0).([]*domain.GuarantorView); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockVoteRepo struct{ mock.Mock }

func (m *mockVoteRepo) Insert(ctx context.Context, v *domain.Vote) (bool, error) {
	args := m.Called(ctx, v)
	return args.Bool(0), args.Error(1)
}

func (m *mockVoteRepo) ListOpenForMember(ctx context.Context, memberID int64) ([]*domain.LoanQueueItem, error) {
	args := m.Called(ctx, memberID)
	if items, ok := args.Get(0).([]*domain.LoanQueueItem); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVoteRepo) LiveTallies(ctx context.Context) ([]*domain.VoteTally, error) {
	args := m.Called(ctx)
	if tallies, ok := args.Get(0).([]*domain.VoteTally); ok {
		return tallies, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockFineRepo struct{ mock.Mock }

func (m *mockFineRepo) Create(ctx context.Context, f *domain.MemberFine) error {
	return m.Called(ctx, f).Error(0)
}

func (m *mockFineRepo) ListOpenByUser(ctx context.Context, userID int64) ([]*domain.MemberFine, error) {
	args := m.Called(ctx, userID)
	if fines, ok := args.Get(0).([]*domain.MemberFine); ok {
		return fines, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFineRepo) SaveInterest(ctx context.Context, f *domain.MemberFine) error {
	return m.Called(ctx, f).Error(0)
}

func (m *mockFineRepo) MembersMissingWeeklyDeposit(ctx context.Context, minDeposit decimal.Decimal) ([]int64, error) {
	args := m.Called(ctx, minDeposit)
	if ids, ok := args.Get(0).([]int64); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockDividendRepo struct{ mock.Mock }

func (m *mockDividendRepo) Create(ctx context.Context, d *domain.Dividend) error {
	return m.Called(ctx, d).Error(0)
}

func (m *mockDividendRepo) GetByID(ctx context.Context, id int64) (*domain.Dividend, error) {
	args := m.Called(ctx, id)
	if d, ok := args.Get(0).(*domain.Dividend); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDividendRepo) ExistsForYear(ctx context.Context, financialYear int) (bool, error) {
	args := m.Called(ctx, financialYear)
	return args.Bool(0), args.Error(1)
}

func (m *mockDividendRepo) CreateAllocation(ctx context.Context, a *domain.DividendAllocation) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockDividendRepo) MarkDistributed(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockDividendRepo) ListAll(ctx context.Context) ([]*domain.Dividend, error) {
	args := m.Called(ctx)
	if items, ok := args.Get(0).([]*domain.Dividend); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockMemberRepo struct{ mock.Mock }

func (m *mockMemberRepo) GetByID(ctx context.Context, id int64) (*domain.Member, error) {
	args := m.Called(ctx, id)
	if member, ok := args.Get(0).(*domain.Member); ok {
		return member, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMemberRepo) ListIDsByRole(ctx context.Context, role string) ([]int64, error) {
	args := m.Called(ctx, role)
	if ids, ok := args.Get(0).([]int64); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMemberRepo) ListAllIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if ids, ok := args.Get(0).([]int64); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMemberRepo) Search(ctx context.Context, query string, excludeID int64) ([]*domain.Member, error) {
	args := m.Called(ctx, query, excludeID)
	if members, ok := args.Get(0).([]*domain.Member); ok {
		return members, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockNotificationRepo struct{ mock.Mock }

func (m *mockNotificationRepo) Insert(ctx context.Context, userID int64, message string) error {
	return m.Called(ctx, userID, message).Error(0)
}

func (m *mockNotificationRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]*domain.Notification, error) {
	args := m.Called(ctx, userID, limit)
	if items, ok := args.Get(0).([]*domain.Notification); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSettingsRepo struct{ mock.Mock }

func (m *mockSettingsRepo) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockSettingsRepo) List(ctx context.Context) ([]*domain.Setting, error) {
	args := m.Called(ctx)
	if settings, ok := args.Get(0).([]*domain.Setting); ok {
		return settings, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSettingsRepo) Update(ctx context.Context, key, value string) error {
	return m.Called(ctx, key, value).Error(0)
}
