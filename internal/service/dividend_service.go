package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kikundi/sacco-engine/internal/domain"
	"github.com/kikundi/sacco-engine/internal/repository"
	customError "github.com/kikundi/sacco-engine/pkg/errors"
)

// DividendService declares annual dividends and allocates them to members,
// either pro-rata by share capital or as an equal split.
type DividendService struct {
	store    repository.Store
	notifier *Notifier
}

func NewDividendService(store repository.Store, notifier *Notifier) *DividendService {
	return &DividendService{store: store, notifier: notifier}
}

// Declare records one dividend per financial year.
func (s *DividendService) Declare(ctx context.Context, declaredBy int64, req *domain.DeclareDividendRequest) (*domain.Dividend, error) {
	if !req.TotalAmount.IsPositive() {
		return nil, customError.WrapNotEligible("dividend amount must be positive")
	}

	r := s.store.Repos()

	exists, err := r.Dividends.ExistsForYear(ctx, req.FinancialYear)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if exists {
		return nil, customError.WrapConflict(
			fmt.Sprintf("a dividend for financial year %d has already been declared", req.FinancialYear))
	}

	dividend := &domain.Dividend{
		FinancialYear: req.FinancialYear,
		DividendRate:  req.DividendRate,
		TotalAmount:   req.TotalAmount,
		Status:        domain.DividendStatusPending,
		DeclaredBy:    declaredBy,
		Description:   req.Description,
	}
	if err := r.Dividends.Create(ctx, dividend); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return dividend, nil
}

// Allocate splits a declared dividend across members and credits each slice
// to savings, all in one transaction. SHARE_BASED splits pro-rata by
// completed share capital; EQUAL splits evenly across shareholders.
func (s *DividendService) Allocate(ctx context.Context, dividendID int64, req *domain.AllocateRequest) ([]*domain.DividendAllocation, error) {
	var allocations []*domain.DividendAllocation

	err := s.store.Atomic(ctx, func(r repository.Repos) error {
		dividend, err := r.Dividends.GetByID(ctx, dividendID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return customError.WrapNotFound("dividend", dividendID)
			}
			return customError.WrapDatabaseError(err)
		}
		if dividend.Status != domain.DividendStatusPending {
			return customError.WrapInvalidState(domain.DividendStatusPending, dividend.Status)
		}

		holders, err := r.Deposits.ShareCapitalByMember(ctx)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		if len(holders) == 0 {
			return customError.WrapNotEligible("no members hold share capital")
		}

		totalShares := decimal.Zero
		for _, h := range holders {
			totalShares = totalShares.Add(h.ShareCapital)
		}
		equalSlice := dividend.TotalAmount.Div(decimal.NewFromInt(int64(len(holders)))).Round(2)

		for _, h := range holders {
			var amount decimal.Decimal
			if req.Method == domain.AllocationShareBased {
				amount = dividend.TotalAmount.Mul(h.ShareCapital).Div(totalShares).Round(2)
			} else {
				amount = equalSlice
			}

			alloc := &domain.DividendAllocation{
				DividendID:     dividend.ID,
				MemberID:       h.MemberID,
				ShareValue:     h.ShareCapital,
				DividendAmount: amount,
				Status:         domain.RecordStatusCompleted,
			}
			if err := r.Dividends.CreateAllocation(ctx, alloc); err != nil {
				return customError.WrapDatabaseError(err)
			}

			credit := &domain.DepositRecord{
				ID:             uuid.New(),
				UserID:         h.MemberID,
				Amount:         amount,
				Type:           domain.DepositTypeDeposit,
				TransactionRef: fmt.Sprintf("DIV-%d-%d", dividend.ID, h.MemberID),
				Status:         domain.RecordStatusCompleted,
				Description:    fmt.Sprintf("Dividend payout for FY %d", dividend.FinancialYear),
			}
			if _, err := r.Deposits.Insert(ctx, credit); err != nil {
				return customError.WrapDatabaseError(err)
			}

			allocations = append(allocations, alloc)
		}

		ok, err := r.Dividends.MarkDistributed(ctx, dividend.ID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		if !ok {
			return customError.WrapInvalidState(domain.DividendStatusPending, domain.DividendStatusDistributed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, a := range allocations {
		s.notifier.NotifyUser(ctx, a.MemberID,
			fmt.Sprintf("A dividend of %s has been credited to your savings.", a.DividendAmount.StringFixed(2)))
	}
	return allocations, nil
}

// ListAll returns every declared dividend.
func (s *DividendService) ListAll(ctx context.Context) ([]*domain.Dividend, error) {
	dividends, err := s.store.Repos().Dividends.ListAll(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return dividends, nil
}
