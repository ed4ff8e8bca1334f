package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kikundi/sacco-engine/internal/domain"
	"github.com/kikundi/sacco-engine/internal/repository"
	customError "github.com/kikundi/sacco-engine/pkg/errors"
)

// BalanceService exposes the member wallet: savings, share capital and the
// guarantee-liability lock that limits withdrawals.
type BalanceService struct {
	store    repository.Store
	notifier *Notifier
}

func NewBalanceService(store repository.Store, notifier *Notifier) *BalanceService {
	return &BalanceService{store: store, notifier: notifier}
}

// savings sums the member's completed deposit and withdrawal entries.
// Withdrawal entries carry negative amounts, so the sum is the live balance.
func savings(ctx context.Context, r repository.Repos, userID int64) (decimal.Decimal, error) {
	deposits, err := r.Deposits.SumCompletedByType(ctx, userID, domain.DepositTypeDeposit)
	if err != nil {
		return decimal.Zero, err
	}
	withdrawals, err := r.Deposits.SumCompletedByType(ctx, userID, domain.DepositTypeWithdrawal)
	if err != nil {
		return decimal.Zero, err
	}
	return deposits.Add(withdrawals), nil
}

// Balances returns the wallet summary for the member dashboard.
func (s *BalanceService) Balances(ctx context.Context, userID int64) (*domain.BalanceView, error) {
	r := s.store.Repos()

	balance, err := savings(ctx, r, userID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	shares, err := r.Deposits.SumCompletedByType(ctx, userID, domain.DepositTypeShareCapital)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return &domain.BalanceView{Balance: balance, Shares: shares}, nil
}

// GuaranteeLiability is the total the member has accepted to stand behind on
// other members' open loans.
func (s *BalanceService) GuaranteeLiability(ctx context.Context, userID int64) (decimal.Decimal, error) {
	liability, err := s.store.Repos().Guarantors.SumAcceptedByGuarantor(ctx, userID)
	if err != nil {
		return decimal.Zero, customError.WrapDatabaseError(err)
	}
	return liability, nil
}

// FreeSavings is the withdrawable portion of savings: the balance minus the
// member's accepted guarantee liability.
func (s *BalanceService) FreeSavings(ctx context.Context, userID int64) (decimal.Decimal, error) {
	r := s.store.Repos()

	balance, err := savings(ctx, r, userID)
	if err != nil {
		return decimal.Zero, customError.WrapDatabaseError(err)
	}
	liability, err := r.Guarantors.SumAcceptedByGuarantor(ctx, userID)
	if err != nil {
		return decimal.Zero, customError.WrapDatabaseError(err)
	}

	free := balance.Sub(liability)
	if free.IsNegative() {
		free = decimal.Zero
	}
	return free, nil
}

// RequestWithdrawal debits the member's savings. The check and the debit run
// in one transaction so concurrent withdrawals cannot both pass the
// free-savings gate.
func (s *BalanceService) RequestWithdrawal(ctx context.Context, userID int64, req *domain.WithdrawalRequest) (*domain.DepositRecord, error) {
	if !req.Amount.IsPositive() {
		return nil, customError.WrapNotEligible("withdrawal amount must be positive")
	}

	var record *domain.DepositRecord
	err := s.store.Atomic(ctx, func(r repository.Repos) error {
		balance, err := savings(ctx, r, userID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		liability, err := r.Guarantors.SumAcceptedByGuarantor(ctx, userID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}

		free := balance.Sub(liability)
		if req.Amount.GreaterThan(free) {
			return customError.WrapLimitExceeded(req.Amount.String(), free.String())
		}

		record = &domain.DepositRecord{
			ID:             uuid.New(),
			UserID:         userID,
			Amount:         req.Amount.Neg(),
			Type:           domain.DepositTypeWithdrawal,
			TransactionRef: "WTH-" + uuid.NewString(),
			Status:         domain.RecordStatusCompleted,
			Description:    "Savings withdrawal",
		}
		if _, err := r.Deposits.Insert(ctx, record); err != nil {
			return customError.WrapDatabaseError(err)
		}

		txn := &domain.TransactionRecord{
			ID:            uuid.New(),
			UserID:        userID,
			Type:          domain.DepositTypeWithdrawal,
			Amount:        req.Amount.Neg(),
			Status:        domain.RecordStatusCompleted,
			ReferenceCode: record.TransactionRef,
			Description:   "Savings withdrawal",
		}
		if err := r.Transactions.Create(ctx, txn); err != nil {
			return customError.WrapDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(ctx, userID, fmt.Sprintf("Your withdrawal of %s has been recorded.", req.Amount.StringFixed(2)))
	return record, nil
}

// ShareCapitalRegister lists every member's completed share capital, the
// input to a share-based dividend allocation.
func (s *BalanceService) ShareCapitalRegister(ctx context.Context) ([]*domain.MemberShareCapital, error) {
	rows, err := s.store.Repos().Deposits.ShareCapitalByMember(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return rows, nil
}

// LedgerEntries lists recent deposit ledger entries for the admin view.
func (s *BalanceService) LedgerEntries(ctx context.Context, limit int) ([]*domain.DepositListItem, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.store.Repos().Deposits.ListAll(ctx, limit)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return rows, nil
}
