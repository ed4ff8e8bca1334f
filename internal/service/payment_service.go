package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/kikundi/sacco-engine/internal/domain"
	"github.com/kikundi/sacco-engine/internal/repository"
	customError "github.com/kikundi/sacco-engine/pkg/errors"
)

// PaymentService is the repayment router. Every confirmed payment event,
// whatever its source, flows through routeCompleted exactly once: the DEP-
// ledger entry's unique ref is the barrier that prevents a retried callback
// or a double admin approval from applying the same money twice.
type PaymentService struct {
	store    repository.Store
	notifier *Notifier
	log      zerolog.Logger
}

func NewPaymentService(store repository.Store, notifier *Notifier, log zerolog.Logger) *PaymentService {
	return &PaymentService{store: store, notifier: notifier, log: log}
}

// routeCompleted classifies one confirmed payment event and applies it. Must
// run inside a transaction. Safe to call again with the same reference: the
// first insert reports a duplicate and the event is dropped whole.
//
// Every shilling lands in general savings first (DEP-). Money with another
// purpose is then transferred straight out (TRF-) and applied to its target,
// so the savings ledger keeps a readable trace of every incoming payment.
func (s *PaymentService) routeCompleted(ctx context.Context, r repository.Repos, event *domain.PaymentEvent) error {
	purpose := event.Type
	if purpose == "" {
		purpose = domain.PurposeDeposit
	}

	entry := &domain.DepositRecord{
		ID:             uuid.New(),
		UserID:         event.UserID,
		Amount:         event.Amount,
		Type:           domain.DepositTypeDeposit,
		TransactionRef: "DEP-" + event.ReferenceCode,
		Status:         domain.RecordStatusCompleted,
		Description:    "Incoming funds: " + purpose,
	}

	inserted, err := r.Deposits.Insert(ctx, entry)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	if !inserted {
		s.log.Info().Str("reference", event.ReferenceCode).Msg("payment already routed, skipping")
		return nil
	}

	if purpose == domain.PurposeDeposit {
		return nil
	}

	debit := &domain.DepositRecord{
		ID:             uuid.New(),
		UserID:         event.UserID,
		Amount:         event.Amount.Neg(),
		Type:           domain.DepositTypeDeposit,
		TransactionRef: "TRF-" + event.ReferenceCode,
		Status:         domain.RecordStatusCompleted,
		Description:    "Transfer to " + strings.ReplaceAll(purpose, "_", " "),
	}
	if _, err := r.Deposits.Insert(ctx, debit); err != nil {
		return customError.WrapDatabaseError(err)
	}

	switch purpose {
	case domain.PurposeLoanFormFee, domain.PurposeFeePayment:
		return s.routeFee(ctx, r, event)
	case domain.PurposeLoanRepayment:
		return s.routeRepayment(ctx, r, event)
	default:
		// Share capital or a custom contribution category.
		description := fmt.Sprintf("Contribution: %s", purpose)
		if purpose == domain.DepositTypeShareCapital {
			description = "Purchase of Shares"
		}
		return s.creditLedger(ctx, r, event.UserID, event.Amount, purpose,
			event.ReferenceCode, description)
	}
}

// routeFee marks the member's pending application fee-paid. A fee payment
// with no application waiting is refunded to savings.
func (s *PaymentService) routeFee(ctx context.Context, r repository.Repos, event *domain.PaymentEvent) error {
	loan, err := r.Loans.LatestFeePendingByMember(ctx, event.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.creditSavings(ctx, r, event, "RFD-"+event.ReferenceCode,
				"Refund: no pending application")
		}
		return customError.WrapDatabaseError(err)
	}

	if err := r.Loans.MarkFeePaid(ctx, loan.ID, event.ReferenceCode, event.Amount); err != nil {
		return customError.WrapDatabaseError(err)
	}
	return nil
}

// routeRepayment applies the payment to the member's oldest open loan.
// Anything beyond the outstanding balance is refunded to savings; with no
// open loan at all the full amount is refunded.
func (s *PaymentService) routeRepayment(ctx context.Context, r repository.Repos, event *domain.PaymentEvent) error {
	loan, err := r.Loans.OldestActiveByMember(ctx, event.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.creditSavings(ctx, r, event, "RFD-"+event.ReferenceCode,
				"Refund: no active loan")
		}
		return customError.WrapDatabaseError(err)
	}

	// Lock the row so two simultaneous repayments serialize on the total.
	loan, err = r.Loans.GetByIDForUpdate(ctx, loan.ID)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}

	outstanding := loan.TotalDue.Decimal.Sub(loan.AmountRepaid)
	applied := event.Amount
	if applied.GreaterThan(outstanding) {
		applied = outstanding
	}

	overflow := event.Amount.Sub(applied)
	if overflow.IsPositive() {
		if err := s.creditLedger(ctx, r, event.UserID, overflow, domain.DepositTypeDeposit,
			"RFD-"+event.ReferenceCode,
			fmt.Sprintf("Refund: overpayment on loan #%d", loan.ID)); err != nil {
			return err
		}
	}

	newRepaid := loan.AmountRepaid.Add(applied)
	status := loan.Status
	if loan.TotalDue.Decimal.Sub(newRepaid).LessThanOrEqual(domain.CompletionTolerance) {
		status = domain.LoanStatusCompleted
	}
	if err := r.Loans.ApplyRepayment(ctx, loan.ID, newRepaid, status); err != nil {
		return customError.WrapDatabaseError(err)
	}

	if status == domain.LoanStatusCompleted {
		s.notifier.NotifyUser(ctx, event.UserID,
			fmt.Sprintf("Congratulations, loan #%d is fully repaid.", loan.ID))
	}
	return nil
}

func (s *PaymentService) creditSavings(ctx context.Context, r repository.Repos, event *domain.PaymentEvent, ref, description string) error {
	return s.creditLedger(ctx, r, event.UserID, event.Amount, domain.DepositTypeDeposit, ref, description)
}

func (s *PaymentService) creditLedger(ctx context.Context, r repository.Repos, userID int64, amount decimal.Decimal, entryType, ref, description string) error {
	record := &domain.DepositRecord{
		ID:             uuid.New(),
		UserID:         userID,
		Amount:         amount,
		Type:           entryType,
		TransactionRef: ref,
		Status:         domain.RecordStatusCompleted,
		Description:    description,
	}
	if _, err := r.Deposits.Insert(ctx, record); err != nil {
		return customError.WrapDatabaseError(err)
	}
	return nil
}

// HandleGatewayCallback settles a pending STK transaction with the gateway's
// asynchronous result. Retried callbacks are harmless.
func (s *PaymentService) HandleGatewayCallback(ctx context.Context, cb *domain.GatewayCallback) error {
	r := s.store.Repos()

	txn, err := r.Transactions.GetByCheckoutRequestID(ctx, cb.CheckoutRequestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapNotFound("transaction", cb.CheckoutRequestID)
		}
		return customError.WrapDatabaseError(err)
	}
	if txn.Status != domain.RecordStatusPending {
		s.log.Info().Str("checkout_request_id", cb.CheckoutRequestID).
			Str("status", txn.Status).Msg("callback for settled transaction ignored")
		return nil
	}

	if cb.ResultCode != 0 {
		if err := r.Transactions.UpdateStatus(ctx, txn.ID, domain.RecordStatusFailed, cb.ResultDesc); err != nil {
			return customError.WrapDatabaseError(err)
		}
		return nil
	}

	return s.store.Atomic(ctx, func(tr repository.Repos) error {
		if err := tr.Transactions.MarkCompleted(ctx, txn.ID, cb.ReceiptNumber, cb.ResultDesc); err != nil {
			return customError.WrapDatabaseError(err)
		}
		return s.routeCompleted(ctx, tr, &domain.PaymentEvent{
			UserID:        txn.UserID,
			Type:          txn.Type,
			Amount:        txn.Amount,
			ReferenceCode: cb.ReceiptNumber,
		})
	})
}

// RecordManualDeposit files a member's offline payment report for admin
// review. Nothing is credited until an admin approves it.
func (s *PaymentService) RecordManualDeposit(ctx context.Context, memberID int64, req *domain.ManualDepositRequest) (*domain.TransactionRecord, error) {
	if !req.Amount.IsPositive() {
		return nil, customError.WrapNotEligible("amount must be positive")
	}

	txn := &domain.TransactionRecord{
		ID:            uuid.New(),
		UserID:        memberID,
		Type:          req.Type,
		Amount:        req.Amount,
		Status:        domain.RecordStatusPending,
		ReferenceCode: req.Reference,
		Description:   req.Description,
	}
	if err := s.store.Repos().Transactions.Create(ctx, txn); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.notifier.NotifyAdmins(ctx, fmt.Sprintf("Manual deposit %s is awaiting review.", req.Reference))
	return txn, nil
}

// ReviewDeposit is the admin decision on a pending manual report. Approval
// completes the record and routes it in the same transaction.
func (s *PaymentService) ReviewDeposit(ctx context.Context, req *domain.ReviewRequest) error {
	r := s.store.Repos()

	txn, err := r.Transactions.GetByID(ctx, req.TransactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapNotFound("transaction", req.TransactionID)
		}
		return customError.WrapDatabaseError(err)
	}
	if txn.Status != domain.RecordStatusPending {
		return customError.WrapInvalidState(domain.RecordStatusPending, txn.Status)
	}

	if req.Decision == domain.RecordStatusRejected {
		if err := r.Transactions.UpdateStatus(ctx, txn.ID, domain.RecordStatusRejected, "Rejected on review"); err != nil {
			return customError.WrapDatabaseError(err)
		}
		s.notifier.NotifyUser(ctx, txn.UserID, fmt.Sprintf("Your deposit %s was rejected on review.", txn.ReferenceCode))
		return nil
	}

	err = s.store.Atomic(ctx, func(tr repository.Repos) error {
		if err := tr.Transactions.UpdateStatus(ctx, txn.ID, domain.RecordStatusCompleted, "Approved on review"); err != nil {
			return customError.WrapDatabaseError(err)
		}
		return s.routeCompleted(ctx, tr, &domain.PaymentEvent{
			UserID:        txn.UserID,
			Type:          txn.Type,
			Amount:        txn.Amount,
			ReferenceCode: txn.ReferenceCode,
		})
	})
	if err != nil {
		return err
	}

	s.notifier.NotifyUser(ctx, txn.UserID, fmt.Sprintf("Your deposit %s has been approved.", txn.ReferenceCode))
	return nil
}

// AdminRecord books a payment an admin confirmed out of band, creating a
// completed transaction and routing it in one step.
func (s *PaymentService) AdminRecord(ctx context.Context, req *domain.AdminRecordRequest) (*domain.TransactionRecord, error) {
	if !req.Amount.IsPositive() {
		return nil, customError.WrapNotEligible("amount must be positive")
	}

	txn := &domain.TransactionRecord{
		ID:            uuid.New(),
		UserID:        req.UserID,
		Type:          req.Type,
		Amount:        req.Amount,
		Status:        domain.RecordStatusCompleted,
		ReferenceCode: req.Reference,
		Description:   req.Description,
	}

	err := s.store.Atomic(ctx, func(r repository.Repos) error {
		if err := r.Transactions.Create(ctx, txn); err != nil {
			return customError.WrapDatabaseError(err)
		}
		return s.routeCompleted(ctx, r, &domain.PaymentEvent{
			UserID:        req.UserID,
			Type:          req.Type,
			Amount:        req.Amount,
			ReferenceCode: req.Reference,
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(ctx, req.UserID, fmt.Sprintf("A payment of %s has been recorded on your account.", req.Amount.StringFixed(2)))
	return txn, nil
}

// ClaimReference lets a member claim an unmatched incoming payment by its
// gateway reference. A reference already attached to a member is a conflict.
func (s *PaymentService) ClaimReference(ctx context.Context, memberID int64, req *domain.ClaimRequest) error {
	r := s.store.Repos()

	txn, err := r.Transactions.GetByReference(ctx, req.Reference)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapNotFound("transaction", req.Reference)
		}
		return customError.WrapDatabaseError(err)
	}
	if txn.UserID != 0 {
		return customError.WrapConflict("this payment reference has already been claimed")
	}

	purpose := req.Purpose
	if purpose == "" {
		purpose = domain.PurposeDeposit
	}

	err = s.store.Atomic(ctx, func(tr repository.Repos) error {
		claimed, err := tr.Transactions.Reassign(ctx, txn.ID, memberID, purpose,
			fmt.Sprintf("Claimed by member %d", memberID))
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		if !claimed {
			return customError.WrapConflict("this payment reference has already been claimed")
		}
		return s.routeCompleted(ctx, tr, &domain.PaymentEvent{
			UserID:        memberID,
			Type:          purpose,
			Amount:        txn.Amount,
			ReferenceCode: txn.ReferenceCode,
		})
	})
	if err != nil {
		return err
	}

	s.notifier.NotifyUser(ctx, memberID, fmt.Sprintf("Payment %s is now on your account.", req.Reference))
	return nil
}

// ListPendingReview lists manual reports awaiting an admin decision.
func (s *PaymentService) ListPendingReview(ctx context.Context) ([]*domain.TransactionListItem, error) {
	items, err := s.store.Repos().Transactions.ListPending(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return items, nil
}

// ListAll lists recent transactions for the admin ledger view.
func (s *PaymentService) ListAll(ctx context.Context, limit int) ([]*domain.TransactionListItem, error) {
	if limit <= 0 {
		limit = 100
	}
	items, err := s.store.Repos().Transactions.ListAll(ctx, limit)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return items, nil
}

// MemberHistory lists a member's own payment events.
func (s *PaymentService) MemberHistory(ctx context.Context, memberID int64, limit int) ([]*domain.TransactionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	items, err := s.store.Repos().Transactions.ListByUser(ctx, memberID, limit)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return items, nil
}
