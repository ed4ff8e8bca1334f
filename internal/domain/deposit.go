package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Deposit ledger entry types. Custom contribution categories are allowed as
// free-form type tags beyond these.
const (
	DepositTypeDeposit      = "DEPOSIT"
	DepositTypeShareCapital = "SHARE_CAPITAL"
	DepositTypeWithdrawal   = "WITHDRAWAL"
)

// Ledger record statuses shared by deposits and transactions.
const (
	RecordStatusPending   = "PENDING"
	RecordStatusCompleted = "COMPLETED"
	RecordStatusRejected  = "REJECTED"
	RecordStatusFailed    = "FAILED"
)

// DepositRecord is a signed cash-movement ledger entry. Positive amounts are
// credits, negative are debits. The unique transaction ref is the idempotency
// barrier against double-application of the same payment event.
type DepositRecord struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	UserID         int64           `json:"user_id" db:"user_id"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	Type           string          `json:"type" db:"type"`
	TransactionRef string          `json:"transaction_ref" db:"transaction_ref"`
	Status         string          `json:"status" db:"status"`
	Description    string          `json:"description" db:"description"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// DepositListItem is the admin deposit ledger view.
type DepositListItem struct {
	DepositRecord
	FullName string `json:"full_name" db:"full_name"`
}

// BalanceView is the member wallet summary.
type BalanceView struct {
	Balance decimal.Decimal `json:"balance"`
	Shares  decimal.Decimal `json:"shares"`
}

// MemberShareCapital is a dividend-allocation input row.
type MemberShareCapital struct {
	MemberID     int64           `json:"member_id" db:"member_id"`
	ShareCapital decimal.Decimal `json:"share_capital" db:"share_capital"`
}

type WithdrawalRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}
