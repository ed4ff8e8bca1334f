package domain

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// LoanStatus is the lifecycle state of a loan application.
type LoanStatus string

const (
	LoanStatusFeePending        LoanStatus = "FEE_PENDING"
	LoanStatusFeePaid           LoanStatus = "FEE_PAID"
	LoanStatusPendingGuarantors LoanStatus = "PENDING_GUARANTORS"
	LoanStatusSubmitted         LoanStatus = "SUBMITTED"
	LoanStatusVerified          LoanStatus = "VERIFIED"
	LoanStatusTabled            LoanStatus = "TABLED"
	LoanStatusVoting            LoanStatus = "VOTING"
	LoanStatusApproved          LoanStatus = "APPROVED"
	LoanStatusRejected          LoanStatus = "REJECTED"
	LoanStatusActive            LoanStatus = "ACTIVE"
	LoanStatusCompleted         LoanStatus = "COMPLETED"
	LoanStatusDefault           LoanStatus = "DEFAULT"
	LoanStatusOverdue           LoanStatus = "OVERDUE"

	// LoanStatusNone is the virtual state for a member with no application row.
	LoanStatusNone LoanStatus = "NO_APP"
)

// loanTransitions is the authoritative transition table. A transition absent
// here is rejected with an INVALID_STATE error regardless of which endpoint
// attempted it.
var loanTransitions = map[LoanStatus][]LoanStatus{
	LoanStatusFeePending:        {LoanStatusFeePaid},
	LoanStatusFeePaid:           {LoanStatusPendingGuarantors},
	LoanStatusPendingGuarantors: {LoanStatusSubmitted, LoanStatusVerified},
	LoanStatusSubmitted:         {LoanStatusVerified},
	LoanStatusVerified:          {LoanStatusTabled},
	LoanStatusTabled:            {LoanStatusVoting},
	LoanStatusVoting:            {LoanStatusApproved, LoanStatusRejected},
	LoanStatusApproved:          {LoanStatusActive},
	LoanStatusActive:            {LoanStatusCompleted, LoanStatusDefault, LoanStatusOverdue},
	LoanStatusOverdue:           {LoanStatusCompleted, LoanStatusDefault},
}

// CanTransition reports whether the transition table permits moving to next.
func (s LoanStatus) CanTransition(next LoanStatus) bool {
	for _, allowed := range loanTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Open reports whether the application still blocks a new one for the same
// member. Exactly one open application is allowed per member.
func (s LoanStatus) Open() bool {
	return s != LoanStatusRejected && s != LoanStatusCompleted
}

// CompletionTolerance is the rounding slack under which a repaid loan is
// considered fully settled.
var CompletionTolerance = decimal.NewFromInt(5)

// LoanApplication is the append-only loan record. Rows are never deleted;
// only status transitions and running totals mutate after creation.
type LoanApplication struct {
	ID              int64               `json:"id" db:"id"`
	MemberID        int64               `json:"member_id" db:"user_id"`
	Status          LoanStatus          `json:"status" db:"status"`
	AmountRequested decimal.Decimal     `json:"amount_requested" db:"amount_requested"`
	Purpose         string              `json:"purpose" db:"purpose"`
	RepaymentWeeks  int                 `json:"repayment_weeks" db:"repayment_weeks"`
	FeeAmount       decimal.Decimal     `json:"fee_amount" db:"fee_amount"`
	FeeTransaction  sql.NullString      `json:"fee_transaction_ref" db:"fee_transaction_ref"`
	AmountRepaid    decimal.Decimal     `json:"amount_repaid" db:"amount_repaid"`
	InterestAmount  decimal.NullDecimal `json:"interest_amount" db:"interest_amount"`
	TotalDue        decimal.NullDecimal `json:"total_due" db:"total_due"`
	DisbursedAt     sql.NullTime        `json:"disbursed_at" db:"disbursed_at"`
	GuarantorIDs    pq.Int64Array       `json:"guarantor_ids" db:"guarantor_ids"`
	CreatedAt       time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at" db:"updated_at"`
}

// DTOs for requests and composed read views

type SubmitDetailsRequest struct {
	LoanID         int64           `json:"loan_id" validate:"required"`
	Amount         decimal.Decimal `json:"amount" validate:"required"`
	Purpose        string          `json:"purpose" validate:"required"`
	RepaymentWeeks int             `json:"repayment_weeks" validate:"required,gt=0"`
}

type FinalizeRequest struct {
	LoanID   int64  `json:"loan_id" validate:"required"`
	Decision string `json:"decision" validate:"required,oneof=APPROVED REJECTED"`
}

// Eligibility is the savings-threshold gate evaluated on every status read.
type Eligibility struct {
	Eligible       bool            `json:"eligible"`
	MinSavings     decimal.Decimal `json:"min_savings"`
	CurrentSavings decimal.Decimal `json:"current_savings"`
	Message        string          `json:"message"`
}

// MemberLoanStatus is the member dashboard view: the latest application (or
// the virtual NO_APP state), the eligibility block, and the on-read schedule
// projection for active loans.
type MemberLoanStatus struct {
	Status      LoanStatus          `json:"status"`
	Application *LoanApplication    `json:"application,omitempty"`
	Eligibility Eligibility         `json:"eligibility"`
	Schedule    *ScheduleProjection `json:"schedule,omitempty"`
}

// LoanQueueItem is a role-holder agenda row.
type LoanQueueItem struct {
	ID              int64           `json:"id" db:"id"`
	MemberID        int64           `json:"member_id" db:"user_id"`
	FullName        string          `json:"full_name" db:"full_name"`
	Status          LoanStatus      `json:"status" db:"status"`
	AmountRequested decimal.Decimal `json:"amount_requested" db:"amount_requested"`
	Purpose         string          `json:"purpose" db:"purpose"`
	RepaymentWeeks  int             `json:"repayment_weeks" db:"repayment_weeks"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}
