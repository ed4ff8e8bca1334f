package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Vote decisions.
const (
	VoteYes = "YES"
	VoteNo  = "NO"
)

// Vote is one member's decision on one loan. Insert-if-absent: once cast it
// is immutable.
type Vote struct {
	LoanApplicationID int64     `json:"loan_application_id" db:"loan_application_id"`
	UserID            int64     `json:"user_id" db:"user_id"`
	Vote              string    `json:"vote" db:"vote"`
	CastAt            time.Time `json:"cast_at" db:"cast_at"`
}

// VoteTally is the live YES/NO count for a loan on the floor.
type VoteTally struct {
	LoanApplicationID int64           `json:"loan_application_id" db:"loan_application_id"`
	FullName          string          `json:"full_name" db:"full_name"`
	AmountRequested   decimal.Decimal `json:"amount_requested" db:"amount_requested"`
	Yes               int             `json:"yes" db:"yes"`
	No                int             `json:"no" db:"no"`
}

type CastVoteRequest struct {
	LoanID   int64  `json:"loan_id" validate:"required"`
	Decision string `json:"decision" validate:"required,oneof=YES NO"`
}
