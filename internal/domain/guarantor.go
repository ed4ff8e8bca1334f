package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Guarantor request statuses.
const (
	GuarantorStatusPending  = "PENDING"
	GuarantorStatusAccepted = "ACCEPTED"
	GuarantorStatusRejected = "REJECTED"
)

// GuarantorRequest is one invitation per (loan, candidate guarantor) pair.
// Only the addressed guarantor may decide it.
type GuarantorRequest struct {
	ID                int64               `json:"id" db:"id"`
	LoanApplicationID int64               `json:"loan_application_id" db:"loan_application_id"`
	GuarantorID       int64               `json:"guarantor_id" db:"guarantor_id"`
	Status            string              `json:"status" db:"status"`
	AmountGuaranteed  decimal.NullDecimal `json:"amount_guaranteed" db:"amount_guaranteed"`
	CreatedAt         time.Time           `json:"created_at" db:"created_at"`
}

// GuarantorView joins in the counterparty name for list endpoints.
type GuarantorView struct {
	GuarantorRequest
	FullName        string          `json:"full_name" db:"full_name"`
	AmountRequested decimal.Decimal `json:"amount_requested" db:"amount_requested"`
}

type AddGuarantorRequest struct {
	LoanID           int64               `json:"loan_id" validate:"required"`
	GuarantorID      int64               `json:"guarantor_id" validate:"required"`
	AmountGuaranteed decimal.NullDecimal `json:"amount_guaranteed"`
}

type GuarantorDecisionRequest struct {
	RequestID int64  `json:"request_id" validate:"required"`
	Decision  string `json:"decision" validate:"required,oneof=ACCEPTED REJECTED"`
}
