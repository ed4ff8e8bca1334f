package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dividend statuses and allocation methods.
const (
	DividendStatusPending     = "PENDING"
	DividendStatusDistributed = "DISTRIBUTED"
	DividendStatusCancelled   = "CANCELLED"

	AllocationShareBased = "SHARE_BASED"
	AllocationEqual      = "EQUAL"
)

// Dividend is one declared payout per financial year.
type Dividend struct {
	ID            int64           `json:"id" db:"id"`
	FinancialYear int             `json:"financial_year" db:"financial_year"`
	DividendRate  decimal.Decimal `json:"dividend_rate" db:"dividend_rate"`
	TotalAmount   decimal.Decimal `json:"total_amount" db:"total_amount"`
	Status        string          `json:"status" db:"status"`
	DeclaredBy    int64           `json:"declared_by" db:"declared_by"`
	Description   string          `json:"description" db:"description"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// DividendAllocation is one member's slice of a declared dividend.
type DividendAllocation struct {
	ID             int64           `json:"id" db:"id"`
	DividendID     int64           `json:"dividend_id" db:"dividend_id"`
	MemberID       int64           `json:"member_id" db:"member_id"`
	ShareValue     decimal.Decimal `json:"share_value" db:"share_value"`
	DividendAmount decimal.Decimal `json:"dividend_amount" db:"dividend_amount"`
	Status         string          `json:"status" db:"status"`
}

type DeclareDividendRequest struct {
	FinancialYear int             `json:"financial_year" validate:"required"`
	DividendRate  decimal.Decimal `json:"dividend_rate"`
	TotalAmount   decimal.Decimal `json:"total_amount" validate:"required"`
	Description   string          `json:"description"`
}

type AllocateRequest struct {
	Method string `json:"method" validate:"required,oneof=SHARE_BASED EQUAL"`
}
