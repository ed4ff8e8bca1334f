package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment purposes routed by the repayment router. Anything else is treated
// as a custom contribution category.
const (
	PurposeDeposit          = "DEPOSIT"
	PurposeLoanRepayment    = "LOAN_REPAYMENT"
	PurposeLoanFormFee      = "LOAN_FORM_FEE"
	PurposeFeePayment       = "FEE_PAYMENT"
	PurposeLoanDisbursement = "LOAN_DISBURSEMENT"
)

// TransactionRecord is the raw payment-event record: an external payment
// (mobile money, bank, admin entry) before and after routing. One completed
// record fans out into one or more deposit records and loan mutations.
type TransactionRecord struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	UserID            int64           `json:"user_id" db:"user_id"`
	Type              string          `json:"type" db:"type"`
	Amount            decimal.Decimal `json:"amount" db:"amount"`
	Status            string          `json:"status" db:"status"`
	ReferenceCode     string          `json:"reference_code" db:"reference_code"`
	CheckoutRequestID sql.NullString  `json:"checkout_request_id" db:"checkout_request_id"`
	Description       string          `json:"description" db:"description"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}

// TransactionListItem is the admin review queue view.
type TransactionListItem struct {
	TransactionRecord
	FullName string `json:"full_name" db:"full_name"`
}

// PaymentEvent is a confirmed-completed payment handed to the repayment
// router, whatever its source (callback, manual claim, admin record).
type PaymentEvent struct {
	UserID        int64
	Type          string
	Amount        decimal.Decimal
	ReferenceCode string
}

// GatewayCallback is the payment gateway's asynchronous result for a pending
// STK transaction.
type GatewayCallback struct {
	CheckoutRequestID string `json:"checkout_request_id" validate:"required"`
	ResultCode        int    `json:"result_code"`
	ResultDesc        string `json:"result_desc"`
	ReceiptNumber     string `json:"receipt_number"`
}

type ManualDepositRequest struct {
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Reference   string          `json:"reference" validate:"required"`
	Description string          `json:"description"`
}

type ClaimRequest struct {
	Reference string `json:"reference" validate:"required"`
	Purpose   string `json:"purpose"`
}

type ReviewRequest struct {
	TransactionID uuid.UUID `json:"transaction_id" validate:"required"`
	Decision      string    `json:"decision" validate:"required,oneof=COMPLETED REJECTED"`
}

type AdminRecordRequest struct {
	UserID      int64           `json:"user_id" validate:"required"`
	Type        string          `json:"type" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Reference   string          `json:"reference" validate:"required"`
	Description string          `json:"description"`
}
