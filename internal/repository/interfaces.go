package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kikundi/sacco-engine/internal/domain"
)

// LoanRepository defines the interface for loan application data operations.
type LoanRepository interface {
	// Create inserts a new FEE_PENDING application and fills in its id.
	// Returns false without inserting when the member already has an open
	// application; the partial unique index on open applications decides.
	Create(ctx context.Context, loan *domain.LoanApplication) (bool, error)

	// GetByID retrieves an application by id.
	GetByID(ctx context.Context, id int64) (*domain.LoanApplication, error)

	// GetByIDForUpdate retrieves an application with a row lock, serializing
	// concurrent state transitions. Only valid inside a transaction.
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.LoanApplication, error)

	// LatestByMember returns the member's most recent application.
	LatestByMember(ctx context.Context, memberID int64) (*domain.LoanApplication, error)

	// HasOpenApplication reports whether the member has an application whose
	// status is outside {REJECTED, COMPLETED}.
	HasOpenApplication(ctx context.Context, memberID int64) (bool, error)

	// OldestActiveByMember returns the member's oldest loan still accepting
	// repayments (ACTIVE or OVERDUE).
	OldestActiveByMember(ctx context.Context, memberID int64) (*domain.LoanApplication, error)

	// LatestFeePendingByMember returns the member's most recent FEE_PENDING loan.
	LatestFeePendingByMember(ctx context.Context, memberID int64) (*domain.LoanApplication, error)

	// UpdateDetails stores the member-submitted amount/purpose/weeks and the
	// accompanying status advance.
	UpdateDetails(ctx context.Context, id int64, amount decimal.Decimal, purpose string, weeks int, status domain.LoanStatus) error

	// TransitionStatus performs a status-guarded conditional update and
	// reports whether a row was transitioned.
	TransitionStatus(ctx context.Context, id int64, from []domain.LoanStatus, to domain.LoanStatus) (bool, error)

	// MarkDisbursed activates an APPROVED loan, setting interest, total due
	// and the disbursement timestamp. Guarded on status APPROVED.
	MarkDisbursed(ctx context.Context, id int64, interest, totalDue decimal.Decimal, disbursedAt time.Time) (bool, error)

	// ApplyRepayment sets the new running repaid total and status.
	ApplyRepayment(ctx context.Context, id int64, amountRepaid decimal.Decimal, status domain.LoanStatus) error

	// MarkFeePaid advances a FEE_PENDING loan and stores the fee reference.
	MarkFeePaid(ctx context.Context, id int64, ref string, amount decimal.Decimal) error

	// SetGuarantorCache replaces the denormalized guarantor id array.
	SetGuarantorCache(ctx context.Context, loanID int64, guarantorIDs []int64) error

	// ListQueue lists applications in the given statuses with member names.
	ListQueue(ctx context.Context, statuses ...domain.LoanStatus) ([]*domain.LoanQueueItem, error)
}

// DepositRepository defines the interface for the deposit ledger.
type DepositRepository interface {
	// Insert appends a ledger entry with insert-if-absent semantics on the
	// unique transaction ref. Returns false when the ref already exists.
	Insert(ctx context.Context, d *domain.DepositRecord) (bool, error)

	// SumCompletedByType sums COMPLETED entries of one type for a user.
	SumCompletedByType(ctx context.Context, userID int64, depositType string) (decimal.Decimal, error)

	// SumCompleted sums every COMPLETED ledger entry for the member, the base
	// for the borrowing limit. Routed payments appear as offsetting credit
	// and debit pairs, so only money that stayed with the member counts.
	SumCompleted(ctx context.Context, userID int64) (decimal.Decimal, error)

	// ListAll lists recent ledger entries with member names.
	ListAll(ctx context.Context, limit int) ([]*domain.DepositListItem, error)

	// ShareCapitalByMember aggregates COMPLETED share capital per active
	// member, excluding members with none.
	ShareCapitalByMember(ctx context.Context) ([]*domain.MemberShareCapital, error)
}

// TransactionRepository defines the interface for raw payment-event records.
type TransactionRepository interface {
	Create(ctx context.Context, t *domain.TransactionRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TransactionRecord, error)
	GetByReference(ctx context.Context, reference string) (*domain.TransactionRecord, error)
	GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*domain.TransactionRecord, error)

	// UpdateStatus sets status and description.
	UpdateStatus(ctx context.Context, id uuid.UUID, status, description string) error

	// MarkCompleted completes a pending record, replacing its reference with
	// the gateway receipt.
	MarkCompleted(ctx context.Context, id uuid.UUID, reference, description string) error

	// Reassign points an unclaimed record at the claiming member and purpose.
	// Returns false when the record already belongs to a member, so racing
	// claimants cannot overwrite each other.
	Reassign(ctx context.Context, id uuid.UUID, userID int64, purpose, description string) (bool, error)

	ListPending(ctx context.Context) ([]*domain.TransactionListItem, error)
	ListAll(ctx context.Context, limit int) ([]*domain.TransactionListItem, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]*domain.TransactionRecord, error)
}

// GuarantorRepository defines the interface for guarantor requests.
type GuarantorRepository interface {
	Create(ctx context.Context, g *domain.GuarantorRequest) error
	GetByID(ctx context.Context, id int64) (*domain.GuarantorRequest, error)
	UpdateStatus(ctx context.Context, id int64, status string) error

	// IDsByLoan returns all guarantor ids for a loan, optionally restricted
	// to a status. Used for the full set-replace cache recompute.
	IDsByLoan(ctx context.Context, loanID int64, status string) ([]int64, error)

	// CountByLoanAndStatus counts requests on a loan in a given status.
	CountByLoanAndStatus(ctx context.Context, loanID int64, status string) (int, error)

	// SumAcceptedByGuarantor is the member's guarantee liability across
	// still-open loans.
	SumAcceptedByGuarantor(ctx context.Context, guarantorID int64) (decimal.Decimal, error)

	// ListByGuarantor lists requests addressed to a member.
	ListByGuarantor(ctx context.Context, guarantorID int64) ([]*domain.GuarantorView, error)

	// ListByLoan lists a loan's guarantor roster with names.
	ListByLoan(ctx context.Context, loanID int64) ([]*domain.GuarantorView, error)
}

// VoteRepository defines the interface for floor votes.
type VoteRepository interface {
	// Insert records a vote with insert-if-absent semantics; a member cannot
	// change a cast vote. Returns false when the vote already existed.
	Insert(ctx context.Context, v *domain.Vote) (bool, error)

	// ListOpenForMember lists VOTING applications the member has not yet
	// voted on.
	ListOpenForMember(ctx context.Context, memberID int64) ([]*domain.LoanQueueItem, error)

	// LiveTallies returns YES/NO counts for every application on the floor.
	LiveTallies(ctx context.Context) ([]*domain.VoteTally, error)
}

// FineRepository defines the interface for member fines.
type FineRepository interface {
	Create(ctx context.Context, f *domain.MemberFine) error
	ListOpenByUser(ctx context.Context, userID int64) ([]*domain.MemberFine, error)

	// SaveInterest persists an on-read interest staging update.
	SaveInterest(ctx context.Context, f *domain.MemberFine) error

	// MembersMissingWeeklyDeposit lists active members without sufficient
	// completed deposits this week and no missed-deposit fine this week yet.
	MembersMissingWeeklyDeposit(ctx context.Context, minDeposit decimal.Decimal) ([]int64, error)
}

// DividendRepository defines the interface for dividends.
type DividendRepository interface {
	Create(ctx context.Context, d *domain.Dividend) error
	GetByID(ctx context.Context, id int64) (*domain.Dividend, error)
	ExistsForYear(ctx context.Context, financialYear int) (bool, error)
	CreateAllocation(ctx context.Context, a *domain.DividendAllocation) error
	// MarkDistributed closes a PENDING dividend. Returns false when the
	// dividend was already distributed or cancelled.
	MarkDistributed(ctx context.Context, id int64) (bool, error)
	ListAll(ctx context.Context) ([]*domain.Dividend, error)
}

// MemberRepository reads the user records the core needs.
type MemberRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Member, error)
	ListIDsByRole(ctx context.Context, role string) ([]int64, error)
	ListAllIDs(ctx context.Context) ([]int64, error)
	Search(ctx context.Context, query string, excludeID int64) ([]*domain.Member, error)
}

// NotificationRepository persists fire-and-forget member notifications.
type NotificationRepository interface {
	Insert(ctx context.Context, userID int64, message string) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]*domain.Notification, error)
}

// SettingsRepository reads and writes keyed configuration rows.
type SettingsRepository interface {
	// Get returns the latest stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	List(ctx context.Context) ([]*domain.Setting, error)
	Update(ctx context.Context, key, value string) error
}

// Repos bundles every repository. Store.Atomic hands services a tx-bound
// bundle so multi-row mutations commit or roll back as one unit.
type Repos struct {
	Loans         LoanRepository
	Deposits      DepositRepository
	Transactions  TransactionRepository
	Guarantors    GuarantorRepository
	Votes         VoteRepository
	Fines         FineRepository
	Dividends     DividendRepository
	Members       MemberRepository
	Notifications NotificationRepository
	Settings      SettingsRepository
}

// Store is the unit-of-work boundary services depend on.
type Store interface {
	// Repos returns repositories bound to the base connection pool.
	Repos() Repos

	// Atomic runs fn inside a single database transaction, rolling back on
	// error. Readers never observe a partially applied multi-row update.
	Atomic(ctx context.Context, fn func(r Repos) error) error
}
