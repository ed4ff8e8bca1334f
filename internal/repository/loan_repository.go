package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/kikundi/sacco-engine/internal/domain"
)

type loanRepository struct {
	db sqlx.ExtContext
}

const loanColumns = `
	id, user_id, status, amount_requested, purpose, repayment_weeks,
	fee_amount, fee_transaction_ref, amount_repaid, interest_amount,
	total_due, disbursed_at, guarantor_ids, created_at, updated_at
`

func (r *loanRepository) Create(ctx context.Context, loan *domain.LoanApplication) (bool, error) {
	query := `
		INSERT INTO loan_applications (user_id, status, fee_amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) WHERE status NOT IN ('REJECTED', 'COMPLETED') DO NOTHING
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		loan.MemberID,
		loan.Status,
		loan.FeeAmount,
	).Scan(&loan.ID, &loan.CreatedAt, &loan.UpdatedAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *loanRepository) GetByID(ctx context.Context, id int64) (*domain.LoanApplication, error) {
	query := `SELECT ` + loanColumns + ` FROM loan_applications WHERE id = $1`

	var loan domain.LoanApplication
	if err := sqlx.GetContext(ctx, r.db, &loan, query, id); err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.LoanApplication, error) {
	query := `SELECT ` + loanColumns + ` FROM loan_applications WHERE id = $1 FOR UPDATE`

	var loan domain.LoanApplication
	if err := sqlx.GetContext(ctx, r.db, &loan, query, id); err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) LatestByMember(ctx context.Context, memberID int64) (*domain.LoanApplication, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loan_applications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var loan domain.LoanApplication
	if err := sqlx.GetContext(ctx, r.db, &loan, query, memberID); err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) HasOpenApplication(ctx context.Context, memberID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM loan_applications
			WHERE user_id = $1 AND status NOT IN ($2, $3)
		)
	`

	var exists bool
	err := sqlx.GetContext(ctx, r.db, &exists, query,
		memberID, domain.LoanStatusRejected, domain.LoanStatusCompleted)
	return exists, err
}

func (r *loanRepository) OldestActiveByMember(ctx context.Context, memberID int64) (*domain.LoanApplication, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loan_applications
		WHERE user_id = $1 AND status = ANY($2)
		ORDER BY created_at ASC
		LIMIT 1
	`

	open := pq.StringArray{string(domain.LoanStatusActive), string(domain.LoanStatusOverdue)}
	var loan domain.LoanApplication
	if err := sqlx.GetContext(ctx, r.db, &loan, query, memberID, open); err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) LatestFeePendingByMember(ctx context.Context, memberID int64) (*domain.LoanApplication, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loan_applications
		WHERE user_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	var loan domain.LoanApplication
	if err := sqlx.GetContext(ctx, r.db, &loan, query, memberID, domain.LoanStatusFeePending); err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) UpdateDetails(ctx context.Context, id int64, amount decimal.Decimal, purpose string, weeks int, status domain.LoanStatus) error {
	query := `
		UPDATE loan_applications
		SET amount_requested = $2, purpose = $3, repayment_weeks = $4, status = $5, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, amount, purpose, weeks, status)
	return err
}

func (r *loanRepository) TransitionStatus(ctx context.Context, id int64, from []domain.LoanStatus, to domain.LoanStatus) (bool, error) {
	query := `
		UPDATE loan_applications
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = ANY($2)
	`

	statuses := make(pq.StringArray, 0, len(from))
	for _, s := range from {
		statuses = append(statuses, string(s))
	}

	res, err := r.db.ExecContext(ctx, query, id, statuses, to)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

func (r *loanRepository) MarkDisbursed(ctx context.Context, id int64, interest, totalDue decimal.Decimal, disbursedAt time.Time) (bool, error) {
	query := `
		UPDATE loan_applications
		SET status = $2, interest_amount = $3, total_due = $4, disbursed_at = $5, updated_at = NOW()
		WHERE id = $1 AND status = $6
	`

	res, err := r.db.ExecContext(ctx, query,
		id, domain.LoanStatusActive, interest, totalDue, disbursedAt, domain.LoanStatusApproved)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

func (r *loanRepository) ApplyRepayment(ctx context.Context, id int64, amountRepaid decimal.Decimal, status domain.LoanStatus) error {
	query := `
		UPDATE loan_applications
		SET amount_repaid = $2, status = $3, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, amountRepaid, status)
	return err
}

func (r *loanRepository) MarkFeePaid(ctx context.Context, id int64, ref string, amount decimal.Decimal) error {
	query := `
		UPDATE loan_applications
		SET status = $2, fee_transaction_ref = $3, fee_amount = $4, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, domain.LoanStatusFeePaid, ref, amount)
	return err
}

func (r *loanRepository) SetGuarantorCache(ctx context.Context, loanID int64, guarantorIDs []int64) error {
	query := `
		UPDATE loan_applications
		SET guarantor_ids = $2, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, loanID, pq.Int64Array(guarantorIDs))
	return err
}

func (r *loanRepository) ListQueue(ctx context.Context, statuses ...domain.LoanStatus) ([]*domain.LoanQueueItem, error) {
	query := `
		SELECT l.id, l.user_id, u.full_name, l.status, l.amount_requested,
		       l.purpose, l.repayment_weeks, l.created_at
		FROM loan_applications l
		JOIN users u ON l.user_id = u.id
		WHERE l.status = ANY($1)
		ORDER BY l.created_at ASC
	`

	arr := make(pq.StringArray, 0, len(statuses))
	for _, s := range statuses {
		arr = append(arr, string(s))
	}

	var items []*domain.LoanQueueItem
	if err := sqlx.SelectContext(ctx, r.db, &items, query, arr); err != nil {
		return nil, err
	}
	return items, nil
}
