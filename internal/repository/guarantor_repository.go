package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/kikundi/sacco-engine/internal/domain"
)

type guarantorRepository struct {
	db sqlx.ExtContext
}

func (r *guarantorRepository) Create(ctx context.Context, g *domain.GuarantorRequest) error {
	query := `
		INSERT INTO loan_guarantors (loan_application_id, guarantor_id, status, amount_guaranteed)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	return r.db.QueryRowxContext(ctx, query,
		g.LoanApplicationID,
		g.GuarantorID,
		g.Status,
		g.AmountGuaranteed,
	).Scan(&g.ID, &g.CreatedAt)
}

func (r *guarantorRepository) GetByID(ctx context.Context, id int64) (*domain.GuarantorRequest, error) {
	query := `
		SELECT id, loan_application_id, guarantor_id, status, amount_guaranteed, created_at
		FROM loan_guarantors
		WHERE id = $1
	`

	var g domain.GuarantorRequest
	if err := sqlx.GetContext(ctx, r.db, &g, query, id); err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *guarantorRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE loan_guarantors SET status = $2 WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id, status)
	return err
}

func (r *guarantorRepository) IDsByLoan(ctx context.Context, loanID int64, status string) ([]int64, error) {
	query := `
		SELECT guarantor_id FROM loan_guarantors
		WHERE loan_application_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY id ASC
	`

	var ids []int64
	if err := sqlx.SelectContext(ctx, r.db, &ids, query, loanID, status); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *guarantorRepository) CountByLoanAndStatus(ctx context.Context, loanID int64, status string) (int, error) {
	query := `
		SELECT COUNT(*) FROM loan_guarantors
		WHERE loan_application_id = $1 AND status = $2
	`

	var count int
	err := sqlx.GetContext(ctx, r.db, &count, query, loanID, status)
	return count, err
}

func (r *guarantorRepository) SumAcceptedByGuarantor(ctx context.Context, guarantorID int64) (decimal.Decimal, error) {
	// The lock releases once the guaranteed loan leaves the open set.
	query := `
		SELECT COALESCE(SUM(g.amount_guaranteed), 0)
		FROM loan_guarantors g
		JOIN loan_applications l ON g.loan_application_id = l.id
		WHERE g.guarantor_id = $1 AND g.status = $2 AND l.status NOT IN ($3, $4)
	`

	var total decimal.Decimal
	err := sqlx.GetContext(ctx, r.db, &total, query, guarantorID, domain.GuarantorStatusAccepted,
		domain.LoanStatusRejected, domain.LoanStatusCompleted)
	return total, err
}

func (r *guarantorRepository) ListByGuarantor(ctx context.Context, guarantorID int64) ([]*domain.GuarantorView, error) {
	query := `
		SELECT g.id, g.loan_application_id, g.guarantor_id, g.status,
		       g.amount_guaranteed, g.created_at,
		       u.full_name, l.amount_requested
		FROM loan_guarantors g
		JOIN loan_applications l ON g.loan_application_id = l.id
		JOIN users u ON l.user_id = u.id
		WHERE g.guarantor_id = $1
		ORDER BY g.created_at DESC
	`

	var views []*domain.GuarantorView
	if err := sqlx.SelectContext(ctx, r.db, &views, query, guarantorID); err != nil {
		return nil, err
	}
	return views, nil
}

func (r *guarantorRepository) ListByLoan(ctx context.Context, loanID int64) ([]*domain.GuarantorView, error) {
	query := `
		SELECT g.id, g.loan_application_id, g.guarantor_id, g.status,
		       g.amount_guaranteed, g.created_at,
		       u.full_name, l.amount_requested
		FROM loan_guarantors g
		JOIN loan_applications l ON g.loan_application_id = l.id
		JOIN users u ON g.guarantor_id = u.id
		WHERE g.loan_application_id = $1
		ORDER BY g.id ASC
	`

	var views []*domain.GuarantorView
	if err := sqlx.SelectContext(ctx, r.db, &views, query, loanID); err != nil {
		return nil, err
	}
	return views, nil
}
