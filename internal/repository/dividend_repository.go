package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/kikundi/sacco-engine/internal/domain"
)

type dividendRepository struct {
	db sqlx.ExtContext
}

func (r *dividendRepository) Create(ctx context.Context, d *domain.Dividend) error {
	query := `
		INSERT INTO dividends (financial_year, dividend_rate, total_amount, status, declared_by, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	return r.db.QueryRowxContext(ctx, query,
		d.FinancialYear,
		d.DividendRate,
		d.TotalAmount,
		d.Status,
		d.DeclaredBy,
		d.Description,
	).Scan(&d.ID, &d.CreatedAt)
}

func (r *dividendRepository) GetByID(ctx context.Context, id int64) (*domain.Dividend, error) {
	query := `
		SELECT id, financial_year, dividend_rate, total_amount, status, declared_by, description, created_at
		FROM dividends
		WHERE id = $1
	`

	var d domain.Dividend
	if err := sqlx.GetContext(ctx, r.db, &d, query, id); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *dividendRepository) ExistsForYear(ctx context.Context, financialYear int) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM dividends
			WHERE financial_year = $1 AND status != $2
		)
	`

	var exists bool
	err := sqlx.GetContext(ctx, r.db, &exists, query, financialYear, domain.DividendStatusCancelled)
	return exists, err
}

func (r *dividendRepository) CreateAllocation(ctx context.Context, a *domain.DividendAllocation) error {
	query := `
		INSERT INTO dividend_allocations (dividend_id, member_id, share_value, dividend_amount, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	return r.db.QueryRowxContext(ctx, query,
		a.DividendID,
		a.MemberID,
		a.ShareValue,
		a.DividendAmount,
		a.Status,
	).Scan(&a.ID)
}

func (r *dividendRepository) MarkDistributed(ctx context.Context, id int64) (bool, error) {
	query := `UPDATE dividends SET status = $2 WHERE id = $1 AND status = $3`

	res, err := r.db.ExecContext(ctx, query, id, domain.DividendStatusDistributed, domain.DividendStatusPending)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

func (r *dividendRepository) ListAll(ctx context.Context) ([]*domain.Dividend, error) {
	query := `
		SELECT id, financial_year, dividend_rate, total_amount, status, declared_by, description, created_at
		FROM dividends
		ORDER BY financial_year DESC
	`

	var dividends []*domain.Dividend
	if err := sqlx.SelectContext(ctx, r.db, &dividends, query); err != nil {
		return nil, err
	}
	return dividends, nil
}
