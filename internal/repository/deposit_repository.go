package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/kikundi/sacco-engine/internal/domain"
)

type depositRepository struct {
	db sqlx.ExtContext
}

func (r *depositRepository) Insert(ctx context.Context, d *domain.DepositRecord) (bool, error) {
	query := `
		INSERT INTO deposits (id, user_id, amount, type, transaction_ref, status, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (transaction_ref) DO NOTHING
	`

	res, err := r.db.ExecContext(ctx, query,
		d.ID,
		d.UserID,
		d.Amount,
		d.Type,
		d.TransactionRef,
		d.Status,
		d.Description,
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

func (r *depositRepository) SumCompletedByType(ctx context.Context, userID int64, depositType string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM deposits
		WHERE user_id = $1 AND status = $2 AND type = $3
	`

	var total decimal.Decimal
	err := sqlx.GetContext(ctx, r.db, &total, query, userID, domain.RecordStatusCompleted, depositType)
	return total, err
}

func (r *depositRepository) SumCompleted(ctx context.Context, userID int64) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM deposits
		WHERE user_id = $1 AND status = $2
	`

	var total decimal.Decimal
	err := sqlx.GetContext(ctx, r.db, &total, query, userID, domain.RecordStatusCompleted)
	return total, err
}

func (r *depositRepository) ListAll(ctx context.Context, limit int) ([]*domain.DepositListItem, error) {
	query := `
		SELECT d.id, d.user_id, d.amount, d.type, d.transaction_ref, d.status,
		       d.description, d.created_at, u.full_name
		FROM deposits d
		JOIN users u ON d.user_id = u.id
		ORDER BY d.created_at DESC
		LIMIT $1
	`

	var items []*domain.DepositListItem
	if err := sqlx.SelectContext(ctx, r.db, &items, query, limit); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *depositRepository) ShareCapitalByMember(ctx context.Context) ([]*domain.MemberShareCapital, error) {
	query := `
		SELECT u.id AS member_id, COALESCE(SUM(d.amount), 0) AS share_capital
		FROM users u
		JOIN deposits d ON u.id = d.user_id
			AND d.status = $1 AND d.type = $2
		WHERE u.role = $3 AND u.is_active = TRUE
		GROUP BY u.id
		HAVING COALESCE(SUM(d.amount), 0) > 0
	`

	var rows []*domain.MemberShareCapital
	err := sqlx.SelectContext(ctx, r.db, &rows, query,
		domain.RecordStatusCompleted, domain.DepositTypeShareCapital, domain.RoleMember)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
