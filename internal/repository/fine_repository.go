package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/kikundi/sacco-engine/internal/domain"
)

type fineRepository struct {
	db sqlx.ExtContext
}

func (r *fineRepository) Create(ctx context.Context, f *domain.MemberFine) error {
	query := `
		INSERT INTO member_fines (user_id, title, original_amount, current_balance, description, status, interest_stage)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, date_created
	`

	return r.db.QueryRowxContext(ctx, query,
		f.UserID,
		f.Title,
		f.OriginalAmount,
		f.CurrentBalance,
		f.Description,
		f.Status,
		f.InterestStage,
	).Scan(&f.ID, &f.DateCreated)
}

func (r *fineRepository) ListOpenByUser(ctx context.Context, userID int64) ([]*domain.MemberFine, error) {
	query := `
		SELECT id, user_id, title, original_amount, current_balance, description,
		       status, interest_stage, date_created, date_stage_1_applied, date_stage_2_applied
		FROM member_fines
		WHERE user_id = $1 AND status != $2
		ORDER BY date_created ASC
	`

	var fines []*domain.MemberFine
	if err := sqlx.SelectContext(ctx, r.db, &fines, query, userID, domain.FineStatusCleared); err != nil {
		return nil, err
	}
	return fines, nil
}

func (r *fineRepository) SaveInterest(ctx context.Context, f *domain.MemberFine) error {
	query := `
		UPDATE member_fines
		SET current_balance = $2, interest_stage = $3,
		    date_stage_1_applied = $4, date_stage_2_applied = $5
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		f.ID, f.CurrentBalance, f.InterestStage, f.DateStage1Applied, f.DateStage2Applied)
	return err
}

func (r *fineRepository) MembersMissingWeeklyDeposit(ctx context.Context, minDeposit decimal.Decimal) ([]int64, error) {
	// A member is non-compliant when their COMPLETED deposit transactions
	// since the start of the week sum below the minimum and no missed-deposit
	// fine has been raised for them this week.
	query := `
		SELECT u.id
		FROM users u
		WHERE u.role = $1 AND u.is_active = TRUE
		AND u.id NOT IN (
			SELECT t.user_id FROM transactions t
			WHERE t.type = $2 AND t.status = $3
			  AND t.created_at >= date_trunc('week', CURRENT_DATE)
			GROUP BY t.user_id
			HAVING SUM(t.amount) >= $4
		)
		AND u.id NOT IN (
			SELECT f.user_id FROM member_fines f
			WHERE f.title LIKE 'Missed Weekly Deposit%'
			  AND f.date_created >= date_trunc('week', CURRENT_DATE)
		)
	`

	var ids []int64
	err := sqlx.SelectContext(ctx, r.db, &ids, query,
		domain.RoleMember, domain.PurposeDeposit, domain.RecordStatusCompleted, minDeposit)
	if err != nil {
		return nil, err
	}
	return ids, nil
}
