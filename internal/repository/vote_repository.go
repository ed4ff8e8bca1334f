package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/kikundi/sacco-engine/internal/domain"
)

type voteRepository struct {
	db sqlx.ExtContext
}

func (r *voteRepository) Insert(ctx context.Context, v *domain.Vote) (bool, error) {
	query := `
		INSERT INTO votes (loan_application_id, user_id, vote)
		VALUES ($1, $2, $3)
		ON CONFLICT (loan_application_id, user_id) DO NOTHING
	`

	res, err := r.db.ExecContext(ctx, query, v.LoanApplicationID, v.UserID, v.Vote)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

func (r *voteRepository) ListOpenForMember(ctx context.Context, memberID int64) ([]*domain.LoanQueueItem, error) {
	query := `
		SELECT l.id, l.user_id, u.full_name, l.status, l.amount_requested,
		       l.purpose, l.repayment_weeks, l.created_at
		FROM loan_applications l
		JOIN users u ON l.user_id = u.id
		WHERE l.status = $1
		  AND NOT EXISTS (
			SELECT 1 FROM votes v
			WHERE v.loan_application_id = l.id AND v.user_id = $2
		  )
		ORDER BY l.created_at ASC
	`

	var items []*domain.LoanQueueItem
	if err := sqlx.SelectContext(ctx, r.db, &items, query, domain.LoanStatusVoting, memberID); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *voteRepository) LiveTallies(ctx context.Context) ([]*domain.VoteTally, error) {
	query := `
		SELECT l.id AS loan_application_id, u.full_name, l.amount_requested,
		       COUNT(*) FILTER (WHERE v.vote = $1) AS yes,
		       COUNT(*) FILTER (WHERE v.vote = $2) AS no
		FROM loan_applications l
		JOIN users u ON l.user_id = u.id
		LEFT JOIN votes v ON v.loan_application_id = l.id
		WHERE l.status = $3
		GROUP BY l.id, u.full_name, l.amount_requested
		ORDER BY l.id ASC
	`

	var tallies []*domain.VoteTally
	if err := sqlx.SelectContext(ctx, r.db, &tallies, query,
		domain.VoteYes, domain.VoteNo, domain.LoanStatusVoting); err != nil {
		return nil, err
	}
	return tallies, nil
}
