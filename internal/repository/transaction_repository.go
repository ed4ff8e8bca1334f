package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kikundi/sacco-engine/internal/domain"
)

type transactionRepository struct {
	db sqlx.ExtContext
}

const transactionColumns = `
	id, user_id, type, amount, status, reference_code, checkout_request_id,
	description, created_at
`

func (r *transactionRepository) Create(ctx context.Context, t *domain.TransactionRecord) error {
	query := `
		INSERT INTO transactions (id, user_id, type, amount, status, reference_code, checkout_request_id, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	return r.db.QueryRowxContext(ctx, query,
		t.ID,
		t.UserID,
		t.Type,
		t.Amount,
		t.Status,
		t.ReferenceCode,
		t.CheckoutRequestID,
		t.Description,
	).Scan(&t.CreatedAt)
}

func (r *transactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.TransactionRecord, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	var t domain.TransactionRecord
	if err := sqlx.GetContext(ctx, r.db, &t, query, id); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *transactionRepository) GetByReference(ctx context.Context, reference string) (*domain.TransactionRecord, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE reference_code = $1`

	var t domain.TransactionRecord
	if err := sqlx.GetContext(ctx, r.db, &t, query, reference); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *transactionRepository) GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*domain.TransactionRecord, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE checkout_request_id = $1`

	var t domain.TransactionRecord
	if err := sqlx.GetContext(ctx, r.db, &t, query, checkoutRequestID); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *transactionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status, description string) error {
	query := `UPDATE transactions SET status = $2, description = $3 WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id, status, description)
	return err
}

func (r *transactionRepository) MarkCompleted(ctx context.Context, id uuid.UUID, reference, description string) error {
	query := `
		UPDATE transactions
		SET status = $2, reference_code = $3, description = $4
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, domain.RecordStatusCompleted, reference, description)
	return err
}

func (r *transactionRepository) Reassign(ctx context.Context, id uuid.UUID, userID int64, purpose, description string) (bool, error) {
	query := `
		UPDATE transactions
		SET user_id = $2, type = $3, status = $4, description = $5
		WHERE id = $1 AND user_id = 0
	`

	res, err := r.db.ExecContext(ctx, query, id, userID, purpose, domain.RecordStatusCompleted, description)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

func (r *transactionRepository) ListPending(ctx context.Context) ([]*domain.TransactionListItem, error) {
	query := `
		SELECT t.id, t.user_id, t.type, t.amount, t.status, t.reference_code,
		       t.checkout_request_id, t.description, t.created_at, u.full_name
		FROM transactions t
		JOIN users u ON t.user_id = u.id
		WHERE t.status = $1
		ORDER BY t.created_at ASC
	`

	var items []*domain.TransactionListItem
	if err := sqlx.SelectContext(ctx, r.db, &items, query, domain.RecordStatusPending); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *transactionRepository) ListAll(ctx context.Context, limit int) ([]*domain.TransactionListItem, error) {
	query := `
		SELECT t.id, t.user_id, t.type, t.amount, t.status, t.reference_code,
		       t.checkout_request_id, t.description, t.created_at, u.full_name
		FROM transactions t
		JOIN users u ON t.user_id = u.id
		ORDER BY t.created_at DESC
		LIMIT $1
	`

	var items []*domain.TransactionListItem
	if err := sqlx.SelectContext(ctx, r.db, &items, query, limit); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *transactionRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*domain.TransactionRecord, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	var items []*domain.TransactionRecord
	if err := sqlx.SelectContext(ctx, r.db, &items, query, userID, limit); err != nil {
		return nil, err
	}
	return items, nil
}
