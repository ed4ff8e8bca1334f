package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/kikundi/sacco-engine/internal/domain"
)

type memberRepository struct {
	db sqlx.ExtContext
}

const memberColumns = `id, full_name, email, phone_number, role, is_active, created_at`

func (r *memberRepository) GetByID(ctx context.Context, id int64) (*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM users WHERE id = $1`

	var m domain.Member
	if err := sqlx.GetContext(ctx, r.db, &m, query, id); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *memberRepository) ListIDsByRole(ctx context.Context, role string) ([]int64, error) {
	query := `SELECT id FROM users WHERE role = $1 AND is_active = TRUE`

	var ids []int64
	if err := sqlx.SelectContext(ctx, r.db, &ids, query, role); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *memberRepository) ListAllIDs(ctx context.Context) ([]int64, error) {
	query := `SELECT id FROM users WHERE is_active = TRUE`

	var ids []int64
	if err := sqlx.SelectContext(ctx, r.db, &ids, query); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *memberRepository) Search(ctx context.Context, query string, excludeID int64) ([]*domain.Member, error) {
	sqlQuery := `
		SELECT ` + memberColumns + `
		FROM users
		WHERE is_active = TRUE AND id != $2
		  AND (full_name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')
		ORDER BY full_name ASC
		LIMIT 20
	`

	var members []*domain.Member
	if err := sqlx.SelectContext(ctx, r.db, &members, sqlQuery, query, excludeID); err != nil {
		return nil, err
	}
	return members, nil
}

type notificationRepository struct {
	db sqlx.ExtContext
}

func (r *notificationRepository) Insert(ctx context.Context, userID int64, message string) error {
	query := `INSERT INTO notifications (user_id, message) VALUES ($1, $2)`

	_, err := r.db.ExecContext(ctx, query, userID, message)
	return err
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*domain.Notification, error) {
	query := `
		SELECT id, user_id, message, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	var notifications []*domain.Notification
	if err := sqlx.SelectContext(ctx, r.db, &notifications, query, userID, limit); err != nil {
		return nil, err
	}
	return notifications, nil
}

type settingsRepository struct {
	db sqlx.ExtContext
}

func (r *settingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	query := `SELECT setting_value FROM system_settings WHERE setting_key = $1`

	var value string
	err := sqlx.GetContext(ctx, r.db, &value, query, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (r *settingsRepository) List(ctx context.Context) ([]*domain.Setting, error) {
	query := `
		SELECT setting_key, setting_value, category
		FROM system_settings
		ORDER BY category, setting_key ASC
	`

	var settings []*domain.Setting
	if err := sqlx.SelectContext(ctx, r.db, &settings, query); err != nil {
		return nil, err
	}
	return settings, nil
}

func (r *settingsRepository) Update(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO system_settings (setting_key, setting_value)
		VALUES ($1, $2)
		ON CONFLICT (setting_key) DO UPDATE SET setting_value = EXCLUDED.setting_value
	`

	_, err := r.db.ExecContext(ctx, query, key, value)
	return err
}
