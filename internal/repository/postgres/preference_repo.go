package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"notification-service/internal/domain"
	"notification-service/pkg/xerrors"
)

type preferenceRepo struct {
	db *pgxpool.Pool
}

const preferenceColumns = `
	user_id, type, email_enabled, push_enabled, sms_enabled, inapp_enabled,
	quiet_start, quiet_end, created_at, updated_at
`

func scanPreference(row pgx.Row) (*domain.NotificationPreference, error) {
	var p domain.NotificationPreference
	err := row.Scan(
		&p.UserID,
		&p.Type,
		&p.EmailEnabled,
		&p.PushEnabled,
		&p.SMSEnabled,
		&p.InAppEnabled,
		&p.QuietStart,
		&p.QuietEnd,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *preferenceRepo) GetByUserAndType(ctx context.Context, userID, typeTag string) (*domain.NotificationPreference, error) {
	query := `SELECT ` + preferenceColumns + `
		FROM notification_preferences
		WHERE user_id = $1 AND type = $2`
	p, err := scanPreference(r.db.QueryRow(ctx, query, userID, domain.NormalizeType(typeTag)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *preferenceRepo) ListByUser(ctx context.Context, userID string) ([]*domain.NotificationPreference, error) {
	query := `SELECT ` + preferenceColumns + `
		FROM notification_preferences
		WHERE user_id = $1
		ORDER BY type`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prefs []*domain.NotificationPreference
	for rows.Next() {
		p, err := scanPreference(rows)
		if err != nil {
			return nil, err
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}

func (r *preferenceRepo) Upsert(ctx context.Context, p *domain.NotificationPreference) (*domain.NotificationPreference, error) {
	query := `
		INSERT INTO notification_preferences (
			user_id, type, email_enabled, push_enabled, sms_enabled,
			inapp_enabled, quiet_start, quiet_end
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, type) DO UPDATE SET
			email_enabled = EXCLUDED.email_enabled,
			push_enabled  = EXCLUDED.push_enabled,
			sms_enabled   = EXCLUDED.sms_enabled,
			inapp_enabled = EXCLUDED.inapp_enabled,
			quiet_start   = EXCLUDED.quiet_start,
			quiet_end     = EXCLUDED.quiet_end,
			updated_at    = now()
		RETURNING ` + preferenceColumns

	return scanPreference(r.db.QueryRow(ctx, query,
		p.UserID,
		domain.NormalizeType(p.Type),
		p.EmailEnabled,
		p.PushEnabled,
		p.SMSEnabled,
		p.InAppEnabled,
		p.QuietStart,
		p.QuietEnd,
	))
}

func (r *preferenceRepo) DeleteByUser(ctx context.Context, userID string) error {
	ct, err := r.db.Exec(ctx,
		`DELETE FROM notification_preferences WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}
