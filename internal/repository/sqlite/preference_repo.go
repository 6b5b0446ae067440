package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"notification-service/internal/domain"
	"notification-service/pkg/xerrors"
)

type preferenceRepo struct {
	db *sqlx.DB
}

type preferenceRow struct {
	UserID       string `db:"user_id"`
	Type         string `db:"type"`
	EmailEnabled bool   `db:"email_enabled"`
	PushEnabled  bool   `db:"push_enabled"`
	SMSEnabled   bool   `db:"sms_enabled"`
	InAppEnabled bool   `db:"inapp_enabled"`
	QuietStart   string `db:"quiet_start"`
	QuietEnd     string `db:"quiet_end"`
	CreatedAt    int64  `db:"created_at"`
	UpdatedAt    int64  `db:"updated_at"`
}

func (r preferenceRow) toDomain() *domain.NotificationPreference {
	return &domain.NotificationPreference{
		UserID:       r.UserID,
		Type:         r.Type,
		EmailEnabled: r.EmailEnabled,
		PushEnabled:  r.PushEnabled,
		SMSEnabled:   r.SMSEnabled,
		InAppEnabled: r.InAppEnabled,
		QuietStart:   r.QuietStart,
		QuietEnd:     r.QuietEnd,
		CreatedAt:    time.Unix(0, r.CreatedAt).UTC(),
		UpdatedAt:    time.Unix(0, r.UpdatedAt).UTC(),
	}
}

const preferenceColumns = `
	user_id, type, email_enabled, push_enabled, sms_enabled, inapp_enabled,
	quiet_start, quiet_end, created_at, updated_at
`

func (r *preferenceRepo) GetByUserAndType(ctx context.Context, userID, typeTag string) (*domain.NotificationPreference, error) {
	var row preferenceRow
	query := `SELECT ` + preferenceColumns + `
		FROM notification_preferences WHERE user_id = ? AND type = ?`
	if err := r.db.GetContext(ctx, &row, query, userID, domain.NormalizeType(typeTag)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *preferenceRepo) ListByUser(ctx context.Context, userID string) ([]*domain.NotificationPreference, error) {
	var rows []preferenceRow
	query := `SELECT ` + preferenceColumns + `
		FROM notification_preferences WHERE user_id = ? ORDER BY type`
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}
	prefs := make([]*domain.NotificationPreference, 0, len(rows))
	for _, row := range rows {
		prefs = append(prefs, row.toDomain())
	}
	return prefs, nil
}

func (r *preferenceRepo) Upsert(ctx context.Context, p *domain.NotificationPreference) (*domain.NotificationPreference, error) {
	now := time.Now().UTC().UnixNano()
	query := `
		INSERT INTO notification_preferences (
			user_id, type, email_enabled, push_enabled, sms_enabled,
			inapp_enabled, quiet_start, quiet_end, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, type) DO UPDATE SET
			email_enabled = excluded.email_enabled,
			push_enabled  = excluded.push_enabled,
			sms_enabled   = excluded.sms_enabled,
			inapp_enabled = excluded.inapp_enabled,
			quiet_start   = excluded.quiet_start,
			quiet_end     = excluded.quiet_end,
			updated_at    = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		p.UserID,
		domain.NormalizeType(p.Type),
		p.EmailEnabled,
		p.PushEnabled,
		p.SMSEnabled,
		p.InAppEnabled,
		p.QuietStart,
		p.QuietEnd,
		now,
		now,
	)
	if err != nil {
		return nil, err
	}
	return r.GetByUserAndType(ctx, p.UserID, p.Type)
}

func (r *preferenceRepo) DeleteByUser(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM notification_preferences WHERE user_id = ?`, userID)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}
