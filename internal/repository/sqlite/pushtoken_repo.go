package sqlite

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"notification-service/internal/domain"
	"notification-service/pkg/xerrors"
)

type pushTokenRepo struct {
	db *sqlx.DB
}

type pushTokenRow struct {
	ID         int64  `db:"id"`
	UserID     string `db:"user_id"`
	Token      string `db:"token"`
	DeviceType string `db:"device_type"`
	CreatedAt  int64  `db:"created_at"`
}

func (r *pushTokenRepo) Register(ctx context.Context, t *domain.PushToken) (*domain.PushToken, error) {
	query := `
		INSERT INTO push_tokens (user_id, token, device_type, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, token) DO UPDATE SET device_type = excluded.device_type
	`
	_, err := r.db.ExecContext(ctx, query,
		t.UserID, t.Token, t.DeviceType, time.Now().UTC().UnixNano())
	if err != nil {
		return nil, err
	}

	var row pushTokenRow
	err = r.db.GetContext(ctx, &row,
		`SELECT id, user_id, token, device_type, created_at
		 FROM push_tokens WHERE user_id = ? AND token = ?`, t.UserID, t.Token)
	if err != nil {
		return nil, err
	}
	return &domain.PushToken{
		ID:         row.ID,
		UserID:     row.UserID,
		Token:      row.Token,
		DeviceType: row.DeviceType,
		CreatedAt:  time.Unix(0, row.CreatedAt).UTC(),
	}, nil
}

func (r *pushTokenRepo) ListByUser(ctx context.Context, userID string) ([]*domain.PushToken, error) {
	var rows []pushTokenRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, user_id, token, device_type, created_at
		 FROM push_tokens WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	tokens := make([]*domain.PushToken, 0, len(rows))
	for _, row := range rows {
		tokens = append(tokens, &domain.PushToken{
			ID:         row.ID,
			UserID:     row.UserID,
			Token:      row.Token,
			DeviceType: row.DeviceType,
			CreatedAt:  time.Unix(0, row.CreatedAt).UTC(),
		})
	}
	return tokens, nil
}

func (r *pushTokenRepo) DeleteToken(ctx context.Context, userID, token string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM push_tokens WHERE user_id = ? AND token = ?`, userID, token)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}
