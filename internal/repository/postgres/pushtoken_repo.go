package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"notification-service/internal/domain"
	"notification-service/pkg/xerrors"
)

type pushTokenRepo struct {
	db *pgxpool.Pool
}

func (r *pushTokenRepo) Register(ctx context.Context, t *domain.PushToken) (*domain.PushToken, error) {
	query := `
		INSERT INTO push_tokens (user_id, token, device_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, token) DO UPDATE SET device_type = EXCLUDED.device_type
		RETURNING id, user_id, token, device_type, created_at
	`
	var out domain.PushToken
	err := r.db.QueryRow(ctx, query, t.UserID, t.Token, t.DeviceType).Scan(
		&out.ID, &out.UserID, &out.Token, &out.DeviceType, &out.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *pushTokenRepo) ListByUser(ctx context.Context, userID string) ([]*domain.PushToken, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, token, device_type, created_at
		 FROM push_tokens WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []*domain.PushToken
	for rows.Next() {
		var t domain.PushToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.Token, &t.DeviceType, &t.CreatedAt); err != nil {
			return nil, err
		}
		tokens = append(tokens, &t)
	}
	return tokens, rows.Err()
}

func (r *pushTokenRepo) DeleteToken(ctx context.Context, userID, token string) error {
	ct, err := r.db.Exec(ctx,
		`DELETE FROM push_tokens WHERE user_id = $1 AND token = $2`, userID, token)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}
