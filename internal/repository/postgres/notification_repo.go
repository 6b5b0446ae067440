package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"notification-service/internal/domain"
	"notification-service/internal/repository"
	"notification-service/pkg/xerrors"
)

type notificationRepo struct {
	db *pgxpool.Pool
}

const notificationColumns = `
	id, user_id, type, title, message, priority,
	scheduled_at, sent, sent_at, delivered, channel_state,
	claimed_until, read_at, created_at
`

func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var n domain.Notification
	var state []byte
	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.Type,
		&n.Title,
		&n.Message,
		&n.Priority,
		&n.ScheduledAt,
		&n.Sent,
		&n.SentAt,
		&n.Delivered,
		&state,
		&n.ClaimedUntil,
		&n.ReadAt,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(state) > 0 {
		if err := json.Unmarshal(state, &n.ChannelState); err != nil {
			return nil, fmt.Errorf("decode channel state for %s: %w", n.ID, err)
		}
	}
	return &n, nil
}

func encodeState(s domain.ChannelState) ([]byte, error) {
	if s == nil {
		s = domain.ChannelState{}
	}
	return json.Marshal(s)
}

func (r *notificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	state, err := encodeState(n.ChannelState)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO notifications (
			id, user_id, type, title, message, priority,
			scheduled_at, sent, sent_at, delivered, channel_state, read_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at
	`
	return r.db.QueryRow(ctx, query,
		n.ID,
		n.UserID,
		n.Type,
		n.Title,
		n.Message,
		n.Priority,
		n.ScheduledAt,
		n.Sent,
		n.SentAt,
		n.Delivered,
		state,
		n.ReadAt,
	).Scan(&n.CreatedAt)
}

func (r *notificationRepo) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`
	n, err := scanNotification(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, err
	}
	return n, nil
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID string, f repository.ListFilter, limit, offset int) ([]*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1`
	args := []any{userID}

	if f.Type != "" {
		args = append(args, domain.NormalizeType(f.Type))
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if f.IsRead != nil {
		if *f.IsRead {
			query += " AND read_at IS NOT NULL"
		} else {
			query += " AND read_at IS NULL"
		}
	}
	if f.Priority != "" {
		args = append(args, f.Priority)
		query += fmt.Sprintf(" AND priority = $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *notificationRepo) DeleteByID(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// MarkRead is idempotent: an already-read record keeps its original
// read_at and no error is returned.
func (r *notificationRepo) MarkRead(ctx context.Context, id string) error {
	query := `
		UPDATE notifications
		SET read_at = COALESCE(read_at, now())
		WHERE id = $1
	`
	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	query := `
		UPDATE notifications
		SET read_at = now()
		WHERE user_id = $1 AND read_at IS NULL
	`
	ct, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

func (r *notificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL`,
		userID,
	).Scan(&count)
	return count, err
}

func (r *notificationRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1`,
		userID,
	).Scan(&count)
	return count, err
}

func (r *notificationRepo) CountByUserAndType(ctx context.Context, userID, typeTag string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND type = $2`,
		userID, domain.NormalizeType(typeTag),
	).Scan(&count)
	return count, err
}

// ClaimDue uses SKIP LOCKED so overlapping scans (including scans from
// other replicas) never claim the same record.
func (r *notificationRepo) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]*domain.Notification, error) {
	query := `
		UPDATE notifications
		SET claimed_until = $1
		WHERE id IN (
			SELECT id FROM notifications
			WHERE sent = FALSE
			  AND (scheduled_at IS NULL OR scheduled_at <= $2)
			  AND (claimed_until IS NULL OR claimed_until < $2)
			ORDER BY created_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + notificationColumns

	rows, err := r.db.Query(ctx, query, now.Add(lease), now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claimed []*domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		claimed = append(claimed, n)
	}
	return claimed, rows.Err()
}

func (r *notificationRepo) CompleteDispatch(ctx context.Context, id string, state domain.ChannelState, sent, delivered bool, sentAt *time.Time) error {
	encoded, err := encodeState(state)
	if err != nil {
		return err
	}
	query := `
		UPDATE notifications
		SET channel_state = $1,
		    sent = $2,
		    delivered = $3,
		    sent_at = COALESCE($4, sent_at),
		    claimed_until = NULL
		WHERE id = $5
	`
	// Zero rows means the record vanished mid-dispatch; treat as no-op.
	_, err = r.db.Exec(ctx, query, encoded, sent, delivered, sentAt, id)
	return err
}

func (r *notificationRepo) ReleaseClaim(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE notifications SET claimed_until = NULL WHERE id = $1`, id)
	return err
}
