package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"notification-service/internal/domain"
	"notification-service/internal/repository"
	"notification-service/pkg/xerrors"
)

type notificationRepo struct {
	db *sqlx.DB
}

// notificationRow mirrors the notifications table. Timestamps are
// stored as unix nanoseconds so nullable times round-trip cleanly
// through the sqlite driver.
type notificationRow struct {
	ID           string        `db:"id"`
	UserID       string        `db:"user_id"`
	Type         string        `db:"type"`
	Title        string        `db:"title"`
	Message      string        `db:"message"`
	Priority     string        `db:"priority"`
	ScheduledAt  sql.NullInt64 `db:"scheduled_at"`
	Sent         bool          `db:"sent"`
	SentAt       sql.NullInt64 `db:"sent_at"`
	Delivered    bool          `db:"delivered"`
	ChannelState string        `db:"channel_state"`
	ClaimedUntil sql.NullInt64 `db:"claimed_until"`
	ReadAt       sql.NullInt64 `db:"read_at"`
	CreatedAt    int64         `db:"created_at"`
}

func toNullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func fromNullTime(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(0, v.Int64).UTC()
	return &t
}

func (r notificationRow) toDomain() (*domain.Notification, error) {
	n := &domain.Notification{
		ID:           r.ID,
		UserID:       r.UserID,
		Type:         r.Type,
		Title:        r.Title,
		Message:      r.Message,
		Priority:     domain.Priority(r.Priority),
		ScheduledAt:  fromNullTime(r.ScheduledAt),
		Sent:         r.Sent,
		SentAt:       fromNullTime(r.SentAt),
		Delivered:    r.Delivered,
		ClaimedUntil: fromNullTime(r.ClaimedUntil),
		ReadAt:       fromNullTime(r.ReadAt),
		CreatedAt:    time.Unix(0, r.CreatedAt).UTC(),
	}
	if r.ChannelState != "" {
		if err := json.Unmarshal([]byte(r.ChannelState), &n.ChannelState); err != nil {
			return nil, fmt.Errorf("decode channel state for %s: %w", r.ID, err)
		}
	}
	return n, nil
}

func encodeState(s domain.ChannelState) (string, error) {
	if s == nil {
		s = domain.ChannelState{}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

const notificationColumns = `
	id, user_id, type, title, message, priority,
	scheduled_at, sent, sent_at, delivered, channel_state,
	claimed_until, read_at, created_at
`

func (r *notificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	state, err := encodeState(n.ChannelState)
	if err != nil {
		return err
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO notifications (
			id, user_id, type, title, message, priority,
			scheduled_at, sent, sent_at, delivered, channel_state,
			read_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		n.ID,
		n.UserID,
		n.Type,
		n.Title,
		n.Message,
		n.Priority,
		toNullTime(n.ScheduledAt),
		n.Sent,
		toNullTime(n.SentAt),
		n.Delivered,
		state,
		toNullTime(n.ReadAt),
		n.CreatedAt.UnixNano(),
	)
	return err
}

func (r *notificationRepo) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	var row notificationRow
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = ?`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, err
	}
	return row.toDomain()
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID string, f repository.ListFilter, limit, offset int) ([]*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = ?`
	args := []any{userID}

	if f.Type != "" {
		query += " AND type = ?"
		args = append(args, domain.NormalizeType(f.Type))
	}
	if f.IsRead != nil {
		if *f.IsRead {
			query += " AND read_at IS NOT NULL"
		} else {
			query += " AND read_at IS NULL"
		}
	}
	if f.Priority != "" {
		query += " AND priority = ?"
		args = append(args, f.Priority)
	}
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var rows []notificationRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	notifications := make([]*domain.Notification, 0, len(rows))
	for _, row := range rows {
		n, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

func (r *notificationRepo) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, id string) error {
	query := `UPDATE notifications SET read_at = COALESCE(read_at, ?) WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, time.Now().UTC().UnixNano(), id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	query := `UPDATE notifications SET read_at = ? WHERE user_id = ? AND read_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, time.Now().UTC().UnixNano(), userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *notificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read_at IS NULL`, userID)
	return count, err
}

func (r *notificationRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ?`, userID)
	return count, err
}

func (r *notificationRepo) CountByUserAndType(ctx context.Context, userID, typeTag string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND type = ?`,
		userID, domain.NormalizeType(typeTag))
	return count, err
}

// ClaimDue relies on SQLite's single-writer lock: the conditional
// UPDATE runs atomically, so overlapping scans never claim the same
// record.
func (r *notificationRepo) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]*domain.Notification, error) {
	query := `
		UPDATE notifications
		SET claimed_until = ?
		WHERE id IN (
			SELECT id FROM notifications
			WHERE sent = 0
			  AND (scheduled_at IS NULL OR scheduled_at <= ?)
			  AND (claimed_until IS NULL OR claimed_until < ?)
			ORDER BY created_at
			LIMIT ?
		)
		RETURNING ` + notificationColumns

	rows, err := r.db.QueryxContext(ctx, query,
		now.Add(lease).UnixNano(), now.UnixNano(), now.UnixNano(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claimed []*domain.Notification
	for rows.Next() {
		var row notificationRow
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		n, err := row.toDomain()
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
		SET channel_state = ?,
		    sent = ?,
		    delivered = ?,
		    sent_at = COALESCE(?, sent_at),
		    claimed_until = NULL
		WHERE id = ?
	`
	// Zero rows means the record vanished mid-dispatch; treat as no-op.
	_, err = r.db.ExecContext(ctx, query, encoded, sent, delivered, toNullTime(sentAt), id)
	return err
}

func (r *notificationRepo) ReleaseClaim(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET claimed_until = NULL WHERE id = ?`, id)
	return err
}
