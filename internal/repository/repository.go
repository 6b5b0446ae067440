package repository

import (
	"context"
	"time"

	"notification-service/internal/domain"
)

// ListFilter narrows a notification listing. Nil fields are ignored.
type ListFilter struct {
	Type     string
	IsRead   *bool
	Priority domain.Priority
}

// NotificationStore is the durable log of notification records.
type NotificationStore interface {
	Create(ctx context.Context, n *domain.Notification) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID string, f ListFilter, limit, offset int) ([]*domain.Notification, error)
	DeleteByID(ctx context.Context, id string) error

	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	CountByUserAndType(ctx context.Context, userID, typeTag string) (int, error)

	// ClaimDue atomically claims up to limit due, unsent records whose
	// claim lease is absent or expired, extending each lease to
	// now+lease. Two overlapping scans never claim the same record:
	// this is the single-dispatch invariant of the engine.
	ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]*domain.Notification, error)

	// CompleteDispatch persists the outcome of one dispatch and drops
	// the claim. A vanished record is a silent no-op.
	CompleteDispatch(ctx context.Context, id string, state domain.ChannelState, sent, delivered bool, sentAt *time.Time) error

	// ReleaseClaim drops the claim lease without recording an outcome,
	// making the record immediately eligible for the next scan.
	ReleaseClaim(ctx context.Context, id string) error
}

// PreferenceStore holds per-user, per-type channel opt-ins. The
// dispatch engine only ever reads it.
type PreferenceStore interface {
	GetByUserAndType(ctx context.Context, userID, typeTag string) (*domain.NotificationPreference, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.NotificationPreference, error)
	Upsert(ctx context.Context, p *domain.NotificationPreference) (*domain.NotificationPreference, error)
	DeleteByUser(ctx context.Context, userID string) error
}

// PushTokenStore holds device registrations for the push transport.
type PushTokenStore interface {
	Register(ctx context.Context, t *domain.PushToken) (*domain.PushToken, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.PushToken, error)
	DeleteToken(ctx context.Context, userID, token string) error
}

// Store aggregates the three stores behind one backend.
type Store interface {
	Notifications() NotificationStore
	Preferences() PreferenceStore
	PushTokens() PushTokenStore
	Close() error
}
