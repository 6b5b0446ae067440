package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"notification-service/internal/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS notifications (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	type          TEXT NOT NULL,
	title         TEXT NOT NULL,
	message       TEXT NOT NULL,
	priority      TEXT NOT NULL DEFAULT 'NORMAL',
	scheduled_at  TIMESTAMPTZ,
	sent          BOOLEAN NOT NULL DEFAULT FALSE,
	sent_at       TIMESTAMPTZ,
	delivered     BOOLEAN NOT NULL DEFAULT FALSE,
	channel_state JSONB NOT NULL DEFAULT '{}',
	claimed_until TIMESTAMPTZ,
	read_at       TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_notifications_user
	ON notifications (user_id, created_at DESC);

CREATE INDEX IF NOT EXISTS idx_notifications_due
	ON notifications (scheduled_at) WHERE sent = FALSE;

CREATE TABLE IF NOT EXISTS notification_preferences (
	user_id       TEXT NOT NULL,
	type          TEXT NOT NULL,
	email_enabled BOOLEAN NOT NULL DEFAULT FALSE,
	push_enabled  BOOLEAN NOT NULL DEFAULT TRUE,
	sms_enabled   BOOLEAN NOT NULL DEFAULT FALSE,
	inapp_enabled BOOLEAN NOT NULL DEFAULT TRUE,
	quiet_start   TEXT NOT NULL DEFAULT '',
	quiet_end     TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, type)
);

CREATE TABLE IF NOT EXISTS push_tokens (
	id          BIGSERIAL PRIMARY KEY,
	user_id     TEXT NOT NULL,
	token       TEXT NOT NULL,
	device_type TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (user_id, token)
);
`

type store struct {
	db *pgxpool.Pool
}

// NewStore connects to Postgres and ensures the schema exists.
func NewStore(ctx context.Context, url string) (repository.Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &store{db: pool}, nil
}

func (s *store) Notifications() repository.NotificationStore { return &notificationRepo{db: s.db} }
func (s *store) Preferences() repository.PreferenceStore     { return &preferenceRepo{db: s.db} }
func (s *store) PushTokens() repository.PushTokenStore       { return &pushTokenRepo{db: s.db} }

func (s *store) Close() error {
	s.db.Close()
	return nil
}
