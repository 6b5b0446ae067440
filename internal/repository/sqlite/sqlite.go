// Package sqlite provides an embedded store backend for local
// development and tests. Production deployments use the postgres
// backend; both satisfy the same repository interfaces.
package sqlite

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

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
	scheduled_at  INTEGER,
	sent          INTEGER NOT NULL DEFAULT 0,
	sent_at       INTEGER,
	delivered     INTEGER NOT NULL DEFAULT 0,
	channel_state TEXT NOT NULL DEFAULT '{}',
	claimed_until INTEGER,
	read_at       INTEGER,
	created_at    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_user
	ON notifications (user_id, created_at DESC);

CREATE INDEX IF NOT EXISTS idx_notifications_due
	ON notifications (scheduled_at) WHERE sent = 0;

CREATE TABLE IF NOT EXISTS notification_preferences (
	user_id       TEXT NOT NULL,
	type          TEXT NOT NULL,
	email_enabled INTEGER NOT NULL DEFAULT 0,
	push_enabled  INTEGER NOT NULL DEFAULT 1,
	sms_enabled   INTEGER NOT NULL DEFAULT 0,
	inapp_enabled INTEGER NOT NULL DEFAULT 1,
	quiet_start   TEXT NOT NULL DEFAULT '',
	quiet_end     TEXT NOT NULL DEFAULT '',
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL,
	PRIMARY KEY (user_id, type)
);

CREATE TABLE IF NOT EXISTS push_tokens (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id     TEXT NOT NULL,
	token       TEXT NOT NULL,
	device_type TEXT NOT NULL DEFAULT '',
	created_at  INTEGER NOT NULL,
	UNIQUE (user_id, token)
);
`

type store struct {
	db *sqlx.DB
}

// NewStore opens (or creates) the SQLite database at path and ensures
// the schema exists.
func NewStore(path string) (repository.Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &store{db: db}, nil
}

func (s *store) Notifications() repository.NotificationStore { return &notificationRepo{db: s.db} }
func (s *store) Preferences() repository.PreferenceStore     { return &preferenceRepo{db: s.db} }
func (s *store) PushTokens() repository.PushTokenStore       { return &pushTokenRepo{db: s.db} }

func (s *store) Close() error { return s.db.Close() }
