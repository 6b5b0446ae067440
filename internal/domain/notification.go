package domain

import (
	"strings"
	"time"
)

// NormalizeType canonicalizes a notification-type tag. Lookups and
// registrations are case-insensitive; upper case is the canonical form.
func NormalizeType(typeTag string) string {
	return strings.ToUpper(strings.TrimSpace(typeTag))
}

// Notification is a single scheduled or immediate message destined for
// one recipient across one or more channels.
type Notification struct {
	ID       string
	UserID   string
	Type     string // canonical (upper-case) type tag
	Title    string
	Message  string
	Priority Priority

	// ScheduledAt nil means "deliver now".
	ScheduledAt *time.Time

	// Sent means the record is terminal: every enabled channel reached
	// DELIVERED or PERMANENT_FAILURE. It does not imply success; see
	// Delivered.
	Sent   bool
	SentAt *time.Time

	// Delivered means at least one channel reported DELIVERED.
	Delivered bool

	// ChannelState holds the per-channel outcome of the last dispatch.
	ChannelState ChannelState

	// ClaimedUntil is the dispatch claim lease. A record is only picked
	// up by a scan when the lease is absent or expired.
	ClaimedUntil *time.Time

	ReadAt    *time.Time
	CreatedAt time.Time
}

// Read reports whether the recipient has acknowledged the record.
func (n *Notification) Read() bool {
	return n.ReadAt != nil
}

// Due reports whether the record is eligible for dispatch at now.
func (n *Notification) Due(now time.Time) bool {
	if n.Sent {
		return false
	}
	return n.ScheduledAt == nil || !n.ScheduledAt.After(now)
}

// Stats summarizes a recipient's notification counts.
type Stats struct {
	UserID      string         `json:"user_id"`
	Total       int            `json:"total"`
	Unread      int            `json:"unread"`
	Read        int            `json:"read"`
	ByType      map[string]int `json:"by_type"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// BulkResult reports the per-recipient outcome of a bulk create.
// Creations that succeeded are never rolled back when others fail.
type BulkResult struct {
	CreatedIDs []string          `json:"created_ids"`
	Failed     map[string]string `json:"failed,omitempty"` // user id -> error
}
