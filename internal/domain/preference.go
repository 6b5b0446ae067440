package domain

import (
	"fmt"
	"time"
)

// NotificationPreference holds a recipient's per-type channel opt-ins.
// At most one record exists per (user, type) pair; absence of a record
// means the system default applies.
type NotificationPreference struct {
	UserID string
	Type   string // canonical type tag

	EmailEnabled bool
	PushEnabled  bool
	SMSEnabled   bool
	InAppEnabled bool

	// Quiet hours are "HH:MM" times of day, evaluated in server time.
	// The window may wrap midnight (e.g. 22:00 -> 07:00). Both empty
	// means no quiet window.
	QuietStart string
	QuietEnd   string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultPreference is the system default channel set applied when no
// preference record exists: in-app and push enabled, email and SMS off.
func DefaultPreference(userID, typeTag string) *NotificationPreference {
	return &NotificationPreference{
		UserID:       userID,
		Type:         NormalizeType(typeTag),
		PushEnabled:  true,
		InAppEnabled: true,
	}
}

// EnabledChannels returns the channels the recipient opted into.
func (p *NotificationPreference) EnabledChannels() []Channel {
	var out []Channel
	if p.EmailEnabled {
		out = append(out, ChannelEmail)
	}
	if p.PushEnabled {
		out = append(out, ChannelPush)
	}
	if p.SMSEnabled {
		out = append(out, ChannelSMS)
	}
	if p.InAppEnabled {
		out = append(out, ChannelInApp)
	}
	return out
}

// ChannelEnabled reports whether a single channel is opted in.
func (p *NotificationPreference) ChannelEnabled(ch Channel) bool {
	switch ch {
	case ChannelEmail:
		return p.EmailEnabled
	case ChannelPush:
		return p.PushEnabled
	case ChannelSMS:
		return p.SMSEnabled
	case ChannelInApp:
		return p.InAppEnabled
	}
	return false
}

// QuietWindow parses the quiet-hours window. ok is false when no window
// is configured or the stored values are malformed.
func (p *NotificationPreference) QuietWindow() (start, end time.Duration, ok bool) {
	if p.QuietStart == "" || p.QuietEnd == "" {
		return 0, 0, false
	}
	start, err := parseClock(p.QuietStart)
	if err != nil {
		return 0, 0, false
	}
	end, err = parseClock(p.QuietEnd)
	if err != nil {
		return 0, 0, false
	}
	return start, end, true
}

// InQuietHours reports whether t falls inside the quiet window.
func (p *NotificationPreference) InQuietHours(t time.Time) bool {
	start, end, ok := p.QuietWindow()
	if !ok {
		return false
	}
	at := time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
	if start <= end {
		return at >= start && at < end
	}
	// window wraps midnight
	return at >= start || at < end
}

func parseClock(s string) (time.Duration, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, err
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock value out of range: %s", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

// PushToken is a device registration consumed by the push transport.
type PushToken struct {
	ID         int64
	UserID     string
	Token      string
	DeviceType string // ios, android, web
	CreatedAt  time.Time
}
