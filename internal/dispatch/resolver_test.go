package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"notification-service/internal/domain"
	"notification-service/pkg/xerrors"
)

type stubPrefStore struct {
	pref *domain.NotificationPreference
	err  error
}

func (s *stubPrefStore) GetByUserAndType(ctx context.Context, userID, typeTag string) (*domain.NotificationPreference, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.pref, nil
}

func (s *stubPrefStore) ListByUser(ctx context.Context, userID string) ([]*domain.NotificationPreference, error) {
	return nil, nil
}

func (s *stubPrefStore) Upsert(ctx context.Context, p *domain.NotificationPreference) (*domain.NotificationPreference, error) {
	return p, nil
}

func (s *stubPrefStore) DeleteByUser(ctx context.Context, userID string) error { return nil }

func channelSet(channels []domain.Channel) map[domain.Channel]bool {
	set := make(map[domain.Channel]bool, len(channels))
	for _, ch := range channels {
		set[ch] = true
	}
	return set
}

func TestResolveChannelsDefaultsWhenMissing(t *testing.T) {
	r := NewPreferenceResolver(&stubPrefStore{err: xerrors.ErrNotFound})

	got := channelSet(r.ResolveChannels(context.Background(), "u1", "POLICY"))
	want := map[domain.Channel]bool{domain.ChannelInApp: true, domain.ChannelPush: true}
	if len(got) != len(want) || !got[domain.ChannelInApp] || !got[domain.ChannelPush] {
		t.Errorf("channels = %v, want inapp+push", got)
	}
}

func TestResolveChannelsDefaultsOnStoreError(t *testing.T) {
	r := NewPreferenceResolver(&stubPrefStore{err: errors.New("connection refused")})

	got := channelSet(r.ResolveChannels(context.Background(), "u1", "POLICY"))
	if !got[domain.ChannelInApp] || !got[domain.ChannelPush] || len(got) != 2 {
		t.Errorf("channels = %v, want inapp+push", got)
	}
}

func TestResolveChannelsHonorsOptIns(t *testing.T) {
	r := NewPreferenceResolver(&stubPrefStore{pref: &domain.NotificationPreference{
		UserID:       "u1",
		Type:         "POLICY",
		EmailEnabled: true,
		SMSEnabled:   true,
	}})

	got := channelSet(r.ResolveChannels(context.Background(), "u1", "POLICY"))
	if !got[domain.ChannelEmail] || !got[domain.ChannelSMS] || len(got) != 2 {
		t.Errorf("channels = %v, want email+sms", got)
	}
}

func TestResolveChannelsAllDisabled(t *testing.T) {
	r := NewPreferenceResolver(&stubPrefStore{pref: &domain.NotificationPreference{
		UserID: "u1",
		Type:   "POLICY",
	}})

	got := r.ResolveChannels(context.Background(), "u1", "POLICY")
	if len(got) != 0 {
		t.Errorf("channels = %v, want empty", got)
	}
}

func TestResolveChannelsQuietHoursDropInterruptive(t *testing.T) {
	r := NewPreferenceResolver(&stubPrefStore{pref: &domain.NotificationPreference{
		UserID:       "u1",
		Type:         "POLICY",
		EmailEnabled: true,
		PushEnabled:  true,
		SMSEnabled:   true,
		InAppEnabled: true,
		QuietStart:   "22:00",
		QuietEnd:     "07:00",
	}})

	// 23:30 is inside the wrapped window.
	r.now = func() time.Time {
		return time.Date(2026, 3, 1, 23, 30, 0, 0, time.Local)
	}
	got := channelSet(r.ResolveChannels(context.Background(), "u1", "POLICY"))
	if got[domain.ChannelPush] || got[domain.ChannelSMS] {
		t.Errorf("channels = %v, push/sms must be suppressed in quiet hours", got)
	}
	if !got[domain.ChannelEmail] || !got[domain.ChannelInApp] {
		t.Errorf("channels = %v, email/inapp must survive quiet hours", got)
	}

	// 12:00 is outside the window: everything flows.
	r.now = func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)
	}
	got = channelSet(r.ResolveChannels(context.Background(), "u1", "POLICY"))
	if len(got) != 4 {
		t.Errorf("channels = %v, want all four outside quiet hours", got)
	}
}

func TestResolveChannelsMalformedQuietHoursIgnored(t *testing.T) {
	r := NewPreferenceResolver(&stubPrefStore{pref: &domain.NotificationPreference{
		UserID:      "u1",
		Type:        "POLICY",
		PushEnabled: true,
		QuietStart:  "banana",
		QuietEnd:    "07:00",
	}})
	r.now = func() time.Time {
		return time.Date(2026, 3, 1, 3, 0, 0, 0, time.Local)
	}

	got := channelSet(r.ResolveChannels(context.Background(), "u1", "POLICY"))
	if !got[domain.ChannelPush] {
		t.Errorf("channels = %v, malformed quiet window must not suppress", got)
	}
}
