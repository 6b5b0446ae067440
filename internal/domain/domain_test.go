package domain

import (
	"testing"
	"time"
)

func TestNormalizeType(t *testing.T) {
	tests := []struct{ in, want string }{
		{"policy", "POLICY"},
		{"  Policy  ", "POLICY"},
		{"SYSTEM", "SYSTEM"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeType(tt.in); got != tt.want {
			t.Errorf("NormalizeType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDue(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		n    Notification
		want bool
	}{
		{"immediate", Notification{}, true},
		{"past schedule", Notification{ScheduledAt: &past}, true},
		{"future schedule", Notification{ScheduledAt: &future}, false},
		{"already sent", Notification{Sent: true}, false},
	}
	for _, tt := range tests {
		if got := tt.n.Due(now); got != tt.want {
			t.Errorf("%s: Due() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestChannelStateTerminal(t *testing.T) {
	tests := []struct {
		name  string
		state ChannelState
		want  bool
	}{
		{"empty", ChannelState{}, false},
		{"all delivered", ChannelState{ChannelPush: OutcomeDelivered}, true},
		{"permanent counts", ChannelState{ChannelPush: OutcomePermanentFailure}, true},
		{"transient pending", ChannelState{ChannelPush: OutcomeDelivered, ChannelEmail: OutcomeTransientFailure}, false},
	}
	for _, tt := range tests {
		if got := tt.state.Terminal(); got != tt.want {
			t.Errorf("%s: Terminal() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestChannelStatePending(t *testing.T) {
	state := ChannelState{
		ChannelPush:  OutcomeDelivered,
		ChannelEmail: OutcomeTransientFailure,
		ChannelSMS:   OutcomePermanentFailure,
	}
	enabled := []Channel{ChannelPush, ChannelEmail, ChannelSMS, ChannelInApp}

	pending := state.Pending(enabled)
	want := map[Channel]bool{ChannelEmail: true, ChannelInApp: true}
	if len(pending) != len(want) {
		t.Fatalf("Pending() = %v, want email+inapp", pending)
	}
	for _, ch := range pending {
		if !want[ch] {
			t.Errorf("Pending() includes %s, want only email+inapp", ch)
		}
	}
}

func TestChannelStateAnyDelivered(t *testing.T) {
	if (ChannelState{ChannelPush: OutcomePermanentFailure}).AnyDelivered() {
		t.Error("AnyDelivered() = true for all-failed state")
	}
	if !(ChannelState{ChannelPush: OutcomePermanentFailure, ChannelInApp: OutcomeDelivered}).AnyDelivered() {
		t.Error("AnyDelivered() = false with a delivered channel")
	}
}

func TestDefaultPreferenceChannels(t *testing.T) {
	p := DefaultPreference("u1", "policy")
	if p.Type != "POLICY" {
		t.Errorf("Type = %s, want POLICY", p.Type)
	}
	channels := p.EnabledChannels()
	if len(channels) != 2 {
		t.Fatalf("EnabledChannels() = %v, want inapp+push", channels)
	}
	if !p.ChannelEnabled(ChannelPush) || !p.ChannelEnabled(ChannelInApp) {
		t.Error("default must enable push and inapp")
	}
	if p.ChannelEnabled(ChannelEmail) || p.ChannelEnabled(ChannelSMS) {
		t.Error("default must not enable email or sms")
	}
}

func TestInQuietHours(t *testing.T) {
	at := func(h, m int) time.Time {
		return time.Date(2026, 3, 1, h, m, 0, 0, time.Local)
	}

	tests := []struct {
		name       string
		start, end string
		t          time.Time
		want       bool
	}{
		{"no window", "", "", at(3, 0), false},
		{"inside same-day", "13:00", "15:00", at(14, 0), true},
		{"outside same-day", "13:00", "15:00", at(16, 0), false},
		{"start inclusive", "13:00", "15:00", at(13, 0), true},
		{"end exclusive", "13:00", "15:00", at(15, 0), false},
		{"wrap before midnight", "22:00", "07:00", at(23, 0), true},
		{"wrap after midnight", "22:00", "07:00", at(6, 30), true},
		{"wrap outside", "22:00", "07:00", at(12, 0), false},
		{"malformed start", "2pm", "15:00", at(14, 0), false},
		{"out of range", "25:00", "26:00", at(14, 0), false},
	}
	for _, tt := range tests {
		p := NotificationPreference{QuietStart: tt.start, QuietEnd: tt.end}
		if got := p.InQuietHours(tt.t); got != tt.want {
			t.Errorf("%s: InQuietHours() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestOutcomeTerminal(t *testing.T) {
	if !OutcomeDelivered.Terminal() || !OutcomePermanentFailure.Terminal() {
		t.Error("delivered and permanent must be terminal")
	}
	if OutcomeTransientFailure.Terminal() {
		t.Error("transient must not be terminal")
	}
}
