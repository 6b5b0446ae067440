package strategy

import (
	"context"
	"errors"
	"testing"

	"notification-service/internal/domain"
	"notification-service/internal/transport"
)

type recordingSink struct {
	notified []string
}

func (s *recordingSink) Notify(userID string, n *domain.Notification) {
	s.notified = append(s.notified, userID)
}

func TestDeliverInAppAlwaysSucceeds(t *testing.T) {
	sink := &recordingSink{}
	d := NewDeliverer(&transport.Senders{}, nil, sink)

	n := &domain.Notification{ID: "n1", UserID: "u1", Type: "SYSTEM", Title: "t", Message: "m"}
	state := d.Deliver(context.Background(), n, []domain.Channel{domain.ChannelInApp})

	if state[domain.ChannelInApp] != domain.OutcomeDelivered {
		t.Errorf("inapp outcome = %s, want DELIVERED", state[domain.ChannelInApp])
	}
	if len(sink.notified) != 1 || sink.notified[0] != "u1" {
		t.Errorf("sink notified = %v, want [u1]", sink.notified)
	}
}

func TestDeliverNilSinkStillDelivers(t *testing.T) {
	d := NewDeliverer(&transport.Senders{}, nil, nil)

	n := &domain.Notification{ID: "n1", UserID: "u1", Type: "SYSTEM", Title: "t", Message: "m"}
	state := d.Deliver(context.Background(), n, []domain.Channel{domain.ChannelInApp})

	if state[domain.ChannelInApp] != domain.OutcomeDelivered {
		t.Errorf("inapp outcome = %s, want DELIVERED", state[domain.ChannelInApp])
	}
}

func TestDeliverClassifiesOutcomes(t *testing.T) {
	senders := &transport.Senders{
		Push: transport.SenderFunc(func(ctx context.Context, userID, title, message string) error {
			return nil
		}),
		Email: transport.SenderFunc(func(ctx context.Context, userID, title, message string) error {
			return errors.New("smtp timeout")
		}),
		SMS: transport.SenderFunc(func(ctx context.Context, userID, title, message string) error {
			return transport.Permanent(errors.New("number unreachable"))
		}),
	}
	d := NewDeliverer(senders, nil, nil)

	n := &domain.Notification{ID: "n1", UserID: "u1", Type: "SYSTEM", Title: "t", Message: "m"}
	state := d.Deliver(context.Background(), n,
		[]domain.Channel{domain.ChannelPush, domain.ChannelEmail, domain.ChannelSMS})

	if state[domain.ChannelPush] != domain.OutcomeDelivered {
		t.Errorf("push = %s, want DELIVERED", state[domain.ChannelPush])
	}
	if state[domain.ChannelEmail] != domain.OutcomeTransientFailure {
		t.Errorf("email = %s, want TRANSIENT_FAILURE", state[domain.ChannelEmail])
	}
	if state[domain.ChannelSMS] != domain.OutcomePermanentFailure {
		t.Errorf("sms = %s, want PERMANENT_FAILURE", state[domain.ChannelSMS])
	}
}

func TestDeliverMissingTransportIsPermanent(t *testing.T) {
	d := NewDeliverer(&transport.Senders{}, nil, nil)

	n := &domain.Notification{ID: "n1", UserID: "u1", Type: "SYSTEM", Title: "t", Message: "m"}
	state := d.Deliver(context.Background(), n, []domain.Channel{domain.ChannelEmail})

	if state[domain.ChannelEmail] != domain.OutcomePermanentFailure {
		t.Errorf("email = %s, want PERMANENT_FAILURE", state[domain.ChannelEmail])
	}
}

func TestDeliverFallsBackToRawMessageWithoutTemplates(t *testing.T) {
	var gotBody string
	senders := &transport.Senders{
		Push: transport.SenderFunc(func(ctx context.Context, userID, title, message string) error {
			gotBody = message
			return nil
		}),
	}
	d := NewDeliverer(senders, nil, nil)

	n := &domain.Notification{ID: "n1", UserID: "u1", Type: "SYSTEM", Title: "t", Message: "raw body"}
	d.Deliver(context.Background(), n, []domain.Channel{domain.ChannelPush})

	if gotBody != "raw body" {
		t.Errorf("body = %q, want raw message", gotBody)
	}
}
