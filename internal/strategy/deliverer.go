package strategy

import (
	"context"
	"log"
	"time"

	"notification-service/internal/domain"
	"notification-service/internal/transport"
	"notification-service/pkg/template"
)

// Deliverer is the shared per-channel delivery engine every strategy
// uses. Strategies differ in validation and priority rules, not in how
// bytes reach a channel.
type Deliverer struct {
	senders   *transport.Senders
	templates *template.Service
	inApp     transport.InAppSink
}

func NewDeliverer(senders *transport.Senders, templates *template.Service, inApp transport.InAppSink) *Deliverer {
	return &Deliverer{
		senders:   senders,
		templates: templates,
		inApp:     inApp,
	}
}

// Deliver attempts each channel in order and records an outcome per
// channel. In-app delivery is "leave the record visible" plus an
// optional realtime nudge; it always succeeds.
func (d *Deliverer) Deliver(ctx context.Context, n *domain.Notification, channels []domain.Channel) domain.ChannelState {
	state := domain.ChannelState{}
	for _, ch := range channels {
		if ch == domain.ChannelInApp {
			if d.inApp != nil {
				d.inApp.Notify(n.UserID, n)
			}
			state[ch] = domain.OutcomeDelivered
			continue
		}

		sender := d.senders.For(ch)
		if sender == nil {
			log.Printf("[Deliverer] no transport configured for channel %s (record=%s)", ch, n.ID)
			state[ch] = domain.OutcomePermanentFailure
			continue
		}

		body := n.Message
		if d.templates != nil {
			rendered, err := d.templates.Render(ch, n.Type, map[string]any{
				"Title":   n.Title,
				"Message": n.Message,
				"Year":    time.Now().Year(),
			})
			if err == nil {
				body = rendered
			} else {
				log.Printf("[Deliverer] %s template render failed for type %s: %v", ch, n.Type, err)
			}
		}

		err := sender.Send(ctx, n.UserID, n.Title, body)
		state[ch] = transport.Classify(err)
		if err != nil {
			log.Printf("[Deliverer] %s delivery failed for record %s (user=%s): %v",
				ch, n.ID, n.UserID, err)
		}
	}
	return state
}
