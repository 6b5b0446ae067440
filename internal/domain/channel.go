package domain

// Channel is a delivery medium for a notification.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
	ChannelSMS   Channel = "sms"
	ChannelInApp Channel = "inapp"
)

// AllChannels lists every channel the engine knows about.
var AllChannels = []Channel{ChannelEmail, ChannelPush, ChannelSMS, ChannelInApp}

func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelPush, ChannelSMS, ChannelInApp:
		return true
	}
	return false
}

// Interruptive reports whether the channel actively interrupts the
// recipient. Interruptive channels are suppressed during quiet hours;
// pull-based channels (in-app, email) are not.
func (c Channel) Interruptive() bool {
	return c == ChannelPush || c == ChannelSMS
}

// Priority of a notification.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return true
	}
	return false
}

// Outcome is the result of one delivery attempt on one channel.
type Outcome string

const (
	// OutcomeDelivered means the channel accepted the message.
	OutcomeDelivered Outcome = "DELIVERED"
	// OutcomeTransientFailure means delivery failed but may succeed on a
	// later attempt (timeout, rate limit, open circuit breaker).
	OutcomeTransientFailure Outcome = "TRANSIENT_FAILURE"
	// OutcomePermanentFailure means delivery can never succeed on this
	// channel (invalid token, bounced address). Not retried.
	OutcomePermanentFailure Outcome = "PERMANENT_FAILURE"
)

// Terminal reports whether the outcome needs no further attempts.
func (o Outcome) Terminal() bool {
	return o == OutcomeDelivered || o == OutcomePermanentFailure
}

// ChannelState maps channels to their last recorded outcome. It is
// persisted with the record so a restarted dispatcher does not re-send
// channels that already succeeded.
type ChannelState map[Channel]Outcome

// Terminal reports whether every channel in the state is terminal.
// An empty state is not terminal.
func (s ChannelState) Terminal() bool {
	if len(s) == 0 {
		return false
	}
	for _, o := range s {
		if !o.Terminal() {
			return false
		}
	}
	return true
}

// AnyDelivered reports whether at least one channel succeeded.
func (s ChannelState) AnyDelivered() bool {
	for _, o := range s {
		if o == OutcomeDelivered {
			return true
		}
	}
	return false
}

// Pending returns the subset of channels that still need an attempt:
// channels with no recorded outcome or a transient failure.
func (s ChannelState) Pending(channels []Channel) []Channel {
	var pending []Channel
	for _, ch := range channels {
		if o, ok := s[ch]; ok && o.Terminal() {
			continue
		}
		pending = append(pending, ch)
	}
	return pending
}
