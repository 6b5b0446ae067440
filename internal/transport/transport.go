// Package transport defines the per-channel delivery sinks the
// strategies call into. Actual gateway integration (FCM, SMTP, SMS
// providers) lives behind the Sender interface; this package only
// fixes the contract and the failure classification.
package transport

import (
	"context"
	"errors"

	"notification-service/internal/domain"
)

// Sender delivers one message to one recipient through one channel
// kind. A nil error means the channel accepted the message.
type Sender interface {
	Send(ctx context.Context, userID, title, message string) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, userID, title, message string) error

func (f SenderFunc) Send(ctx context.Context, userID, title, message string) error {
	return f(ctx, userID, title, message)
}

// Senders bundles the outbound channel transports consulted during
// dispatch. In-app is not listed: it has no external call. A nil entry
// means the channel has no transport configured; attempts on it fail
// permanently.
type Senders struct {
	Push  Sender
	Email Sender
	SMS   Sender
}

// For returns the sender bound to ch.
func (s *Senders) For(ch domain.Channel) Sender {
	switch ch {
	case domain.ChannelPush:
		return s.Push
	case domain.ChannelEmail:
		return s.Email
	case domain.ChannelSMS:
		return s.SMS
	}
	return nil
}

var errPermanent = errors.New("permanent delivery failure")

// Permanent marks err as a permanent delivery failure so Classify
// reports PERMANENT_FAILURE instead of the retryable default.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }
func (e permanentError) Is(target error) bool {
	return target == errPermanent
}

// IsPermanent reports whether err is marked permanent.
func IsPermanent(err error) bool {
	return errors.Is(err, errPermanent)
}

// Classify maps a send error to a channel outcome. Unmarked errors are
// transient: the scheduler retries them on the next scan.
func Classify(err error) domain.Outcome {
	switch {
	case err == nil:
		return domain.OutcomeDelivered
	case IsPermanent(err):
		return domain.OutcomePermanentFailure
	default:
		return domain.OutcomeTransientFailure
	}
}
