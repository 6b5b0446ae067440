package transport

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// WithBreaker wraps a sender in a circuit breaker so a misbehaving
// downstream gateway is shed instead of hammered. Breaker rejections
// are unmarked errors, so Classify treats them as transient and the
// scheduler retries once the breaker closes again.
func WithBreaker(name string, s Sender) Sender {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     1 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.TotalFailures >= 3
		},
	})
	return &breakerSender{inner: s, cb: cb}
}

type breakerSender struct {
	inner Sender
	cb    *gobreaker.CircuitBreaker
}

func (b *breakerSender) Send(ctx context.Context, userID, title, message string) error {
	res, err := b.cb.Execute(func() (interface{}, error) {
		err := b.inner.Send(ctx, userID, title, message)
		if IsPermanent(err) {
			// A bad address is not a downstream outage; count it as a
			// success for the breaker but still propagate it.
			return err, nil
		}
		return nil, err
	})
	if err != nil {
		return err
	}
	if perr, ok := res.(error); ok {
		return perr
	}
	return nil
}

var _ Sender = (*breakerSender)(nil)
