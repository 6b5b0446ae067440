package transport

import (
	"context"
	"fmt"
	"log"

	"notification-service/internal/domain"
	"notification-service/internal/repository"
	"notification-service/pkg/xerrors"
)

// PushGateway is the external push provider (e.g. FCM/APNs bridge).
type PushGateway interface {
	Push(ctx context.Context, token, deviceType, title, message string) error
}

// PushSender resolves the recipient's registered device tokens and
// forwards the message to the push gateway. A recipient with no
// registered token fails permanently: retrying cannot help until a
// token is registered, which creates a fresh notification anyway.
type PushSender struct {
	tokens  repository.PushTokenStore
	gateway PushGateway
}

func NewPushSender(tokens repository.PushTokenStore, gateway PushGateway) *PushSender {
	return &PushSender{tokens: tokens, gateway: gateway}
}

func (s *PushSender) Send(ctx context.Context, userID, title, message string) error {
	tokens, err := s.tokens.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list push tokens for %s: %w", userID, err)
	}
	if len(tokens) == 0 {
		return Permanent(xerrors.ErrNoPushToken)
	}

	var lastErr error
	sent := 0
	for _, t := range tokens {
		if err := s.gateway.Push(ctx, t.Token, t.DeviceType, title, message); err != nil {
			log.Printf("[Push] send to %s device failed: %v", userID, err)
			lastErr = err
			if IsPermanent(err) {
				// Dead token: drop it so future sends skip it.
				if derr := s.tokens.DeleteToken(ctx, userID, t.Token); derr != nil {
					log.Printf("[Push] failed to drop dead token for %s: %v", userID, derr)
				}
			}
			continue
		}
		sent++
	}
	if sent == 0 {
		return lastErr
	}
	return nil
}

var _ Sender = (*PushSender)(nil)

// InAppSink is the realtime half of the in-app channel. Durable
// visibility comes from the record itself; the sink only nudges
// connected clients.
type InAppSink interface {
	Notify(userID string, n *domain.Notification)
}
