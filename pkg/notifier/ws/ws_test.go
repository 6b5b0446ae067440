package ws

import (
	"context"
	"testing"
	"time"

	"notification-service/internal/domain"
)

func TestHeartbeatStopsOnContextCancel(t *testing.T) {
	m := NewManager()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		m.Heartbeat(ctx, 10*time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Heartbeat did not stop on context cancel")
	}
}

func TestNotifyWithoutConnectionsIsNoop(t *testing.T) {
	m := NewManager()
	// Must not panic or block for a user with no live connections.
	m.Notify("u1", &domain.Notification{ID: "n1", UserID: "u1", Title: "t", Message: "m"})
}
