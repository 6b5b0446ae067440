package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// httpPost sends a JSON payload to a relay endpoint. 4xx responses are
// permanent: the payload itself was rejected. 5xx and network errors
// stay transient so the scheduler retries them.
func httpPost(ctx context.Context, client *http.Client, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return Permanent(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return Permanent(fmt.Errorf("relay %s rejected request: %s", url, resp.Status))
	default:
		return fmt.Errorf("relay %s unavailable: %s", url, resp.Status)
	}
}

// HTTPPushGateway forwards push payloads to an external push relay
// (FCM/APNs bridge).
type HTTPPushGateway struct {
	url    string
	client *http.Client
}

func NewHTTPPushGateway(url string) *HTTPPushGateway {
	return &HTTPPushGateway{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *HTTPPushGateway) Push(ctx context.Context, token, deviceType, title, message string) error {
	return httpPost(ctx, g.client, g.url, map[string]string{
		"token":       token,
		"device_type": deviceType,
		"title":       title,
		"message":     message,
	})
}

var _ PushGateway = (*HTTPPushGateway)(nil)

// NewRelaySender builds a Sender that posts the message to an external
// channel relay (SMTP bridge, SMS provider bridge).
func NewRelaySender(url string) Sender {
	client := &http.Client{Timeout: 10 * time.Second}
	return SenderFunc(func(ctx context.Context, userID, title, message string) error {
		return httpPost(ctx, client, url, map[string]string{
			"user_id": userID,
			"title":   title,
			"message": message,
		})
	})
}

// NewLogSender is the development stand-in for a channel with no relay
// configured. It accepts every message and logs it.
func NewLogSender(channel string) Sender {
	return SenderFunc(func(ctx context.Context, userID, title, message string) error {
		log.Printf("[%s] (no relay configured) to=%s title=%q", channel, userID, title)
		return nil
	})
}

// LogPushGateway is the development stand-in for a push relay.
type LogPushGateway struct{}

func (LogPushGateway) Push(ctx context.Context, token, deviceType, title, message string) error {
	log.Printf("[Push] (no relay configured) token=%s device=%s title=%q", token, deviceType, title)
	return nil
}
