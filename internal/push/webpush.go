package push

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/pediae/backend-pediae/internal/store"
)

const defaultWebPushTTL = 60

// WebPushSender delivers encrypted Web Push messages signed with the
// service's VAPID key pair.
type WebPushSender struct {
	PublicKey  string
	PrivateKey string
	Subject    string
	Client     *http.Client
	TTL        int
}

// Configured reports whether the VAPID key pair is present.
func (s *WebPushSender) Configured() bool {
	return s != nil && s.PublicKey != "" && s.PrivateKey != ""
}

// Send pushes one payload to one subscription endpoint. The payload is
// encrypted against the subscription's stored key pair.
func (s *WebPushSender) Send(ctx context.Context, sub store.PushSubscription, payload []byte) error {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = defaultWebPushTTL
	}
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.Subject,
		VAPIDPublicKey:  s.PublicKey,
		VAPIDPrivateKey: s.PrivateKey,
		TTL:             ttl,
		HTTPClient:      s.httpClient(),
	})
	if err != nil {
		return fmt.Errorf("webpush send: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webpush send: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

func (s *WebPushSender) httpClient() webpush.HTTPClient {
	if s.Client != nil {
		return s.Client
	}
	return http.DefaultClient
}
