package push

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pediae/backend-pediae/internal/obs"
	"github.com/pediae/backend-pediae/internal/store"
)

// WebPushDelivery is the outbound side of the Web Push channel.
type WebPushDelivery interface {
	Configured() bool
	Send(ctx context.Context, sub store.PushSubscription, payload []byte) error
}

// FCMDelivery is the outbound side of the FCM channel.
type FCMDelivery interface {
	Configured() bool
	SendMulticast(ctx context.Context, tokens []string, n Notification) (success, failure int, err error)
}

// EndpointResult records the outcome of one Web Push endpoint delivery.
type EndpointResult struct {
	Endpoint string `json:"endpoint"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
}

// Service fans notifications out to everything registered for a user.
type Service struct {
	Store   store.Store
	WebPush WebPushDelivery
	FCM     FCMDelivery
	Logger  zerolog.Logger
}

// SendWebPush delivers the payload to each of the user's subscriptions in
// turn. A failing endpoint is recorded and skipped; it never aborts the
// batch. Zero subscriptions means zero provider calls.
func (s *Service) SendWebPush(ctx context.Context, userID string, n Notification) (int, []EndpointResult, error) {
	subs, err := s.Store.ListPushSubscriptions(ctx, userID)
	if err != nil {
		return 0, nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	results := make([]EndpointResult, 0, len(subs))
	if len(subs) == 0 {
		return 0, results, nil
	}
	payload, err := json.Marshal(n.WithDefaults())
	if err != nil {
		return 0, nil, err
	}
	if obs.PushBatchSize != nil {
		obs.PushBatchSize.Observe(float64(len(subs)))
	}
	sent := 0
	for _, sub := range subs {
		if err := s.WebPush.Send(ctx, sub, payload); err != nil {
			countSend("webpush", "failure")
			s.Logger.Warn().Err(err).Str("user_id", userID).Str("endpoint", sub.Endpoint).Msg("webpush delivery failed")
			results = append(results, EndpointResult{Endpoint: sub.Endpoint, OK: false, Error: err.Error()})
			continue
		}
		countSend("webpush", "success")
		sent++
		results = append(results, EndpointResult{Endpoint: sub.Endpoint, OK: true})
	}
	return sent, results, nil
}

// SendFCM delivers one multicast message covering all of the user's device
// tokens and returns the provider's success/failure counts.
func (s *Service) SendFCM(ctx context.Context, userID string, n Notification) (int, int, error) {
	tokens, err := s.Store.ListFCMTokens(ctx, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("list fcm tokens: %w", err)
	}
	if len(tokens) == 0 {
		return 0, 0, nil
	}
	if obs.PushBatchSize != nil {
		obs.PushBatchSize.Observe(float64(len(tokens)))
	}
	success, failure, err := s.FCM.SendMulticast(ctx, tokens, n.WithDefaults())
	if err != nil {
		countSend("fcm", "failure")
		return 0, 0, err
	}
	countSend("fcm", "success")
	return success, failure, nil
}

func countSend(channel, result string) {
	if obs.PushSendTotal != nil {
		obs.PushSendTotal.WithLabelValues(channel, result).Inc()
	}
}
