package push

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMSender delivers multicast messages through the Firebase Admin SDK.
// The service-account credential is loaded once at startup; without it the
// sender stays nil and the endpoint answers "not configured".
type FCMSender struct {
	client *messaging.Client
}

// NewFCMSender builds a messaging client from an inline service-account JSON
// document or a file path, whichever is set.
func NewFCMSender(ctx context.Context, credentialsJSON, credentialsFile string) (*FCMSender, error) {
	var opts []option.ClientOption
	switch {
	case credentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	case credentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	default:
		return nil, errors.New("fcm: no service account credential")
	}
	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("fcm: init app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("fcm: init messaging: %w", err)
	}
	return &FCMSender{client: client}, nil
}

// Configured reports whether a messaging client was built at startup.
func (s *FCMSender) Configured() bool {
	return s != nil && s.client != nil
}

// SendMulticast sends one message covering every token and returns the
// provider's aggregate success/failure counts.
func (s *FCMSender) SendMulticast(ctx context.Context, tokens []string, n Notification) (int, int, error) {
	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: map[string]string{
			"url": n.URL,
			"tag": n.Tag,
		},
		Webpush: &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Icon: n.Icon,
				Tag:  n.Tag,
			},
			FCMOptions: &messaging.WebpushFCMOptions{Link: n.URL},
		},
	}
	resp, err := s.client.SendEachForMulticast(ctx, msg)
	if err != nil {
		return 0, 0, fmt.Errorf("fcm multicast: %w", err)
	}
	return resp.SuccessCount, resp.FailureCount, nil
}
