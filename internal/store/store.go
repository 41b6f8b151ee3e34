// Package store gives read/write access to the state owned by the hosted
// Supabase project: order rows, Web Push subscriptions and FCM device
// tokens. The schema belongs to Supabase; this package only issues the
// narrow queries the bridge needs.
package store

import "context"

// PushSubscription is a registered browser endpoint plus its encryption keys.
type PushSubscription struct {
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}

// Store abstracts the two ways of reaching the Supabase project: the
// PostgREST API with a service key, or the direct Postgres connection string.
type Store interface {
	// MarkOrderAccepted flips an order row to "aceito", optionally attaching
	// a free-text note. It is the only write this service ever performs.
	MarkOrderAccepted(ctx context.Context, orderID, note string) error
	ListPushSubscriptions(ctx context.Context, userID string) ([]PushSubscription, error)
	ListFCMTokens(ctx context.Context, userID string) ([]string, error)
	Ping(ctx context.Context) error
}
