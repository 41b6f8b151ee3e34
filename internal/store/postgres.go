package store

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres reaches the Supabase project through its direct connection
// string instead of the REST API. Useful when the service runs close to
// the database and the extra HTTP hop is unwanted.
type Postgres struct {
	Pool *pgxpool.Pool
}

// MarkOrderAccepted flips the order row to "aceito".
func (s *Postgres) MarkOrderAccepted(ctx context.Context, orderID, note string) error {
	if s == nil || s.Pool == nil {
		return errors.New("postgres store not configured")
	}
	if strings.TrimSpace(orderID) == "" {
		return errors.New("order id is required")
	}
	if strings.TrimSpace(note) != "" {
		_, err := s.Pool.Exec(ctx, `UPDATE pedidos SET status = 'aceito', observacao = $2 WHERE id = $1`, orderID, note)
		return err
	}
	_, err := s.Pool.Exec(ctx, `UPDATE pedidos SET status = 'aceito' WHERE id = $1`, orderID)
	return err
}

// ListPushSubscriptions returns every registered browser endpoint for one user.
func (s *Postgres) ListPushSubscriptions(ctx context.Context, userID string) ([]PushSubscription, error) {
	if s == nil || s.Pool == nil {
		return nil, errors.New("postgres store not configured")
	}
	rows, err := s.Pool.Query(ctx, `SELECT endpoint, p256dh, auth FROM push_subscriptions WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var subs []PushSubscription
	for rows.Next() {
		var sub PushSubscription
		if err := rows.Scan(&sub.Endpoint, &sub.P256dh, &sub.Auth); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// ListFCMTokens returns every registered device token for one user.
func (s *Postgres) ListFCMTokens(ctx context.Context, userID string) ([]string, error) {
	if s == nil || s.Pool == nil {
		return nil, errors.New("postgres store not configured")
	}
	rows, err := s.Pool.Query(ctx, `SELECT token FROM fcm_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		if strings.TrimSpace(token) != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens, rows.Err()
}

// Ping verifies database connectivity.
func (s *Postgres) Ping(ctx context.Context) error {
	if s == nil || s.Pool == nil {
		return errors.New("postgres store not configured")
	}
	return s.Pool.Ping(ctx)
}
