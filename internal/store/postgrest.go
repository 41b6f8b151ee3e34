package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pediae/backend-pediae/internal/common"
)

// PostgREST talks to the Supabase REST API using the service-role key.
type PostgREST struct {
	BaseURL    string
	ServiceKey string
	Client     *http.Client
}

// NewPostgREST constructs a REST-backed store. The base URL is the project
// URL without the /rest/v1 suffix.
func NewPostgREST(baseURL, serviceKey string, client *http.Client) *PostgREST {
	if client == nil {
		client = http.DefaultClient
	}
	return &PostgREST{
		BaseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		ServiceKey: strings.TrimSpace(serviceKey),
		Client:     client,
	}
}

// MarkOrderAccepted patches the order row to status "aceito".
func (s *PostgREST) MarkOrderAccepted(ctx context.Context, orderID, note string) error {
	if strings.TrimSpace(orderID) == "" {
		return errors.New("order id is required")
	}
	patch := map[string]string{"status": "aceito"}
	if strings.TrimSpace(note) != "" {
		patch["observacao"] = note
	}
	body, err := json.Marshal(patch)
	if err != nil {
		return err
	}
	query := url.Values{"id": []string{"eq." + orderID}}
	req, err := s.newRequest(ctx, http.MethodPatch, "/rest/v1/pedidos", query, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")
	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError("update pedidos", resp)
	}
	return nil
}

// ListPushSubscriptions returns every registered browser endpoint for one user.
func (s *PostgREST) ListPushSubscriptions(ctx context.Context, userID string) ([]PushSubscription, error) {
	query := url.Values{
		"select":  []string{"endpoint,p256dh,auth"},
		"user_id": []string{"eq." + userID},
	}
	var subs []PushSubscription
	if err := s.getJSON(ctx, "/rest/v1/push_subscriptions", query, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// ListFCMTokens returns every registered device token for one user.
func (s *PostgREST) ListFCMTokens(ctx context.Context, userID string) ([]string, error) {
	query := url.Values{
		"select":  []string{"token"},
		"user_id": []string{"eq." + userID},
	}
	var rows []struct {
		Token string `json:"token"`
	}
	if err := s.getJSON(ctx, "/rest/v1/fcm_tokens", query, &rows); err != nil {
		return nil, err
	}
	tokens := make([]string, 0, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(row.Token) != "" {
			tokens = append(tokens, row.Token)
		}
	}
	return tokens, nil
}

// Ping probes the REST endpoint for readiness checks.
func (s *PostgREST) Ping(ctx context.Context) error {
	req, err := s.newRequest(ctx, http.MethodGet, "/rest/v1/", nil, nil)
	if err != nil {
		return err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 500 {
		return statusError("ping", resp)
	}
	return nil
}

func (s *PostgREST) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	req, err := s.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError("query "+path, resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (s *PostgREST) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	if s.BaseURL == "" || s.ServiceKey == "" {
		return nil, errors.New("supabase store not configured")
	}
	target := s.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", s.ServiceKey)
	req.Header.Set("Authorization", "Bearer "+s.ServiceKey)
	return req, nil
}

func statusError(op string, resp *http.Response) error {
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := fmt.Sprintf("supabase %s: status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(detail)))
	return common.NewAppError("store_error", msg, http.StatusBadGateway, nil)
}
