package payment

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
	"sync"
	"time"

	"github.com/pediae/backend-pediae/internal/obs"
)

// tokenExpiryMargin is how long before expiry a cached token is already
// treated as stale, so a request never leaves with a token about to die.
const tokenExpiryMargin = 60 * time.Second

// SumUp is a client for the SumUp REST API. It performs the OAuth
// client-credentials grant itself and memoizes the bearer token.
type SumUp struct {
	ClientID      string
	ClientSecret  string
	MerchantCode  string
	BaseURL       string
	HostedBaseURL string
	Client        *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// Configured reports whether the credentials needed for API calls are present.
func (s *SumUp) Configured() bool {
	return s != nil && s.ClientID != "" && s.ClientSecret != "" && s.MerchantCode != ""
}

// Token returns a bearer token, reusing the memoized one while it stays
// valid for longer than the safety margin. A single upstream attempt, no
// retry; the error surfaces to the caller.
func (s *SumUp) Token(ctx context.Context) (string, error) {
	if !s.Configured() {
		return "", errors.New("sumup client not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" && time.Until(s.tokenExpiry) > tokenExpiryMargin {
		return s.token, nil
	}

	form := url.Values{
		"grant_type":    []string{"client_credentials"},
		"client_id":     []string{s.ClientID},
		"client_secret": []string{s.ClientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL()+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := s.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("sumup token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", upstreamError("sumup token", resp)
	}
	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("sumup token: decode: %w", err)
	}
	if out.AccessToken == "" {
		return "", errors.New("sumup token: empty access_token")
	}
	s.token = out.AccessToken
	s.tokenExpiry = time.Now().Add(time.Duration(out.ExpiresIn) * time.Second)
	if obs.SumUpTokenRefreshTotal != nil {
		obs.SumUpTokenRefreshTotal.Inc()
	}
	return s.token, nil
}

// CheckoutRequest describes the hosted checkout to create.
type CheckoutRequest struct {
	Reference   string
	Amount      float64
	Currency    string
	ReturnURL   string
	Description string
}

// Checkout is the subset of the provider's checkout resource this service reads.
type Checkout struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CreateCheckout opens a hosted checkout resource for the merchant.
func (s *SumUp) CreateCheckout(ctx context.Context, req CheckoutRequest) (Checkout, error) {
	var zero Checkout
	token, err := s.Token(ctx)
	if err != nil {
		return zero, err
	}
	payload := map[string]any{
		"checkout_reference": req.Reference,
		"amount":             req.Amount,
		"currency":           req.Currency,
		"merchant_code":      s.MerchantCode,
	}
	if req.ReturnURL != "" {
		payload["return_url"] = req.ReturnURL
	}
	if req.Description != "" {
		payload["description"] = req.Description
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return zero, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL()+"/v0.1/checkouts", bytes.NewReader(body))
	if err != nil {
		return zero, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)
	resp, err := s.httpClient().Do(httpReq)
	if err != nil {
		return zero, fmt.Errorf("sumup create checkout: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return zero, upstreamError("sumup create checkout", resp)
	}
	var checkout Checkout
	if err := json.NewDecoder(resp.Body).Decode(&checkout); err != nil {
		return zero, fmt.Errorf("sumup create checkout: decode: %w", err)
	}
	return checkout, nil
}

// CheckoutStatus fetches the current status string of a checkout.
func (s *SumUp) CheckoutStatus(ctx context.Context, checkoutID string) (string, error) {
	var out struct {
		Status string `json:"status"`
	}
	if err := s.getJSON(ctx, "/v0.1/checkouts/"+url.PathEscape(checkoutID), &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

// TransactionStatus fetches the status of a settled transaction.
func (s *SumUp) TransactionStatus(ctx context.Context, transactionID string) (string, error) {
	var out struct {
		Status string `json:"status"`
	}
	if err := s.getJSON(ctx, "/v0.1/me/transactions?id="+url.QueryEscape(transactionID), &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

// HostedCheckoutURL is where the shopper is redirected to pay a checkout.
func (s *SumUp) HostedCheckoutURL(checkoutID string) string {
	base := strings.TrimRight(s.HostedBaseURL, "/")
	if base == "" {
		base = "https://checkout.sumup.com/pay"
	}
	return base + "/" + url.PathEscape(checkoutID)
}

func (s *SumUp) getJSON(ctx context.Context, path string, out any) error {
	token, err := s.Token(ctx)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL()+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := s.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("sumup get %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return upstreamError("sumup get "+path, resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (s *SumUp) baseURL() string {
	base := strings.TrimRight(strings.TrimSpace(s.BaseURL), "/")
	if base == "" {
		base = "https://api.sumup.com"
	}
	return base
}

func (s *SumUp) httpClient() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return http.DefaultClient
}

func upstreamError(op string, resp *http.Response) error {
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(detail)))
}
