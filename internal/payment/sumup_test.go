package payment_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pediae/backend-pediae/internal/payment"
)

type sumupStub struct {
	srv        *httptest.Server
	tokenHits  atomic.Int64
	apiHits    atomic.Int64
	expiresIn  int64
	checkoutSt string
	txSt       string
}

func newSumUpStub(t *testing.T, expiresIn int64) *sumupStub {
	t.Helper()
	stub := &sumupStub{expiresIn: expiresIn, checkoutSt: "PENDING", txSt: "SUCCESSFUL"}
	stub.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/token":
			stub.tokenHits.Add(1)
			require.NoError(t, r.ParseForm())
			require.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
			fmt.Fprintf(w, `{"access_token":"tok-%d","expires_in":%d}`, stub.tokenHits.Load(), stub.expiresIn)
		case r.URL.Path == "/v0.1/checkouts" && r.Method == http.MethodPost:
			stub.apiHits.Add(1)
			_, _ = w.Write([]byte(`{"id":"chk_123","status":"PENDING"}`))
		case strings.HasPrefix(r.URL.Path, "/v0.1/checkouts/"):
			stub.apiHits.Add(1)
			fmt.Fprintf(w, `{"status":%q}`, stub.checkoutSt)
		case r.URL.Path == "/v0.1/me/transactions":
			stub.apiHits.Add(1)
			fmt.Fprintf(w, `{"status":%q}`, stub.txSt)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(stub.srv.Close)
	return stub
}

func (s *sumupStub) client() *payment.SumUp {
	return &payment.SumUp{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		MerchantCode: "M0001",
		BaseURL:      s.srv.URL,
		Client:       s.srv.Client(),
	}
}

func TestTokenMemoized(t *testing.T) {
	stub := newSumUpStub(t, 3600)
	sumup := stub.client()

	first, err := sumup.Token(context.Background())
	require.NoError(t, err)
	second, err := sumup.Token(context.Background())
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, int64(1), stub.tokenHits.Load())
}

func TestTokenRefreshedInsideExpiryMargin(t *testing.T) {
	// a 30s lifetime is already inside the 60s safety margin, so every
	// call must hit the token endpoint again
	stub := newSumUpStub(t, 30)
	sumup := stub.client()

	_, err := sumup.Token(context.Background())
	require.NoError(t, err)
	_, err = sumup.Token(context.Background())
	require.NoError(t, err)

	require.Equal(t, int64(2), stub.tokenHits.Load())
}

func TestTokenRequiresCredentials(t *testing.T) {
	sumup := &payment.SumUp{}
	_, err := sumup.Token(context.Background())
	require.Error(t, err)
}

func TestCreateCheckout(t *testing.T) {
	var gotBody map[string]any
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			_, _ = w.Write([]byte(`{"access_token":"tok-1","expires_in":3600}`))
		case "/v0.1/checkouts":
			gotAuth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			_, _ = w.Write([]byte(`{"id":"chk_123","status":"PENDING"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	sumup := &payment.SumUp{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		MerchantCode: "M0001",
		BaseURL:      srv.URL,
		Client:       srv.Client(),
	}
	checkout, err := sumup.CreateCheckout(context.Background(), payment.CheckoutRequest{
		Reference: "pediae-42-abcd1234",
		Amount:    34.5,
		Currency:  "BRL",
		ReturnURL: "https://api.pediae.app/payments/sumup/return?pedido_id=42",
	})
	require.NoError(t, err)
	require.Equal(t, "chk_123", checkout.ID)

	require.Equal(t, "Bearer tok-1", gotAuth)
	require.Equal(t, "pediae-42-abcd1234", gotBody["checkout_reference"])
	require.Equal(t, 34.5, gotBody["amount"])
	require.Equal(t, "BRL", gotBody["currency"])
	require.Equal(t, "M0001", gotBody["merchant_code"])
	require.Contains(t, gotBody["return_url"], "pedido_id=42")

	require.Equal(t, "https://checkout.sumup.com/pay/chk_123", sumup.HostedCheckoutURL(checkout.ID))
}

func TestCreateCheckoutUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token" {
			_, _ = w.Write([]byte(`{"access_token":"tok-1","expires_in":3600}`))
			return
		}
		http.Error(w, `{"message":"invalid merchant"}`, http.StatusConflict)
	}))
	t.Cleanup(srv.Close)

	sumup := &payment.SumUp{ClientID: "id", ClientSecret: "secret", MerchantCode: "M1", BaseURL: srv.URL, Client: srv.Client()}
	_, err := sumup.CreateCheckout(context.Background(), payment.CheckoutRequest{Reference: "r", Amount: 1, Currency: "BRL"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "409")
	require.Contains(t, err.Error(), "invalid merchant")
}
