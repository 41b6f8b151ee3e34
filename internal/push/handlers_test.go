package push_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/pediae/backend-pediae/internal/common"
	"github.com/pediae/backend-pediae/internal/push"
	"github.com/pediae/backend-pediae/internal/store"
)

func newPushHandler(st store.Store, web push.WebPushDelivery, fcm push.FCMDelivery) *push.Handler {
	return &push.Handler{Service: &push.Service{
		Store:   st,
		WebPush: web,
		FCM:     fcm,
		Logger:  zerolog.Nop(),
	}}
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/push/send-to-user", strings.NewReader(body))
	handler(rec, req)
	return rec
}

func TestSendToUserMissingUserID(t *testing.T) {
	h := newPushHandler(&stubStore{}, &stubWebPush{configured: true}, nil)

	rec := postJSON(t, h.SendToUser, `{"notification":{"title":"oi"}}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body common.ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "missing_fields", body.Error)
	require.Equal(t, []any{"userId"}, body.Details)
}

func TestSendToUserNotConfigured(t *testing.T) {
	sender := &stubWebPush{configured: false}
	h := newPushHandler(&stubStore{subs: subsFor("https://push.example/a")}, sender, nil)

	rec := postJSON(t, h.SendToUser, `{"userId":"user-1"}`)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body common.ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "webpush_not_configured", body.Error)
	require.Empty(t, sender.calls)
}

func TestSendToUserDeliversAndReportsResults(t *testing.T) {
	sender := &stubWebPush{configured: true, failFor: map[string]error{"https://push.example/b": errGone}}
	h := newPushHandler(&stubStore{subs: subsFor("https://push.example/a", "https://push.example/b", "https://push.example/c")}, sender, nil)

	rec := postJSON(t, h.SendToUser, `{"userId":"user-1","notification":{"title":"Pedido aceito"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Sent    int                  `json:"sent"`
		Results []push.EndpointResult `json:"results"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, 2, resp.Sent)
	require.Len(t, resp.Results, 3)
	require.False(t, resp.Results[1].OK)
}

func TestSendToUserZeroSubscriptions(t *testing.T) {
	sender := &stubWebPush{configured: true}
	h := newPushHandler(&stubStore{}, sender, nil)

	rec := postJSON(t, h.SendToUser, `{"userId":"user-1"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Sent    int   `json:"sent"`
		Results []any `json:"results"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Zero(t, resp.Sent)
	require.Empty(t, resp.Results)
	require.Empty(t, sender.calls)
}

func TestFCMSendToUserNotConfigured(t *testing.T) {
	h := newPushHandler(&stubStore{tokens: []string{"tok-a"}}, nil, &stubFCM{configured: false})

	rec := postJSON(t, h.FCMSendToUser, `{"userId":"user-1"}`)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body common.ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "fcm_not_configured", body.Error)
}

func TestFCMSendToUserCounts(t *testing.T) {
	sender := &stubFCM{configured: true, success: 3, failure: 1}
	h := newPushHandler(&stubStore{tokens: []string{"a", "b", "c", "d"}}, nil, sender)

	rec := postJSON(t, h.FCMSendToUser, `{"userId":"user-1"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Sent         int `json:"sent"`
		FailureCount int `json:"failureCount"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, 3, resp.Sent)
	require.Equal(t, 1, resp.FailureCount)
	require.Equal(t, 1, sender.calls)
}

func TestSendToUserStoreErrorKeepsCode(t *testing.T) {
	st := &stubStore{listErr: common.NewAppError("store_error", "supabase query: status 500", http.StatusBadGateway, nil)}
	h := newPushHandler(st, &stubWebPush{configured: true}, nil)

	rec := postJSON(t, h.SendToUser, `{"userId":"user-1"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body common.ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "store_error", body.Error)
}

func TestSendToUserInvalidBody(t *testing.T) {
	h := newPushHandler(&stubStore{}, &stubWebPush{configured: true}, nil)

	rec := postJSON(t, h.SendToUser, `{not json`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body common.ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "invalid_body", body.Error)
}
