package common_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pediae/backend-pediae/internal/common"
)

func callProtected(t *testing.T, token, header string) *httptest.ResponseRecorder {
	t.Helper()
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		common.JSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	handler := common.RequireBearer(token)(next)
	req := httptest.NewRequest(http.MethodPost, "/push/send-to-user", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestRequireBearerAccepts(t *testing.T) {
	rr := callProtected(t, "s3cret", "Bearer s3cret")
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRequireBearerRejects(t *testing.T) {
	for name, header := range map[string]string{
		"missing": "",
		"wrong":   "Bearer nope",
		"basic":   "Basic s3cret",
	} {
		t.Run(name, func(t *testing.T) {
			rr := callProtected(t, "s3cret", header)
			require.Equal(t, http.StatusUnauthorized, rr.Code)
			var body common.ErrorBody
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			require.Equal(t, "unauthorized", body.Error)
		})
	}
}

func TestRequireBearerUnconfigured(t *testing.T) {
	rr := callProtected(t, "", "Bearer anything")
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	var body common.ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "api_token_not_configured", body.Error)
}
