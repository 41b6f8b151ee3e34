package common_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/pediae/backend-pediae/internal/common"
)

func TestIdempotencyMiddleware(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})
	idem := common.Idem{R: client, TTL: time.Minute}
	handler := idem.Middleware(next)

	do := func(key string) int {
		req := httptest.NewRequest(http.MethodPost, "/payments/sumup/create", nil)
		if key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	require.Equal(t, http.StatusOK, do("abc"))
	require.Equal(t, http.StatusConflict, do("abc"))
	require.Equal(t, http.StatusOK, do("def"))
	// requests without a key bypass the lock entirely
	require.Equal(t, http.StatusOK, do(""))
	require.Equal(t, 3, calls)
}
