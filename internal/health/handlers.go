// Package health exposes the liveness/readiness surface plus the legacy
// GET /health probe the Pediaê frontend polls.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Pinger is the single probe the store backends expose.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler answers the health endpoints. Redis is optional; when absent the
// readiness report marks it disabled instead of failing.
type Handler struct {
	Store        Pinger
	Redis        *redis.Client
	StoreTimeout time.Duration
	RedisTimeout time.Duration
}

var ready atomic.Bool

func init() { ready.Store(true) }

// SetReady flips the readiness gate. Shutdown turns it off first so the load
// balancer drains the instance before connections close.
func SetReady(v bool) { ready.Store(v) }

// OK answers the legacy probe with the fixed {"ok":true} body.
func (h Handler) OK(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// Live reports process liveness.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready probes the store and, when configured, Redis.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !ready.Load() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	if h.Store == nil {
		http.Error(w, "dependencies unavailable", http.StatusServiceUnavailable)
		return
	}

	storeStatus := "ok"
	if err := h.pingStore(r.Context()); err != nil {
		storeStatus = err.Error()
	}
	redisStatus := "disabled"
	if h.Redis != nil {
		redisStatus = "ok"
		if err := h.pingRedis(r.Context()); err != nil {
			redisStatus = err.Error()
		}
	}

	status := map[string]string{
		"store": storeStatus,
		"redis": redisStatus,
	}
	w.Header().Set("Content-Type", "application/json")
	if storeStatus != "ok" || (h.Redis != nil && redisStatus != "ok") {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(status)
}

func (h Handler) pingStore(ctx context.Context) error {
	timeout := h.StoreTimeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return h.Store.Ping(ctx)
}

func (h Handler) pingRedis(ctx context.Context) error {
	timeout := h.RedisTimeout
	if timeout <= 0 {
		timeout = 300 * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return h.Redis.Ping(ctx).Err()
}
