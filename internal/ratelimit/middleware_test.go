package ratelimit

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-dyntax/internal/common"
)

type failingAllower struct{}

func (failingAllower) Allow(context.Context, string, time.Duration, int) (bool, int, time.Time, error) {
	return false, 0, time.Time{}, errors.New("store down")
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func staticKey(*http.Request) string { return "static" }

func TestPolicyEnforcesLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limited := Policy{
		Name:    "admin",
		Limiter: SlidingWindow{Client: client, Prefix: "ratelimit:"},
		Key:     staticKey,
		Window:  time.Second,
		Limit:   1,
	}.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/dynamic-taxes", nil)
	first := httptest.NewRecorder()
	limited.ServeHTTP(first, req.Clone(req.Context()))
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, "0", first.Header().Get("X-RateLimit-Remaining"))

	second := httptest.NewRecorder()
	limited.ServeHTTP(second, req.Clone(req.Context()))
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	require.Equal(t, "1", second.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "1", second.Header().Get("Retry-After"))
	require.Contains(t, second.Body.String(), "RATE_LIMITED")
}

func TestPolicyFailsOpen(t *testing.T) {
	var logs bytes.Buffer
	handler := Policy{
		Name:    "cart",
		Limiter: failingAllower{},
		Key:     staticKey,
		Window:  time.Second,
		Limit:   1,
		Logger:  zerolog.New(&logs),
	}.Middleware(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, logs.String(), "store down")
	require.Contains(t, logs.String(), `"policy":"cart"`)
}

func TestPolicyDisabledWithoutLimit(t *testing.T) {
	next := okHandler()
	p := Policy{Limiter: failingAllower{}, Key: staticKey}
	rr := httptest.NewRecorder()
	p.Middleware(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Empty(t, rr.Header().Get("X-RateLimit-Limit"))
}

func TestKeyBySubject(t *testing.T) {
	key := KeyBySubject("admin:")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.4:5555"
	require.Equal(t, "admin:ip:10.0.0.4", key(req))

	req = req.WithContext(common.WithUserID(req.Context(), "user-1"))
	require.Equal(t, "admin:user:user-1", key(req))
}
