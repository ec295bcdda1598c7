package ratelimit

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-dyntax/internal/common"
	"github.com/noah-isme/toko-dyntax/internal/obs"
)

// Allower admits or refuses one more hit for key within window.
type Allower interface {
	Allow(ctx context.Context, key string, window time.Duration, limit int) (allowed bool, remaining int, reset time.Time, err error)
}

// Policy is a named limit applied to a group of routes.
type Policy struct {
	// Name labels metrics and logs, e.g. "admin" or "cart".
	Name    string
	Limiter Allower
	Key     func(*http.Request) string
	Window  time.Duration
	Limit   int
	Logger  zerolog.Logger
}

// KeyBySubject buckets authenticated callers by subject and everyone else by IP.
func KeyBySubject(prefix string) func(*http.Request) string {
	return func(r *http.Request) string {
		if id, ok := common.UserID(r.Context()); ok && id != "" {
			return prefix + "user:" + id
		}
		return prefix + "ip:" + common.ClientIP(r)
	}
}

// Middleware enforces the policy. When the limiter itself fails the request is
// let through and the failure is logged.
func (p Policy) Middleware(next http.Handler) http.Handler {
	if p.Limiter == nil || p.Key == nil || p.Limit <= 0 {
		return next
	}
	log := p.Logger.With().Str("component", "ratelimit").Str("policy", p.Name).Logger()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := p.Key(r)
		ok, remaining, reset, err := p.Limiter.Allow(r.Context(), key, p.Window, p.Limit)
		if err != nil {
			obs.ObserveRateLimit(p.Name, "error")
			log.Warn().Err(err).Msg("rate limiter unavailable, admitting request")
			next.ServeHTTP(w, r)
			return
		}
		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(p.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
		if ok {
			obs.ObserveRateLimit(p.Name, "allowed")
			next.ServeHTTP(w, r)
			return
		}
		obs.ObserveRateLimit(p.Name, "limited")
		wait := int(math.Ceil(time.Until(reset).Seconds()))
		h.Set("Retry-After", strconv.Itoa(max(wait, 1)))
		log.Debug().Str("key", key).Msg("rate limited")
		common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests, slow down", map[string]int{"retryAfter": max(wait, 1)})
	})
}
