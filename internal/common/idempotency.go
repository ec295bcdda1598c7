package common

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// IdempotencyHeader carries the client-chosen key for a write.
const IdempotencyHeader = "Idempotency-Key"

const pendingMarker = "pending"

// Idem makes writes carrying an Idempotency-Key replayable. The first request
// runs the handler and its response is stored for TTL; repeats of the same
// method, path and key receive the stored response. A repeat that arrives while
// the first is still running gets 409 IDEMPOTENCY_IN_PROGRESS.
type Idem struct {
	R   *redis.Client
	TTL time.Duration
}

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType,omitempty"`
	Body        []byte `json:"body"`
}

type recordingWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (w *recordingWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	w.buf.Write(p)
	return w.ResponseWriter.Write(p)
}

func (i Idem) storeKey(r *http.Request, clientKey string) string {
	h := sha256.New()
	h.Write([]byte(r.Method))
	h.Write([]byte{0})
	h.Write([]byte(r.URL.Path))
	h.Write([]byte{0})
	h.Write([]byte(clientKey))
	return "idem:" + hex.EncodeToString(h.Sum(nil))
}

func (i Idem) window() time.Duration {
	if i.TTL > 0 {
		return i.TTL
	}
	return 24 * time.Hour
}

// Middleware applies the replay behaviour. Requests without the header pass through.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientKey := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
		if i.R == nil || clientKey == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		key := i.storeKey(r, clientKey)

		claimed, err := i.R.SetNX(ctx, key, pendingMarker, i.window()).Result()
		if err != nil {
			JSONError(w, http.StatusServiceUnavailable, "IDEMPOTENCY_UNAVAILABLE", "idempotency store unavailable", nil)
			return
		}
		if !claimed {
			i.replay(ctx, w, key)
			return
		}

		rec := &recordingWriter{ResponseWriter: w}
		completed := false
		defer func() {
			bg := context.WithoutCancel(ctx)
			// server errors and panics free the key for a retry
			if !completed || rec.status >= http.StatusInternalServerError {
				_ = i.R.Del(bg, key).Err()
				return
			}
			payload, err := json.Marshal(storedResponse{Status: rec.status, ContentType: w.Header().Get("Content-Type"), Body: rec.buf.Bytes()})
			if err == nil {
				_ = i.R.Set(bg, key, payload, i.window()).Err()
			}
		}()
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		completed = true
	})
}

func (i Idem) replay(ctx context.Context, w http.ResponseWriter, key string) {
	raw, err := i.R.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		JSONError(w, http.StatusConflict, "IDEMPOTENCY_IN_PROGRESS", "an identical request has just finished, retry", nil)
		return
	case err != nil:
		JSONError(w, http.StatusServiceUnavailable, "IDEMPOTENCY_UNAVAILABLE", "idempotency store unavailable", nil)
		return
	case string(raw) == pendingMarker:
		JSONError(w, http.StatusConflict, "IDEMPOTENCY_IN_PROGRESS", "an identical request is still being processed", nil)
		return
	}
	var prev storedResponse
	if err := json.Unmarshal(raw, &prev); err != nil {
		JSONError(w, http.StatusConflict, "IDEMPOTENCY_IN_PROGRESS", "an identical request is still being processed", nil)
		return
	}
	if prev.ContentType != "" {
		w.Header().Set("Content-Type", prev.ContentType)
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(prev.Status)
	_, _ = w.Write(prev.Body)
}
