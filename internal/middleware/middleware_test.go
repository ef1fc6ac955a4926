package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cx-tal-miterani/airline-backoffice/internal/models"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func countingHandler(calls *int32, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]int32{"call": n})
	})
}

func post(h http.Handler, path, key string) *httptest.ResponseRecorder {
	return postBody(h, path, key, `{}`)
}

func postBody(h http.Handler, path, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	_, client := newRedis(t)
	var calls int32
	h := Idempotency(client, DefaultIdempotencyConfig(), nil)(countingHandler(&calls, http.StatusCreated))

	first := post(h, "/api/tickets", "booking-1")
	second := post(h, "/api/tickets", "booking-1")

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(IdempotencyHitHeader))
	assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
}

func TestIdempotency_KeysAreScoped(t *testing.T) {
	_, client := newRedis(t)
	var calls int32
	h := Idempotency(client, DefaultIdempotencyConfig(), nil)(countingHandler(&calls, http.StatusCreated))

	post(h, "/api/tickets", "a")
	post(h, "/api/tickets", "b")
	post(h, "/api/passengers", "a")
	post(h, "/api/tickets", "")
	post(h, "/api/tickets", "")

	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
}

func TestIdempotency_InProgress(t *testing.T) {
	mr, client := newRedis(t)
	var calls int32
	h := Idempotency(client, DefaultIdempotencyConfig(), nil)(countingHandler(&calls, http.StatusCreated))

	require.NoError(t, mr.Set("idempotency:POST:/api/tickets:busy", processingMarker))

	rec := post(h, "/api/tickets", "busy")

	assert.Equal(t, http.StatusConflict, rec.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "REQUEST_IN_PROGRESS", resp.Code)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestIdempotency_KeyReusedWithDifferentBody(t *testing.T) {
	_, client := newRedis(t)
	var calls int32
	var seen []string
	h := Idempotency(client, DefaultIdempotencyConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen = append(seen, string(body))
		countingHandler(&calls, http.StatusCreated).ServeHTTP(w, r)
	}))

	first := postBody(h, "/api/tickets", "booking-1", `{"seatNumber":"1A"}`)
	reused := postBody(h, "/api/tickets", "booking-1", `{"seatNumber":"2B"}`)
	retry := postBody(h, "/api/tickets", "booking-1", `{"seatNumber":"1A"}`)

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, reused.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.NewDecoder(reused.Body).Decode(&resp))
	assert.Equal(t, "IDEMPOTENCY_KEY_REUSED", resp.Code)
	assert.Empty(t, reused.Header().Get(IdempotencyHitHeader))

	assert.Equal(t, http.StatusCreated, retry.Code)
	assert.Equal(t, "true", retry.Header().Get(IdempotencyHitHeader))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, []string{`{"seatNumber":"1A"}`}, seen)
}

func TestIdempotency_KeyReusedWhileInProgress(t *testing.T) {
	mr, client := newRedis(t)
	var calls int32
	h := Idempotency(client, DefaultIdempotencyConfig(), nil)(countingHandler(&calls, http.StatusCreated))

	sum := sha256.Sum256([]byte(`{"seatNumber":"1A"}`))
	require.NoError(t, mr.Set("idempotency:POST:/api/tickets:busy", processingMarker+":"+hex.EncodeToString(sum[:])))

	same := postBody(h, "/api/tickets", "busy", `{"seatNumber":"1A"}`)
	other := postBody(h, "/api/tickets", "busy", `{"seatNumber":"2B"}`)

	assert.Equal(t, http.StatusConflict, same.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, other.Code)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestIdempotency_HandlerDeadlineWithinLock(t *testing.T) {
	mr, client := newRedis(t)
	cfg := IdempotencyConfig{LockTTL: 50 * time.Millisecond, ResultTTL: time.Hour}
	var lockTTL time.Duration
	h := Idempotency(client, cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lockTTL = mr.TTL("idempotency:POST:/api/tickets:slow")
		<-r.Context().Done()
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	start := time.Now()
	rec := post(h, "/api/tickets", "slow")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, cfg.LockTTL+lockGrace, lockTTL)
	assert.False(t, mr.Exists("idempotency:POST:/api/tickets:slow"))
}

func TestIdempotency_ServerErrorReleasesKey(t *testing.T) {
	mr, client := newRedis(t)
	var calls int32
	h := Idempotency(client, DefaultIdempotencyConfig(), nil)(countingHandler(&calls, http.StatusInternalServerError))

	post(h, "/api/tickets", "retry-me")
	assert.False(t, mr.Exists("idempotency:POST:/api/tickets:retry-me"))

	post(h, "/api/tickets", "retry-me")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotency_ClientErrorIsReplayed(t *testing.T) {
	mr, client := newRedis(t)
	var calls int32
	h := Idempotency(client, DefaultIdempotencyConfig(), nil)(countingHandler(&calls, http.StatusBadRequest))

	post(h, "/api/tickets", "full")
	rec := post(h, "/api/tickets", "full")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, 24*time.Hour, mr.TTL("idempotency:POST:/api/tickets:full"))
}

func TestIdempotency_RedisDownFailsOpen(t *testing.T) {
	mr, client := newRedis(t)
	mr.Close()

	var calls int32
	h := Idempotency(client, DefaultIdempotencyConfig(), nil)(countingHandler(&calls, http.StatusCreated))

	assert.Equal(t, http.StatusCreated, post(h, "/api/tickets", "k").Code)
	assert.Equal(t, http.StatusCreated, post(h, "/api/tickets", "k").Code)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotency_IgnoresReads(t *testing.T) {
	_, client := newRedis(t)
	var calls int32
	h := Idempotency(client, DefaultIdempotencyConfig(), nil)(countingHandler(&calls, http.StatusOK))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/tickets", nil)
		req.Header.Set(IdempotencyHeader, "same")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestRateLimit(t *testing.T) {
	limiter := NewClientLimiter(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 2})
	h := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/aircraft", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:1002"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1000"))
}

func TestClientLimiter_EvictsIdleClients(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	limiter := NewClientLimiter(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1, IdleTTL: time.Minute})
	limiter.now = func() time.Time { return now }

	limiter.Allow("a")
	limiter.Allow("b")
	assert.Equal(t, 2, limiter.Len())

	now = now.Add(2 * time.Minute)
	limiter.Allow("c")

	assert.Equal(t, 1, limiter.Len())
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := chimw.RequestID(AccessLog(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, float64(len("short and stout")), entry["bytes"])
	assert.NotEmpty(t, entry["request_id"])
}
