package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cx-tal-miterani/airline-backoffice/internal/database/memory"
	"github.com/cx-tal-miterani/airline-backoffice/internal/handlers"
	"github.com/cx-tal-miterani/airline-backoffice/internal/metrics"
	"github.com/cx-tal-miterani/airline-backoffice/internal/middleware"
	"github.com/cx-tal-miterani/airline-backoffice/internal/models"
	"github.com/cx-tal-miterani/airline-backoffice/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler http.Handler
}

func newTestServer(t *testing.T, limiter *middleware.ClientLimiter) *testServer {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	ledger := service.NewLedger(memory.NewStore(), service.WithMetrics(m))

	return &testServer{
		handler: SetupRouter(handlers.NewHandler(ledger, nil), Options{
			Metrics:     m,
			Gatherer:    reg,
			Redis:       client,
			Idempotency: middleware.DefaultIdempotencyConfig(),
			Limiter:     limiter,
		}),
	}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func created[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Data
}

func TestRouter_Health(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_Preflight(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodOptions, "/api/tickets", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")
}

func TestRouter_BookingFlow(t *testing.T) {
	srv := newTestServer(t, nil)

	aircraft := created[models.Aircraft](t, srv.do(t, http.MethodPost, "/api/aircraft",
		map[string]interface{}{"model": "A220", "company": "Airbus", "capacity": 2}))
	departure := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	flight := created[models.Flight](t, srv.do(t, http.MethodPost, "/api/flights", map[string]interface{}{
		"number":        "LY315",
		"origin":        "TLV",
		"destination":   "CDG",
		"departureTime": departure,
		"arrivalTime":   departure.Add(5 * time.Hour),
		"aircraftId":    aircraft.ID,
	}))
	passenger := created[models.Passenger](t, srv.do(t, http.MethodPost, "/api/passengers",
		map[string]interface{}{"lastName": "Levi", "firstName": "Noa", "email": "noa@example.com"}))

	booking := map[string]interface{}{
		"flightId":    flight.ID,
		"passengerId": passenger.ID,
		"seatNumber":  "3C",
		"price":       310.0,
		"paymentMode": "CREDIT_CARD",
	}
	first := srv.do(t, http.MethodPost, "/api/tickets", booking, middleware.IdempotencyHeader, "book-1")
	ticket := created[models.Ticket](t, first)
	assert.Equal(t, models.FareClassEconomy, ticket.FareClass)

	retry := srv.do(t, http.MethodPost, "/api/tickets", booking, middleware.IdempotencyHeader, "book-1")
	assert.Equal(t, http.StatusCreated, retry.Code)
	assert.Equal(t, "true", retry.Header().Get(middleware.IdempotencyHitHeader))

	rec := srv.do(t, http.MethodGet, "/api/aircraft/"+aircraft.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Aircraft
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, 1, got.Remaining)

	rec = srv.do(t, http.MethodDelete, "/api/flights/"+flight.ID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, http.MethodPost, fmt.Sprintf("/api/tickets/%s/cancel", ticket.ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/tickets?status=cancelled&flightId="+flight.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var tickets []models.Ticket
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&tickets))
	assert.Len(t, tickets, 1)

	rec = srv.do(t, http.MethodDelete, "/api/flights/"+flight.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	metricsRec := srv.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, metricsRec.Code)
	assert.Contains(t, metricsRec.Body.String(), `ledger_tickets_issued_total{fare_class="ECONOMY"} 1`)
	assert.Contains(t, metricsRec.Body.String(), `route="/api/tickets"`)
}

func TestRouter_UnknownRoute(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodGet, "/api/unknown", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_RateLimitAppliesToAPI(t *testing.T) {
	limiter := middleware.NewClientLimiter(middleware.RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 1})
	srv := newTestServer(t, limiter)

	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/api/aircraft", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, srv.do(t, http.MethodGet, "/api/aircraft", nil).Code)
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/health", nil).Code)
}
