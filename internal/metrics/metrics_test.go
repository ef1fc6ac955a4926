package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.TicketIssued("ECONOMY")
	m.TicketIssued("ECONOMY")
	m.TicketIssued("BUSINESS")
	m.TicketCancelled()
	m.BookingRejected("AIRCRAFT_FULL")
	m.InventoryViolation()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ticketsIssued.WithLabelValues("ECONOMY")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ticketsIssued.WithLabelValues("BUSINESS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ticketsCancelled))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookingsRejected.WithLabelValues("AIRCRAFT_FULL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inventoryViolations))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.TicketIssued("ECONOMY")
		m.TicketCancelled()
		m.BookingRejected("AIRCRAFT_FULL")
		m.InventoryViolation()
	})

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := m.Middleware(next)
	assert.NotNil(t, h)
}

func TestMiddlewareObservesRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	r := mux.NewRouter()
	r.Use(m.Middleware)
	r.HandleFunc("/api/aircraft/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/aircraft/abc", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)

	count, err := testutil.GatherAndCount(reg, "http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	families, err := reg.Gather()
	require.NoError(t, err)
	var labels map[string]string
	for _, f := range families {
		if f.GetName() != "http_request_duration_seconds" {
			continue
		}
		labels = map[string]string{}
		for _, lp := range f.GetMetric()[0].GetLabel() {
			labels[lp.GetName()] = lp.GetValue()
		}
	}
	assert.Equal(t, "/api/aircraft/{id}", labels["route"])
	assert.Equal(t, "404", labels["status"])
	assert.Equal(t, "GET", labels["method"])
}
