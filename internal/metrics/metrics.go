package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the ledger collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	ticketsIssued       *prometheus.CounterVec
	ticketsCancelled    prometheus.Counter
	bookingsRejected    *prometheus.CounterVec
	inventoryViolations prometheus.Counter
	requestDuration     *prometheus.HistogramVec
}

// New registers the collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ticketsIssued: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_tickets_issued_total",
			Help: "The total number of tickets issued, by fare class",
		}, []string{"fare_class"}),
		ticketsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_tickets_cancelled_total",
			Help: "The total number of tickets that released their seat",
		}),
		bookingsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_bookings_rejected_total",
			Help: "The total number of refused ticket issuances, by error code",
		}, []string{"code"}),
		inventoryViolations: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_inventory_violations_total",
			Help: "Seat restores refused because remaining was already at capacity",
		}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) TicketIssued(fareClass string) {
	if m == nil {
		return
	}
	m.ticketsIssued.WithLabelValues(fareClass).Inc()
}

func (m *Metrics) TicketCancelled() {
	if m == nil {
		return
	}
	m.ticketsCancelled.Inc()
}

func (m *Metrics) BookingRejected(code string) {
	if m == nil {
		return
	}
	m.bookingsRejected.WithLabelValues(code).Inc()
}

func (m *Metrics) InventoryViolation() {
	if m == nil {
		return
	}
	m.inventoryViolations.Inc()
}

// Middleware observes request durations labelled by route template so ids
// do not explode the label space.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if cr := mux.CurrentRoute(r); cr != nil {
			if tmpl, err := cr.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
