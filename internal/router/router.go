package router

import (
	"log/slog"
	"net/http"

	"github.com/cx-tal-miterani/airline-backoffice/internal/handlers"
	"github.com/cx-tal-miterani/airline-backoffice/internal/metrics"
	"github.com/cx-tal-miterani/airline-backoffice/internal/middleware"
	"github.com/cx-tal-miterani/airline-backoffice/internal/websocket"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Options carries the optional pieces of the HTTP stack. Nil members are
// simply left out.
type Options struct {
	Logger      *slog.Logger
	Hub         *websocket.Hub
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	Redis       *redis.Client
	Idempotency middleware.IdempotencyConfig
	Limiter     *middleware.ClientLimiter
}

// SetupRouter creates and configures the HTTP router
func SetupRouter(h *handlers.Handler, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := mux.NewRouter()

	// CORS middleware
	r.Use(corsMiddleware)
	r.Use(opts.Metrics.Middleware)

	// API routes
	api := r.PathPrefix("/api").Subrouter()
	if opts.Limiter != nil {
		api.Use(middleware.RateLimit(opts.Limiter))
	}

	// Aircraft
	api.HandleFunc("/aircraft", h.ListAircraft).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/aircraft", h.CreateAircraft).Methods(http.MethodPost)
	api.HandleFunc("/aircraft/{id}", h.GetAircraft).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/aircraft/{id}", h.UpdateAircraft).Methods(http.MethodPut)
	api.HandleFunc("/aircraft/{id}", h.DeleteAircraft).Methods(http.MethodDelete)

	// Flights
	api.HandleFunc("/flights", h.ListFlights).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/flights", h.CreateFlight).Methods(http.MethodPost)
	api.HandleFunc("/flights/{id}", h.GetFlight).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/flights/{id}", h.UpdateFlight).Methods(http.MethodPut)
	api.HandleFunc("/flights/{id}", h.DeleteFlight).Methods(http.MethodDelete)

	// Passengers
	api.HandleFunc("/passengers", h.ListPassengers).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/passengers", h.CreatePassenger).Methods(http.MethodPost)
	api.HandleFunc("/passengers/{id}", h.GetPassenger).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/passengers/{id}", h.UpdatePassenger).Methods(http.MethodPut)
	api.HandleFunc("/passengers/{id}", h.DeletePassenger).Methods(http.MethodDelete)

	// Tickets
	var issue http.Handler = http.HandlerFunc(h.IssueTicket)
	if opts.Redis != nil {
		issue = middleware.Idempotency(opts.Redis, opts.Idempotency, logger)(issue)
	}
	api.HandleFunc("/tickets", h.ListTickets).Methods(http.MethodGet, http.MethodOptions)
	api.Handle("/tickets", issue).Methods(http.MethodPost)
	api.HandleFunc("/tickets/{id}", h.GetTicket).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/tickets/{id}", h.UpdateTicket).Methods(http.MethodPut)
	api.HandleFunc("/tickets/{id}", h.DeleteTicket).Methods(http.MethodDelete)
	api.HandleFunc("/tickets/{id}/cancel", h.CancelTicket).Methods(http.MethodPost, http.MethodOptions)

	// WebSocket for real-time inventory
	if opts.Hub != nil {
		api.HandleFunc("/aircraft/{id}/ws", opts.Hub.ServeWS).Methods(http.MethodGet)
	}

	// Health check and metrics
	r.HandleFunc("/health", healthCheck).Methods(http.MethodGet)
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return chimw.RequestID(chimw.RealIP(middleware.AccessLog(logger)(chimw.Recoverer(r))))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Idempotency-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
