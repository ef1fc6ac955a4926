package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cx-tal-miterani/airline-backoffice/internal/database"
	"github.com/cx-tal-miterani/airline-backoffice/internal/metrics"
	"github.com/cx-tal-miterani/airline-backoffice/internal/models"
	"github.com/google/uuid"
)

const DefaultMaxCapacity = 10

// AircraftService defines the aircraft registry operations
type AircraftService interface {
	CreateAircraft(ctx context.Context, req *models.CreateAircraftRequest) (*models.Aircraft, error)
	GetAircraft(ctx context.Context, id string) (*models.Aircraft, error)
	ListAircraft(ctx context.Context, q models.AircraftQuery) ([]models.Aircraft, error)
	UpdateAircraft(ctx context.Context, id string, req *models.UpdateAircraftRequest) (*models.Aircraft, error)
	DeleteAircraft(ctx context.Context, id string) (*models.Aircraft, error)
}

// FlightService defines the flight registry operations
type FlightService interface {
	CreateFlight(ctx context.Context, req *models.CreateFlightRequest) (*models.Flight, error)
	GetFlight(ctx context.Context, id string) (*models.Flight, error)
	ListFlights(ctx context.Context, q models.FlightQuery) ([]models.Flight, error)
	UpdateFlight(ctx context.Context, id string, req *models.UpdateFlightRequest) (*models.Flight, error)
	DeleteFlight(ctx context.Context, id string) (*models.Flight, error)
}

// PassengerService defines the passenger registry operations
type PassengerService interface {
	CreatePassenger(ctx context.Context, req *models.CreatePassengerRequest) (*models.Passenger, error)
	GetPassenger(ctx context.Context, id string) (*models.Passenger, error)
	ListPassengers(ctx context.Context, q models.PassengerQuery) ([]models.Passenger, error)
	UpdatePassenger(ctx context.Context, id string, req *models.UpdatePassengerRequest) (*models.Passenger, error)
	DeletePassenger(ctx context.Context, id string) (*models.Passenger, error)
}

// TicketService defines the ticket ledger operations
type TicketService interface {
	IssueTicket(ctx context.Context, req *models.IssueTicketRequest) (*models.Ticket, error)
	GetTicket(ctx context.Context, id string) (*models.Ticket, error)
	ListTickets(ctx context.Context, q models.TicketQuery) ([]models.Ticket, error)
	UpdateTicket(ctx context.Context, id string, req *models.UpdateTicketRequest) (*models.Ticket, error)
	CancelTicket(ctx context.Context, id string) (*models.Ticket, error)
	DeleteTicket(ctx context.Context, id string) (*models.Ticket, error)
}

// Service is everything the transport needs from the ledger
type Service interface {
	AircraftService
	FlightService
	PassengerService
	TicketService
}

// InventoryNotifier is told about every committed change to an aircraft's
// remaining seats.
type InventoryNotifier interface {
	InventoryChanged(aircraft models.Aircraft)
}

// Ledger keeps aircraft, flights, passengers and tickets consistent. It is
// the only writer of Aircraft.Remaining.
type Ledger struct {
	store       database.Store
	logger      *slog.Logger
	metrics     *metrics.Metrics
	notifier    InventoryNotifier
	now         func() time.Time
	maxCapacity int
}

// Option configures a Ledger
type Option func(*Ledger)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

func WithNotifier(n InventoryNotifier) Option {
	return func(l *Ledger) { l.notifier = n }
}

// WithClock overrides the time source used for every schedule check
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithMaxCapacity(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.maxCapacity = n
		}
	}
}

// NewLedger creates a new Ledger over store
func NewLedger(store database.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:       store,
		logger:      slog.Default(),
		now:         time.Now,
		maxCapacity: DefaultMaxCapacity,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var _ Service = (*Ledger)(nil)

func newID() string {
	return uuid.NewString()
}

// storeErr converts a store failure into the ledger error for a missing
// record, or wraps it as an internal failure.
func storeErr(err error, notFound *Error, op string) error {
	if errors.Is(err, database.ErrNotFound) {
		return notFound
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func checkIdentifier(pathID, bodyID string) error {
	if pathID != "" && bodyID != "" && pathID != bodyID {
		return ErrIdentifierMismatch
	}
	return nil
}

func (l *Ledger) notify(a *models.Aircraft) {
	if l.notifier != nil && a != nil {
		l.notifier.InventoryChanged(*a)
	}
}
