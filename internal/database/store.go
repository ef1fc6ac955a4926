package database

import (
	"context"
	"errors"
	"time"

	"github.com/cx-tal-miterani/airline-backoffice/internal/models"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrConditionFailed = errors.New("condition not met")
	ErrDuplicate       = errors.New("duplicate id")
)

// Store is the document store backing the ledger. Each collection is
// reached through its repository; WithinTransaction makes every repository
// call made with the returned context part of one atomic unit.
type Store interface {
	Aircraft() AircraftRepository
	Flights() FlightRepository
	Passengers() PassengerRepository
	Tickets() TicketRepository

	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	Close(ctx context.Context) error
}

// AircraftRepository handles the aircraft collection
type AircraftRepository interface {
	FindByID(ctx context.Context, id string) (*models.Aircraft, error)
	Find(ctx context.Context, filter AircraftFilter) ([]models.Aircraft, error)
	Insert(ctx context.Context, a *models.Aircraft) error
	Update(ctx context.Context, a *models.Aircraft) error
	Delete(ctx context.Context, id string) error
	// Lock reads the aircraft with write intent. Inside a transaction it
	// conflicts with any other transaction locking or writing the record.
	Lock(ctx context.Context, id string) (*models.Aircraft, error)
	// AdjustRemaining adds delta to the remaining seats in one conditional
	// update. It returns ErrConditionFailed when the result would leave
	// [0, capacity] and ErrNotFound when the aircraft does not exist.
	AdjustRemaining(ctx context.Context, id string, delta int) (*models.Aircraft, error)
}

// FlightRepository handles the flight collection
type FlightRepository interface {
	FindByID(ctx context.Context, id string) (*models.Flight, error)
	Find(ctx context.Context, filter FlightFilter) ([]models.Flight, error)
	Insert(ctx context.Context, f *models.Flight) error
	Update(ctx context.Context, f *models.Flight) error
	Delete(ctx context.Context, id string) error
	Lock(ctx context.Context, id string) (*models.Flight, error)
}

// PassengerRepository handles the passenger collection
type PassengerRepository interface {
	FindByID(ctx context.Context, id string) (*models.Passenger, error)
	Find(ctx context.Context, filter PassengerFilter) ([]models.Passenger, error)
	Insert(ctx context.Context, p *models.Passenger) error
	Update(ctx context.Context, p *models.Passenger) error
	Delete(ctx context.Context, id string) error
}

// TicketRepository handles the ticket collection
type TicketRepository interface {
	FindByID(ctx context.Context, id string) (*models.Ticket, error)
	Find(ctx context.Context, filter TicketFilter) ([]models.Ticket, error)
	Count(ctx context.Context, filter TicketFilter) (int, error)
	Insert(ctx context.Context, t *models.Ticket) error
	Update(ctx context.Context, t *models.Ticket) error
	Delete(ctx context.Context, id string) error
	// TransitionStatus moves the ticket from one status to another only if
	// it is currently in from; otherwise ErrConditionFailed.
	TransitionStatus(ctx context.Context, id string, from, to models.TicketStatus) (*models.Ticket, error)
}

// AircraftFilter selects aircraft. Zero fields are ignored.
type AircraftFilter struct {
	Model     string
	Company   string
	InService *bool
	SoldOut   bool // remaining == 0
	Unbooked  bool // remaining == capacity
}

// FlightFilter selects flights. Zero fields are ignored. A non-nil empty
// AircraftIDs matches nothing.
type FlightFilter struct {
	Number       string
	Origin       string
	Destination  string
	AircraftID   string
	AircraftIDs  []string
	Status       models.FlightStatus
	DepartsAfter *time.Time // departure > t
	DepartedBy   *time.Time // departure <= t
	ArrivesAfter *time.Time // arrival > t
	ArrivedBy    *time.Time // arrival <= t
}

// PassengerFilter selects passengers. Zero fields are ignored.
type PassengerFilter struct {
	LastName  string
	FirstName string
	Email     string
	Country   string
}

// TicketFilter selects tickets. Zero fields are ignored. A non-nil empty
// FlightIDs or PassengerIDs matches nothing.
type TicketFilter struct {
	FlightIDs    []string
	PassengerID  string
	PassengerIDs []string
	SeatNumber   string
	FareClass    models.FareClass
	MinPrice     *float64
	MaxPrice     *float64
	ReservedFrom *time.Time
	ReservedTo   *time.Time
	PaymentMode  models.PaymentMode
	Status       models.TicketStatus
}
