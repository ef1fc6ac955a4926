// Package storetest holds the behaviour every database.Store must share.
// Backends run it from their own tests:
//
//	suite.Run(t, &storetest.Suite{NewStore: func(t *testing.T) database.Store { ... }})
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cx-tal-miterani/airline-backoffice/internal/database"
	"github.com/cx-tal-miterani/airline-backoffice/internal/models"
	"github.com/cx-tal-miterani/airline-backoffice/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

var base = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

// Suite is the shared store contract. NewStore must return an empty store.
type Suite struct {
	suite.Suite
	NewStore func(t *testing.T) database.Store

	store database.Store
	ctx   context.Context
}

func (s *Suite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.NewStore(s.T())
}

func (s *Suite) TearDownTest() {
	if s.store != nil {
		s.Require().NoError(s.store.Close(s.ctx))
	}
}

func (s *Suite) newAircraft(capacity int) *models.Aircraft {
	a := &models.Aircraft{
		ID:        uuid.NewString(),
		Model:     "A220",
		Company:   "Contract Air",
		Capacity:  capacity,
		Remaining: capacity,
		InService: true,
		CreatedAt: base,
		UpdatedAt: base,
	}
	s.Require().NoError(s.store.Aircraft().Insert(s.ctx, a))
	return a
}

func (s *Suite) newFlight(aircraftID string, departure, arrival time.Duration) *models.Flight {
	f := &models.Flight{
		ID:            uuid.NewString(),
		Number:        "CA1",
		Origin:        "Oslo",
		Destination:   "Bergen",
		DepartureTime: base.Add(departure),
		ArrivalTime:   base.Add(arrival),
		AircraftID:    aircraftID,
		Status:        models.FlightStatusScheduled,
		CreatedAt:     base,
		UpdatedAt:     base,
	}
	s.Require().NoError(s.store.Flights().Insert(s.ctx, f))
	return f
}

func (s *Suite) newPassenger() *models.Passenger {
	p := &models.Passenger{
		ID:           uuid.NewString(),
		LastName:     "Hansen",
		FirstName:    "Ingrid",
		Email:        "ingrid@example.com",
		Country:      "Norway",
		RegisteredAt: base,
	}
	s.Require().NoError(s.store.Passengers().Insert(s.ctx, p))
	return p
}

func (s *Suite) newTicket(flightID, passengerID string, price float64, reservedAt time.Time) *models.Ticket {
	t := &models.Ticket{
		ID:          uuid.NewString(),
		FlightID:    flightID,
		PassengerID: passengerID,
		SeatNumber:  "",
		FareClass:   models.FareClassEconomy,
		Price:       price,
		ReservedAt:  reservedAt,
		PaymentMode: models.PaymentModeCreditCard,
		Status:      models.TicketStatusConfirmed,
		CreatedAt:   reservedAt,
		UpdatedAt:   reservedAt,
	}
	s.Require().NoError(s.store.Tickets().Insert(s.ctx, t))
	return t
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, v := range items {
		out = append(out, id(v))
	}
	return out
}

func (s *Suite) TestAircraftCRUD() {
	a := s.newAircraft(4)

	got, err := s.store.Aircraft().FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(a.Model, got.Model)
	s.Equal(4, got.Remaining)
	s.True(got.CreatedAt.Equal(base))

	got.Company = "Renamed"
	s.Require().NoError(s.store.Aircraft().Update(s.ctx, got))
	got, err = s.store.Aircraft().FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal("Renamed", got.Company)

	s.ErrorIs(s.store.Aircraft().Insert(s.ctx, a), database.ErrDuplicate)

	s.Require().NoError(s.store.Aircraft().Delete(s.ctx, a.ID))
	_, err = s.store.Aircraft().FindByID(s.ctx, a.ID)
	s.ErrorIs(err, database.ErrNotFound)
	s.ErrorIs(s.store.Aircraft().Delete(s.ctx, a.ID), database.ErrNotFound)
	s.ErrorIs(s.store.Aircraft().Update(s.ctx, a), database.ErrNotFound)
}

func (s *Suite) TestAircraftFilter() {
	full := s.newAircraft(1)
	fresh := s.newAircraft(3)
	_, err := s.store.Aircraft().AdjustRemaining(s.ctx, full.ID, -1)
	s.Require().NoError(err)

	soldOut, err := s.store.Aircraft().Find(s.ctx, database.AircraftFilter{SoldOut: true})
	s.Require().NoError(err)
	s.Equal([]string{full.ID}, ids(soldOut, func(a models.Aircraft) string { return a.ID }))

	unbooked, err := s.store.Aircraft().Find(s.ctx, database.AircraftFilter{Unbooked: true})
	s.Require().NoError(err)
	s.Equal([]string{fresh.ID}, ids(unbooked, func(a models.Aircraft) string { return a.ID }))

	byCompany, err := s.store.Aircraft().Find(s.ctx, database.AircraftFilter{Company: "contract air"})
	s.Require().NoError(err)
	s.Len(byCompany, 2)

	notInService := false
	none, err := s.store.Aircraft().Find(s.ctx, database.AircraftFilter{InService: &notInService})
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *Suite) TestAdjustRemaining() {
	a := s.newAircraft(2)

	got, err := s.store.Aircraft().AdjustRemaining(s.ctx, a.ID, -1)
	s.Require().NoError(err)
	s.Equal(1, got.Remaining)

	got, err = s.store.Aircraft().AdjustRemaining(s.ctx, a.ID, -1)
	s.Require().NoError(err)
	s.Equal(0, got.Remaining)

	_, err = s.store.Aircraft().AdjustRemaining(s.ctx, a.ID, -1)
	s.ErrorIs(err, database.ErrConditionFailed)

	_, err = s.store.Aircraft().AdjustRemaining(s.ctx, a.ID, 3)
	s.ErrorIs(err, database.ErrConditionFailed)

	got, err = s.store.Aircraft().AdjustRemaining(s.ctx, a.ID, 2)
	s.Require().NoError(err)
	s.Equal(2, got.Remaining)

	_, err = s.store.Aircraft().AdjustRemaining(s.ctx, uuid.NewString(), -1)
	s.ErrorIs(err, database.ErrNotFound)
}

func (s *Suite) TestAdjustRemainingConcurrent() {
	const capacity = 8
	a := s.newAircraft(capacity)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		wins   int
		losses int
	)
	for i := 0; i < capacity*3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Aircraft().AdjustRemaining(s.ctx, a.ID, -1)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
			} else if errors.Is(err, database.ErrConditionFailed) {
				losses++
			}
		}()
	}
	wg.Wait()

	s.Equal(capacity, wins)
	s.Equal(capacity*2, losses)
	got, err := s.store.Aircraft().FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(0, got.Remaining)
}

func (s *Suite) TestFlightFilter() {
	a := s.newAircraft(2)
	future := s.newFlight(a.ID, time.Hour, 2*time.Hour)
	airborne := s.newFlight(a.ID, -time.Hour, time.Hour)
	landed := s.newFlight(a.ID, -3*time.Hour, -2*time.Hour)
	now := base

	tests := []struct {
		name   string
		filter database.FlightFilter
		want   []string
	}{
		{"all, by departure", database.FlightFilter{}, []string{landed.ID, airborne.ID, future.ID}},
		{"future", database.FlightFilter{DepartsAfter: &now}, []string{future.ID}},
		{"airborne", database.FlightFilter{DepartedBy: &now, ArrivesAfter: &now}, []string{airborne.ID}},
		{"landed", database.FlightFilter{ArrivedBy: &now}, []string{landed.ID}},
		{"by aircraft", database.FlightFilter{AircraftID: a.ID}, []string{landed.ID, airborne.ID, future.ID}},
		{"other aircraft", database.FlightFilter{AircraftID: uuid.NewString()}, []string{}},
		{"aircraft set", database.FlightFilter{AircraftIDs: []string{uuid.NewString(), a.ID}}, []string{landed.ID, airborne.ID, future.ID}},
		{"empty aircraft set", database.FlightFilter{AircraftIDs: []string{}}, []string{}},
		{"origin ignores case", database.FlightFilter{Origin: "OSLO", Status: models.FlightStatusScheduled}, []string{landed.ID, airborne.ID, future.ID}},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			got, err := s.store.Flights().Find(s.ctx, tt.filter)
			s.Require().NoError(err)
			s.Equal(tt.want, ids(got, func(f models.Flight) string { return f.ID }))
		})
	}
}

func (s *Suite) TestFlightCRUD() {
	a := s.newAircraft(2)
	f := s.newFlight(a.ID, time.Hour, 2*time.Hour)

	got, err := s.store.Flights().Lock(s.ctx, f.ID)
	s.Require().NoError(err)
	s.True(got.DepartureTime.Equal(f.DepartureTime))

	got.Status = models.FlightStatusCancelled
	s.Require().NoError(s.store.Flights().Update(s.ctx, got))
	got, err = s.store.Flights().FindByID(s.ctx, f.ID)
	s.Require().NoError(err)
	s.Equal(models.FlightStatusCancelled, got.Status)

	s.Require().NoError(s.store.Flights().Delete(s.ctx, f.ID))
	_, err = s.store.Flights().Lock(s.ctx, f.ID)
	s.ErrorIs(err, database.ErrNotFound)
}

func (s *Suite) TestPassengerCRUD() {
	p := s.newPassenger()

	found, err := s.store.Passengers().Find(s.ctx, database.PassengerFilter{Email: "INGRID@example.com"})
	s.Require().NoError(err)
	s.Len(found, 1)

	p.Country = "Sweden"
	s.Require().NoError(s.store.Passengers().Update(s.ctx, p))
	got, err := s.store.Passengers().FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("Sweden", got.Country)

	s.Require().NoError(s.store.Passengers().Delete(s.ctx, p.ID))
	_, err = s.store.Passengers().FindByID(s.ctx, p.ID)
	s.ErrorIs(err, database.ErrNotFound)
}

func (s *Suite) TestTicketFilterAndCount() {
	a := s.newAircraft(5)
	f1 := s.newFlight(a.ID, time.Hour, 2*time.Hour)
	f2 := s.newFlight(a.ID, 3*time.Hour, 4*time.Hour)
	p := s.newPassenger()
	guest := s.newPassenger()

	cheap := s.newTicket(f1.ID, p.ID, 40, base.Add(-48*time.Hour))
	mid := s.newTicket(f1.ID, p.ID, 100, base.Add(-24*time.Hour))
	dear := s.newTicket(f2.ID, guest.ID, 400, base)

	lo, hi := 40.0, 100.0
	from, to := base.Add(-24*time.Hour), base
	tests := []struct {
		name   string
		filter database.TicketFilter
		want   []string
	}{
		{"all, by reservation", database.TicketFilter{}, []string{cheap.ID, mid.ID, dear.ID}},
		{"flight set", database.TicketFilter{FlightIDs: []string{f2.ID}}, []string{dear.ID}},
		{"empty flight set", database.TicketFilter{FlightIDs: []string{}}, []string{}},
		{"price range inclusive", database.TicketFilter{MinPrice: &lo, MaxPrice: &hi}, []string{cheap.ID, mid.ID}},
		{"reservation range inclusive", database.TicketFilter{ReservedFrom: &from, ReservedTo: &to}, []string{mid.ID, dear.ID}},
		{"passenger", database.TicketFilter{PassengerID: p.ID, Status: models.TicketStatusConfirmed}, []string{cheap.ID, mid.ID}},
		{"passenger set", database.TicketFilter{PassengerIDs: []string{guest.ID, uuid.NewString()}}, []string{dear.ID}},
		{"empty passenger set", database.TicketFilter{PassengerIDs: []string{}}, []string{}},
		{"passenger id outside set", database.TicketFilter{PassengerID: p.ID, PassengerIDs: []string{guest.ID}}, []string{}},
		{"payment mode", database.TicketFilter{PaymentMode: models.PaymentModeCash}, []string{}},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			got, err := s.store.Tickets().Find(s.ctx, tt.filter)
			s.Require().NoError(err)
			s.Equal(tt.want, ids(got, func(t models.Ticket) string { return t.ID }))

			n, err := s.store.Tickets().Count(s.ctx, tt.filter)
			s.Require().NoError(err)
			s.Equal(len(tt.want), n)
		})
	}
}

func (s *Suite) TestTicketSeatFilterIgnoresCase() {
	a := s.newAircraft(2)
	f := s.newFlight(a.ID, time.Hour, 2*time.Hour)
	p := s.newPassenger()
	t := s.newTicket(f.ID, p.ID, 10, base)
	t.SeatNumber = "14C"
	s.Require().NoError(s.store.Tickets().Update(s.ctx, t))

	n, err := s.store.Tickets().Count(s.ctx, database.TicketFilter{FlightIDs: []string{f.ID}, SeatNumber: "14c"})
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *Suite) TestTransitionStatus() {
	a := s.newAircraft(2)
	f := s.newFlight(a.ID, time.Hour, 2*time.Hour)
	t := s.newTicket(f.ID, s.newPassenger().ID, 10, base)

	got, err := s.store.Tickets().TransitionStatus(s.ctx, t.ID, models.TicketStatusConfirmed, models.TicketStatusCancelled)
	s.Require().NoError(err)
	s.Equal(models.TicketStatusCancelled, got.Status)

	_, err = s.store.Tickets().TransitionStatus(s.ctx, t.ID, models.TicketStatusConfirmed, models.TicketStatusCancelled)
	s.ErrorIs(err, database.ErrConditionFailed)

	_, err = s.store.Tickets().TransitionStatus(s.ctx, uuid.NewString(), models.TicketStatusConfirmed, models.TicketStatusCancelled)
	s.ErrorIs(err, database.ErrNotFound)

	s.Require().NoError(s.store.Tickets().Delete(s.ctx, t.ID))
	_, err = s.store.Tickets().FindByID(s.ctx, t.ID)
	s.ErrorIs(err, database.ErrNotFound)
}

func (s *Suite) TestTransactionCommit() {
	a := s.newAircraft(2)
	f := s.newFlight(a.ID, time.Hour, 2*time.Hour)
	p := s.newPassenger()

	err := s.store.WithinTransaction(s.ctx, func(ctx context.Context) error {
		if _, err := s.store.Flights().Lock(ctx, f.ID); err != nil {
			return err
		}
		if _, err := s.store.Aircraft().AdjustRemaining(ctx, a.ID, -1); err != nil {
			return err
		}
		return s.store.Tickets().Insert(ctx, &models.Ticket{
			ID:          uuid.NewString(),
			FlightID:    f.ID,
			PassengerID: p.ID,
			FareClass:   models.FareClassEconomy,
			Price:       10,
			ReservedAt:  base,
			PaymentMode: models.PaymentModeCash,
			Status:      models.TicketStatusConfirmed,
			CreatedAt:   base,
			UpdatedAt:   base,
		})
	})
	s.Require().NoError(err)

	got, err := s.store.Aircraft().FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(1, got.Remaining)
	n, err := s.store.Tickets().Count(s.ctx, database.TicketFilter{FlightIDs: []string{f.ID}})
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *Suite) TestTransactionRollback() {
	a := s.newAircraft(2)
	f := s.newFlight(a.ID, time.Hour, 2*time.Hour)
	boom := errors.New("boom")

	err := s.store.WithinTransaction(s.ctx, func(ctx context.Context) error {
		if _, err := s.store.Aircraft().AdjustRemaining(ctx, a.ID, -1); err != nil {
			return err
		}
		if err := s.store.Flights().Delete(ctx, f.ID); err != nil {
			return err
		}
		// nested calls join the outer transaction
		if err := s.store.WithinTransaction(ctx, func(ctx context.Context) error {
			_, err := s.store.Aircraft().AdjustRemaining(ctx, a.ID, -1)
			return err
		}); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	got, err := s.store.Aircraft().FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(2, got.Remaining)
	_, err = s.store.Flights().FindByID(s.ctx, f.ID)
	s.NoError(err)
}

func (s *Suite) TestTransactionIsolatesConcurrentBookings() {
	const capacity = 4
	a := s.newAircraft(capacity)
	f := s.newFlight(a.ID, time.Hour, 2*time.Hour)
	p := s.newPassenger()

	var wg sync.WaitGroup
	for i := 0; i < capacity*2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.store.WithinTransaction(s.ctx, func(ctx context.Context) error {
				if _, err := s.store.Flights().Lock(ctx, f.ID); err != nil {
					return err
				}
				if _, err := s.store.Aircraft().AdjustRemaining(ctx, a.ID, -1); err != nil {
					return err
				}
				return s.store.Tickets().Insert(ctx, &models.Ticket{
					ID:          uuid.NewString(),
					FlightID:    f.ID,
					PassengerID: p.ID,
					FareClass:   models.FareClassEconomy,
					Price:       10,
					ReservedAt:  base,
					PaymentMode: models.PaymentModeCash,
					Status:      models.TicketStatusConfirmed,
					CreatedAt:   base,
					UpdatedAt:   base,
				})
			})
		}()
	}
	wg.Wait()

	got, err := s.store.Aircraft().FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	n, err := s.store.Tickets().Count(s.ctx, database.TicketFilter{FlightIDs: []string{f.ID}})
	s.Require().NoError(err)
	s.Equal(capacity, n)
	s.Equal(capacity-n, got.Remaining)
}

const raceRounds = 20

// race runs book and remove together and returns their errors
func race(book, remove func() error) (bookErr, removeErr error) {
	var wg sync.WaitGroup
	start := make(chan struct{})
	wg.Add(2)
	go func() {
		defer wg.Done()
		<-start
		bookErr = book()
	}()
	go func() {
		defer wg.Done()
		<-start
		removeErr = remove()
	}()
	close(start)
	wg.Wait()
	return bookErr, removeErr
}

func (s *Suite) ledger() *service.Ledger {
	return service.NewLedger(s.store, service.WithClock(func() time.Time { return base }))
}

func (s *Suite) issueRequest(flightID, passengerID string) *models.IssueTicketRequest {
	return &models.IssueTicketRequest{
		FlightID:    flightID,
		PassengerID: passengerID,
		Price:       99.5,
		PaymentMode: models.PaymentModeCash,
	}
}

func (s *Suite) TestDeleteFlightRacesIssue() {
	const capacity = 3
	ledger := s.ledger()

	for i := 0; i < raceRounds; i++ {
		a := s.newAircraft(capacity)
		f := s.newFlight(a.ID, time.Hour, 2*time.Hour)
		p := s.newPassenger()

		issueErr, deleteErr := race(
			func() error {
				_, err := ledger.IssueTicket(s.ctx, s.issueRequest(f.ID, p.ID))
				return err
			},
			func() error {
				_, err := ledger.DeleteFlight(s.ctx, f.ID)
				return err
			},
		)
		s.Require().False(issueErr == nil && deleteErr == nil, "round %d: flight deleted under a confirmed ticket", i)
		s.Require().False(issueErr != nil && deleteErr != nil, "round %d: issue=%v delete=%v", i, issueErr, deleteErr)

		booked, err := s.store.Tickets().Count(s.ctx, database.TicketFilter{
			FlightIDs: []string{f.ID},
			Status:    models.TicketStatusConfirmed,
		})
		s.Require().NoError(err)
		got, err := s.store.Aircraft().FindByID(s.ctx, a.ID)
		s.Require().NoError(err)

		if issueErr == nil {
			s.ErrorIs(deleteErr, service.ErrFlightAlreadyBooked)
			_, err := s.store.Flights().FindByID(s.ctx, f.ID)
			s.NoError(err)
			s.Equal(1, booked)
			s.Equal(capacity-1, got.Remaining)
		} else {
			s.ErrorIs(issueErr, service.ErrFlightNotFound)
			s.Equal(0, booked)
			s.Equal(capacity, got.Remaining)
		}
	}
}

func (s *Suite) TestDeleteAircraftRacesIssue() {
	const capacity = 3
	ledger := s.ledger()

	for i := 0; i < raceRounds; i++ {
		a := s.newAircraft(capacity)
		f := s.newFlight(a.ID, time.Hour, 2*time.Hour)
		p := s.newPassenger()

		issueErr, deleteErr := race(
			func() error {
				_, err := ledger.IssueTicket(s.ctx, s.issueRequest(f.ID, p.ID))
				return err
			},
			func() error {
				_, err := ledger.DeleteAircraft(s.ctx, a.ID)
				return err
			},
		)
		s.Require().False(issueErr == nil && deleteErr == nil, "round %d: aircraft deleted under a confirmed ticket", i)
		s.Require().False(issueErr != nil && deleteErr != nil, "round %d: issue=%v delete=%v", i, issueErr, deleteErr)

		booked, err := s.store.Tickets().Count(s.ctx, database.TicketFilter{
			FlightIDs: []string{f.ID},
			Status:    models.TicketStatusConfirmed,
		})
		s.Require().NoError(err)
		got, err := s.store.Aircraft().FindByID(s.ctx, a.ID)

		if issueErr == nil {
			s.ErrorIs(deleteErr, service.ErrAircraftAlreadyBooked)
			s.Require().NoError(err)
			s.Equal(1, booked)
			s.Equal(capacity-1, got.Remaining)
		} else {
			s.ErrorIs(issueErr, service.ErrAircraftNotFound)
			s.ErrorIs(err, database.ErrNotFound)
			s.Equal(0, booked)
		}
	}
}
