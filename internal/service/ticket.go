package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/cx-tal-miterani/airline-backoffice/internal/database"
	"github.com/cx-tal-miterani/airline-backoffice/internal/models"
)

// IssueTicket books a seat. The flight is locked, the aircraft inventory is
// decremented by a conditional update and the ticket is inserted in a
// single transaction: a ticket never exists without its decrement and the
// decrement never happens without the ticket.
func (l *Ledger) IssueTicket(ctx context.Context, req *models.IssueTicketRequest) (*models.Ticket, error) {
	ticket, aircraft, err := l.issue(ctx, req)
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			l.metrics.BookingRejected(e.Code)
			l.logger.InfoContext(ctx, "ticket refused", "flight_id", req.FlightID, "passenger_id", req.PassengerID, "code", e.Code)
		} else {
			l.logger.ErrorContext(ctx, "ticket issuance failed", "flight_id", req.FlightID, "error", err)
		}
		return nil, err
	}

	l.metrics.TicketIssued(string(ticket.FareClass))
	l.notify(aircraft)
	l.logger.InfoContext(ctx, "ticket issued",
		"ticket_id", ticket.ID,
		"flight_id", ticket.FlightID,
		"aircraft_id", aircraft.ID,
		"remaining", aircraft.Remaining,
	)
	return ticket, nil
}

func (l *Ledger) issue(ctx context.Context, req *models.IssueTicketRequest) (*models.Ticket, *models.Aircraft, error) {
	if !validPrice(req.Price) {
		return nil, nil, ErrInvalidPrice
	}
	fareClass := req.FareClass
	if fareClass == "" {
		fareClass = models.FareClassEconomy
	}
	if !fareClass.Valid() {
		return nil, nil, ErrInvalidFareClass
	}
	if !req.PaymentMode.Valid() {
		return nil, nil, ErrInvalidPaymentMode
	}

	var (
		ticket   *models.Ticket
		aircraft *models.Aircraft
	)
	err := l.store.WithinTransaction(ctx, func(ctx context.Context) error {
		flight, err := l.store.Flights().Lock(ctx, req.FlightID)
		if err != nil {
			return storeErr(err, ErrFlightNotFound, "lock flight")
		}

		now := l.now()
		if flight.ArrivalTime.Before(now) {
			return ErrFlightAlreadyArrived
		}
		if flight.DepartureTime.Before(now) {
			return ErrFlightInProgress
		}
		if flight.Status == models.FlightStatusCancelled {
			return ErrFlightCancelled
		}

		if _, err := l.store.Passengers().FindByID(ctx, req.PassengerID); err != nil {
			return storeErr(err, ErrPassengerNotFound, "get passenger")
		}

		if err := l.checkSeatFree(ctx, flight.ID, req.SeatNumber); err != nil {
			return err
		}

		a, err := l.store.Aircraft().FindByID(ctx, flight.AircraftID)
		if err != nil {
			return storeErr(err, ErrAircraftNotFound, "get aircraft")
		}
		if a.Remaining == 0 {
			return ErrAircraftFull
		}

		// the check above is advisory; this conditional update is what
		// guards the inventory against concurrent bookings
		a, err = l.adjustRemaining(ctx, a.ID, -1)
		if errors.Is(err, ErrInventoryExhausted) {
			return ErrAircraftFull
		}
		if err != nil {
			return err
		}

		stamp := now.UTC()
		t := &models.Ticket{
			ID:          newID(),
			FlightID:    flight.ID,
			PassengerID: req.PassengerID,
			SeatNumber:  req.SeatNumber,
			FareClass:   fareClass,
			Price:       req.Price,
			ReservedAt:  stamp,
			PaymentMode: req.PaymentMode,
			Status:      models.TicketStatusConfirmed,
			CreatedAt:   stamp,
			UpdatedAt:   stamp,
		}
		if err := l.store.Tickets().Insert(ctx, t); err != nil {
			return fmt.Errorf("failed to create ticket: %w", err)
		}

		ticket, aircraft = t, a
		return nil
	})
	return ticket, aircraft, err
}

// maxPrice is the first amount a NUMERIC(12, 2) column cannot hold
const maxPrice = 1e10

// validPrice accepts positive amounts in whole cents below maxPrice
func validPrice(p float64) bool {
	if !(p > 0 && p < maxPrice) {
		return false
	}
	cents := p * 100
	return math.Abs(cents-math.Round(cents)) < 1e-6
}

// checkSeatFree fails when a confirmed ticket of the flight already holds
// seat. Unnumbered tickets never collide.
func (l *Ledger) checkSeatFree(ctx context.Context, flightID, seat string) error {
	if seat == "" {
		return nil
	}
	n, err := l.store.Tickets().Count(ctx, database.TicketFilter{
		FlightIDs:  []string{flightID},
		SeatNumber: seat,
		Status:     models.TicketStatusConfirmed,
	})
	if err != nil {
		return fmt.Errorf("failed to count tickets: %w", err)
	}
	if n > 0 {
		return ErrSeatTaken
	}
	return nil
}

func (l *Ledger) GetTicket(ctx context.Context, id string) (*models.Ticket, error) {
	t, err := l.store.Tickets().FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, ErrTicketNotFound, "get ticket")
	}
	return t, nil
}

func (l *Ledger) ListTickets(ctx context.Context, q models.TicketQuery) ([]models.Ticket, error) {
	if q.FareClass != "" && !q.FareClass.Valid() {
		return nil, ErrInvalidFareClass
	}
	if q.PaymentMode != "" && !q.PaymentMode.Valid() {
		return nil, ErrInvalidPaymentMode
	}
	if q.Status != "" && !q.Status.Valid() {
		return nil, ErrInvalidFilter
	}

	filter := database.TicketFilter{
		PassengerID:  q.PassengerID,
		SeatNumber:   q.SeatNumber,
		FareClass:    q.FareClass,
		MinPrice:     q.MinPrice,
		MaxPrice:     q.MaxPrice,
		ReservedFrom: q.ReservedFrom,
		ReservedTo:   q.ReservedTo,
		PaymentMode:  q.PaymentMode,
		Status:       q.Status,
	}
	if q.FlightID != "" {
		filter.FlightIDs = []string{q.FlightID}
	}

	if q.ByFlight() {
		flightFilter := database.FlightFilter{
			Number:      q.FlightNumber,
			Origin:      q.FlightOrigin,
			Destination: q.FlightDestination,
			AircraftID:  q.AircraftID,
		}
		if err := applyTiming(&flightFilter, q.FlightTiming, l.now()); err != nil {
			return nil, err
		}
		if q.ByAircraft() {
			aircraft, err := l.store.Aircraft().Find(ctx, database.AircraftFilter{
				Model:     q.AircraftModel,
				Company:   q.AircraftCompany,
				InService: q.AircraftInService,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to resolve aircraft: %w", err)
			}
			flightFilter.AircraftIDs = make([]string, 0, len(aircraft))
			for _, a := range aircraft {
				flightFilter.AircraftIDs = append(flightFilter.AircraftIDs, a.ID)
			}
		}
		flights, err := l.store.Flights().Find(ctx, flightFilter)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve flights: %w", err)
		}
		filter.FlightIDs = intersect(filter.FlightIDs, flightIDs(flights))
	}

	if q.ByPassenger() {
		passengers, err := l.store.Passengers().Find(ctx, database.PassengerFilter{
			LastName:  q.PassengerLastName,
			FirstName: q.PassengerFirstName,
			Email:     q.PassengerEmail,
			Country:   q.PassengerCountry,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to resolve passengers: %w", err)
		}
		filter.PassengerIDs = make([]string, 0, len(passengers))
		for _, p := range passengers {
			filter.PassengerIDs = append(filter.PassengerIDs, p.ID)
		}
	}

	tickets, err := l.store.Tickets().Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

// intersect returns the ids in both sets; a nil base means "no constraint"
func intersect(base, ids []string) []string {
	if base == nil {
		return ids
	}
	keep := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}
	out := make([]string, 0, len(base))
	for _, id := range base {
		if _, ok := keep[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// UpdateTicket changes the fields of a ticket that do not affect inventory
func (l *Ledger) UpdateTicket(ctx context.Context, id string, req *models.UpdateTicketRequest) (*models.Ticket, error) {
	if err := checkIdentifier(id, req.ID); err != nil {
		return nil, err
	}
	if req.FareClass != nil && !req.FareClass.Valid() {
		return nil, ErrInvalidFareClass
	}
	if req.PaymentMode != nil && !req.PaymentMode.Valid() {
		return nil, ErrInvalidPaymentMode
	}

	var updated *models.Ticket
	err := l.store.WithinTransaction(ctx, func(ctx context.Context) error {
		t, err := l.store.Tickets().FindByID(ctx, id)
		if err != nil {
			return storeErr(err, ErrTicketNotFound, "get ticket")
		}

		if req.SeatNumber != nil && *req.SeatNumber != t.SeatNumber {
			if t.Status == models.TicketStatusConfirmed {
				if _, err := l.store.Flights().Lock(ctx, t.FlightID); err != nil && !errors.Is(err, database.ErrNotFound) {
					return fmt.Errorf("failed to lock flight: %w", err)
				}
				if err := l.checkSeatFree(ctx, t.FlightID, *req.SeatNumber); err != nil {
					return err
				}
			}
			t.SeatNumber = *req.SeatNumber
		}
		if req.FareClass != nil {
			t.FareClass = *req.FareClass
		}
		if req.PaymentMode != nil {
			t.PaymentMode = *req.PaymentMode
		}
		t.UpdatedAt = l.now().UTC()

		if err := l.store.Tickets().Update(ctx, t); err != nil {
			return storeErr(err, ErrTicketNotFound, "update ticket")
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// CancelTicket marks a confirmed ticket cancelled and gives its seat back
// to the aircraft. The status transition is conditional, so a ticket can
// only ever release its seat once.
func (l *Ledger) CancelTicket(ctx context.Context, id string) (*models.Ticket, error) {
	var (
		cancelled *models.Ticket
		aircraft  *models.Aircraft
	)
	err := l.store.WithinTransaction(ctx, func(ctx context.Context) error {
		t, err := l.store.Tickets().TransitionStatus(ctx, id, models.TicketStatusConfirmed, models.TicketStatusCancelled)
		switch {
		case errors.Is(err, database.ErrNotFound):
			return ErrTicketNotFound
		case errors.Is(err, database.ErrConditionFailed):
			return ErrTicketAlreadyCancelled
		case err != nil:
			return fmt.Errorf("failed to cancel ticket: %w", err)
		}

		a, err := l.restoreSeat(ctx, t)
		if err != nil {
			return err
		}
		cancelled, aircraft = t, a
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.metrics.TicketCancelled()
	l.notify(aircraft)
	l.logger.InfoContext(ctx, "ticket cancelled", "ticket_id", id, "flight_id", cancelled.FlightID)
	return cancelled, nil
}

// DeleteTicket removes a ticket, releasing its seat if it still held one
func (l *Ledger) DeleteTicket(ctx context.Context, id string) (*models.Ticket, error) {
	var (
		deleted  *models.Ticket
		aircraft *models.Aircraft
	)
	err := l.store.WithinTransaction(ctx, func(ctx context.Context) error {
		t, err := l.store.Tickets().FindByID(ctx, id)
		if err != nil {
			return storeErr(err, ErrTicketNotFound, "get ticket")
		}

		if t.Status == models.TicketStatusConfirmed {
			// claim the seat release first; losing the race to a concurrent
			// cancel means the seat was already returned
			_, err := l.store.Tickets().TransitionStatus(ctx, id, models.TicketStatusConfirmed, models.TicketStatusCancelled)
			switch {
			case err == nil:
				if aircraft, err = l.restoreSeat(ctx, t); err != nil {
					return err
				}
			case errors.Is(err, database.ErrNotFound):
				return ErrTicketNotFound
			case !errors.Is(err, database.ErrConditionFailed):
				return fmt.Errorf("failed to release ticket: %w", err)
			}
		}

		if err := l.store.Tickets().Delete(ctx, id); err != nil {
			return storeErr(err, ErrTicketNotFound, "delete ticket")
		}
		deleted = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	if aircraft != nil {
		l.metrics.TicketCancelled()
		l.notify(aircraft)
	}
	l.logger.InfoContext(ctx, "ticket deleted", "ticket_id", id, "flight_id", deleted.FlightID)
	return deleted, nil
}

// restoreSeat gives one seat back to the aircraft flying t. An inventory
// already at capacity means an earlier inconsistency; it is reported and
// left at capacity rather than failing the cancellation.
func (l *Ledger) restoreSeat(ctx context.Context, t *models.Ticket) (*models.Aircraft, error) {
	flight, err := l.store.Flights().FindByID(ctx, t.FlightID)
	if errors.Is(err, database.ErrNotFound) {
		l.logger.WarnContext(ctx, "seat not restored, flight is gone", "ticket_id", t.ID, "flight_id", t.FlightID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get flight: %w", err)
	}

	a, err := l.adjustRemaining(ctx, flight.AircraftID, 1)
	switch {
	case err == nil:
		return a, nil
	case errors.Is(err, ErrAircraftNotFound):
		l.logger.WarnContext(ctx, "seat not restored, aircraft is gone", "ticket_id", t.ID, "aircraft_id", flight.AircraftID)
		return nil, nil
	case errors.Is(err, ErrInventoryOverflow):
		l.metrics.InventoryViolation()
		l.logger.ErrorContext(ctx, "inventory invariant violated: remaining already at capacity",
			"ticket_id", t.ID,
			"aircraft_id", flight.AircraftID,
		)
		return nil, nil
	default:
		return nil, err
	}
}
