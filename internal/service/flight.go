package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cx-tal-miterani/airline-backoffice/internal/database"
	"github.com/cx-tal-miterani/airline-backoffice/internal/models"
)

// CreateFlight schedules a flight on an existing aircraft
func (l *Ledger) CreateFlight(ctx context.Context, req *models.CreateFlightRequest) (*models.Flight, error) {
	if !req.ArrivalTime.After(req.DepartureTime) {
		return nil, ErrArrivalBeforeDeparture
	}

	var created *models.Flight
	err := l.store.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := l.store.Aircraft().Lock(ctx, req.AircraftID); err != nil {
			return storeErr(err, ErrAircraftNotFound, "lock aircraft")
		}

		now := l.now().UTC()
		f := &models.Flight{
			ID:            newID(),
			Number:        req.Number,
			Origin:        req.Origin,
			Destination:   req.Destination,
			DepartureTime: req.DepartureTime.UTC(),
			ArrivalTime:   req.ArrivalTime.UTC(),
			AircraftID:    req.AircraftID,
			Status:        models.FlightStatusScheduled,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := l.store.Flights().Insert(ctx, f); err != nil {
			return fmt.Errorf("failed to create flight: %w", err)
		}
		created = f
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "flight created", "flight_id", created.ID, "number", created.Number, "aircraft_id", created.AircraftID)
	return created, nil
}

func (l *Ledger) GetFlight(ctx context.Context, id string) (*models.Flight, error) {
	f, err := l.store.Flights().FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, ErrNotFound, "get flight")
	}
	return f, nil
}

func (l *Ledger) ListFlights(ctx context.Context, q models.FlightQuery) ([]models.Flight, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, ErrInvalidFlightStatus
	}
	filter := database.FlightFilter{
		Number:      q.Number,
		Origin:      q.Origin,
		Destination: q.Destination,
		AircraftID:  q.AircraftID,
		Status:      q.Status,
	}
	if err := applyTiming(&filter, q.Timing, l.now()); err != nil {
		return nil, err
	}

	flights, err := l.store.Flights().Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list flights: %w", err)
	}
	return flights, nil
}

// applyTiming narrows filter to the flights whose derived timing at now is t
func applyTiming(filter *database.FlightFilter, t models.FlightTiming, now time.Time) error {
	switch t {
	case "":
	case models.FlightTimingFuture:
		filter.DepartsAfter = &now
	case models.FlightTimingInProgress:
		filter.DepartedBy = &now
		filter.ArrivesAfter = &now
	case models.FlightTimingCompleted:
		filter.ArrivedBy = &now
	default:
		return ErrInvalidFilter
	}
	return nil
}

// UpdateFlight changes a flight. The schedule is revalidated, and a flight
// holding confirmed tickets keeps its aircraft since the seats were taken
// from that aircraft's inventory.
func (l *Ledger) UpdateFlight(ctx context.Context, id string, req *models.UpdateFlightRequest) (*models.Flight, error) {
	if err := checkIdentifier(id, req.ID); err != nil {
		return nil, err
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, ErrInvalidFlightStatus
	}

	var updated *models.Flight
	err := l.store.WithinTransaction(ctx, func(ctx context.Context) error {
		f, err := l.store.Flights().Lock(ctx, id)
		if err != nil {
			return storeErr(err, ErrNotFound, "lock flight")
		}

		if req.Number != nil {
			f.Number = *req.Number
		}
		if req.Origin != nil {
			f.Origin = *req.Origin
		}
		if req.Destination != nil {
			f.Destination = *req.Destination
		}
		if req.DepartureTime != nil {
			f.DepartureTime = req.DepartureTime.UTC()
		}
		if req.ArrivalTime != nil {
			f.ArrivalTime = req.ArrivalTime.UTC()
		}
		if req.Status != nil {
			f.Status = *req.Status
		}
		if !f.ArrivalTime.After(f.DepartureTime) {
			return ErrArrivalBeforeDeparture
		}

		if req.AircraftID != nil && *req.AircraftID != f.AircraftID {
			if _, err := l.store.Aircraft().Lock(ctx, *req.AircraftID); err != nil {
				return storeErr(err, ErrAircraftNotFound, "lock aircraft")
			}
			booked, err := l.confirmedTickets(ctx, f.ID)
			if err != nil {
				return err
			}
			if booked > 0 {
				return ErrFlightAlreadyBooked
			}
			f.AircraftID = *req.AircraftID
		}
		f.UpdatedAt = l.now().UTC()

		if err := l.store.Flights().Update(ctx, f); err != nil {
			return storeErr(err, ErrNotFound, "update flight")
		}
		updated = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteFlight removes a flight that holds no confirmed ticket. Ticket
// issuance locks the flight too, so the count cannot go stale before the
// delete commits.
func (l *Ledger) DeleteFlight(ctx context.Context, id string) (*models.Flight, error) {
	var deleted *models.Flight
	err := l.store.WithinTransaction(ctx, func(ctx context.Context) error {
		f, err := l.store.Flights().Lock(ctx, id)
		if err != nil {
			return storeErr(err, ErrNotFound, "lock flight")
		}

		booked, err := l.confirmedTickets(ctx, id)
		if err != nil {
			return err
		}
		if booked > 0 {
			return ErrFlightAlreadyBooked
		}

		if err := l.store.Flights().Delete(ctx, id); err != nil {
			return storeErr(err, ErrNotFound, "delete flight")
		}
		deleted = f
		return nil
	})
	if err != nil {
		l.logger.InfoContext(ctx, "flight deletion refused", "flight_id", id, "error", err)
		return nil, err
	}

	l.logger.InfoContext(ctx, "flight deleted", "flight_id", id)
	return deleted, nil
}

func (l *Ledger) confirmedTickets(ctx context.Context, flightID string) (int, error) {
	n, err := l.store.Tickets().Count(ctx, database.TicketFilter{
		FlightIDs: []string{flightID},
		Status:    models.TicketStatusConfirmed,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return n, nil
}
