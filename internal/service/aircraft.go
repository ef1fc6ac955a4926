package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/cx-tal-miterani/airline-backoffice/internal/database"
	"github.com/cx-tal-miterani/airline-backoffice/internal/models"
)

func (l *Ledger) validCapacity(c int) bool {
	return c > 0 && c <= l.maxCapacity
}

// CreateAircraft registers an aircraft with every seat available
func (l *Ledger) CreateAircraft(ctx context.Context, req *models.CreateAircraftRequest) (*models.Aircraft, error) {
	if !l.validCapacity(req.Capacity) {
		return nil, ErrInvalidCapacity
	}

	inService := true
	if req.InService != nil {
		inService = *req.InService
	}

	now := l.now().UTC()
	a := &models.Aircraft{
		ID:        newID(),
		Model:     req.Model,
		Company:   req.Company,
		Capacity:  req.Capacity,
		Remaining: req.Capacity,
		InService: inService,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := l.store.Aircraft().Insert(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to create aircraft: %w", err)
	}

	l.logger.InfoContext(ctx, "aircraft created", "aircraft_id", a.ID, "capacity", a.Capacity)
	return a, nil
}

func (l *Ledger) GetAircraft(ctx context.Context, id string) (*models.Aircraft, error) {
	a, err := l.store.Aircraft().FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, ErrNotFound, "get aircraft")
	}
	return a, nil
}

func (l *Ledger) ListAircraft(ctx context.Context, q models.AircraftQuery) ([]models.Aircraft, error) {
	aircraft, err := l.store.Aircraft().Find(ctx, database.AircraftFilter{
		Model:     q.Model,
		Company:   q.Company,
		InService: q.InService,
		SoldOut:   q.SoldOut,
		Unbooked:  q.Unbooked,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list aircraft: %w", err)
	}
	return aircraft, nil
}

// UpdateAircraft changes the descriptive fields and capacity. A capacity
// change keeps the seats already sold, so remaining moves by the same delta.
func (l *Ledger) UpdateAircraft(ctx context.Context, id string, req *models.UpdateAircraftRequest) (*models.Aircraft, error) {
	if err := checkIdentifier(id, req.ID); err != nil {
		return nil, err
	}

	var (
		updated         *models.Aircraft
		capacityChanged bool
	)
	err := l.store.WithinTransaction(ctx, func(ctx context.Context) error {
		a, err := l.store.Aircraft().Lock(ctx, id)
		if err != nil {
			return storeErr(err, ErrNotFound, "lock aircraft")
		}

		if req.Model != nil {
			a.Model = *req.Model
		}
		if req.Company != nil {
			a.Company = *req.Company
		}
		if req.InService != nil {
			a.InService = *req.InService
		}
		if req.Capacity != nil && *req.Capacity != a.Capacity {
			sold := a.Sold()
			if !l.validCapacity(*req.Capacity) || *req.Capacity < sold {
				return ErrInvalidCapacity
			}
			a.Capacity = *req.Capacity
			a.Remaining = a.Capacity - sold
			capacityChanged = true
		}
		a.UpdatedAt = l.now().UTC()

		if err := l.store.Aircraft().Update(ctx, a); err != nil {
			return storeErr(err, ErrNotFound, "update aircraft")
		}
		updated = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	if capacityChanged {
		l.notify(updated)
	}
	return updated, nil
}

// DeleteAircraft removes an aircraft that is neither flying nor holding
// confirmed tickets on an upcoming flight. The checks and the delete share
// one transaction holding the aircraft lock, so a concurrent booking either
// lands before the checks or fails to find the aircraft.
func (l *Ledger) DeleteAircraft(ctx context.Context, id string) (*models.Aircraft, error) {
	var deleted *models.Aircraft
	err := l.store.WithinTransaction(ctx, func(ctx context.Context) error {
		a, err := l.store.Aircraft().Lock(ctx, id)
		if err != nil {
			return storeErr(err, ErrNotFound, "lock aircraft")
		}

		now := l.now()
		airborne, err := l.store.Flights().Find(ctx, database.FlightFilter{
			AircraftID:   id,
			DepartedBy:   &now,
			ArrivesAfter: &now,
		})
		if err != nil {
			return fmt.Errorf("failed to find airborne flights: %w", err)
		}
		if len(airborne) > 0 {
			return ErrAircraftInFlight
		}

		upcoming, err := l.store.Flights().Find(ctx, database.FlightFilter{
			AircraftID:   id,
			DepartsAfter: &now,
		})
		if err != nil {
			return fmt.Errorf("failed to find upcoming flights: %w", err)
		}
		if len(upcoming) > 0 {
			booked, err := l.store.Tickets().Count(ctx, database.TicketFilter{
				FlightIDs: flightIDs(upcoming),
				Status:    models.TicketStatusConfirmed,
			})
			if err != nil {
				return fmt.Errorf("failed to count tickets: %w", err)
			}
			if booked > 0 {
				return ErrAircraftAlreadyBooked
			}
		}

		if err := l.store.Aircraft().Delete(ctx, id); err != nil {
			return storeErr(err, ErrNotFound, "delete aircraft")
		}
		deleted = a
		return nil
	})
	if err != nil {
		l.logger.InfoContext(ctx, "aircraft deletion refused", "aircraft_id", id, "error", err)
		return nil, err
	}

	l.logger.InfoContext(ctx, "aircraft deleted", "aircraft_id", id)
	return deleted, nil
}

// adjustRemaining applies delta to the aircraft inventory as one
// conditional update in the store.
func (l *Ledger) adjustRemaining(ctx context.Context, aircraftID string, delta int) (*models.Aircraft, error) {
	a, err := l.store.Aircraft().AdjustRemaining(ctx, aircraftID, delta)
	switch {
	case err == nil:
		return a, nil
	case errors.Is(err, database.ErrConditionFailed):
		if delta < 0 {
			return nil, ErrInventoryExhausted
		}
		return nil, ErrInventoryOverflow
	case errors.Is(err, database.ErrNotFound):
		return nil, ErrAircraftNotFound
	default:
		return nil, fmt.Errorf("failed to adjust remaining seats: %w", err)
	}
}

func flightIDs(flights []models.Flight) []string {
	ids := make([]string, 0, len(flights))
	for _, f := range flights {
		ids = append(ids, f.ID)
	}
	return ids
}
