package memory

import (
	"context"
	"time"

	"github.com/cx-tal-miterani/airline-backoffice/internal/database"
	"github.com/cx-tal-miterani/airline-backoffice/internal/models"
)

type aircraftRepo struct{ s *Store }

func (r *aircraftRepo) FindByID(ctx context.Context, id string) (*models.Aircraft, error) {
	var out *models.Aircraft
	err := r.s.run(ctx, func(t *tx) error {
		a, ok := r.s.aircraft.get(id)
		if !ok {
			return database.ErrNotFound
		}
		out = &a
		return nil
	})
	return out, err
}

func (r *aircraftRepo) Lock(ctx context.Context, id string) (*models.Aircraft, error) {
	// the store lock already serializes transactions
	return r.FindByID(ctx, id)
}

func (r *aircraftRepo) Find(ctx context.Context, filter database.AircraftFilter) ([]models.Aircraft, error) {
	var out []models.Aircraft
	err := r.s.run(ctx, func(t *tx) error {
		out = r.s.aircraft.find(filter.Match)
		return nil
	})
	return out, err
}

func (r *aircraftRepo) Insert(ctx context.Context, a *models.Aircraft) error {
	return r.s.run(ctx, func(t *tx) error { return r.s.aircraft.insert(t, *a) })
}

func (r *aircraftRepo) Update(ctx context.Context, a *models.Aircraft) error {
	return r.s.run(ctx, func(t *tx) error { return r.s.aircraft.put(t, *a) })
}

func (r *aircraftRepo) Delete(ctx context.Context, id string) error {
	return r.s.run(ctx, func(t *tx) error { return r.s.aircraft.remove(t, id) })
}

func (r *aircraftRepo) AdjustRemaining(ctx context.Context, id string, delta int) (*models.Aircraft, error) {
	var out *models.Aircraft
	err := r.s.run(ctx, func(t *tx) error {
		a, ok := r.s.aircraft.get(id)
		if !ok {
			return database.ErrNotFound
		}
		next := a.Remaining + delta
		if next < 0 || next > a.Capacity {
			return database.ErrConditionFailed
		}
		a.Remaining = next
		a.UpdatedAt = time.Now().UTC()
		if err := r.s.aircraft.put(t, a); err != nil {
			return err
		}
		out = &a
		return nil
	})
	return out, err
}

type flightRepo struct{ s *Store }

func (r *flightRepo) FindByID(ctx context.Context, id string) (*models.Flight, error) {
	var out *models.Flight
	err := r.s.run(ctx, func(t *tx) error {
		f, ok := r.s.flights.get(id)
		if !ok {
			return database.ErrNotFound
		}
		out = &f
		return nil
	})
	return out, err
}

func (r *flightRepo) Lock(ctx context.Context, id string) (*models.Flight, error) {
	return r.FindByID(ctx, id)
}

func (r *flightRepo) Find(ctx context.Context, filter database.FlightFilter) ([]models.Flight, error) {
	var out []models.Flight
	err := r.s.run(ctx, func(t *tx) error {
		out = r.s.flights.find(filter.Match)
		return nil
	})
	return out, err
}

func (r *flightRepo) Insert(ctx context.Context, f *models.Flight) error {
	return r.s.run(ctx, func(t *tx) error { return r.s.flights.insert(t, *f) })
}

func (r *flightRepo) Update(ctx context.Context, f *models.Flight) error {
	return r.s.run(ctx, func(t *tx) error { return r.s.flights.put(t, *f) })
}

func (r *flightRepo) Delete(ctx context.Context, id string) error {
	return r.s.run(ctx, func(t *tx) error { return r.s.flights.remove(t, id) })
}

type passengerRepo struct{ s *Store }

func (r *passengerRepo) FindByID(ctx context.Context, id string) (*models.Passenger, error) {
	var out *models.Passenger
	err := r.s.run(ctx, func(t *tx) error {
		p, ok := r.s.passengers.get(id)
		if !ok {
			return database.ErrNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *passengerRepo) Find(ctx context.Context, filter database.PassengerFilter) ([]models.Passenger, error) {
	var out []models.Passenger
	err := r.s.run(ctx, func(t *tx) error {
		out = r.s.passengers.find(filter.Match)
		return nil
	})
	return out, err
}

func (r *passengerRepo) Insert(ctx context.Context, p *models.Passenger) error {
	return r.s.run(ctx, func(t *tx) error { return r.s.passengers.insert(t, *p) })
}

func (r *passengerRepo) Update(ctx context.Context, p *models.Passenger) error {
	return r.s.run(ctx, func(t *tx) error { return r.s.passengers.put(t, *p) })
}

func (r *passengerRepo) Delete(ctx context.Context, id string) error {
	return r.s.run(ctx, func(t *tx) error { return r.s.passengers.remove(t, id) })
}

type ticketRepo struct{ s *Store }

func (r *ticketRepo) FindByID(ctx context.Context, id string) (*models.Ticket, error) {
	var out *models.Ticket
	err := r.s.run(ctx, func(t *tx) error {
		tk, ok := r.s.tickets.get(id)
		if !ok {
			return database.ErrNotFound
		}
		out = &tk
		return nil
	})
	return out, err
}

func (r *ticketRepo) Find(ctx context.Context, filter database.TicketFilter) ([]models.Ticket, error) {
	var out []models.Ticket
	err := r.s.run(ctx, func(t *tx) error {
		out = r.s.tickets.find(filter.Match)
		return nil
	})
	return out, err
}

func (r *ticketRepo) Count(ctx context.Context, filter database.TicketFilter) (int, error) {
	tickets, err := r.Find(ctx, filter)
	return len(tickets), err
}

func (r *ticketRepo) Insert(ctx context.Context, tk *models.Ticket) error {
	return r.s.run(ctx, func(t *tx) error { return r.s.tickets.insert(t, *tk) })
}

func (r *ticketRepo) Update(ctx context.Context, tk *models.Ticket) error {
	return r.s.run(ctx, func(t *tx) error { return r.s.tickets.put(t, *tk) })
}

func (r *ticketRepo) Delete(ctx context.Context, id string) error {
	return r.s.run(ctx, func(t *tx) error { return r.s.tickets.remove(t, id) })
}

func (r *ticketRepo) TransitionStatus(ctx context.Context, id string, from, to models.TicketStatus) (*models.Ticket, error) {
	var out *models.Ticket
	err := r.s.run(ctx, func(t *tx) error {
		tk, ok := r.s.tickets.get(id)
		if !ok {
			return database.ErrNotFound
		}
		if tk.Status != from {
			return database.ErrConditionFailed
		}
		tk.Status = to
		tk.UpdatedAt = time.Now().UTC()
		if err := r.s.tickets.put(t, tk); err != nil {
			return err
		}
		out = &tk
		return nil
	})
	return out, err
}
