package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cx-tal-miterani/airline-backoffice/internal/database"
	"github.com/cx-tal-miterani/airline-backoffice/internal/models"
	"github.com/jackc/pgx/v5"
)

// --- Aircraft Operations ---

const aircraftColumns = `id, model, company, capacity, remaining, in_service, created_at, updated_at`

type aircraftRepo struct{ s *Store }

func scanAircraft(row pgx.Row) (*models.Aircraft, error) {
	var a models.Aircraft
	err := row.Scan(&a.ID, &a.Model, &a.Company, &a.Capacity, &a.Remaining, &a.InService, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *aircraftRepo) get(ctx context.Context, id, suffix string) (*models.Aircraft, error) {
	query := `SELECT ` + aircraftColumns + ` FROM aircraft WHERE id = $1` + suffix
	a, err := scanAircraft(r.s.q(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get aircraft: %w", err)
	}
	return a, nil
}

func (r *aircraftRepo) FindByID(ctx context.Context, id string) (*models.Aircraft, error) {
	return r.get(ctx, id, "")
}

func (r *aircraftRepo) Lock(ctx context.Context, id string) (*models.Aircraft, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *aircraftRepo) Find(ctx context.Context, f database.AircraftFilter) ([]models.Aircraft, error) {
	var w where
	if f.Model != "" {
		w.add("lower(model) = lower(?)", f.Model)
	}
	if f.Company != "" {
		w.add("lower(company) = lower(?)", f.Company)
	}
	if f.InService != nil {
		w.add("in_service = ?", *f.InService)
	}
	if f.SoldOut {
		w.clauses = append(w.clauses, "remaining = 0")
	}
	if f.Unbooked {
		w.clauses = append(w.clauses, "remaining = capacity")
	}

	rows, err := r.s.q(ctx).Query(ctx, `SELECT `+aircraftColumns+` FROM aircraft`+w.String()+` ORDER BY created_at, id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query aircraft: %w", err)
	}
	defer rows.Close()

	out := make([]models.Aircraft, 0)
	for rows.Next() {
		a, err := scanAircraft(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan aircraft: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *aircraftRepo) Insert(ctx context.Context, a *models.Aircraft) error {
	query := `
		INSERT INTO aircraft (` + aircraftColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.s.q(ctx).Exec(ctx, query, a.ID, a.Model, a.Company, a.Capacity, a.Remaining, a.InService, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return insertErr(err, "aircraft")
	}
	return nil
}

func (r *aircraftRepo) Update(ctx context.Context, a *models.Aircraft) error {
	query := `
		UPDATE aircraft
		SET model = $2, company = $3, capacity = $4, remaining = $5, in_service = $6, updated_at = $7
		WHERE id = $1
	`
	tag, err := r.s.q(ctx).Exec(ctx, query, a.ID, a.Model, a.Company, a.Capacity, a.Remaining, a.InService, a.UpdatedAt)
	return affected(tag, err, "aircraft")
}

func (r *aircraftRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.s.q(ctx).Exec(ctx, `DELETE FROM aircraft WHERE id = $1`, id)
	return affected(tag, err, "aircraft")
}

// AdjustRemaining moves remaining by delta only if the result stays within
// [0, capacity]. The predicate and the write are one statement, so
// concurrent bookings cannot both take the last seat.
func (r *aircraftRepo) AdjustRemaining(ctx context.Context, id string, delta int) (*models.Aircraft, error) {
	query := `
		UPDATE aircraft
		SET remaining = remaining + $2, updated_at = NOW()
		WHERE id = $1 AND remaining + $2 BETWEEN 0 AND capacity
		RETURNING ` + aircraftColumns

	a, err := scanAircraft(r.s.q(ctx).QueryRow(ctx, query, id, delta))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.s.conditionErr(ctx, "aircraft", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to adjust remaining seats: %w", err)
	}
	return a, nil
}

// --- Flight Operations ---

const flightColumns = `id, number, origin, destination, departure_time, arrival_time, aircraft_id, status, created_at, updated_at`

type flightRepo struct{ s *Store }

func scanFlight(row pgx.Row) (*models.Flight, error) {
	var f models.Flight
	err := row.Scan(
		&f.ID, &f.Number, &f.Origin, &f.Destination,
		&f.DepartureTime, &f.ArrivalTime, &f.AircraftID, &f.Status,
		&f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *flightRepo) get(ctx context.Context, id, suffix string) (*models.Flight, error) {
	f, err := scanFlight(r.s.q(ctx).QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id = $1`+suffix, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get flight: %w", err)
	}
	return f, nil
}

func (r *flightRepo) FindByID(ctx context.Context, id string) (*models.Flight, error) {
	return r.get(ctx, id, "")
}

func (r *flightRepo) Lock(ctx context.Context, id string) (*models.Flight, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *flightRepo) Find(ctx context.Context, f database.FlightFilter) ([]models.Flight, error) {
	var w where
	if f.Number != "" {
		w.add("lower(number) = lower(?)", f.Number)
	}
	if f.Origin != "" {
		w.add("lower(origin) = lower(?)", f.Origin)
	}
	if f.Destination != "" {
		w.add("lower(destination) = lower(?)", f.Destination)
	}
	if f.AircraftID != "" {
		w.add("aircraft_id = ?", f.AircraftID)
	}
	if f.AircraftIDs != nil {
		if len(f.AircraftIDs) == 0 {
			w.never()
		} else {
			w.add("aircraft_id = ANY(?)", f.AircraftIDs)
		}
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.DepartsAfter != nil {
		w.add("departure_time > ?", *f.DepartsAfter)
	}
	if f.DepartedBy != nil {
		w.add("departure_time <= ?", *f.DepartedBy)
	}
	if f.ArrivesAfter != nil {
		w.add("arrival_time > ?", *f.ArrivesAfter)
	}
	if f.ArrivedBy != nil {
		w.add("arrival_time <= ?", *f.ArrivedBy)
	}

	rows, err := r.s.q(ctx).Query(ctx, `SELECT `+flightColumns+` FROM flights`+w.String()+` ORDER BY departure_time, id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query flights: %w", err)
	}
	defer rows.Close()

	out := make([]models.Flight, 0)
	for rows.Next() {
		fl, err := scanFlight(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flight: %w", err)
		}
		out = append(out, *fl)
	}
	return out, rows.Err()
}

func (r *flightRepo) Insert(ctx context.Context, f *models.Flight) error {
	query := `
		INSERT INTO flights (` + flightColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.s.q(ctx).Exec(ctx, query,
		f.ID, f.Number, f.Origin, f.Destination,
		f.DepartureTime, f.ArrivalTime, f.AircraftID, f.Status,
		f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return insertErr(err, "flight")
	}
	return nil
}

func (r *flightRepo) Update(ctx context.Context, f *models.Flight) error {
	query := `
		UPDATE flights
		SET number = $2, origin = $3, destination = $4, departure_time = $5, arrival_time = $6,
		    aircraft_id = $7, status = $8, updated_at = $9
		WHERE id = $1
	`
	tag, err := r.s.q(ctx).Exec(ctx, query,
		f.ID, f.Number, f.Origin, f.Destination,
		f.DepartureTime, f.ArrivalTime, f.AircraftID, f.Status, f.UpdatedAt,
	)
	return affected(tag, err, "flight")
}

func (r *flightRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.s.q(ctx).Exec(ctx, `DELETE FROM flights WHERE id = $1`, id)
	return affected(tag, err, "flight")
}

// --- Passenger Operations ---

const passengerColumns = `id, last_name, first_name, email, country, registered_at`

type passengerRepo struct{ s *Store }

func scanPassenger(row pgx.Row) (*models.Passenger, error) {
	var p models.Passenger
	if err := row.Scan(&p.ID, &p.LastName, &p.FirstName, &p.Email, &p.Country, &p.RegisteredAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *passengerRepo) FindByID(ctx context.Context, id string) (*models.Passenger, error) {
	p, err := scanPassenger(r.s.q(ctx).QueryRow(ctx, `SELECT `+passengerColumns+` FROM passengers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get passenger: %w", err)
	}
	return p, nil
}

func (r *passengerRepo) Find(ctx context.Context, f database.PassengerFilter) ([]models.Passenger, error) {
	var w where
	if f.LastName != "" {
		w.add("lower(last_name) = lower(?)", f.LastName)
	}
	if f.FirstName != "" {
		w.add("lower(first_name) = lower(?)", f.FirstName)
	}
	if f.Email != "" {
		w.add("lower(email) = lower(?)", f.Email)
	}
	if f.Country != "" {
		w.add("lower(country) = lower(?)", f.Country)
	}

	rows, err := r.s.q(ctx).Query(ctx, `SELECT `+passengerColumns+` FROM passengers`+w.String()+` ORDER BY registered_at, id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query passengers: %w", err)
	}
	defer rows.Close()

	out := make([]models.Passenger, 0)
	for rows.Next() {
		p, err := scanPassenger(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan passenger: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *passengerRepo) Insert(ctx context.Context, p *models.Passenger) error {
	query := `INSERT INTO passengers (` + passengerColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.s.q(ctx).Exec(ctx, query, p.ID, p.LastName, p.FirstName, p.Email, p.Country, p.RegisteredAt); err != nil {
		return insertErr(err, "passenger")
	}
	return nil
}

func (r *passengerRepo) Update(ctx context.Context, p *models.Passenger) error {
	query := `UPDATE passengers SET last_name = $2, first_name = $3, email = $4, country = $5 WHERE id = $1`
	tag, err := r.s.q(ctx).Exec(ctx, query, p.ID, p.LastName, p.FirstName, p.Email, p.Country)
	return affected(tag, err, "passenger")
}

func (r *passengerRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.s.q(ctx).Exec(ctx, `DELETE FROM passengers WHERE id = $1`, id)
	return affected(tag, err, "passenger")
}

// --- Ticket Operations ---

const ticketColumns = `id, flight_id, passenger_id, seat_number, fare_class, price, reserved_at, payment_mode, status, created_at, updated_at`

type ticketRepo struct{ s *Store }

func scanTicket(row pgx.Row) (*models.Ticket, error) {
	var t models.Ticket
	err := row.Scan(
		&t.ID, &t.FlightID, &t.PassengerID, &t.SeatNumber, &t.FareClass, &t.Price,
		&t.ReservedAt, &t.PaymentMode, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func ticketWhere(f database.TicketFilter) where {
	var w where
	if f.FlightIDs != nil {
		if len(f.FlightIDs) == 0 {
			w.never()
		} else {
			w.add("flight_id = ANY(?)", f.FlightIDs)
		}
	}
	if f.PassengerID != "" {
		w.add("passenger_id = ?", f.PassengerID)
	}
	if f.PassengerIDs != nil {
		if len(f.PassengerIDs) == 0 {
			w.never()
		} else {
			w.add("passenger_id = ANY(?)", f.PassengerIDs)
		}
	}
	if f.SeatNumber != "" {
		w.add("lower(seat_number) = lower(?)", f.SeatNumber)
	}
	if f.FareClass != "" {
		w.add("fare_class = ?", f.FareClass)
	}
	if f.MinPrice != nil {
		w.add("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		w.add("price <= ?", *f.MaxPrice)
	}
	if f.ReservedFrom != nil {
		w.add("reserved_at >= ?", *f.ReservedFrom)
	}
	if f.ReservedTo != nil {
		w.add("reserved_at <= ?", *f.ReservedTo)
	}
	if f.PaymentMode != "" {
		w.add("payment_mode = ?", f.PaymentMode)
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	return w
}

func (r *ticketRepo) FindByID(ctx context.Context, id string) (*models.Ticket, error) {
	t, err := scanTicket(r.s.q(ctx).QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return t, nil
}

func (r *ticketRepo) Find(ctx context.Context, f database.TicketFilter) ([]models.Ticket, error) {
	w := ticketWhere(f)
	rows, err := r.s.q(ctx).Query(ctx, `SELECT `+ticketColumns+` FROM tickets`+w.String()+` ORDER BY reserved_at, id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickets: %w", err)
	}
	defer rows.Close()

	out := make([]models.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *ticketRepo) Count(ctx context.Context, f database.TicketFilter) (int, error) {
	w := ticketWhere(f)
	var n int
	if err := r.s.q(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM tickets`+w.String(), w.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return n, nil
}

func (r *ticketRepo) Insert(ctx context.Context, t *models.Ticket) error {
	query := `
		INSERT INTO tickets (` + ticketColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.s.q(ctx).Exec(ctx, query,
		t.ID, t.FlightID, t.PassengerID, t.SeatNumber, t.FareClass, t.Price,
		t.ReservedAt, t.PaymentMode, t.Status, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return insertErr(err, "ticket")
	}
	return nil
}

func (r *ticketRepo) Update(ctx context.Context, t *models.Ticket) error {
	query := `
		UPDATE tickets
		SET seat_number = $2, fare_class = $3, price = $4, payment_mode = $5, status = $6, updated_at = $7
		WHERE id = $1
	`
	tag, err := r.s.q(ctx).Exec(ctx, query, t.ID, t.SeatNumber, t.FareClass, t.Price, t.PaymentMode, t.Status, t.UpdatedAt)
	return affected(tag, err, "ticket")
}

func (r *ticketRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.s.q(ctx).Exec(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	return affected(tag, err, "ticket")
}

func (r *ticketRepo) TransitionStatus(ctx context.Context, id string, from, to models.TicketStatus) (*models.Ticket, error) {
	query := `
		UPDATE tickets
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + ticketColumns

	t, err := scanTicket(r.s.q(ctx).QueryRow(ctx, query, id, from, to))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.s.conditionErr(ctx, "tickets", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to transition ticket: %w", err)
	}
	return t, nil
}
