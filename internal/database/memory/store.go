// Package memory is an in-process Store. Transactions are serialized by a
// store-wide mutex and rolled back through an undo log, which makes every
// conditional update trivially atomic. It backs local runs and unit tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/cx-tal-miterani/airline-backoffice/internal/database"
	"github.com/cx-tal-miterani/airline-backoffice/internal/models"
)

type txKey struct{}

type tx struct {
	owner *Store
	undo  []func()
}

func (t *tx) onRollback(fn func()) {
	t.undo = append(t.undo, fn)
}

// Store is an in-memory database.Store
type Store struct {
	mu         sync.Mutex
	aircraft   *collection[models.Aircraft]
	flights    *collection[models.Flight]
	passengers *collection[models.Passenger]
	tickets    *collection[models.Ticket]
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		aircraft:   newCollection(func(a models.Aircraft) string { return a.ID }, func(a, b models.Aircraft) bool { return a.CreatedAt.Before(b.CreatedAt) }),
		flights:    newCollection(func(f models.Flight) string { return f.ID }, func(a, b models.Flight) bool { return a.DepartureTime.Before(b.DepartureTime) }),
		passengers: newCollection(func(p models.Passenger) string { return p.ID }, func(a, b models.Passenger) bool { return a.RegisteredAt.Before(b.RegisteredAt) }),
		tickets:    newCollection(func(t models.Ticket) string { return t.ID }, func(a, b models.Ticket) bool { return a.ReservedAt.Before(b.ReservedAt) }),
	}
}

func (s *Store) Aircraft() database.AircraftRepository    { return &aircraftRepo{s} }
func (s *Store) Flights() database.FlightRepository       { return &flightRepo{s} }
func (s *Store) Passengers() database.PassengerRepository { return &passengerRepo{s} }
func (s *Store) Tickets() database.TicketRepository       { return &ticketRepo{s} }
func (s *Store) Close(ctx context.Context) error          { return nil }

// WithinTransaction runs fn while holding the store lock. If fn fails or
// panics every write it made is undone. Nested calls join the outer
// transaction.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.txFrom(ctx) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{owner: s}
	defer func() {
		if p := recover(); p != nil {
			t.rollback()
			panic(p)
		}
		if err != nil {
			t.rollback()
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, t))
}

func (t *tx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (s *Store) txFrom(ctx context.Context) *tx {
	if t, ok := ctx.Value(txKey{}).(*tx); ok && t.owner == s {
		return t
	}
	return nil
}

// run executes op atomically, inside the caller's transaction when there
// is one.
func (s *Store) run(ctx context.Context, op func(t *tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t := s.txFrom(ctx); t != nil {
		return op(t)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return op(&tx{owner: s})
}

type collection[T any] struct {
	items map[string]T
	id    func(T) string
	less  func(a, b T) bool
}

func newCollection[T any](id func(T) string, less func(a, b T) bool) *collection[T] {
	return &collection[T]{items: make(map[string]T), id: id, less: less}
}

func (c *collection[T]) get(id string) (T, bool) {
	v, ok := c.items[id]
	return v, ok
}

func (c *collection[T]) insert(t *tx, v T) error {
	id := c.id(v)
	if _, ok := c.items[id]; ok {
		return database.ErrDuplicate
	}
	c.items[id] = v
	t.onRollback(func() { delete(c.items, id) })
	return nil
}

func (c *collection[T]) put(t *tx, v T) error {
	id := c.id(v)
	prev, ok := c.items[id]
	if !ok {
		return database.ErrNotFound
	}
	c.items[id] = v
	t.onRollback(func() { c.items[id] = prev })
	return nil
}

func (c *collection[T]) remove(t *tx, id string) error {
	prev, ok := c.items[id]
	if !ok {
		return database.ErrNotFound
	}
	delete(c.items, id)
	t.onRollback(func() { c.items[id] = prev })
	return nil
}

func (c *collection[T]) find(match func(*T) bool) []T {
	out := make([]T, 0)
	for _, v := range c.items {
		v := v
		if match(&v) {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c.less(out[i], out[j]) {
			return true
		}
		if c.less(out[j], out[i]) {
			return false
		}
		return c.id(out[i]) < c.id(out[j])
	})
	return out
}
