// Package postgres implements database.Store on PostgreSQL through pgx.
// Inventory updates are single conditional UPDATE statements and locks are
// row locks taken with SELECT ... FOR UPDATE.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cx-tal-miterani/airline-backoffice/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

type txKey struct{}

// querier is satisfied by both the pool and a transaction
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store handles all database operations
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pool on dsn and checks it is reachable
func Connect(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewStore(pool), nil
}

// NewStore creates a new store over an existing pool
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate creates the tables if they do not exist
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (s *Store) Aircraft() database.AircraftRepository    { return &aircraftRepo{s} }
func (s *Store) Flights() database.FlightRepository       { return &flightRepo{s} }
func (s *Store) Passengers() database.PassengerRepository { return &passengerRepo{s} }
func (s *Store) Tickets() database.TicketRepository       { return &ticketRepo{s} }

func (s *Store) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}

// WithinTransaction runs fn in a transaction carried by the context.
// Nested calls join the outer transaction.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return s.pool
}

func (s *Store) exists(ctx context.Context, table, id string) (bool, error) {
	var ok bool
	err := s.q(ctx).QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM "+table+" WHERE id = $1)", id).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", table, err)
	}
	return ok, nil
}

// conditionErr tells a missing row apart from a failed predicate after a
// conditional statement matched nothing.
func (s *Store) conditionErr(ctx context.Context, table, id string) error {
	ok, err := s.exists(ctx, table, id)
	if err != nil {
		return err
	}
	if !ok {
		return database.ErrNotFound
	}
	return database.ErrConditionFailed
}

func insertErr(err error, what string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return database.ErrDuplicate
	}
	return fmt.Errorf("failed to insert %s: %w", what, err)
}

func affected(tag pgconn.CommandTag, err error, what string) error {
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", what, err)
	}
	if tag.RowsAffected() == 0 {
		return database.ErrNotFound
	}
	return nil
}

// where accumulates a conjunction of placeholders-numbered predicates
type where struct {
	clauses []string
	args    []any
}

// add appends clause, replacing each ? with the placeholder of arg
func (w *where) add(clause string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, strings.ReplaceAll(clause, "?", "$"+strconv.Itoa(len(w.args))))
}

func (w *where) never() {
	w.clauses = append(w.clauses, "FALSE")
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}
