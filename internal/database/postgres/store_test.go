package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/cx-tal-miterani/airline-backoffice/internal/database"
	"github.com/cx-tal-miterani/airline-backoffice/internal/database/storetest"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestStoreContract(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	suite.Run(t, &storetest.Suite{
		NewStore: func(t *testing.T) database.Store {
			ctx := context.Background()
			pool, err := pgxpool.New(ctx, dsn)
			require.NoError(t, err)

			s := NewStore(pool)
			require.NoError(t, s.Migrate(ctx))
			_, err = pool.Exec(ctx, `TRUNCATE aircraft, flights, passengers, tickets`)
			require.NoError(t, err)
			return s
		},
	})
}

func TestWhere(t *testing.T) {
	var w where
	assert.Equal(t, "", w.String())

	w.add("lower(model) = lower(?)", "A320")
	w.add("in_service = ?", true)
	w.clauses = append(w.clauses, "remaining = 0")

	assert.Equal(t, " WHERE lower(model) = lower($1) AND in_service = $2 AND remaining = 0", w.String())
	assert.Equal(t, []any{"A320", true}, w.args)
}

func TestTicketWhere_EmptyFlightSet(t *testing.T) {
	w := ticketWhere(database.TicketFilter{FlightIDs: []string{}, Status: "CONFIRMED"})
	assert.Equal(t, " WHERE FALSE AND status = $1", w.String())

	w = ticketWhere(database.TicketFilter{FlightIDs: []string{"f1", "f2"}})
	assert.Equal(t, " WHERE flight_id = ANY($1)", w.String())
	assert.Equal(t, []any{[]string{"f1", "f2"}}, w.args)
}

func TestTicketWhere_PassengerSet(t *testing.T) {
	w := ticketWhere(database.TicketFilter{PassengerIDs: []string{}})
	assert.Equal(t, " WHERE FALSE", w.String())

	w = ticketWhere(database.TicketFilter{PassengerID: "p1", PassengerIDs: []string{"p1", "p2"}})
	assert.Equal(t, " WHERE passenger_id = $1 AND passenger_id = ANY($2)", w.String())
	assert.Equal(t, []any{"p1", []string{"p1", "p2"}}, w.args)
}
