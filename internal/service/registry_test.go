package service

import (
	"context"
	"testing"
	"time"

	"github.com/cx-tal-miterani/airline-backoffice/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteAircraft(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, f *fixture, aircraftID string)
		wantErr error
	}{
		{
			name:  "no flights",
			setup: func(t *testing.T, f *fixture, aircraftID string) {},
		},
		{
			name: "airborne flight without tickets",
			setup: func(t *testing.T, f *fixture, aircraftID string) {
				f.flight(t, aircraftID, -time.Hour, time.Hour)
			},
			wantErr: ErrAircraftInFlight,
		},
		{
			name: "flight departing now is airborne",
			setup: func(t *testing.T, f *fixture, aircraftID string) {
				f.flight(t, aircraftID, 0, time.Hour)
			},
			wantErr: ErrAircraftInFlight,
		},
		{
			name: "upcoming flight with a confirmed ticket",
			setup: func(t *testing.T, f *fixture, aircraftID string) {
				fl := f.flight(t, aircraftID, time.Hour, 2*time.Hour)
				_, err := f.issue(fl.ID, f.passenger(t).ID)
				require.NoError(t, err)
			},
			wantErr: ErrAircraftAlreadyBooked,
		},
		{
			name: "upcoming flight whose ticket was cancelled",
			setup: func(t *testing.T, f *fixture, aircraftID string) {
				fl := f.flight(t, aircraftID, time.Hour, 2*time.Hour)
				ticket, err := f.issue(fl.ID, f.passenger(t).ID)
				require.NoError(t, err)
				_, err = f.ledger.CancelTicket(context.Background(), ticket.ID)
				require.NoError(t, err)
			},
		},
		{
			name: "upcoming flight without tickets",
			setup: func(t *testing.T, f *fixture, aircraftID string) {
				f.flight(t, aircraftID, time.Hour, 2*time.Hour)
			},
		},
		{
			name: "completed flight",
			setup: func(t *testing.T, f *fixture, aircraftID string) {
				f.flight(t, aircraftID, -3*time.Hour, -2*time.Hour)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			a := f.aircraft(t, 4)
			tt.setup(t, f, a.ID)

			deleted, err := f.ledger.DeleteAircraft(context.Background(), a.ID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				_, err = f.ledger.GetAircraft(context.Background(), a.ID)
				assert.NoError(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, a.ID, deleted.ID)
		})
	}
}

func TestDeleteAircraft_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.DeleteAircraft(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestUpdateAircraft_Capacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.aircraft(t, 4)
	fl := f.flight(t, a.ID, time.Hour, 2*time.Hour)
	p := f.passenger(t)
	for i := 0; i < 3; i++ {
		_, err := f.issue(fl.ID, p.ID)
		require.NoError(t, err)
	}

	capacity := 6
	updated, err := f.ledger.UpdateAircraft(ctx, a.ID, &models.UpdateAircraftRequest{Capacity: &capacity})
	require.NoError(t, err)
	assert.Equal(t, 6, updated.Capacity)
	assert.Equal(t, 3, updated.Remaining)
	assert.Equal(t, 3, f.notifier.last().Remaining)

	tooSmall := 2
	_, err = f.ledger.UpdateAircraft(ctx, a.ID, &models.UpdateAircraftRequest{Capacity: &tooSmall})
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	tooLarge := 11
	_, err = f.ledger.UpdateAircraft(ctx, a.ID, &models.UpdateAircraftRequest{Capacity: &tooLarge})
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	assert.Equal(t, 3, f.remaining(t, a.ID))
}

func TestUpdateAircraft_Fields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.aircraft(t, 4)

	model := "A321neo"
	inService := false
	updated, err := f.ledger.UpdateAircraft(ctx, a.ID, &models.UpdateAircraftRequest{
		ID:        a.ID,
		Model:     &model,
		InService: &inService,
	})
	require.NoError(t, err)
	assert.Equal(t, "A321neo", updated.Model)
	assert.Equal(t, "Air Test", updated.Company)
	assert.False(t, updated.InService)
	assert.Equal(t, 4, updated.Remaining)

	_, err = f.ledger.UpdateAircraft(ctx, a.ID, &models.UpdateAircraftRequest{ID: "other"})
	assert.ErrorIs(t, err, ErrIdentifierMismatch)

	_, err = f.ledger.UpdateAircraft(ctx, "missing", &models.UpdateAircraftRequest{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAircraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	full := f.aircraft(t, 1)
	empty := f.aircraft(t, 3)
	fl := f.flight(t, full.ID, time.Hour, 2*time.Hour)
	_, err := f.issue(fl.ID, f.passenger(t).ID)
	require.NoError(t, err)

	soldOut, err := f.ledger.ListAircraft(ctx, models.AircraftQuery{SoldOut: true})
	require.NoError(t, err)
	require.Len(t, soldOut, 1)
	assert.Equal(t, full.ID, soldOut[0].ID)

	unbooked, err := f.ledger.ListAircraft(ctx, models.AircraftQuery{Unbooked: true})
	require.NoError(t, err)
	require.Len(t, unbooked, 1)
	assert.Equal(t, empty.ID, unbooked[0].ID)

	byCompany, err := f.ledger.ListAircraft(ctx, models.AircraftQuery{Company: "air test"})
	require.NoError(t, err)
	assert.Len(t, byCompany, 2)
}

func TestCreateFlight(t *testing.T) {
	f := newFixture(t)
	a := f.aircraft(t, 2)

	tests := []struct {
		name       string
		aircraftID string
		departure  time.Time
		arrival    time.Time
		wantErr    error
	}{
		{name: "valid", aircraftID: a.ID, departure: testNow.Add(time.Hour), arrival: testNow.Add(2 * time.Hour)},
		{name: "arrival equals departure", aircraftID: a.ID, departure: testNow, arrival: testNow, wantErr: ErrArrivalBeforeDeparture},
		{name: "arrival before departure", aircraftID: a.ID, departure: testNow, arrival: testNow.Add(-time.Minute), wantErr: ErrArrivalBeforeDeparture},
		{name: "bad dates and missing aircraft", aircraftID: "missing", departure: testNow, arrival: testNow.Add(-time.Hour), wantErr: ErrArrivalBeforeDeparture},
		{name: "missing aircraft", aircraftID: "missing", departure: testNow, arrival: testNow.Add(time.Hour), wantErr: ErrAircraftNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fl, err := f.ledger.CreateFlight(context.Background(), &models.CreateFlightRequest{
				Number:        "AT7",
				Origin:        "Paris",
				Destination:   "Rome",
				DepartureTime: tt.departure,
				ArrivalTime:   tt.arrival,
				AircraftID:    tt.aircraftID,
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.FlightStatusScheduled, fl.Status)
		})
	}
}

func TestUpdateFlight(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.aircraft(t, 2)
	spare := f.aircraft(t, 2)
	booked := f.flight(t, a.ID, time.Hour, 2*time.Hour)
	free := f.flight(t, a.ID, 5*time.Hour, 6*time.Hour)
	_, err := f.issue(booked.ID, f.passenger(t).ID)
	require.NoError(t, err)

	_, err = f.ledger.UpdateFlight(ctx, booked.ID, &models.UpdateFlightRequest{AircraftID: &spare.ID})
	assert.ErrorIs(t, err, ErrFlightAlreadyBooked)

	moved, err := f.ledger.UpdateFlight(ctx, free.ID, &models.UpdateFlightRequest{AircraftID: &spare.ID})
	require.NoError(t, err)
	assert.Equal(t, spare.ID, moved.AircraftID)

	missing := "missing"
	_, err = f.ledger.UpdateFlight(ctx, free.ID, &models.UpdateFlightRequest{AircraftID: &missing})
	assert.ErrorIs(t, err, ErrAircraftNotFound)

	early := testNow.Add(4 * time.Hour)
	_, err = f.ledger.UpdateFlight(ctx, free.ID, &models.UpdateFlightRequest{ArrivalTime: &early})
	assert.ErrorIs(t, err, ErrArrivalBeforeDeparture)

	_, err = f.ledger.UpdateFlight(ctx, free.ID, &models.UpdateFlightRequest{ID: booked.ID})
	assert.ErrorIs(t, err, ErrIdentifierMismatch)

	bogus := models.FlightStatus("DELAYED")
	_, err = f.ledger.UpdateFlight(ctx, free.ID, &models.UpdateFlightRequest{Status: &bogus})
	assert.ErrorIs(t, err, ErrInvalidFlightStatus)
}

func TestListFlights_Timing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.aircraft(t, 2)
	future := f.flight(t, a.ID, time.Hour, 2*time.Hour)
	airborne := f.flight(t, a.ID, -time.Hour, time.Hour)
	landed := f.flight(t, a.ID, -3*time.Hour, -2*time.Hour)

	tests := []struct {
		timing models.FlightTiming
		want   string
	}{
		{models.FlightTimingFuture, future.ID},
		{models.FlightTimingInProgress, airborne.ID},
		{models.FlightTimingCompleted, landed.ID},
	}
	for _, tt := range tests {
		t.Run(string(tt.timing), func(t *testing.T) {
			flights, err := f.ledger.ListFlights(ctx, models.FlightQuery{Timing: tt.timing})
			require.NoError(t, err)
			require.Len(t, flights, 1)
			assert.Equal(t, tt.want, flights[0].ID)
			assert.Equal(t, tt.timing, flights[0].Timing(testNow))
		})
	}

	_, err := f.ledger.ListFlights(ctx, models.FlightQuery{Status: "LATE"})
	assert.ErrorIs(t, err, ErrInvalidFlightStatus)
}

func TestDeleteFlight_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.DeleteFlight(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPassengers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.passenger(t)

	got, err := f.ledger.GetPassenger(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", got.Email)
	assert.Equal(t, testNow, got.RegisteredAt)

	country := "Italy"
	updated, err := f.ledger.UpdatePassenger(ctx, p.ID, &models.UpdatePassengerRequest{ID: p.ID, Country: &country})
	require.NoError(t, err)
	assert.Equal(t, "Italy", updated.Country)
	assert.Equal(t, "Doe", updated.LastName)

	_, err = f.ledger.UpdatePassenger(ctx, p.ID, &models.UpdatePassengerRequest{ID: "someone-else"})
	assert.ErrorIs(t, err, ErrIdentifierMismatch)

	found, err := f.ledger.ListPassengers(ctx, models.PassengerQuery{Country: "italy"})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	_, err = f.ledger.DeletePassenger(ctx, p.ID)
	require.NoError(t, err)
	_, err = f.ledger.GetPassenger(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.ledger.DeletePassenger(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
