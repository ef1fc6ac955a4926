package memory

import (
	"context"
	"testing"

	"github.com/cx-tal-miterani/airline-backoffice/internal/database"
	"github.com/cx-tal-miterani/airline-backoffice/internal/database/storetest"
	"github.com/cx-tal-miterani/airline-backoffice/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestStoreContract(t *testing.T) {
	suite.Run(t, &storetest.Suite{
		NewStore: func(t *testing.T) database.Store { return NewStore() },
	})
}

func TestWithinTransaction_PanicRollsBack(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Aircraft().Insert(ctx, &models.Aircraft{ID: "a1", Capacity: 2, Remaining: 2}))

	assert.Panics(t, func() {
		_ = s.WithinTransaction(ctx, func(ctx context.Context) error {
			_, err := s.Aircraft().AdjustRemaining(ctx, "a1", -2)
			require.NoError(t, err)
			panic("boom")
		})
	})

	a, err := s.Aircraft().FindByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 2, a.Remaining)
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	in := &models.Aircraft{ID: "a1", Model: "ATR72", Capacity: 2, Remaining: 2}
	require.NoError(t, s.Aircraft().Insert(ctx, in))

	in.Model = "mutated"
	got, err := s.Aircraft().FindByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "ATR72", got.Model)

	got.Remaining = 0
	again, err := s.Aircraft().FindByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 2, again.Remaining)
}

func TestCancelledContext(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Aircraft().Insert(ctx, &models.Aircraft{ID: "a1", Capacity: 1, Remaining: 1})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.Aircraft().FindByID(context.Background(), "a1")
	assert.ErrorIs(t, err, database.ErrNotFound)
}
