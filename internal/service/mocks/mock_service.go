package mocks

import (
	"context"

	"github.com/cx-tal-miterani/airline-backoffice/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockService is a mock implementation of service.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) CreateAircraft(ctx context.Context, req *models.CreateAircraftRequest) (*models.Aircraft, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Aircraft), args.Error(1)
}

func (m *MockService) GetAircraft(ctx context.Context, id string) (*models.Aircraft, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Aircraft), args.Error(1)
}

func (m *MockService) ListAircraft(ctx context.Context, q models.AircraftQuery) ([]models.Aircraft, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Aircraft), args.Error(1)
}

func (m *MockService) UpdateAircraft(ctx context.Context, id string, req *models.UpdateAircraftRequest) (*models.Aircraft, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Aircraft), args.Error(1)
}

func (m *MockService) DeleteAircraft(ctx context.Context, id string) (*models.Aircraft, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Aircraft), args.Error(1)
}

func (m *MockService) CreateFlight(ctx context.Context, req *models.CreateFlightRequest) (*models.Flight, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Flight), args.Error(1)
}

func (m *MockService) GetFlight(ctx context.Context, id string) (*models.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Flight), args.Error(1)
}

func (m *MockService) ListFlights(ctx context.Context, q models.FlightQuery) ([]models.Flight, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Flight), args.Error(1)
}

func (m *MockService) UpdateFlight(ctx context.Context, id string, req *models.UpdateFlightRequest) (*models.Flight, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Flight), args.Error(1)
}

func (m *MockService) DeleteFlight(ctx context.Context, id string) (*models.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Flight), args.Error(1)
}

func (m *MockService) CreatePassenger(ctx context.Context, req *models.CreatePassengerRequest) (*models.Passenger, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Passenger), args.Error(1)
}

func (m *MockService) GetPassenger(ctx context.Context, id string) (*models.Passenger, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Passenger), args.Error(1)
}

func (m *MockService) ListPassengers(ctx context.Context, q models.PassengerQuery) ([]models.Passenger, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Passenger), args.Error(1)
}

func (m *MockService) UpdatePassenger(ctx context.Context, id string, req *models.UpdatePassengerRequest) (*models.Passenger, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Passenger), args.Error(1)
}

func (m *MockService) DeletePassenger(ctx context.Context, id string) (*models.Passenger, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Passenger), args.Error(1)
}

func (m *MockService) IssueTicket(ctx context.Context, req *models.IssueTicketRequest) (*models.Ticket, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockService) GetTicket(ctx context.Context, id string) (*models.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockService) ListTickets(ctx context.Context, q models.TicketQuery) ([]models.Ticket, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Ticket), args.Error(1)
}

func (m *MockService) UpdateTicket(ctx context.Context, id string, req *models.UpdateTicketRequest) (*models.Ticket, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockService) CancelTicket(ctx context.Context, id string) (*models.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockService) DeleteTicket(ctx context.Context, id string) (*models.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}
