package service

import (
	"context"
	"fmt"

	"github.com/cx-tal-miterani/airline-backoffice/internal/database"
	"github.com/cx-tal-miterani/airline-backoffice/internal/models"
)

func (l *Ledger) CreatePassenger(ctx context.Context, req *models.CreatePassengerRequest) (*models.Passenger, error) {
	p := &models.Passenger{
		ID:           newID(),
		LastName:     req.LastName,
		FirstName:    req.FirstName,
		Email:        req.Email,
		Country:      req.Country,
		RegisteredAt: l.now().UTC(),
	}
	if err := l.store.Passengers().Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create passenger: %w", err)
	}
	return p, nil
}

func (l *Ledger) GetPassenger(ctx context.Context, id string) (*models.Passenger, error) {
	p, err := l.store.Passengers().FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, ErrNotFound, "get passenger")
	}
	return p, nil
}

func (l *Ledger) ListPassengers(ctx context.Context, q models.PassengerQuery) ([]models.Passenger, error) {
	passengers, err := l.store.Passengers().Find(ctx, database.PassengerFilter{
		LastName:  q.LastName,
		FirstName: q.FirstName,
		Email:     q.Email,
		Country:   q.Country,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list passengers: %w", err)
	}
	return passengers, nil
}

func (l *Ledger) UpdatePassenger(ctx context.Context, id string, req *models.UpdatePassengerRequest) (*models.Passenger, error) {
	if err := checkIdentifier(id, req.ID); err != nil {
		return nil, err
	}

	p, err := l.store.Passengers().FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, ErrNotFound, "get passenger")
	}
	if req.LastName != nil {
		p.LastName = *req.LastName
	}
	if req.FirstName != nil {
		p.FirstName = *req.FirstName
	}
	if req.Email != nil {
		p.Email = *req.Email
	}
	if req.Country != nil {
		p.Country = *req.Country
	}

	if err := l.store.Passengers().Update(ctx, p); err != nil {
		return nil, storeErr(err, ErrNotFound, "update passenger")
	}
	return p, nil
}

func (l *Ledger) DeletePassenger(ctx context.Context, id string) (*models.Passenger, error) {
	p, err := l.store.Passengers().FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, ErrNotFound, "get passenger")
	}
	if err := l.store.Passengers().Delete(ctx, id); err != nil {
		return nil, storeErr(err, ErrNotFound, "delete passenger")
	}
	l.logger.InfoContext(ctx, "passenger deleted", "passenger_id", id)
	return p, nil
}
