package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/cx-tal-miterani/airline-backoffice/internal/database"
	"github.com/cx-tal-miterani/airline-backoffice/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// --- Aircraft Operations ---

type aircraftRepo struct{ coll *mongo.Collection }

func (r *aircraftRepo) FindByID(ctx context.Context, id string) (*models.Aircraft, error) {
	var a models.Aircraft
	if err := findByID(ctx, r.coll, id, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *aircraftRepo) Lock(ctx context.Context, id string) (*models.Aircraft, error) {
	var a models.Aircraft
	if err := lock(ctx, r.coll, id, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *aircraftRepo) Find(ctx context.Context, f database.AircraftFilter) ([]models.Aircraft, error) {
	filter := bson.D{}
	if f.Model != "" {
		filter = append(filter, bson.E{Key: "model", Value: f.Model})
	}
	if f.Company != "" {
		filter = append(filter, bson.E{Key: "company", Value: f.Company})
	}
	if f.InService != nil {
		filter = append(filter, bson.E{Key: "inService", Value: *f.InService})
	}
	if f.SoldOut {
		filter = append(filter, bson.E{Key: "remaining", Value: 0})
	}
	if f.Unbooked {
		filter = append(filter, bson.E{Key: "$expr", Value: bson.M{"$eq": bson.A{"$remaining", "$capacity"}}})
	}
	return find[models.Aircraft](ctx, r.coll, filter, bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
}

func (r *aircraftRepo) Insert(ctx context.Context, a *models.Aircraft) error {
	return insert(ctx, r.coll, a)
}

func (r *aircraftRepo) Update(ctx context.Context, a *models.Aircraft) error {
	return replace(ctx, r.coll, a.ID, a)
}

func (r *aircraftRepo) Delete(ctx context.Context, id string) error {
	return remove(ctx, r.coll, id)
}

// AdjustRemaining moves remaining by delta only if the result stays within
// [0, capacity], evaluated by the server on the document it updates.
func (r *aircraftRepo) AdjustRemaining(ctx context.Context, id string, delta int) (*models.Aircraft, error) {
	next := bson.M{"$add": bson.A{"$remaining", delta}}
	filter := bson.M{
		"_id": id,
		"$expr": bson.M{"$and": bson.A{
			bson.M{"$gte": bson.A{next, 0}},
			bson.M{"$lte": bson.A{next, "$capacity"}},
		}},
	}
	update := bson.M{
		"$inc": bson.M{"remaining": delta},
		"$set": bson.M{"updatedAt": now()},
	}

	var a models.Aircraft
	err := r.coll.FindOneAndUpdate(ctx, filter, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, conditionErr(ctx, r.coll, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to adjust remaining seats: %w", err)
	}
	return &a, nil
}

// --- Flight Operations ---

type flightRepo struct{ coll *mongo.Collection }

func (r *flightRepo) FindByID(ctx context.Context, id string) (*models.Flight, error) {
	var f models.Flight
	if err := findByID(ctx, r.coll, id, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *flightRepo) Lock(ctx context.Context, id string) (*models.Flight, error) {
	var f models.Flight
	if err := lock(ctx, r.coll, id, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *flightRepo) Find(ctx context.Context, f database.FlightFilter) ([]models.Flight, error) {
	filter := bson.D{}
	if f.Number != "" {
		filter = append(filter, bson.E{Key: "number", Value: f.Number})
	}
	if f.Origin != "" {
		filter = append(filter, bson.E{Key: "origin", Value: f.Origin})
	}
	if f.Destination != "" {
		filter = append(filter, bson.E{Key: "destination", Value: f.Destination})
	}
	if id := idMatch(f.AircraftID, f.AircraftIDs); id != nil {
		filter = append(filter, bson.E{Key: "aircraftId", Value: id})
	}
	if f.Status != "" {
		filter = append(filter, bson.E{Key: "status", Value: f.Status})
	}

	departure := bson.M{}
	if f.DepartsAfter != nil {
		departure["$gt"] = *f.DepartsAfter
	}
	if f.DepartedBy != nil {
		departure["$lte"] = *f.DepartedBy
	}
	if len(departure) > 0 {
		filter = append(filter, bson.E{Key: "departureTime", Value: departure})
	}

	arrival := bson.M{}
	if f.ArrivesAfter != nil {
		arrival["$gt"] = *f.ArrivesAfter
	}
	if f.ArrivedBy != nil {
		arrival["$lte"] = *f.ArrivedBy
	}
	if len(arrival) > 0 {
		filter = append(filter, bson.E{Key: "arrivalTime", Value: arrival})
	}

	return find[models.Flight](ctx, r.coll, filter, bson.D{{Key: "departureTime", Value: 1}, {Key: "_id", Value: 1}})
}

func (r *flightRepo) Insert(ctx context.Context, f *models.Flight) error {
	return insert(ctx, r.coll, f)
}

func (r *flightRepo) Update(ctx context.Context, f *models.Flight) error {
	return replace(ctx, r.coll, f.ID, f)
}

func (r *flightRepo) Delete(ctx context.Context, id string) error {
	return remove(ctx, r.coll, id)
}

// --- Passenger Operations ---

type passengerRepo struct{ coll *mongo.Collection }

func (r *passengerRepo) FindByID(ctx context.Context, id string) (*models.Passenger, error) {
	var p models.Passenger
	if err := findByID(ctx, r.coll, id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *passengerRepo) Find(ctx context.Context, f database.PassengerFilter) ([]models.Passenger, error) {
	filter := bson.D{}
	if f.LastName != "" {
		filter = append(filter, bson.E{Key: "lastName", Value: f.LastName})
	}
	if f.FirstName != "" {
		filter = append(filter, bson.E{Key: "firstName", Value: f.FirstName})
	}
	if f.Email != "" {
		filter = append(filter, bson.E{Key: "email", Value: f.Email})
	}
	if f.Country != "" {
		filter = append(filter, bson.E{Key: "country", Value: f.Country})
	}
	return find[models.Passenger](ctx, r.coll, filter, bson.D{{Key: "registeredAt", Value: 1}, {Key: "_id", Value: 1}})
}

func (r *passengerRepo) Insert(ctx context.Context, p *models.Passenger) error {
	return insert(ctx, r.coll, p)
}

func (r *passengerRepo) Update(ctx context.Context, p *models.Passenger) error {
	return replace(ctx, r.coll, p.ID, p)
}

func (r *passengerRepo) Delete(ctx context.Context, id string) error {
	return remove(ctx, r.coll, id)
}

// idMatch combines an exact id and an id set on one field. A non-nil empty
// set becomes an empty $in, which matches nothing.
func idMatch(id string, ids []string) bson.M {
	m := bson.M{}
	if id != "" {
		m["$eq"] = id
	}
	if ids != nil {
		m["$in"] = ids
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

// --- Ticket Operations ---

type ticketRepo struct{ coll *mongo.Collection }

// ticketFilter builds the query for f. An empty non-nil FlightIDs becomes
// an empty $in, which matches nothing.
func ticketFilter(f database.TicketFilter) bson.D {
	filter := bson.D{}
	if f.FlightIDs != nil {
		filter = append(filter, bson.E{Key: "flightId", Value: bson.M{"$in": f.FlightIDs}})
	}
	if id := idMatch(f.PassengerID, f.PassengerIDs); id != nil {
		filter = append(filter, bson.E{Key: "passengerId", Value: id})
	}
	if f.SeatNumber != "" {
		filter = append(filter, bson.E{Key: "seatNumber", Value: f.SeatNumber})
	}
	if f.FareClass != "" {
		filter = append(filter, bson.E{Key: "fareClass", Value: f.FareClass})
	}

	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		filter = append(filter, bson.E{Key: "price", Value: price})
	}

	reserved := bson.M{}
	if f.ReservedFrom != nil {
		reserved["$gte"] = *f.ReservedFrom
	}
	if f.ReservedTo != nil {
		reserved["$lte"] = *f.ReservedTo
	}
	if len(reserved) > 0 {
		filter = append(filter, bson.E{Key: "reservedAt", Value: reserved})
	}

	if f.PaymentMode != "" {
		filter = append(filter, bson.E{Key: "paymentMode", Value: f.PaymentMode})
	}
	if f.Status != "" {
		filter = append(filter, bson.E{Key: "status", Value: f.Status})
	}
	return filter
}

func (r *ticketRepo) FindByID(ctx context.Context, id string) (*models.Ticket, error) {
	var t models.Ticket
	if err := findByID(ctx, r.coll, id, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *ticketRepo) Find(ctx context.Context, f database.TicketFilter) ([]models.Ticket, error) {
	return find[models.Ticket](ctx, r.coll, ticketFilter(f), bson.D{{Key: "reservedAt", Value: 1}, {Key: "_id", Value: 1}})
}

func (r *ticketRepo) Count(ctx context.Context, f database.TicketFilter) (int, error) {
	n, err := r.coll.CountDocuments(ctx, ticketFilter(f), options.Count().SetCollation(caseInsensitive))
	if err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return int(n), nil
}

func (r *ticketRepo) Insert(ctx context.Context, t *models.Ticket) error {
	return insert(ctx, r.coll, t)
}

func (r *ticketRepo) Update(ctx context.Context, t *models.Ticket) error {
	return replace(ctx, r.coll, t.ID, t)
}

func (r *ticketRepo) Delete(ctx context.Context, id string) error {
	return remove(ctx, r.coll, id)
}

func (r *ticketRepo) TransitionStatus(ctx context.Context, id string, from, to models.TicketStatus) (*models.Ticket, error) {
	filter := bson.M{"_id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updatedAt": now()}}

	var t models.Ticket
	err := r.coll.FindOneAndUpdate(ctx, filter, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, conditionErr(ctx, r.coll, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to transition ticket: %w", err)
	}
	return &t, nil
}
