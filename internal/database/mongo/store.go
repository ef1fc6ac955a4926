// Package mongo implements database.Store on MongoDB. Seat inventory is
// moved with a single conditional FindOneAndUpdate and transactions run in
// driver sessions, so a replica set is required.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cx-tal-miterani/airline-backoffice/internal/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const (
	aircraftCollection  = "aircraft"
	flightCollection    = "flights"
	passengerCollection = "passengers"
	ticketCollection    = "tickets"
)

// caseInsensitive makes string equality ignore case in filters
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

// Store handles all database operations
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens a client on uri and checks the deployment is reachable
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return NewStore(client, dbName), nil
}

// NewStore creates a new store on database dbName
func NewStore(client *mongo.Client, dbName string) *Store {
	return &Store{client: client, db: client.Database(dbName)}
}

// EnsureIndexes creates the collections' secondary indexes
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		flightCollection: {
			{Keys: bson.D{{Key: "aircraftId", Value: 1}, {Key: "departureTime", Value: 1}}},
		},
		ticketCollection: {
			{Keys: bson.D{{Key: "flightId", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "passengerId", Value: 1}}},
		},
		aircraftCollection: {
			{Keys: bson.D{{Key: "createdAt", Value: 1}}},
		},
		passengerCollection: {
			{Keys: bson.D{{Key: "registeredAt", Value: 1}}},
		},
	}
	for name, idx := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", name, err)
		}
	}
	return nil
}

func (s *Store) Aircraft() database.AircraftRepository {
	return &aircraftRepo{coll: s.db.Collection(aircraftCollection)}
}

func (s *Store) Flights() database.FlightRepository {
	return &flightRepo{coll: s.db.Collection(flightCollection)}
}

func (s *Store) Passengers() database.PassengerRepository {
	return &passengerRepo{coll: s.db.Collection(passengerCollection)}
}

func (s *Store) Tickets() database.TicketRepository {
	return &ticketRepo{coll: s.db.Collection(ticketCollection)}
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// WithinTransaction runs fn in a session transaction. The driver retries
// fn on transient write conflicts, which is how two transactions locking
// the same document serialize. Nested calls join the outer transaction.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(context.WithoutCancel(ctx))

	opts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, opts)
	return err
}

// lock bumps a version counter on the document so that any concurrent
// transaction touching it conflicts with this one.
func lock(ctx context.Context, coll *mongo.Collection, id string, out interface{}) error {
	res := coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"version": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	return decodeOne(res, out)
}

func findByID(ctx context.Context, coll *mongo.Collection, id string, out interface{}) error {
	return decodeOne(coll.FindOne(ctx, bson.M{"_id": id}), out)
}

func decodeOne(res *mongo.SingleResult, out interface{}) error {
	if err := res.Decode(out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return database.ErrNotFound
		}
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return nil
}

func find[T any](ctx context.Context, coll *mongo.Collection, filter bson.D, sort bson.D) ([]T, error) {
	opts := options.Find().SetSort(sort).SetCollation(caseInsensitive)
	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", coll.Name(), err)
	}
	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", coll.Name(), err)
	}
	return out, nil
}

func insert(ctx context.Context, coll *mongo.Collection, doc interface{}) error {
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return database.ErrDuplicate
		}
		return fmt.Errorf("failed to insert into %s: %w", coll.Name(), err)
	}
	return nil
}

func replace(ctx context.Context, coll *mongo.Collection, id string, doc interface{}) error {
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", coll.Name(), err)
	}
	if res.MatchedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}

func remove(ctx context.Context, coll *mongo.Collection, id string) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", coll.Name(), err)
	}
	if res.DeletedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}

// conditionErr tells a missing document apart from a failed predicate
// after a conditional update matched nothing.
func conditionErr(ctx context.Context, coll *mongo.Collection, id string) error {
	n, err := coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", coll.Name(), err)
	}
	if n == 0 {
		return database.ErrNotFound
	}
	return database.ErrConditionFailed
}

func now() time.Time {
	return time.Now().UTC()
}
