// Package store is the MongoDB persistence layer.
package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	OrdersCollection        = "orders"
	ProductsCollection      = "products"
	EventsCollection        = "events"
	CartsCollection         = "carts"
	UsersCollection         = "users"
	ShopsCollection         = "shops"
	DeliveryMenCollection   = "deliverymen"
	NotificationsCollection = "notifications"
	PaymentsCollection      = "payments"
	WithdrawsCollection     = "withdraws"
)

// Store implements every repository on one database
type Store struct {
	client       *mongo.Client
	db           *mongo.Database
	transactions bool

	orders        *mongo.Collection
	products      *mongo.Collection
	events        *mongo.Collection
	carts         *mongo.Collection
	users         *mongo.Collection
	shops         *mongo.Collection
	deliveryMen   *mongo.Collection
	notifications *mongo.Collection
	payments      *mongo.Collection
	withdraws     *mongo.Collection
}

// Connect dials uri, pings the server and returns a Store on database dbName.
func Connect(ctx context.Context, uri, dbName string, transactions bool) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connect to mongo")
	}
	if err = client.Ping(ctx, nil); err != nil {
		return nil, errors.Wrap(err, "ping mongo")
	}
	log.WithFields(log.Fields{"database": dbName, "transactions": transactions}).Info("Connected to MongoDB")
	return New(client, dbName, transactions), nil
}

// New wraps an existing client.
func New(client *mongo.Client, dbName string, transactions bool) *Store {
	db := client.Database(dbName)
	return &Store{
		client:        client,
		db:            db,
		transactions:  transactions,
		orders:        db.Collection(OrdersCollection),
		products:      db.Collection(ProductsCollection),
		events:        db.Collection(EventsCollection),
		carts:         db.Collection(CartsCollection),
		users:         db.Collection(UsersCollection),
		shops:         db.Collection(ShopsCollection),
		deliveryMen:   db.Collection(DeliveryMenCollection),
		notifications: db.Collection(NotificationsCollection),
		payments:      db.Collection(PaymentsCollection),
		withdraws:     db.Collection(WithdrawsCollection),
	}
}

// Disconnect closes the client.
func (s *Store) Disconnect(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// WithTransaction runs fn inside a session transaction when transactions are enabled.
// The session context passed to fn must be used for every write that belongs to it.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.transactions {
		return fn(ctx)
	}
	sess, err := s.client.StartSession()
	if err != nil {
		return errors.Wrap(err, "start session")
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func findOptions(skip, limit int) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if skip > 0 {
		opts.SetSkip(int64(skip))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return opts
}
