package store

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the queries rely on. It is safe to call on every start.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	specs := map[*mongo.Collection][]mongo.IndexModel{
		s.carts: {
			{
				Keys:    bson.D{{Key: "user", Value: 1}, {Key: "product", Value: 1}, {Key: "selectedVariation", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		s.shops: {
			{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		s.users: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		s.deliveryMen: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "isApproved", Value: 1}}},
		},
		s.orders: {
			{Keys: bson.D{{Key: "user._id", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "shop", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "deliveryMan", Value: 1}, {Key: "status", Value: 1}}},
		},
		s.notifications: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		s.payments: {
			{Keys: bson.D{{Key: "gatewayOrderId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		s.withdraws: {
			{Keys: bson.D{{Key: "seller", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}

	for coll, idx := range specs {
		names, err := coll.Indexes().CreateMany(ctx, idx)
		if err != nil {
			return errors.Wrapf(err, "create indexes on %s", coll.Name())
		}
		log.WithFields(log.Fields{"collection": coll.Name(), "indexes": names}).Debug("indexes ensured")
	}
	return nil
}
