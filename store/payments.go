package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go-marketplace/models"
)

func (s *Store) InsertPaymentIntent(ctx context.Context, in *models.PaymentIntent) error {
	if in.ID.IsZero() {
		in.ID = primitive.NewObjectID()
	}
	return insertOne(ctx, s.payments, in)
}

func (s *Store) FindPaymentIntent(ctx context.Context, gatewayOrderID string) (*models.PaymentIntent, error) {
	var in models.PaymentIntent
	if err := findOne(ctx, s.payments, bson.M{"gatewayOrderId": gatewayOrderID}, &in, models.ErrPaymentNotFound); err != nil {
		return nil, err
	}
	return &in, nil
}

// ClaimPaymentIntent flips a created intent to paid in one findAndModify.
func (s *Store) ClaimPaymentIntent(ctx context.Context, gatewayOrderID, paymentID string, at time.Time) (*models.PaymentIntent, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var in models.PaymentIntent
	err := s.payments.FindOneAndUpdate(ctx,
		bson.M{"gatewayOrderId": gatewayOrderID, "status": models.IntentCreated},
		bson.M{"$set": bson.M{"status": models.IntentPaid, "paymentId": paymentID, "paidAt": at}},
		opts,
	).Decode(&in)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNoMatch
	}
	if err != nil {
		return nil, errors.Wrap(err, "claim payment intent")
	}
	return &in, nil
}
