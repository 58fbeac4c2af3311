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

func (s *Store) InsertWithdraw(ctx context.Context, w *models.Withdraw) error {
	if w.ID.IsZero() {
		w.ID = primitive.NewObjectID()
	}
	return insertOne(ctx, s.withdraws, w)
}

func (s *Store) FindWithdraw(ctx context.Context, id primitive.ObjectID) (*models.Withdraw, error) {
	var w models.Withdraw
	if err := findOne(ctx, s.withdraws, bson.M{"_id": id}, &w, models.ErrWithdrawNotFound); err != nil {
		return nil, err
	}
	return &w, nil
}

// ListWithdraws pages requests newest first, all shops when shopID is nil.
func (s *Store) ListWithdraws(ctx context.Context, shopID *primitive.ObjectID, page models.Page) ([]models.Withdraw, int64, error) {
	q := bson.M{}
	if shopID != nil {
		q["seller"] = *shopID
	}
	total, err := s.withdraws.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, errors.Wrap(err, "count withdraws")
	}
	cursor, err := s.withdraws.Find(ctx, q, findOptions(page.Skip(), page.Limit))
	if err != nil {
		return nil, 0, errors.Wrap(err, "find withdraws")
	}
	defer cursor.Close(ctx)

	out := []models.Withdraw{}
	if err = cursor.All(ctx, &out); err != nil {
		return nil, 0, errors.Wrap(err, "decode withdraws")
	}
	return out, total, nil
}

func (s *Store) CompleteWithdraw(ctx context.Context, id primitive.ObjectID, transactionID string, at time.Time) (*models.Withdraw, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var w models.Withdraw
	err := s.withdraws.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.WithdrawProcessing},
		bson.M{"$set": bson.M{"status": models.WithdrawSucceeded, "transactionId": transactionID, "updatedAt": at}},
		opts,
	).Decode(&w)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNoMatch
	}
	if err != nil {
		return nil, errors.Wrap(err, "complete withdraw")
	}
	return &w, nil
}
