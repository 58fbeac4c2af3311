package store

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go-marketplace/models"
)

func (s *Store) InsertNotifications(ctx context.Context, ns []*models.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	docs := make([]interface{}, len(ns))
	for i, n := range ns {
		if n.ID.IsZero() {
			n.ID = primitive.NewObjectID()
		}
		docs[i] = n
	}
	_, err := s.notifications.InsertMany(ctx, docs)
	return errors.Wrap(err, "insert notifications")
}

func (s *Store) ListNotifications(ctx context.Context, userID primitive.ObjectID, page models.Page) ([]models.Notification, int64, error) {
	q := bson.M{"user": userID}
	total, err := s.notifications.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, errors.Wrap(err, "count notifications")
	}
	cursor, err := s.notifications.Find(ctx, q, findOptions(page.Skip(), page.Limit))
	if err != nil {
		return nil, 0, errors.Wrap(err, "find notifications")
	}
	defer cursor.Close(ctx)

	out := []models.Notification{}
	if err = cursor.All(ctx, &out); err != nil {
		return nil, 0, errors.Wrap(err, "decode notifications")
	}
	return out, total, nil
}

func (s *Store) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	n, err := s.notifications.CountDocuments(ctx, bson.M{"user": userID, "isRead": false})
	return n, errors.Wrap(err, "count unread notifications")
}

func (s *Store) MarkNotificationRead(ctx context.Context, userID, id primitive.ObjectID) (*models.Notification, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var n models.Notification
	err := s.notifications.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "user": userID},
		bson.M{"$set": bson.M{"isRead": true}},
		opts,
	).Decode(&n)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotificationNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "mark notification read")
	}
	return &n, nil
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.notifications.UpdateMany(ctx,
		bson.M{"user": userID, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true}},
	)
	if err != nil {
		return 0, errors.Wrap(err, "mark all notifications read")
	}
	return res.ModifiedCount, nil
}

func (s *Store) DeleteNotification(ctx context.Context, userID, id primitive.ObjectID) error {
	res, err := s.notifications.DeleteOne(ctx, bson.M{"_id": id, "user": userID})
	if err != nil {
		return errors.Wrap(err, "delete notification")
	}
	if res.DeletedCount == 0 {
		return models.ErrNotificationNotFound
	}
	return nil
}

func (s *Store) DeleteAllNotifications(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.notifications.DeleteMany(ctx, bson.M{"user": userID})
	if err != nil {
		return 0, errors.Wrap(err, "delete notifications")
	}
	return res.DeletedCount, nil
}
