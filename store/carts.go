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

// UpsertCartItem sets the quantity of the (user, product, variation) line, creating it if needed.
func (s *Store) UpsertCartItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	now := item.UpdatedAt
	if now.IsZero() {
		now = time.Now()
	}
	filter := bson.M{
		"user":              item.UserID,
		"product":           item.ProductID,
		"selectedVariation": item.SelectedVariation,
	}
	update := bson.M{
		"$set": bson.M{
			"quantity":    item.Quantity,
			"productType": item.ProductType,
			"updatedAt":   now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved models.CartItem
	if err := s.carts.FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved); err != nil {
		return nil, errors.Wrap(err, "upsert cart item")
	}
	return &saved, nil
}

func (s *Store) FindCartItem(ctx context.Context, userID, itemID primitive.ObjectID) (*models.CartItem, error) {
	var item models.CartItem
	err := s.carts.FindOne(ctx, bson.M{"_id": itemID, "user": userID}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrCartItemNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find cart item")
	}
	return &item, nil
}

func (s *Store) UpdateCartQuantity(ctx context.Context, userID, itemID primitive.ObjectID, qty int, at time.Time) (*models.CartItem, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var item models.CartItem
	err := s.carts.FindOneAndUpdate(ctx,
		bson.M{"_id": itemID, "user": userID},
		bson.M{"$set": bson.M{"quantity": qty, "updatedAt": at}},
		opts,
	).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrCartItemNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "update cart item")
	}
	return &item, nil
}

func (s *Store) DeleteCartItems(ctx context.Context, userID primitive.ObjectID, ids []primitive.ObjectID) (int64, error) {
	res, err := s.carts.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}, "user": userID})
	if err != nil {
		return 0, errors.Wrap(err, "delete cart items")
	}
	return res.DeletedCount, nil
}

func (s *Store) ListCartItems(ctx context.Context, userID primitive.ObjectID) ([]models.CartItem, error) {
	cursor, err := s.carts.Find(ctx, bson.M{"user": userID}, findOptions(0, 0))
	if err != nil {
		return nil, errors.Wrap(err, "find cart items")
	}
	defer cursor.Close(ctx)

	items := []models.CartItem{}
	if err = cursor.All(ctx, &items); err != nil {
		return nil, errors.Wrap(err, "decode cart items")
	}
	return items, nil
}

// RemoveCartProducts drops every line of the user's cart that references one of productIDs.
func (s *Store) RemoveCartProducts(ctx context.Context, userID primitive.ObjectID, productIDs []primitive.ObjectID) error {
	if len(productIDs) == 0 {
		return nil
	}
	_, err := s.carts.DeleteMany(ctx, bson.M{"user": userID, "product": bson.M{"$in": productIDs}})
	return errors.Wrap(err, "remove ordered products from cart")
}
