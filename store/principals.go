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

// findOne decodes the first match into out, translating a miss into notFound.
func findOne(ctx context.Context, coll *mongo.Collection, filter bson.M, out interface{}, notFound error) error {
	err := coll.FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notFound
	}
	return errors.Wrapf(err, "find in %s", coll.Name())
}

func insertOne(ctx context.Context, coll *mongo.Collection, doc interface{}) error {
	_, err := coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrDuplicate
	}
	return errors.Wrapf(err, "insert into %s", coll.Name())
}

func setField(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, set bson.M, notFound error) error {
	res, err := coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return errors.Wrapf(err, "update %s", coll.Name())
	}
	if res.MatchedCount == 0 {
		return notFound
	}
	return nil
}

// Users

func (s *Store) FindUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := findOne(ctx, s.users, bson.M{"_id": id}, &u, models.ErrUserNotFound); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := findOne(ctx, s.users, bson.M{"email": email}, &u, models.ErrUserNotFound); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) InsertUser(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	return insertOne(ctx, s.users, u)
}

func (s *Store) SetUserPushToken(ctx context.Context, id primitive.ObjectID, token string) error {
	return setField(ctx, s.users, id, bson.M{"expoPushToken": token}, models.ErrUserNotFound)
}

// Shops

func (s *Store) FindShop(ctx context.Context, id primitive.ObjectID) (*models.Shop, error) {
	var sh models.Shop
	if err := findOne(ctx, s.shops, bson.M{"_id": id}, &sh, models.ErrShopNotFound); err != nil {
		return nil, err
	}
	return &sh, nil
}

func (s *Store) FindShopByEmail(ctx context.Context, email string) (*models.Shop, error) {
	var sh models.Shop
	if err := findOne(ctx, s.shops, bson.M{"email": email}, &sh, models.ErrShopNotFound); err != nil {
		return nil, err
	}
	return &sh, nil
}

func (s *Store) InsertShop(ctx context.Context, sh *models.Shop) error {
	if sh.ID.IsZero() {
		sh.ID = primitive.NewObjectID()
	}
	return insertOne(ctx, s.shops, sh)
}

func (s *Store) ListShops(ctx context.Context, limit int) ([]models.Shop, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := s.shops.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find shops")
	}
	defer cursor.Close(ctx)

	shops := []models.Shop{}
	if err = cursor.All(ctx, &shops); err != nil {
		return nil, errors.Wrap(err, "decode shops")
	}
	return shops, nil
}

// CreditShopBalance adds amount to the shop's available balance.
func (s *Store) CreditShopBalance(ctx context.Context, id primitive.ObjectID, amount float64) error {
	res, err := s.shops.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"availableBalance": amount}})
	if err != nil {
		return errors.Wrap(err, "credit shop balance")
	}
	if res.MatchedCount == 0 {
		return models.ErrShopNotFound
	}
	return nil
}

// DebitShopBalance decrements the balance in one write whose filter requires it to cover amount.
func (s *Store) DebitShopBalance(ctx context.Context, id primitive.ObjectID, amount float64) error {
	res, err := s.shops.UpdateOne(ctx,
		bson.M{"_id": id, "availableBalance": bson.M{"$gte": amount}},
		bson.M{"$inc": bson.M{"availableBalance": -amount}},
	)
	if err != nil {
		return errors.Wrap(err, "debit shop balance")
	}
	if res.MatchedCount > 0 {
		return nil
	}
	if _, err := s.FindShop(ctx, id); err != nil {
		return err
	}
	return models.ErrInsufficientBalance
}

func (s *Store) AddShopTransaction(ctx context.Context, id primitive.ObjectID, tx models.ShopTransaction) error {
	res, err := s.shops.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$push": bson.M{"transactions": tx}})
	if err != nil {
		return errors.Wrap(err, "add shop transaction")
	}
	if res.MatchedCount == 0 {
		return models.ErrShopNotFound
	}
	return nil
}

func (s *Store) SetShopPushToken(ctx context.Context, id primitive.ObjectID, token string) error {
	return setField(ctx, s.shops, id, bson.M{"expoPushToken": token}, models.ErrShopNotFound)
}

// Delivery men

func (s *Store) FindDeliveryMan(ctx context.Context, id primitive.ObjectID) (*models.DeliveryMan, error) {
	var d models.DeliveryMan
	if err := findOne(ctx, s.deliveryMen, bson.M{"_id": id}, &d, models.ErrDeliveryManNotFound); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Store) FindDeliveryManByEmail(ctx context.Context, email string) (*models.DeliveryMan, error) {
	var d models.DeliveryMan
	if err := findOne(ctx, s.deliveryMen, bson.M{"email": email}, &d, models.ErrDeliveryManNotFound); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Store) InsertDeliveryMan(ctx context.Context, d *models.DeliveryMan) error {
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	return insertOne(ctx, s.deliveryMen, d)
}

func (s *Store) SetDeliveryManApproved(ctx context.Context, id primitive.ObjectID, approved bool) (*models.DeliveryMan, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var d models.DeliveryMan
	err := s.deliveryMen.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"isApproved": approved, "isActive": approved}},
		opts,
	).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrDeliveryManNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "approve delivery man")
	}
	return &d, nil
}

func (s *Store) DeleteUnapprovedDeliveryMan(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.deliveryMen.DeleteOne(ctx, bson.M{"_id": id, "isApproved": bson.M{"$ne": true}})
	if err != nil {
		return errors.Wrap(err, "delete delivery man")
	}
	if res.DeletedCount > 0 {
		return nil
	}
	if _, err := s.FindDeliveryMan(ctx, id); err != nil {
		return err
	}
	return models.ErrNoMatch
}

func (s *Store) UpdateDeliveryManLocation(ctx context.Context, id primitive.ObjectID, loc *models.GeoPoint) error {
	return setField(ctx, s.deliveryMen, id, bson.M{"currentLocation": loc}, models.ErrDeliveryManNotFound)
}

func (s *Store) SetDeliveryManPushToken(ctx context.Context, id primitive.ObjectID, token string) error {
	return setField(ctx, s.deliveryMen, id, bson.M{"expoPushToken": token}, models.ErrDeliveryManNotFound)
}

func (s *Store) ListDeliveryMen(ctx context.Context, approved *bool, page models.Page) ([]models.DeliveryMan, int64, error) {
	q := bson.M{}
	if approved != nil {
		q["isApproved"] = *approved
	}
	total, err := s.deliveryMen.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, errors.Wrap(err, "count delivery men")
	}
	cursor, err := s.deliveryMen.Find(ctx, q, findOptions(page.Skip(), page.Limit))
	if err != nil {
		return nil, 0, errors.Wrap(err, "find delivery men")
	}
	defer cursor.Close(ctx)

	out := []models.DeliveryMan{}
	if err = cursor.All(ctx, &out); err != nil {
		return nil, 0, errors.Wrap(err, "decode delivery men")
	}
	return out, total, nil
}

// ListApprovedPushTokens returns push tokens of approved delivery men, at most limit of them.
func (s *Store) ListApprovedPushTokens(ctx context.Context, limit int) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.M{"expoPushToken": 1}).
		SetLimit(int64(limit))
	cursor, err := s.deliveryMen.Find(ctx,
		bson.M{"isApproved": true, "expoPushToken": bson.M{"$nin": bson.A{nil, ""}}},
		opts,
	)
	if err != nil {
		return nil, errors.Wrap(err, "find delivery push tokens")
	}
	defer cursor.Close(ctx)

	var tokens []string
	for cursor.Next(ctx) {
		var d models.DeliveryMan
		if err := cursor.Decode(&d); err != nil {
			return nil, errors.Wrap(err, "decode delivery man")
		}
		tokens = append(tokens, d.ExpoPushToken)
	}
	return tokens, errors.Wrap(cursor.Err(), "iterate delivery men")
}
