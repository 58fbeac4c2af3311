package store

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"go-marketplace/models"
)

func (s *Store) catalog(kind string) *mongo.Collection {
	if kind == models.KindEvent {
		return s.events
	}
	return s.products
}

// FindItem looks the id up in products first, then in events.
func (s *Store) FindItem(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	p, err := s.FindItemOfKind(ctx, models.KindProduct, id)
	if errors.Is(err, models.ErrProductNotFound) {
		return s.FindItemOfKind(ctx, models.KindEvent, id)
	}
	return p, err
}

func (s *Store) FindItemOfKind(ctx context.Context, kind string, id primitive.ObjectID) (*models.Product, error) {
	var p models.Product
	err := s.catalog(kind).FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrProductNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find %s", kind)
	}
	p.Kind = normalizeKind(kind)
	return &p, nil
}

// ReserveStock decrements stock only while it stays non-negative.
func (s *Store) ReserveStock(ctx context.Context, kind string, id primitive.ObjectID, qty int) error {
	res, err := s.catalog(kind).UpdateOne(ctx,
		bson.M{"_id": id, "stock": bson.M{"$gte": qty}},
		bson.M{"$inc": bson.M{"stock": -qty, "sold_out": qty}},
	)
	if err != nil {
		return errors.Wrap(err, "reserve stock")
	}
	if res.MatchedCount == 0 {
		return models.ErrInsufficientStock
	}
	return nil
}

func (s *Store) ReleaseStock(ctx context.Context, kind string, id primitive.ObjectID, qty int) error {
	res, err := s.catalog(kind).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"stock": qty, "sold_out": -qty}},
	)
	if err != nil {
		return errors.Wrap(err, "release stock")
	}
	if res.MatchedCount == 0 {
		return models.ErrProductNotFound
	}
	return nil
}

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	p.Kind = normalizeKind(p.Kind)
	if _, err := s.catalog(p.Kind).InsertOne(ctx, p); err != nil {
		return errors.Wrap(err, "insert product")
	}
	return nil
}

func (s *Store) ListProducts(ctx context.Context, kind string, shopID *primitive.ObjectID, page models.Page) ([]models.Product, int64, error) {
	q := bson.M{}
	if shopID != nil {
		q["shopId"] = *shopID
	}
	coll := s.catalog(kind)

	total, err := coll.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, errors.Wrap(err, "count products")
	}
	cursor, err := coll.Find(ctx, q, findOptions(page.Skip(), page.Limit))
	if err != nil {
		return nil, 0, errors.Wrap(err, "find products")
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err = cursor.All(ctx, &products); err != nil {
		return nil, 0, errors.Wrap(err, "decode products")
	}
	for i := range products {
		products[i].Kind = normalizeKind(kind)
	}
	return products, total, nil
}

func normalizeKind(kind string) string {
	if kind == models.KindEvent {
		return models.KindEvent
	}
	return models.KindProduct
}
