package store

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go-marketplace/models"
)

// InsertOrders writes all orders in one batch and fills their ids.
func (s *Store) InsertOrders(ctx context.Context, orders []*models.Order) error {
	docs := make([]interface{}, len(orders))
	for i, o := range orders {
		if o.ID.IsZero() {
			o.ID = primitive.NewObjectID()
		}
		// $addToSet needs an array, not null
		if o.IgnoredBy == nil {
			o.IgnoredBy = []primitive.ObjectID{}
		}
		docs[i] = o
	}
	if _, err := s.orders.InsertMany(ctx, docs); err != nil {
		return errors.Wrap(err, "insert orders")
	}
	return nil
}

func (s *Store) FindOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var o models.Order
	err := s.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrOrderNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find order")
	}
	return &o, nil
}

// UpdateOrderIf runs a single findAndModify whose filter encodes guard.
func (s *Store) UpdateOrderIf(ctx context.Context, id primitive.ObjectID, guard models.OrderGuard, change models.OrderChange) (*models.Order, error) {
	filter := guardFilter(id, guard)
	update := changeUpdate(change)

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var o models.Order
	err := s.orders.FindOneAndUpdate(ctx, filter, update, opts).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNoMatch
	}
	if err != nil {
		return nil, errors.Wrap(err, "update order")
	}
	return &o, nil
}

func (s *Store) ListOrders(ctx context.Context, filter models.OrderFilter, page models.Page) ([]models.Order, int64, error) {
	q := orderFilter(filter)

	total, err := s.orders.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, errors.Wrap(err, "count orders")
	}

	cursor, err := s.orders.Find(ctx, q, findOptions(page.Skip(), page.Limit))
	if err != nil {
		return nil, 0, errors.Wrap(err, "find orders")
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err = cursor.All(ctx, &orders); err != nil {
		return nil, 0, errors.Wrap(err, "decode orders")
	}
	return orders, total, nil
}

func guardFilter(id primitive.ObjectID, g models.OrderGuard) bson.M {
	filter := bson.M{"_id": id}
	if len(g.Statuses) > 0 {
		filter["status"] = bson.M{"$in": g.Statuses}
	}
	if g.UserID != nil {
		filter["user._id"] = *g.UserID
	}
	if g.ShopID != nil {
		filter["shop"] = *g.ShopID
	}
	if g.DeliveryMan != nil {
		filter["deliveryMan"] = *g.DeliveryMan
	}
	if g.Unassigned {
		filter["deliveryMan"] = nil
	}
	if g.NotIgnoredBy != nil {
		filter["ignoredBy"] = bson.M{"$ne": *g.NotIgnoredBy}
	}
	if g.OTP != "" {
		filter["otp"] = g.OTP
	}
	if g.OTPAttemptsBelow > 0 {
		filter["otpAttempts"] = bson.M{"$lt": g.OTPAttemptsBelow}
	}
	if g.PaymentStatus != "" {
		filter["paymentInfo.status"] = g.PaymentStatus
	}
	if g.OnlinePayment {
		filter["paymentInfo.type"] = bson.M{"$exists": true, "$nin": bson.A{models.PaymentTypeCOD, ""}}
	}
	if g.LineNotRestocked != nil {
		line := "cart." + strconv.Itoa(*g.LineNotRestocked)
		filter[line] = bson.M{"$exists": true}
		filter[line+".restocked"] = bson.M{"$ne": true}
	}
	if g.NotCredited {
		filter["sellerCredited"] = bson.M{"$ne": true}
	}
	return filter
}

func changeUpdate(c models.OrderChange) bson.M {
	set := bson.M{}
	if c.Status != nil {
		set["status"] = *c.Status
	}
	if c.DeliveryMan != nil {
		set["deliveryMan"] = *c.DeliveryMan
	}
	if c.DeliveryInstruction != nil {
		set["deliveryInstruction"] = *c.DeliveryInstruction
	}
	if c.AcceptedAt != nil {
		set["acceptedAt"] = *c.AcceptedAt
	}
	if c.DeliveredAt != nil {
		set["deliveredAt"] = *c.DeliveredAt
	}
	if c.PaymentStatus != "" {
		set["paymentInfo.status"] = c.PaymentStatus
	}
	if c.PaymentID != "" {
		set["paymentInfo.id"] = c.PaymentID
	}
	if c.GatewayOrderID != "" {
		set["paymentInfo.gatewayOrderId"] = c.GatewayOrderID
	}
	if c.PaidAt != nil {
		set["paymentInfo.paidAt"] = *c.PaidAt
	}
	if c.Restock != nil {
		set["cart."+strconv.Itoa(c.Restock.Index)+".restocked"] = c.Restock.Restocked
	}
	if c.SellerCredited != nil {
		set["sellerCredited"] = *c.SellerCredited
	}
	if !c.UpdatedAt.IsZero() {
		set["updatedAt"] = c.UpdatedAt
	}

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if c.AddIgnoredBy != nil {
		update["$addToSet"] = bson.M{"ignoredBy": *c.AddIgnoredBy}
	}
	if c.IncOTPAttempts {
		update["$inc"] = bson.M{"otpAttempts": 1}
	}
	if c.ClearOTP {
		update["$unset"] = bson.M{"otp": ""}
	}
	return update
}

func orderFilter(f models.OrderFilter) bson.M {
	q := bson.M{}
	if f.UserID != nil {
		q["user._id"] = *f.UserID
	}
	if f.ShopID != nil {
		q["shop"] = *f.ShopID
	}
	if f.DeliveryMan != nil {
		q["deliveryMan"] = *f.DeliveryMan
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.AvailableFor != nil {
		q["deliveryMan"] = nil
		q["ignoredBy"] = bson.M{"$ne": *f.AvailableFor}
		if f.Status == "" {
			q["status"] = bson.M{"$in": models.AssignableStatuses}
		}
	}
	return q
}
