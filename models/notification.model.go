package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification event types.
const (
	EventOrderCreated    = "order_created"
	EventOrderAccepted   = "order_accepted"
	EventOrderAssigned   = "order_assigned"
	EventOrderCancelled  = "order_cancelled"
	EventOrderDelivered  = "order_delivered"
	EventStatusChanged   = "order_status_changed"
	EventRefundRequested = "refund_requested"
	EventRefundSucceeded = "refund_succeeded"
)

// Notification is an in-app record shown to a customer or seller
type Notification struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	UserID        primitive.ObjectID  `bson:"user" json:"user"`
	RecipientRole string              `bson:"recipientRole" json:"recipientRole"`
	Title         string              `bson:"title" json:"title"`
	Description   string              `bson:"description" json:"description"`
	Type          string              `bson:"type" json:"type"`
	OrderID       *primitive.ObjectID `bson:"orderId,omitempty" json:"orderId,omitempty"`
	ShopID        *primitive.ObjectID `bson:"shopId,omitempty" json:"shopId,omitempty"`
	Data          map[string]string   `bson:"data,omitempty" json:"data,omitempty"`
	IsRead        bool                `bson:"isRead" json:"isRead"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
}
