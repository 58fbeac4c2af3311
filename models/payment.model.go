package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment types and statuses recorded on orders.
const (
	PaymentTypeCOD = "COD"

	PaymentPending   = "Pending"
	PaymentSucceeded = "Succeeded"
)

// PaymentInfo is the payment state embedded in an order
type PaymentInfo struct {
	ID             string     `bson:"id,omitempty" json:"id,omitempty"`
	Status         string     `bson:"status" json:"status"`
	Type           string     `bson:"type" json:"type"`
	GatewayOrderID string     `bson:"gatewayOrderId,omitempty" json:"gatewayOrderId,omitempty"`
	PaidAt         *time.Time `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
}

// IsCOD reports whether the order is paid in cash on delivery.
func (p PaymentInfo) IsCOD() bool {
	return p.Type == PaymentTypeCOD || p.Type == ""
}

// Payment intent statuses.
const (
	IntentCreated = "created"
	IntentPaid    = "paid"
)

// PaymentIntent binds a gateway order to the orders it pays for and to the
// amount quoted to the gateway. A gateway order id can settle orders once.
type PaymentIntent struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id,omitempty"`
	GatewayOrderID string               `bson:"gatewayOrderId" json:"gatewayOrderId"`
	UserID         primitive.ObjectID   `bson:"user" json:"user"`
	OrderIDs       []primitive.ObjectID `bson:"orders" json:"orders"`
	Amount         int64                `bson:"amount" json:"amount"`
	Currency       string               `bson:"currency" json:"currency"`
	Status         string               `bson:"status" json:"status"`
	PaymentID      string               `bson:"paymentId,omitempty" json:"paymentId,omitempty"`
	CreatedAt      time.Time            `bson:"createdAt" json:"createdAt"`
	PaidAt         *time.Time           `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
}
