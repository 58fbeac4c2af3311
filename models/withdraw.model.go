package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Withdraw statuses.
const (
	WithdrawProcessing = "Processing"
	WithdrawSucceeded  = "Succeeded"
)

// Withdraw is a seller's request to pay out part of the available balance.
// The amount leaves the balance when the request is created.
type Withdraw struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ShopID            primitive.ObjectID `bson:"seller" json:"seller"`
	Amount            float64            `bson:"amount" json:"amount"`
	BankName          string             `bson:"bankName" json:"bankName"`
	BankAccountNumber string             `bson:"bankAccountNumber" json:"bankAccountNumber"`
	BankIfscCode      string             `bson:"bankIfscCode" json:"bankIfscCode"`
	Status            string             `bson:"status" json:"status"`
	TransactionID     string             `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ShopTransaction records a completed payout on the shop.
type ShopTransaction struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Amount    float64            `bson:"amount" json:"amount"`
	Status    string             `bson:"status" json:"status"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
