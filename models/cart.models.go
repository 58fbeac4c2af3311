package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem is one staged line; unique per (user, product, selectedVariation).
type CartItem struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID            primitive.ObjectID `bson:"user" json:"user"`
	ProductID         primitive.ObjectID `bson:"product" json:"product"`
	ProductType       string             `bson:"productType" json:"productType"`
	Quantity          int                `bson:"quantity" json:"quantity"`
	SelectedVariation string             `bson:"selectedVariation" json:"selectedVariation,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}
