package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Catalog universes. Flash-sale items live in their own collection.
const (
	KindProduct = "Product"
	KindEvent   = "Event"
)

// Product is a catalog item; events share the same shape.
type Product struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Kind          string             `bson:"-" json:"kind"`
	Name          string             `bson:"name" json:"name"`
	Description   string             `bson:"description" json:"description"`
	ShopID        primitive.ObjectID `bson:"shopId" json:"shopId"`
	OriginalPrice float64            `bson:"originalPrice" json:"originalPrice"`
	DiscountPrice float64            `bson:"discountPrice" json:"discountPrice"`
	Stock         int                `bson:"stock" json:"stock"`
	SoldOut       int                `bson:"sold_out" json:"sold_out"`
	Images        []string           `bson:"images" json:"images"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

// UnitPrice is the price a customer pays.
func (p *Product) UnitPrice() float64 {
	return p.DiscountPrice
}

// ListPrice is the pre-discount price, defaulting to the unit price when unset.
func (p *Product) ListPrice() float64 {
	if p.OriginalPrice > 0 {
		return p.OriginalPrice
	}
	return p.DiscountPrice
}
