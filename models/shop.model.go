package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GeoPoint is a GeoJSON point; Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

// NewGeoPoint builds a Point from a latitude/longitude pair.
func NewGeoPoint(lat, lng float64) *GeoPoint {
	return &GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}

// LatLng returns the point as latitude, longitude. ok is false for malformed points.
func (p *GeoPoint) LatLng() (lat, lng float64, ok bool) {
	if p == nil || len(p.Coordinates) != 2 {
		return 0, 0, false
	}
	return p.Coordinates[1], p.Coordinates[0], true
}

// DeliveryRadius is the per-shop radius configuration.
type DeliveryRadius struct {
	Enabled      bool     `bson:"enabled" json:"enabled"`
	MaxRadius    float64  `bson:"maxRadius" json:"maxRadius"`
	CustomRadius *float64 `bson:"customRadius,omitempty" json:"customRadius,omitempty"`
}

// Shop is a seller account
type Shop struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name             string             `bson:"name" json:"name"`
	Email            string             `bson:"email" json:"email"`
	Password         string             `bson:"password,omitempty" json:"-"`
	Address          string             `bson:"address" json:"address"`
	PhoneNumber      string             `bson:"phoneNumber" json:"phoneNumber"`
	Location         *GeoPoint          `bson:"location,omitempty" json:"location,omitempty"`
	Role             string             `bson:"role" json:"role"`
	AvailableBalance float64            `bson:"availableBalance" json:"availableBalance"`
	DeliveryRadius   DeliveryRadius     `bson:"deliveryRadius" json:"deliveryRadius"`
	Transactions     []ShopTransaction  `bson:"transactions,omitempty" json:"transactions,omitempty"`
	ExpoPushToken    string             `bson:"expoPushToken,omitempty" json:"-"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
}

// RadiusOverride returns the shop-specific radius in km, or nil when the platform default applies.
func (s *Shop) RadiusOverride() *float64 {
	r := s.DeliveryRadius
	if r.CustomRadius != nil && *r.CustomRadius > 0 {
		v := *r.CustomRadius
		return &v
	}
	if r.Enabled && r.MaxRadius > 0 {
		v := r.MaxRadius
		return &v
	}
	return nil
}
