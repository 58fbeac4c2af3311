package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeliveryMan is a delivery partner account. Login is refused until an admin approves it.
type DeliveryMan struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name            string             `bson:"name" json:"name"`
	Email           string             `bson:"email" json:"email"`
	Password        string             `bson:"password,omitempty" json:"-"`
	PhoneNumber     string             `bson:"phoneNumber" json:"phoneNumber"`
	Address         string             `bson:"address" json:"address"`
	VehicleType     string             `bson:"vehicleType" json:"vehicleType"`
	VehicleNumber   string             `bson:"vehicleNumber" json:"vehicleNumber"`
	LicenseNumber   string             `bson:"licenseNumber" json:"licenseNumber"`
	IsApproved      bool               `bson:"isApproved" json:"isApproved"`
	IsActive        bool               `bson:"isActive" json:"isActive"`
	CurrentLocation *GeoPoint          `bson:"currentLocation,omitempty" json:"currentLocation,omitempty"`
	ExpoPushToken   string             `bson:"expoPushToken,omitempty" json:"-"`
	FCMToken        string             `bson:"fcmToken,omitempty" json:"-"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}
