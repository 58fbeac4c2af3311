package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles carried in tokens and on user documents.
const (
	RoleCustomer    = "user"
	RoleAdmin       = "Admin"
	RoleSeller      = "Seller"
	RoleDeliveryMan = "DeliveryMan"
)

// User represents a customer or an admin
type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name          string             `bson:"name" json:"name"`
	Email         string             `bson:"email" json:"email"`
	Password      string             `bson:"password,omitempty" json:"-"`
	PhoneNumber   string             `bson:"phoneNumber" json:"phoneNumber"`
	Role          string             `bson:"role" json:"role"` // "user" or "Admin"
	ExpoPushToken string             `bson:"expoPushToken,omitempty" json:"-"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

// Snapshot captures the user fields copied onto an order at checkout.
func (u *User) Snapshot() UserSnapshot {
	return UserSnapshot{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
	}
}
