package services

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-marketplace/models"
)

// Actor identifies the caller of a service operation.
type Actor struct {
	Role string
	ID   primitive.ObjectID
}

// CanView reports whether the actor may read o.
func (a Actor) CanView(o *models.Order) bool {
	switch a.Role {
	case models.RoleAdmin:
		return true
	case models.RoleCustomer:
		return o.User.ID == a.ID
	case models.RoleSeller:
		return o.ShopID == a.ID
	case models.RoleDeliveryMan:
		return o.AssignedTo(a.ID) || (o.DeliveryMan == nil && o.Status.Assignable())
	}
	return false
}
