package controllers

import (
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-marketplace/services"
	"go-marketplace/utils"
)

// DeliveryController answers availability questions before checkout
type DeliveryController struct {
	handler
	Delivery *services.DeliveryService
}

func NewDeliveryController(delivery *services.DeliveryService, timeout time.Duration) *DeliveryController {
	return &DeliveryController{handler: handler{timeout: timeout}, Delivery: delivery}
}

// CheckAvailability evaluates ?shopId, or the first 20 shops when absent.
func (dc *DeliveryController) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	lat, lng, err := coordinates(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var shopID *primitive.ObjectID
	if raw := r.URL.Query().Get("shopId"); raw != "" {
		id, err := services.ParseID(raw, "shopId")
		if err != nil {
			utils.WriteError(w, err)
			return
		}
		shopID = &id
	}
	ctx, cancel := dc.context(r)
	defer cancel()

	result, err := dc.Delivery.CheckAvailability(ctx, lat, lng, shopID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.M{
		"deliveryChecks":   result.Checks,
		"availableShops":   result.AvailableShops,
		"unavailableShops": result.UnavailableShops,
		"inServiceArea":    result.InServiceArea,
	})
}

func (dc *DeliveryController) CheckProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "productId")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	lat, lng, err := coordinates(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := dc.context(r)
	defer cancel()

	result, err := dc.Delivery.CheckProduct(ctx, id, lat, lng)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.M{
		"product":  result.Product,
		"shopId":   result.ShopID,
		"eligible": result.Eligible,
		"distance": result.DistanceKm,
		"reason":   result.Reason,
		"message":  result.Message,
	})
}
