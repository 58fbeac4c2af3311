package controllers

import (
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-marketplace/services"
	"go-marketplace/utils"
)

// PaymentController handles online payments
type PaymentController struct {
	handler
	Payments *services.PaymentService
}

func NewPaymentController(payments *services.PaymentService, timeout time.Duration) *PaymentController {
	return &PaymentController{handler: handler{timeout: timeout}, Payments: payments}
}

type gatewayOrderRequest struct {
	OrderIDs []string `json:"orderIds" validate:"required,min=1"`
}

type verifyPaymentRequest struct {
	GatewayOrderID string   `json:"razorpay_order_id" validate:"required"`
	PaymentID      string   `json:"razorpay_payment_id" validate:"required"`
	Signature      string   `json:"razorpay_signature" validate:"required"`
	OrderIDs       []string `json:"orderIds"`
}

func parseOrderIDs(raw []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, r := range raw {
		id, err := services.ParseID(r, "order id")
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (pc *PaymentController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req gatewayOrderRequest
	if err := decode(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	ids, err := parseOrderIDs(req.OrderIDs)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := pc.context(r)
	defer cancel()

	order, err := pc.Payments.CreateGatewayOrder(ctx, p.User.ID, ids)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.M{
		"gatewayOrderId": order.ID,
		"amount":         order.Amount,
		"currency":       order.Currency,
		"keyId":          order.KeyID,
	})
}

func (pc *PaymentController) Verify(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req verifyPaymentRequest
	if err := decode(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	ids, err := parseOrderIDs(req.OrderIDs)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := pc.context(r)
	defer cancel()

	orders, err := pc.Payments.Verify(ctx, p.User.ID, services.VerifyInput{
		GatewayOrderID: req.GatewayOrderID,
		PaymentID:      req.PaymentID,
		Signature:      req.Signature,
		OrderIDs:       ids,
	})
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	views := make([]orderView, 0, len(orders))
	for i := range orders {
		views = append(views, viewOf(&orders[i], p))
	}
	utils.WriteJSON(w, http.StatusOK, utils.M{"message": "payment verified", "orders": views})
}
