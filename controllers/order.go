package controllers

import (
	"net/http"
	"time"

	"go-marketplace/middleware"
	"go-marketplace/models"
	"go-marketplace/services"
	"go-marketplace/utils"
)

// OrderController handles checkout and order transitions
type OrderController struct {
	handler
	Orders *services.OrderService
}

func NewOrderController(orders *services.OrderService, timeout time.Duration) *OrderController {
	return &OrderController{handler: handler{timeout: timeout}, Orders: orders}
}

// orderView adds the delivery code for the customer who owns the order.
type orderView struct {
	models.Order
	OTP string `json:"otp,omitempty"`
}

func viewOf(o *models.Order, viewer *middleware.Principal) orderView {
	v := orderView{Order: *o}
	if viewer != nil && viewer.Role == models.RoleCustomer && viewer.ID() == o.User.ID {
		v.OTP = o.OTP
	}
	return v
}

func writeOrderPage(w http.ResponseWriter, result *services.OrderPage, viewer *middleware.Principal) {
	views := make([]orderView, 0, len(result.Orders))
	for i := range result.Orders {
		views = append(views, viewOf(&result.Orders[i], viewer))
	}
	utils.WriteJSON(w, http.StatusOK, utils.M{
		"orders":     views,
		"page":       result.Page,
		"limit":      result.Limit,
		"total":      result.Total,
		"totalPages": result.TotalPages,
	})
}

func writeOrder(w http.ResponseWriter, o *models.Order, viewer *middleware.Principal) {
	utils.WriteJSON(w, http.StatusOK, utils.M{"order": viewOf(o, viewer)})
}

type checkoutLine struct {
	ProductID string   `json:"productId" validate:"required"`
	ShopID    string   `json:"shopId"`
	Quantity  float64  `json:"quantity"`
	Price     float64  `json:"price"`
	Name      string   `json:"name"`
	Images    []string `json:"images"`
}

type checkoutLocation struct {
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	DeliveryAddress string   `json:"deliveryAddress"`
}

type checkoutRequest struct {
	Cart            []checkoutLine         `json:"cart" validate:"required,min=1,dive"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	TotalPrice      *float64               `json:"totalPrice"`
	PaymentInfo     models.PaymentInfo     `json:"paymentInfo"`
	UserLocation    *checkoutLocation      `json:"userLocation"`
}

func (req checkoutRequest) toService() (services.CheckoutRequest, error) {
	out := services.CheckoutRequest{
		Lines:           make([]services.CheckoutLine, 0, len(req.Cart)),
		ShippingAddress: req.ShippingAddress,
		TotalPrice:      req.TotalPrice,
		PaymentInfo:     req.PaymentInfo,
	}
	for _, l := range req.Cart {
		productID, err := services.ParseID(l.ProductID, "productId")
		if err != nil {
			return out, err
		}
		line := services.CheckoutLine{ProductID: productID, Price: l.Price, Name: l.Name, Images: l.Images}
		if l.ShopID != "" {
			if line.ShopID, err = services.ParseID(l.ShopID, "shopId"); err != nil {
				return out, err
			}
		}
		if line.Quantity, err = services.ValidateQuantity(l.Quantity); err != nil {
			return out, err
		}
		out.Lines = append(out.Lines, line)
	}
	if loc := req.UserLocation; loc != nil {
		if loc.Latitude == nil || loc.Longitude == nil {
			return out, invalidLocation()
		}
		out.UserLocation = &models.UserLocation{
			Latitude:        *loc.Latitude,
			Longitude:       *loc.Longitude,
			DeliveryAddress: loc.DeliveryAddress,
		}
	}
	return out, nil
}

// Create splits the submitted cart into one order per shop.
func (oc *OrderController) Create(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req checkoutRequest
	if err := decode(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	in, err := req.toService()
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := oc.context(r)
	defer cancel()

	result, err := oc.Orders.Checkout(ctx, p.User, in)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	views := make([]orderView, 0, len(result.Orders))
	for i := range result.Orders {
		views = append(views, viewOf(&result.Orders[i], p))
	}
	utils.WriteJSON(w, http.StatusCreated, utils.M{"orders": views, "otps": result.OTPs})
}

// Mine lists the customer's own orders
func (oc *OrderController) Mine(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := oc.context(r)
	defer cancel()

	userID := p.User.ID
	filter := models.OrderFilter{UserID: &userID, Status: models.OrderStatus(r.URL.Query().Get("status"))}
	result, err := oc.Orders.List(ctx, filter, page(r))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	writeOrderPage(w, result, p)
}

func (oc *OrderController) Get(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := oc.context(r)
	defer cancel()

	o, err := oc.Orders.Get(ctx, p.Actor(), id)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	writeOrder(w, o, p)
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatus is the seller's manual transition
func (oc *OrderController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req statusRequest
	if err := decode(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := oc.context(r)
	defer cancel()

	o, err := oc.Orders.UpdateStatus(ctx, p.Shop.ID, id, models.OrderStatus(req.Status))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	writeOrder(w, o, p)
}

type acceptRequest struct {
	DeliveryInstruction string `json:"deliveryInstruction" validate:"max=500"`
}

func (oc *OrderController) Accept(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req acceptRequest
	if r.ContentLength > 0 {
		if err := decode(r, &req); err != nil {
			utils.WriteError(w, err)
			return
		}
	}
	ctx, cancel := oc.context(r)
	defer cancel()

	o, err := oc.Orders.Accept(ctx, p.DeliveryMan.ID, id, req.DeliveryInstruction)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	writeOrder(w, o, p)
}

func (oc *OrderController) Ignore(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := oc.context(r)
	defer cancel()

	if _, err := oc.Orders.Ignore(ctx, p.DeliveryMan.ID, id); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.M{"message": "order ignored"})
}

type confirmRequest struct {
	OTP string `json:"otp" validate:"required"`
}

func (oc *OrderController) ConfirmDelivery(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req confirmRequest
	if err := decode(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := oc.context(r)
	defer cancel()

	o, err := oc.Orders.ConfirmDelivery(ctx, p.DeliveryMan.ID, id, req.OTP)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	writeOrder(w, o, p)
}

func (oc *OrderController) RequestRefund(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := oc.context(r)
	defer cancel()

	o, err := oc.Orders.RequestRefund(ctx, p.User.ID, id)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	writeOrder(w, o, p)
}

func (oc *OrderController) ApproveRefund(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := oc.context(r)
	defer cancel()

	o, err := oc.Orders.ApproveRefund(ctx, p.Shop.ID, id)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	writeOrder(w, o, p)
}
