package controllers

import (
	"net/http"
	"time"

	"go-marketplace/models"
	"go-marketplace/services"
	"go-marketplace/utils"
)

// ShopController handles seller accounts and the seller's order views
type ShopController struct {
	handler
	Accounts *services.AccountService
	Orders   *services.OrderService
}

func NewShopController(accounts *services.AccountService, orders *services.OrderService, timeout time.Duration) *ShopController {
	return &ShopController{handler: handler{timeout: timeout}, Accounts: accounts, Orders: orders}
}

type shopRegisterRequest struct {
	Name           string                `json:"name" validate:"required"`
	Email          string                `json:"email" validate:"required,email"`
	Password       string                `json:"password" validate:"required,min=6"`
	Address        string                `json:"address"`
	PhoneNumber    string                `json:"phoneNumber"`
	Latitude       *float64              `json:"latitude" validate:"required_with=Longitude"`
	Longitude      *float64              `json:"longitude" validate:"required_with=Latitude"`
	DeliveryRadius models.DeliveryRadius `json:"deliveryRadius"`
}

func (sc *ShopController) Register(w http.ResponseWriter, r *http.Request) {
	var req shopRegisterRequest
	if err := decode(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := sc.context(r)
	defer cancel()

	session, err := sc.Accounts.RegisterShop(ctx, services.RegisterShopInput{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		Address:        req.Address,
		PhoneNumber:    req.PhoneNumber,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		DeliveryRadius: req.DeliveryRadius,
	})
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.M{"token": session.Token, "shop": session.Account})
}

func (sc *ShopController) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := sc.context(r)
	defer cancel()

	session, err := sc.Accounts.LoginShop(ctx, req.Email, req.Password)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.M{"token": session.Token, "shop": session.Account})
}

func (sc *ShopController) Me(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.M{"shop": p.Shop})
}

// ListOrders lists the seller's orders, newest first, optionally by ?status.
func (sc *ShopController) ListOrders(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := sc.context(r)
	defer cancel()

	shopID := p.Shop.ID
	filter := models.OrderFilter{ShopID: &shopID, Status: models.OrderStatus(r.URL.Query().Get("status"))}
	result, err := sc.Orders.List(ctx, filter, page(r))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	writeOrderPage(w, result, p)
}
