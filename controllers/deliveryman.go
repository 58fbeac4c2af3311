package controllers

import (
	"net/http"
	"time"

	"go-marketplace/middleware"
	"go-marketplace/models"
	"go-marketplace/services"
	"go-marketplace/utils"
)

// DeliveryManController handles delivery accounts and their order queues
type DeliveryManController struct {
	handler
	Accounts *services.AccountService
	Orders   *services.OrderService
}

func NewDeliveryManController(accounts *services.AccountService, orders *services.OrderService, timeout time.Duration) *DeliveryManController {
	return &DeliveryManController{handler: handler{timeout: timeout}, Accounts: accounts, Orders: orders}
}

type deliveryRegisterRequest struct {
	Name          string `json:"name" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=6"`
	PhoneNumber   string `json:"phoneNumber" validate:"required"`
	Address       string `json:"address"`
	VehicleType   string `json:"vehicleType"`
	VehicleNumber string `json:"vehicleNumber"`
	LicenseNumber string `json:"licenseNumber"`
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required"`
	Longitude *float64 `json:"longitude" validate:"required"`
}

// Register stores the account unapproved. No token until an admin approves it.
func (dc *DeliveryManController) Register(w http.ResponseWriter, r *http.Request) {
	var req deliveryRegisterRequest
	if err := decode(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := dc.context(r)
	defer cancel()

	d, err := dc.Accounts.RegisterDeliveryMan(ctx, services.RegisterDeliveryManInput{
		Name:          req.Name,
		Email:         req.Email,
		Password:      req.Password,
		PhoneNumber:   req.PhoneNumber,
		Address:       req.Address,
		VehicleType:   req.VehicleType,
		VehicleNumber: req.VehicleNumber,
		LicenseNumber: req.LicenseNumber,
	})
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.M{
		"message":     "registration received, waiting for admin approval",
		"deliveryMan": d,
	})
}

func (dc *DeliveryManController) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := dc.context(r)
	defer cancel()

	session, err := dc.Accounts.LoginDeliveryMan(ctx, req.Email, req.Password)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.M{"token": session.Token, "deliveryMan": session.Account})
}

func (dc *DeliveryManController) Me(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.M{"deliveryMan": p.DeliveryMan})
}

func (dc *DeliveryManController) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req locationRequest
	if err := decode(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := dc.context(r)
	defer cancel()

	if err := dc.Accounts.UpdateDeliveryLocation(ctx, p.DeliveryMan.ID, *req.Latitude, *req.Longitude); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.M{"message": "location updated"})
}

// Available lists open orders the caller has not ignored.
func (dc *DeliveryManController) Available(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	id := p.DeliveryMan.ID
	dc.list(w, r, p, models.OrderFilter{AvailableFor: &id})
}

// History lists orders assigned to the caller, optionally by ?status.
func (dc *DeliveryManController) History(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	id := p.DeliveryMan.ID
	dc.list(w, r, p, models.OrderFilter{DeliveryMan: &id, Status: models.OrderStatus(r.URL.Query().Get("status"))})
}

func (dc *DeliveryManController) list(w http.ResponseWriter, r *http.Request, p *middleware.Principal, filter models.OrderFilter) {
	ctx, cancel := dc.context(r)
	defer cancel()

	result, err := dc.Orders.List(ctx, filter, page(r))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	writeOrderPage(w, result, p)
}
