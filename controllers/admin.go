package controllers

import (
	"net/http"
	"strconv"
	"time"

	"go-marketplace/models"
	"go-marketplace/services"
	"go-marketplace/utils"
)

// AdminController serves the platform-wide views
type AdminController struct {
	handler
	Accounts *services.AccountService
	Orders   *services.OrderService
}

func NewAdminController(accounts *services.AccountService, orders *services.OrderService, timeout time.Duration) *AdminController {
	return &AdminController{handler: handler{timeout: timeout}, Accounts: accounts, Orders: orders}
}

// ListOrders lists every order, optionally by ?status.
func (ac *AdminController) ListOrders(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := ac.context(r)
	defer cancel()

	filter := models.OrderFilter{Status: models.OrderStatus(r.URL.Query().Get("status"))}
	result, err := ac.Orders.List(ctx, filter, page(r))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	writeOrderPage(w, result, p)
}

// DeliveryMen lists delivery accounts, optionally by ?approved=true|false.
func (ac *AdminController) DeliveryMen(w http.ResponseWriter, r *http.Request) {
	var approved *bool
	if raw := r.URL.Query().Get("approved"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			utils.WriteError(w, invalid("approved must be true or false"))
			return
		}
		approved = &v
	}
	ctx, cancel := ac.context(r)
	defer cancel()

	result, err := ac.Accounts.ListDeliveryMen(ctx, approved, page(r))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.M{
		"deliveryMen": result.DeliveryMen,
		"page":        result.Page,
		"limit":       result.Limit,
		"total":       result.Total,
		"totalPages":  result.TotalPages,
	})
}

type approvalRequest struct {
	Approved *bool `json:"approved"`
}

// ApproveDeliveryMan sets isApproved; an empty body approves.
func (ac *AdminController) ApproveDeliveryMan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	approved := true
	if r.ContentLength > 0 {
		var req approvalRequest
		if err := decode(r, &req); err != nil {
			utils.WriteError(w, err)
			return
		}
		if req.Approved != nil {
			approved = *req.Approved
		}
	}
	ctx, cancel := ac.context(r)
	defer cancel()

	d, err := ac.Accounts.SetDeliveryManApproved(ctx, id, approved)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.M{"deliveryMan": d})
}

// RejectDeliveryMan deletes an account that was never approved.
func (ac *AdminController) RejectDeliveryMan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := ac.context(r)
	defer cancel()

	if err := ac.Accounts.RejectDeliveryMan(ctx, id); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.M{"message": "Delivery man rejected and removed successfully"})
}
