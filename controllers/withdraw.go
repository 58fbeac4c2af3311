package controllers

import (
	"net/http"
	"time"

	"go-marketplace/services"
	"go-marketplace/utils"
)

// WithdrawController handles seller payout requests and their admin settlement
type WithdrawController struct {
	handler
	Withdraws *services.WithdrawService
}

func NewWithdrawController(withdraws *services.WithdrawService, timeout time.Duration) *WithdrawController {
	return &WithdrawController{handler: handler{timeout: timeout}, Withdraws: withdraws}
}

func writeWithdrawPage(w http.ResponseWriter, result *services.WithdrawPage) {
	utils.WriteJSON(w, http.StatusOK, utils.M{
		"withdraws":  result.Withdraws,
		"page":       result.Page,
		"limit":      result.Limit,
		"total":      result.Total,
		"totalPages": result.TotalPages,
	})
}

type withdrawRequest struct {
	Amount            float64 `json:"amount" validate:"required,gt=0"`
	BankName          string  `json:"bankName" validate:"required"`
	BankAccountNumber string  `json:"bankAccountNumber" validate:"required"`
	BankIfscCode      string  `json:"bankIfscCode" validate:"required,len=11"`
}

func (wc *WithdrawController) Create(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req withdrawRequest
	if err := decode(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := wc.context(r)
	defer cancel()

	wd, err := wc.Withdraws.Request(ctx, p.Shop.ID, services.WithdrawInput{
		Amount:            req.Amount,
		BankName:          req.BankName,
		BankAccountNumber: req.BankAccountNumber,
		BankIfscCode:      req.BankIfscCode,
	})
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.M{"withdraw": wd})
}

// Mine lists the seller's own requests.
func (wc *WithdrawController) Mine(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := wc.context(r)
	defer cancel()

	result, err := wc.Withdraws.List(ctx, &p.Shop.ID, page(r))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	writeWithdrawPage(w, result)
}

// All lists every shop's requests, newest first.
func (wc *WithdrawController) All(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := wc.context(r)
	defer cancel()

	result, err := wc.Withdraws.List(ctx, nil, page(r))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	writeWithdrawPage(w, result)
}

func (wc *WithdrawController) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := wc.context(r)
	defer cancel()

	wd, err := wc.Withdraws.Approve(ctx, id)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.M{"withdraw": wd})
}
