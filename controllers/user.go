package controllers

import (
	"net/http"
	"time"

	"go-marketplace/services"
	"go-marketplace/utils"
)

// UserController handles customer accounts
type UserController struct {
	handler
	Accounts *services.AccountService
}

func NewUserController(accounts *services.AccountService, timeout time.Duration) *UserController {
	return &UserController{handler: handler{timeout: timeout}, Accounts: accounts}
}

type registerRequest struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	PhoneNumber string `json:"phoneNumber"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type pushTokenRequest struct {
	Token string `json:"expoPushToken" validate:"required"`
}

// Register handles customer registration
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := uc.context(r)
	defer cancel()

	session, err := uc.Accounts.RegisterUser(ctx, services.RegisterUserInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.M{"token": session.Token, "user": session.Account})
}

// Login authenticates customers and admins
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := uc.context(r)
	defer cancel()

	session, err := uc.Accounts.LoginUser(ctx, req.Email, req.Password)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.M{"token": session.Token, "role": session.Role, "user": session.Account})
}

// Me returns the authenticated customer
func (uc *UserController) Me(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.M{"user": p.User})
}

// SetPushToken stores the caller's Expo push token. Shared by every role.
func (uc *UserController) SetPushToken(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req pushTokenRequest
	if err := decode(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := uc.context(r)
	defer cancel()

	if err := uc.Accounts.SetPushToken(ctx, p.Actor(), req.Token); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.M{"message": "push token saved"})
}
