package models

import "errors"

// Sentinel errors returned by stores.
var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrNoMatch              = errors.New("no document matched the update guard")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrUserNotFound         = errors.New("user not found")
	ErrShopNotFound         = errors.New("shop not found")
	ErrDeliveryManNotFound  = errors.New("delivery man not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrCartItemNotFound     = errors.New("cart item not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrDuplicate            = errors.New("duplicate key")
	ErrPaymentNotFound      = errors.New("payment intent not found")
	ErrWithdrawNotFound     = errors.New("withdraw request not found")
	ErrInsufficientBalance  = errors.New("insufficient balance")
)
