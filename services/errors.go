package services

import (
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-marketplace/apperr"
	"go-marketplace/models"
)

// translate maps store sentinels to API errors. Anything unknown becomes Internal.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, models.ErrOrderNotFound):
		return apperr.NotFoundf("order not found")
	case errors.Is(err, models.ErrUserNotFound):
		return apperr.NotFoundf("user not found")
	case errors.Is(err, models.ErrShopNotFound):
		return apperr.NotFoundf("shop not found")
	case errors.Is(err, models.ErrDeliveryManNotFound):
		return apperr.NotFoundf("delivery man not found")
	case errors.Is(err, models.ErrProductNotFound):
		return apperr.NotFoundf("product not found")
	case errors.Is(err, models.ErrCartItemNotFound):
		return apperr.NotFoundf("cart item not found")
	case errors.Is(err, models.ErrNotificationNotFound):
		return apperr.NotFoundf("notification not found")
	case errors.Is(err, models.ErrPaymentNotFound):
		return apperr.NotFoundf("payment not found")
	case errors.Is(err, models.ErrWithdrawNotFound):
		return apperr.NotFoundf("withdraw request not found")
	case errors.Is(err, models.ErrInsufficientBalance):
		return apperr.New(apperr.Validation, apperr.CodeInsufficientBalance, "amount exceeds the available balance")
	case errors.Is(err, models.ErrInsufficientStock):
		return apperr.New(apperr.Conflict, apperr.CodeOutOfStock, "insufficient stock")
	case errors.Is(err, models.ErrDuplicate):
		return apperr.New(apperr.Conflict, apperr.CodeDuplicate, "account already exists")
	}
	return apperr.Wrap(err, op)
}

// ParseID parses a hex ObjectID, reporting what as the offending field.
func ParseID(hex, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, apperr.Invalid("invalid " + what)
	}
	return id, nil
}
