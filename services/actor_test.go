package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-marketplace/models"
)

func TestGenerateOTP(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		otp, err := GenerateOTP()
		assert.NoError(t, err)
		assert.Regexp(t, `^[0-9]{6}$`, otp)
		seen[otp] = true
	}
	assert.Greater(t, len(seen), 1)

	assert.True(t, otpEqual("012345", "012345"))
	assert.False(t, otpEqual("012345", "12345"))
	assert.False(t, otpEqual("", ""))
}

func TestActorCanView(t *testing.T) {
	customer, shop, rider := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	o := &models.Order{User: models.UserSnapshot{ID: customer}, ShopID: shop, Status: models.StatusProcessing}

	assert.True(t, Actor{Role: models.RoleCustomer, ID: customer}.CanView(o))
	assert.False(t, Actor{Role: models.RoleCustomer, ID: shop}.CanView(o))
	assert.True(t, Actor{Role: models.RoleSeller, ID: shop}.CanView(o))
	assert.True(t, Actor{Role: models.RoleAdmin}.CanView(o))
	assert.True(t, Actor{Role: models.RoleDeliveryMan, ID: rider}.CanView(o), "open orders are visible to riders")

	o.Status = models.StatusDelivered
	assert.False(t, Actor{Role: models.RoleDeliveryMan, ID: rider}.CanView(o))
	o.DeliveryMan = &rider
	assert.True(t, Actor{Role: models.RoleDeliveryMan, ID: rider}.CanView(o))
}
