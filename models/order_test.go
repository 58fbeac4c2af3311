package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSources(t *testing.T) {
	assert.Equal(t, []OrderStatus{StatusProcessing, StatusAccepted}, Sources(StatusOutForDelivery))
	assert.Equal(t, []OrderStatus{StatusOutForDelivery}, Sources(StatusDelivered))
	assert.Equal(t, []OrderStatus{StatusDelivered}, Sources(StatusRefundRequested))
	assert.Equal(t, []OrderStatus{StatusRefundRequested}, Sources(StatusRefundSucceeded))
	assert.Empty(t, Sources(StatusProcessing))
	assert.Equal(t, Sources(StatusOutForDelivery), AssignableStatuses)
}

func TestSellerSources(t *testing.T) {
	assert.Equal(t, []OrderStatus{StatusProcessing}, SellerSources(StatusAccepted))
	assert.Equal(t, []OrderStatus{StatusProcessing}, SellerSources(StatusCancelled))
	assert.Empty(t, SellerSources(StatusDelivered))
	assert.Empty(t, SellerSources(StatusOutForDelivery))
}

func TestSettlementFlags(t *testing.T) {
	o := &Order{Cart: []OrderLine{{}, {}}}
	first, second := 0, 1
	assert.True(t, o.PendingRestock())

	OrderChange{Restock: &LineFlag{Index: first, Restocked: true}}.Apply(o)
	assert.False(t, OrderGuard{LineNotRestocked: &first}.Matches(o))
	assert.True(t, OrderGuard{LineNotRestocked: &second}.Matches(o))
	assert.True(t, o.PendingRestock())

	OrderChange{Restock: &LineFlag{Index: second, Restocked: true}}.Apply(o)
	assert.False(t, o.PendingRestock())

	out := 5
	assert.False(t, OrderGuard{LineNotRestocked: &out}.Matches(o))

	credited := true
	assert.True(t, OrderGuard{NotCredited: true}.Matches(o))
	OrderChange{SellerCredited: &credited}.Apply(o)
	assert.False(t, OrderGuard{NotCredited: true}.Matches(o))
}

func TestOnlinePaymentGuard(t *testing.T) {
	o := &Order{PaymentInfo: PaymentInfo{Type: PaymentTypeCOD, Status: PaymentPending}}
	assert.False(t, OrderGuard{OnlinePayment: true}.Matches(o))
	o.PaymentInfo.Type = "razorpay"
	assert.True(t, OrderGuard{OnlinePayment: true, PaymentStatus: PaymentPending}.Matches(o))
	assert.False(t, OrderGuard{PaymentStatus: PaymentSucceeded}.Matches(o))
}

func TestGuardMatches(t *testing.T) {
	me := primitive.NewObjectID()
	other := primitive.NewObjectID()
	o := &Order{Status: StatusProcessing, OTP: "123456"}

	assert.True(t, OrderGuard{Statuses: AssignableStatuses, Unassigned: true}.Matches(o))
	assert.False(t, OrderGuard{Statuses: []OrderStatus{StatusOutForDelivery}}.Matches(o))
	assert.False(t, OrderGuard{OTP: "654321"}.Matches(o))

	o.DeliveryMan = &other
	assert.False(t, OrderGuard{Unassigned: true}.Matches(o))
	assert.False(t, OrderGuard{DeliveryMan: &me}.Matches(o))

	o.IgnoredBy = []primitive.ObjectID{me}
	assert.False(t, OrderGuard{NotIgnoredBy: &me}.Matches(o))

	o.OTPAttempts = 5
	assert.False(t, OrderGuard{OTPAttemptsBelow: 5}.Matches(o))
}

func TestChangeApply(t *testing.T) {
	me := primitive.NewObjectID()
	st := StatusOutForDelivery
	o := &Order{Status: StatusProcessing, OTP: "000001"}

	OrderChange{Status: &st, DeliveryMan: &me, ClearOTP: true, IncOTPAttempts: true, AddIgnoredBy: &me}.Apply(o)
	OrderChange{AddIgnoredBy: &me}.Apply(o)

	assert.Equal(t, StatusOutForDelivery, o.Status)
	assert.True(t, o.AssignedTo(me))
	assert.Empty(t, o.OTP)
	assert.Equal(t, 1, o.OTPAttempts)
	assert.Len(t, o.IgnoredBy, 1)
}

func TestPage(t *testing.T) {
	p := Page{Page: 3, Limit: 20}
	assert.Equal(t, 40, p.Skip())
	assert.Equal(t, int64(3), p.TotalPages(41))
	assert.Equal(t, int64(0), p.TotalPages(0))
}

func TestShopRadiusOverride(t *testing.T) {
	custom := 2.5
	s := &Shop{}
	assert.Nil(t, s.RadiusOverride())

	s.DeliveryRadius = DeliveryRadius{Enabled: false, MaxRadius: 8}
	assert.Nil(t, s.RadiusOverride())

	s.DeliveryRadius.Enabled = true
	assert.Equal(t, 8.0, *s.RadiusOverride())

	s.DeliveryRadius.CustomRadius = &custom
	assert.Equal(t, 2.5, *s.RadiusOverride())
}
