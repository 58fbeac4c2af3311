package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-marketplace/apperr"
	"go-marketplace/models"
	"go-marketplace/store/memory"
	"go-marketplace/utils"
)

const gatewaySecret = "rzp_test_secret"

type fakeGateway struct {
	created []int64
	skew    int64
}

func (g *fakeGateway) CreateOrder(paise int64, currency, receipt string) (*utils.GatewayOrder, error) {
	g.created = append(g.created, paise)
	id := fmt.Sprintf("order_test_%d", len(g.created))
	return &utils.GatewayOrder{ID: id, Amount: paise + g.skew, Currency: currency, KeyID: "rzp_test"}, nil
}

func (g *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return utils.VerifyRazorpaySignature(gatewaySecret, orderID, paymentID, signature)
}

type paymentFixture struct {
	t       *testing.T
	ctx     context.Context
	store   *memory.Store
	gateway *fakeGateway
	svc     *PaymentService
	userID  primitive.ObjectID
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	st := memory.New()
	gw := &fakeGateway{}
	return &paymentFixture{
		t:       t,
		ctx:     context.Background(),
		store:   st,
		gateway: gw,
		svc:     NewPaymentService(st, gw),
		userID:  primitive.NewObjectID(),
	}
}

func (f *paymentFixture) order(owner primitive.ObjectID, status models.OrderStatus, payType string, total float64) *models.Order {
	o := &models.Order{
		ID:          primitive.NewObjectID(),
		User:        models.UserSnapshot{ID: owner},
		Status:      status,
		TotalPrice:  total,
		PaymentInfo: models.PaymentInfo{Type: payType, Status: models.PaymentPending},
		CreatedAt:   time.Now(),
	}
	require.NoError(f.t, f.store.InsertOrders(f.ctx, []*models.Order{o}))
	return o
}

func (f *paymentFixture) online(total float64) *models.Order {
	return f.order(f.userID, models.StatusProcessing, "razorpay", total)
}

func (f *paymentFixture) verify(gatewayOrderID, paymentID string, ids ...primitive.ObjectID) ([]models.Order, error) {
	return f.svc.Verify(f.ctx, f.userID, VerifyInput{
		GatewayOrderID: gatewayOrderID,
		PaymentID:      paymentID,
		Signature:      utils.SignRazorpayPayment(gatewaySecret, gatewayOrderID, paymentID),
		OrderIDs:       ids,
	})
}

func TestCreateGatewayOrder(t *testing.T) {
	f := newPaymentFixture(t)
	a, b := f.online(250), f.online(99.5)

	order, err := f.svc.CreateGatewayOrder(f.ctx, f.userID, []primitive.ObjectID{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(34950), order.Amount)
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, []int64{34950}, f.gateway.created)

	intent, err := f.store.FindPaymentIntent(f.ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, f.userID, intent.UserID)
	assert.Equal(t, int64(34950), intent.Amount)
	assert.Equal(t, models.IntentCreated, intent.Status)
	assert.ElementsMatch(t, []primitive.ObjectID{a.ID, b.ID}, intent.OrderIDs)
}

func TestCreateGatewayOrderRejectsUnpayableOrders(t *testing.T) {
	f := newPaymentFixture(t)
	ok := f.online(100)
	cod := f.order(f.userID, models.StatusProcessing, models.PaymentTypeCOD, 100)
	cancelled := f.order(f.userID, models.StatusCancelled, "razorpay", 100)
	delivered := f.order(f.userID, models.StatusDelivered, "razorpay", 100)
	foreign := f.order(primitive.NewObjectID(), models.StatusProcessing, "razorpay", 100)

	_, err := f.svc.CreateGatewayOrder(f.ctx, f.userID, nil)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	_, err = f.svc.CreateGatewayOrder(f.ctx, f.userID, []primitive.ObjectID{ok.ID, ok.ID})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	for _, id := range []primitive.ObjectID{cod.ID, cancelled.ID, delivered.ID} {
		_, err = f.svc.CreateGatewayOrder(f.ctx, f.userID, []primitive.ObjectID{ok.ID, id})
		assert.True(t, apperr.Is(err, apperr.CodeInvalidState))
	}

	_, err = f.svc.CreateGatewayOrder(f.ctx, f.userID, []primitive.ObjectID{foreign.ID})
	assert.Equal(t, apperr.NotFound, apperr.As(err).Kind)
	assert.Empty(t, f.gateway.created)

	f.gateway.skew = 1
	_, err = f.svc.CreateGatewayOrder(f.ctx, f.userID, []primitive.ObjectID{ok.ID})
	assert.Equal(t, apperr.Upstream, apperr.As(err).Kind)

	_, err = NewPaymentService(memory.New(), nil).CreateGatewayOrder(f.ctx, f.userID, []primitive.ObjectID{ok.ID})
	assert.Equal(t, apperr.Upstream, apperr.As(err).Kind)
}

func TestPaymentVerify(t *testing.T) {
	f := newPaymentFixture(t)
	o := f.online(250)
	gw, err := f.svc.CreateGatewayOrder(f.ctx, f.userID, []primitive.ObjectID{o.ID})
	require.NoError(t, err)

	_, err = f.svc.Verify(f.ctx, f.userID, VerifyInput{GatewayOrderID: gw.ID, PaymentID: "pay_1", Signature: "deadbeef"})
	assert.True(t, apperr.Is(err, apperr.CodeInvalidSignature))

	_, err = f.verify("order_unknown", "pay_1")
	assert.Equal(t, apperr.NotFound, apperr.As(err).Kind)

	_, err = f.svc.Verify(f.ctx, primitive.NewObjectID(), VerifyInput{
		GatewayOrderID: gw.ID,
		PaymentID:      "pay_1",
		Signature:      utils.SignRazorpayPayment(gatewaySecret, gw.ID, "pay_1"),
	})
	assert.Equal(t, apperr.NotFound, apperr.As(err).Kind, "payments of other customers are not touched")

	_, err = f.verify(gw.ID, "pay_1", primitive.NewObjectID())
	assert.True(t, apperr.Is(err, apperr.CodeAmountMismatch))

	paid, err := f.verify(gw.ID, "pay_1", o.ID)
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, models.PaymentSucceeded, paid[0].PaymentInfo.Status)
	assert.Equal(t, "pay_1", paid[0].PaymentInfo.ID)
	assert.Equal(t, gw.ID, paid[0].PaymentInfo.GatewayOrderID)
	assert.NotNil(t, paid[0].PaymentInfo.PaidAt)

	intent, err := f.store.FindPaymentIntent(f.ctx, gw.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IntentPaid, intent.Status)
	assert.Equal(t, "pay_1", intent.PaymentID)
}

func TestPaymentVerifyRejectsReplay(t *testing.T) {
	f := newPaymentFixture(t)
	o := f.online(250)
	gw, err := f.svc.CreateGatewayOrder(f.ctx, f.userID, []primitive.ObjectID{o.ID})
	require.NoError(t, err)

	_, err = f.verify(gw.ID, "pay_1")
	require.NoError(t, err)

	_, err = f.verify(gw.ID, "pay_1")
	assert.True(t, apperr.Is(err, apperr.CodePaymentAlreadyUsed))
	_, err = f.verify(gw.ID, "pay_2")
	assert.True(t, apperr.Is(err, apperr.CodePaymentAlreadyUsed))

	// a paid gateway order cannot be pointed at fresh orders either
	other := f.online(250)
	_, err = f.verify(gw.ID, "pay_1", other.ID)
	assert.True(t, apperr.Is(err, apperr.CodeAmountMismatch))

	got, err := f.store.FindOrder(f.ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, got.PaymentInfo.Status)
}

func TestPaymentVerifyAmountMismatch(t *testing.T) {
	f := newPaymentFixture(t)
	o := f.online(250)
	// a one rupee gateway order bound to a 250 rupee order
	require.NoError(t, f.store.InsertPaymentIntent(f.ctx, &models.PaymentIntent{
		GatewayOrderID: "order_cheap",
		UserID:         f.userID,
		OrderIDs:       []primitive.ObjectID{o.ID},
		Amount:         100,
		Currency:       "INR",
		Status:         models.IntentCreated,
	}))

	_, err := f.verify("order_cheap", "pay_1")
	assert.True(t, apperr.Is(err, apperr.CodeAmountMismatch))

	got, err := f.store.FindOrder(f.ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, got.PaymentInfo.Status)
	intent, err := f.store.FindPaymentIntent(f.ctx, "order_cheap")
	require.NoError(t, err)
	assert.Equal(t, models.IntentCreated, intent.Status)
}

func TestPaymentVerifyCancelledOrder(t *testing.T) {
	f := newPaymentFixture(t)
	o := f.online(250)
	gw, err := f.svc.CreateGatewayOrder(f.ctx, f.userID, []primitive.ObjectID{o.ID})
	require.NoError(t, err)

	cancelled := models.StatusCancelled
	_, err = f.store.UpdateOrderIf(f.ctx, o.ID, models.OrderGuard{}, models.OrderChange{Status: &cancelled})
	require.NoError(t, err)

	_, err = f.verify(gw.ID, "pay_1")
	assert.True(t, apperr.Is(err, apperr.CodeInvalidState))

	intent, err := f.store.FindPaymentIntent(f.ctx, gw.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IntentCreated, intent.Status)
}
