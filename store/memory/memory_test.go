package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-marketplace/models"
	"go-marketplace/services"
)

var _ services.Store = (*Store)(nil)

func TestReserveStockNeverNegative(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := &models.Product{Name: "Idli batter", DiscountPrice: 40, Stock: 3}
	require.NoError(t, s.CreateProduct(ctx, p))

	var ok int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.ReserveStock(ctx, models.KindProduct, p.ID, 1) == nil {
				atomic.AddInt32(&ok, 1)
			}
		}()
	}
	wg.Wait()

	got, err := s.FindItem(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(3), ok)
	assert.Equal(t, 0, got.Stock)
	assert.Equal(t, 3, got.SoldOut)
}

func TestUpsertCartItemReplaces(t *testing.T) {
	s := New()
	ctx := context.Background()
	user, product := primitive.NewObjectID(), primitive.NewObjectID()

	first, err := s.UpsertCartItem(ctx, &models.CartItem{UserID: user, ProductID: product, Quantity: 3})
	require.NoError(t, err)
	second, err := s.UpsertCartItem(ctx, &models.CartItem{UserID: user, ProductID: product, Quantity: 5})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	items, err := s.ListCartItems(ctx, user)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)

	_, err = s.UpsertCartItem(ctx, &models.CartItem{UserID: user, ProductID: product, Quantity: 1, SelectedVariation: "large"})
	require.NoError(t, err)
	items, _ = s.ListCartItems(ctx, user)
	assert.Len(t, items, 2)
}

func TestUpdateOrderIfIsolatesCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	o := &models.Order{Status: models.StatusProcessing, CreatedAt: time.Now()}
	require.NoError(t, s.InsertOrders(ctx, []*models.Order{o}))

	me := primitive.NewObjectID()
	st := models.StatusOutForDelivery
	got, err := s.UpdateOrderIf(ctx, o.ID, models.OrderGuard{Unassigned: true}, models.OrderChange{DeliveryMan: &me, Status: &st})
	require.NoError(t, err)
	assert.True(t, got.AssignedTo(me))
	assert.Nil(t, o.DeliveryMan)

	_, err = s.UpdateOrderIf(ctx, o.ID, models.OrderGuard{Unassigned: true}, models.OrderChange{DeliveryMan: &me})
	assert.ErrorIs(t, err, models.ErrNoMatch)
}

func TestListOrdersAvailable(t *testing.T) {
	s := New()
	ctx := context.Background()
	me := primitive.NewObjectID()
	other := primitive.NewObjectID()
	now := time.Now()

	open := &models.Order{Status: models.StatusProcessing, CreatedAt: now}
	ignored := &models.Order{Status: models.StatusProcessing, IgnoredBy: []primitive.ObjectID{me}, CreatedAt: now}
	taken := &models.Order{Status: models.StatusOutForDelivery, DeliveryMan: &other, CreatedAt: now}
	done := &models.Order{Status: models.StatusDelivered, CreatedAt: now}
	require.NoError(t, s.InsertOrders(ctx, []*models.Order{open, ignored, taken, done}))

	orders, total, err := s.ListOrders(ctx, models.OrderFilter{AvailableFor: &me}, models.Page{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, open.ID, orders[0].ID)
}

func TestNotificationsLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()
	user := primitive.NewObjectID()
	ns := []*models.Notification{
		{UserID: user, Title: "a", CreatedAt: time.Now()},
		{UserID: user, Title: "b", CreatedAt: time.Now().Add(time.Second)},
		{UserID: primitive.NewObjectID(), Title: "c"},
	}
	require.NoError(t, s.InsertNotifications(ctx, ns))

	list, total, err := s.ListNotifications(ctx, user, models.Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "b", list[0].Title)

	_, err = s.MarkNotificationRead(ctx, user, ns[0].ID)
	require.NoError(t, err)
	unread, _ := s.CountUnread(ctx, user)
	assert.Equal(t, int64(1), unread)

	_, err = s.MarkNotificationRead(ctx, user, ns[2].ID)
	assert.ErrorIs(t, err, models.ErrNotificationNotFound)

	n, _ := s.DeleteAllNotifications(ctx, user)
	assert.Equal(t, int64(2), n)
}

func TestClaimPaymentIntentOnce(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.InsertPaymentIntent(ctx, &models.PaymentIntent{GatewayOrderID: "order_1", Amount: 5000, Status: models.IntentCreated}))
	assert.ErrorIs(t, s.InsertPaymentIntent(ctx, &models.PaymentIntent{GatewayOrderID: "order_1"}), models.ErrDuplicate)

	var ok int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.ClaimPaymentIntent(ctx, "order_1", "pay_1", time.Now()); err == nil {
				atomic.AddInt32(&ok, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), ok)

	_, err := s.FindPaymentIntent(ctx, "order_2")
	assert.ErrorIs(t, err, models.ErrPaymentNotFound)
}

func TestDebitShopBalanceFloor(t *testing.T) {
	s := New()
	ctx := context.Background()
	sh := &models.Shop{Name: "Kaveri", Email: "k@shops.example.com", AvailableBalance: 50}
	require.NoError(t, s.InsertShop(ctx, sh))

	assert.NoError(t, s.DebitShopBalance(ctx, sh.ID, 50))
	assert.ErrorIs(t, s.DebitShopBalance(ctx, sh.ID, 0.01), models.ErrInsufficientBalance)
	assert.ErrorIs(t, s.DebitShopBalance(ctx, primitive.NewObjectID(), 1), models.ErrShopNotFound)

	got, err := s.FindShop(ctx, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.AvailableBalance)
}
