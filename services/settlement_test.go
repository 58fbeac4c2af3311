package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-marketplace/geofence"
	"go-marketplace/models"
	"go-marketplace/store/memory"
)

var errStoreDown = errors.New("store unavailable")

// flakyStore fails ReleaseStock for the products in failRelease and the next
// failCredits balance credits.
type flakyStore struct {
	*memory.Store
	mu          sync.Mutex
	failRelease map[primitive.ObjectID]bool
	failCredits int
}

func (s *flakyStore) ReleaseStock(ctx context.Context, kind string, id primitive.ObjectID, qty int) error {
	s.mu.Lock()
	fail := s.failRelease[id]
	s.mu.Unlock()
	if fail {
		return errStoreDown
	}
	return s.Store.ReleaseStock(ctx, kind, id, qty)
}

func (s *flakyStore) CreditShopBalance(ctx context.Context, id primitive.ObjectID, amount float64) error {
	s.mu.Lock()
	fail := s.failCredits > 0
	if fail {
		s.failCredits--
	}
	s.mu.Unlock()
	if fail {
		return errStoreDown
	}
	return s.Store.CreditShopBalance(ctx, id, amount)
}

func (s *flakyStore) heal(id primitive.ObjectID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failRelease, id)
}

func newFlakyFixture(t *testing.T) (*fixture, *flakyStore) {
	f := newFixture(t)
	flaky := &flakyStore{Store: f.store, failRelease: map[primitive.ObjectID]bool{}}
	f.orders = NewOrderService(flaky, geofence.NewEvaluator(testArea), f.notifier, OrderConfig{
		RequireLocation: true,
		OTPMaxAttempts:  5,
		CommissionRate:  0.10,
	})
	return f, flaky
}

func TestCancelRetryFinishesRestock(t *testing.T) {
	f, flaky := newFlakyFixture(t)
	shop := f.addShop("twin", 0)
	a := f.addProduct(shop, "Ragi", 60, 5)
	b := f.addProduct(shop, "Millet", 80, 5)

	res, err := f.checkout(line(a, 2), line(b, 3))
	require.NoError(t, err)
	o := res.Orders[0]
	require.Equal(t, 3, f.stock(a))
	require.Equal(t, 2, f.stock(b))

	flaky.failRelease[b.ID] = true
	_, err = f.orders.UpdateStatus(f.ctx, shop.ID, o.ID, models.StatusCancelled)
	require.Error(t, err)
	assert.Equal(t, 5, f.stock(a))
	assert.Equal(t, 2, f.stock(b))

	stored, err := f.store.FindOrder(f.ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, stored.Status)
	assert.True(t, stored.PendingRestock())

	flaky.heal(b.ID)
	cancelled, err := f.orders.UpdateStatus(f.ctx, shop.ID, o.ID, models.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.False(t, cancelled.PendingRestock())
	assert.Equal(t, 5, f.stock(a))
	assert.Equal(t, 5, f.stock(b))

	_, err = f.orders.UpdateStatus(f.ctx, shop.ID, o.ID, models.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, 5, f.stock(a))
	assert.Equal(t, 5, f.stock(b))
}

func TestApproveRefundRetryFinishesRestock(t *testing.T) {
	f, flaky := newFlakyFixture(t)
	o, otp := f.placeOrder()
	d := f.addDeliveryMan("r", true)
	p := &models.Product{ID: o.Cart[0].ProductID}

	_, err := f.orders.Accept(f.ctx, d.ID, o.ID, "")
	require.NoError(t, err)
	_, err = f.orders.ConfirmDelivery(f.ctx, d.ID, o.ID, otp)
	require.NoError(t, err)
	_, err = f.orders.RequestRefund(f.ctx, f.customer.ID, o.ID)
	require.NoError(t, err)
	before := f.stock(p)

	flaky.failRelease[p.ID] = true
	_, err = f.orders.ApproveRefund(f.ctx, o.ShopID, o.ID)
	require.Error(t, err)
	assert.Equal(t, before, f.stock(p))

	flaky.heal(p.ID)
	refunded, err := f.orders.ApproveRefund(f.ctx, o.ShopID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRefundSucceeded, refunded.Status)
	assert.Equal(t, before+2, f.stock(p))

	_, err = f.orders.ApproveRefund(f.ctx, o.ShopID, o.ID)
	assert.Error(t, err)
	assert.Equal(t, before+2, f.stock(p))
}

func TestConfirmDeliveryRetryFinishesCredit(t *testing.T) {
	f, flaky := newFlakyFixture(t)
	o, otp := f.placeOrder()
	d := f.addDeliveryMan("r", true)
	_, err := f.orders.Accept(f.ctx, d.ID, o.ID, "")
	require.NoError(t, err)

	flaky.failCredits = 1
	_, err = f.orders.ConfirmDelivery(f.ctx, d.ID, o.ID, otp)
	require.Error(t, err)

	shop, err := f.store.FindShop(f.ctx, o.ShopID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, shop.AvailableBalance)
	stored, err := f.store.FindOrder(f.ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, stored.Status)
	assert.False(t, stored.SellerCredited)

	done, err := f.orders.ConfirmDelivery(f.ctx, d.ID, o.ID, otp)
	require.NoError(t, err)
	assert.True(t, done.SellerCredited)

	_, err = f.orders.ConfirmDelivery(f.ctx, d.ID, o.ID, otp)
	assert.Error(t, err)

	shop, err = f.store.FindShop(f.ctx, o.ShopID)
	require.NoError(t, err)
	assert.Equal(t, 90.0, shop.AvailableBalance)
}
