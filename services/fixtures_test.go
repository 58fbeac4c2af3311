package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-marketplace/geofence"
	"go-marketplace/models"
	"go-marketplace/store/memory"
)

var testArea = geofence.Area{CenterLat: 12.4962, CenterLng: 78.5696, MaxRadiusKm: 5, BoxOffsetDeg: 0.045}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingNotifier) Publish(e Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return true
}

func (r *recordingNotifier) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	t        *testing.T
	ctx      context.Context
	store    *memory.Store
	notifier *recordingNotifier
	orders   *OrderService
	cart     *CartService
	customer *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	n := &recordingNotifier{}
	f := &fixture{
		t:        t,
		ctx:      context.Background(),
		store:    st,
		notifier: n,
		orders: NewOrderService(st, geofence.NewEvaluator(testArea), n, OrderConfig{
			RequireLocation: true,
			OTPMaxAttempts:  5,
			CommissionRate:  0.10,
		}),
		cart: NewCartService(st),
	}
	f.customer = f.addCustomer("Priya")
	return f
}

func (f *fixture) addCustomer(name string) *models.User {
	u := &models.User{Name: name, Email: name + "@example.com", Role: models.RoleCustomer, CreatedAt: time.Now()}
	require.NoError(f.t, f.store.InsertUser(f.ctx, u))
	return u
}

// addShop places a shop dLat degrees north of the service-area center.
func (f *fixture) addShop(name string, dLat float64) *models.Shop {
	s := &models.Shop{
		Name:      name,
		Email:     name + "@shops.example.com",
		Role:      models.RoleSeller,
		Location:  models.NewGeoPoint(testArea.CenterLat+dLat, testArea.CenterLng),
		CreatedAt: time.Now(),
	}
	require.NoError(f.t, f.store.InsertShop(f.ctx, s))
	return s
}

func (f *fixture) addProduct(shop *models.Shop, name string, price float64, stock int) *models.Product {
	p := &models.Product{Name: name, ShopID: shop.ID, DiscountPrice: price, OriginalPrice: price + 10, Stock: stock, CreatedAt: time.Now()}
	require.NoError(f.t, f.store.CreateProduct(f.ctx, p))
	return p
}

func (f *fixture) addDeliveryMan(name string, approved bool) *models.DeliveryMan {
	d := &models.DeliveryMan{Name: name, Email: name + "@riders.example.com", IsApproved: approved, CreatedAt: time.Now()}
	require.NoError(f.t, f.store.InsertDeliveryMan(f.ctx, d))
	return d
}

func centerLocation() *models.UserLocation {
	return &models.UserLocation{Latitude: testArea.CenterLat, Longitude: testArea.CenterLng, DeliveryAddress: "Bus stand"}
}

func line(p *models.Product, qty int) CheckoutLine {
	return CheckoutLine{ProductID: p.ID, ShopID: p.ShopID, Quantity: qty, Price: p.DiscountPrice, Name: p.Name}
}

func (f *fixture) checkout(lines ...CheckoutLine) (*CheckoutResult, error) {
	return f.orders.Checkout(f.ctx, f.customer, CheckoutRequest{
		Lines:           lines,
		ShippingAddress: models.ShippingAddress{Address1: "12 Gandhi Road", City: "Tirupattur", ZipCode: "635601", Country: "IN"},
		PaymentInfo:     models.PaymentInfo{Type: models.PaymentTypeCOD},
		UserLocation:    centerLocation(),
	})
}

// placeOrder checks out one product and returns the order with its OTP.
func (f *fixture) placeOrder() (*models.Order, string) {
	shop := f.addShop("shop-"+primitive.NewObjectID().Hex(), 0.001)
	p := f.addProduct(shop, "Dosa mix", 50, 10)
	res, err := f.checkout(line(p, 2))
	require.NoError(f.t, err)
	require.Len(f.t, res.Orders, 1)
	o := res.Orders[0]
	return &o, res.OTPs[o.ID.Hex()]
}

func (f *fixture) stock(p *models.Product) int {
	got, err := f.store.FindItem(f.ctx, p.ID)
	require.NoError(f.t, err)
	return got.Stock
}
