package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-marketplace/controllers"
	"go-marketplace/geofence"
	"go-marketplace/middleware"
	"go-marketplace/routes"
	"go-marketplace/services"
	"go-marketplace/store/memory"
	"go-marketplace/utils"
)

var area = geofence.Area{CenterLat: 12.4962, CenterLng: 78.5696, MaxRadiusKm: 5, BoxOffsetDeg: 0.045}

type discardNotifier struct{}

func (discardNotifier) Publish(services.Event) bool { return true }

type api struct {
	t        *testing.T
	router   http.Handler
	store    *memory.Store
	accounts *services.AccountService
}

func newAPI(t *testing.T) *api {
	st := memory.New()
	geo := geofence.NewEvaluator(area)
	tokens := utils.NewTokenIssuer("controller-test-secret", time.Hour)
	accounts := services.NewAccountService(st, tokens)
	orders := services.NewOrderService(st, geo, discardNotifier{}, services.OrderConfig{
		RequireLocation: true,
		OTPMaxAttempts:  5,
		CommissionRate:  0.1,
	})
	timeout := 5 * time.Second

	router := routes.Router(routes.Controllers{
		Users:         controllers.NewUserController(accounts, timeout),
		Shops:         controllers.NewShopController(accounts, orders, timeout),
		DeliveryMen:   controllers.NewDeliveryManController(accounts, orders, timeout),
		Products:      controllers.NewProductController(services.NewProductService(st), timeout),
		Cart:          controllers.NewCartController(services.NewCartService(st), timeout),
		Orders:        controllers.NewOrderController(orders, timeout),
		Delivery:      controllers.NewDeliveryController(services.NewDeliveryService(st, geo), timeout),
		Notifications: controllers.NewNotificationController(services.NewInbox(st), timeout),
		Payments:      controllers.NewPaymentController(services.NewPaymentService(st, nil), timeout),
		Withdraws:     controllers.NewWithdrawController(services.NewWithdrawService(st, utils.LogMailer{}), timeout),
		Admin:         controllers.NewAdminController(accounts, orders, timeout),
	}, middleware.NewAuthenticator(tokens, st))
	return &api{t: t, router: router, store: st, accounts: accounts}
}

// do sends body (a string is sent raw) and decodes the JSON reply.
func (a *api) do(method, path, token string, body interface{}) (int, map[string]interface{}) {
	a.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(a.t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var out map[string]interface{}
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func (a *api) customer() string {
	code, body := a.do(http.MethodPost, "/users/register", "", map[string]interface{}{
		"name": "Kavya", "email": "kavya@example.com", "password": "secret123",
	})
	require.Equal(a.t, http.StatusCreated, code, body)
	return body["token"].(string)
}

func (a *api) seller() string {
	code, body := a.do(http.MethodPost, "/shops/register", "", map[string]interface{}{
		"name": "Anna Stores", "email": "anna@shops.example.com", "password": "secret123",
		"latitude": area.CenterLat + 0.001, "longitude": area.CenterLng,
	})
	require.Equal(a.t, http.StatusCreated, code, body)
	return body["token"].(string)
}

func (a *api) product(sellerToken string, stock int) string {
	code, body := a.do(http.MethodPost, "/products", sellerToken, map[string]interface{}{
		"name": "Filter coffee", "originalPrice": 60, "discountPrice": 50, "stock": stock,
	})
	require.Equal(a.t, http.StatusCreated, code, body)
	return body["product"].(map[string]interface{})["id"].(string)
}

func checkoutBody(productID string, qty float64) map[string]interface{} {
	return map[string]interface{}{
		"cart":            []map[string]interface{}{{"productId": productID, "quantity": qty, "price": 50}},
		"shippingAddress": map[string]string{"address1": "4 Temple Street", "city": "Tirupattur"},
		"paymentInfo":     map[string]string{"type": "COD"},
		"userLocation":    map[string]float64{"latitude": area.CenterLat, "longitude": area.CenterLng},
	}
}

func assertFailure(t *testing.T, body map[string]interface{}, code string) {
	t.Helper()
	assert.Equal(t, false, body["success"])
	assert.Equal(t, code, body["code"])
	assert.NotEmpty(t, body["message"])
}

func TestCheckoutShowsOTPOnlyToCustomer(t *testing.T) {
	a := newAPI(t)
	customer, seller := a.customer(), a.seller()
	productID := a.product(seller, 5)

	code, body := a.do(http.MethodPost, "/orders", customer, checkoutBody(productID, 2))
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, true, body["success"])

	orders := body["orders"].([]interface{})
	require.Len(t, orders, 1)
	order := orders[0].(map[string]interface{})
	id := order["id"].(string)
	otp, ok := order["otp"].(string)
	require.True(t, ok)
	assert.Len(t, otp, 6)
	assert.Equal(t, otp, body["otps"].(map[string]interface{})[id])
	assert.Equal(t, "Processing", order["status"])
	assert.EqualValues(t, 100, order["totalPrice"])

	code, body = a.do(http.MethodGet, "/orders/"+id, seller, nil)
	require.Equal(t, http.StatusOK, code, body)
	_, leaked := body["order"].(map[string]interface{})["otp"]
	assert.False(t, leaked)

	code, body = a.do(http.MethodGet, "/orders/"+id, customer, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, otp, body["order"].(map[string]interface{})["otp"])
}

func TestCheckoutRejectsBadInput(t *testing.T) {
	a := newAPI(t)
	customer, seller := a.customer(), a.seller()
	productID := a.product(seller, 5)

	code, body := a.do(http.MethodPost, "/orders", customer, checkoutBody(productID, 1.5))
	assert.Equal(t, http.StatusBadRequest, code)
	assertFailure(t, body, "INVALID_QUANTITY")

	raw := `{"cart":[{"productId":"` + productID + `","quantity":1}],"userLocation":{"latitude":"north","longitude":78.5}}`
	code, body = a.do(http.MethodPost, "/orders", customer, raw)
	assert.Equal(t, http.StatusBadRequest, code)
	assertFailure(t, body, "INVALID_LOCATION")

	code, body = a.do(http.MethodPost, "/orders", customer, map[string]interface{}{"cart": []interface{}{}})
	assert.Equal(t, http.StatusBadRequest, code)
	assertFailure(t, body, "VALIDATION_ERROR")
	assert.Equal(t, "Cart", body["field"])

	far := checkoutBody(productID, 1)
	far["userLocation"] = map[string]float64{"latitude": area.CenterLat + 1, "longitude": area.CenterLng}
	code, body = a.do(http.MethodPost, "/orders", customer, far)
	assert.Equal(t, http.StatusBadRequest, code)
	assertFailure(t, body, "DELIVERY_UNAVAILABLE")

	code, body = a.do(http.MethodPost, "/orders", customer, checkoutBody(productID, 9))
	assert.Equal(t, http.StatusConflict, code)
	assertFailure(t, body, "OUT_OF_STOCK")
}

func TestAuthErrors(t *testing.T) {
	a := newAPI(t)
	seller := a.seller()

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
		code   string
	}{
		{"no token", http.MethodGet, "/cart", "", http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"garbage token", http.MethodGet, "/cart", "not-a-jwt", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"wrong role", http.MethodGet, "/cart", seller, http.StatusForbidden, "ROLE_NOT_ALLOWED"},
		{"unknown route", http.MethodGet, "/nowhere", "", http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := a.do(tt.method, tt.path, tt.token, nil)
			assert.Equal(t, tt.status, code)
			assertFailure(t, body, tt.code)
		})
	}
}

func TestLoginAndMe(t *testing.T) {
	a := newAPI(t)
	a.customer()

	code, body := a.do(http.MethodPost, "/users/login", "", map[string]string{"email": "KAVYA@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assertFailure(t, body, "INVALID_CREDENTIALS")

	code, body = a.do(http.MethodPost, "/users/login", "", map[string]string{"email": "KAVYA@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "user", body["role"])

	code, body = a.do(http.MethodGet, "/users/me", body["token"].(string), nil)
	require.Equal(t, http.StatusOK, code, body)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "kavya@example.com", user["email"])
	assert.NotContains(t, user, "password")
}

func TestCartThroughRouter(t *testing.T) {
	a := newAPI(t)
	customer, seller := a.customer(), a.seller()
	productID := a.product(seller, 5)

	code, body := a.do(http.MethodPost, "/cart", customer, map[string]interface{}{"productId": productID, "quantity": 2})
	require.Equal(t, http.StatusOK, code, body)

	code, body = a.do(http.MethodGet, "/cart", customer, nil)
	require.Equal(t, http.StatusOK, code, body)
	summary := body["priceSummary"].(map[string]interface{})
	assert.EqualValues(t, 100, summary["subtotal"])
	assert.EqualValues(t, 20, summary["totalDiscount"])
	assert.Equal(t, "INR", summary["currency"])
}

func TestDeliveryAvailabilityQuery(t *testing.T) {
	a := newAPI(t)
	a.seller()

	code, body := a.do(http.MethodGet, "/delivery/check-availability?latitude=abc&longitude=78.5", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assertFailure(t, body, "INVALID_COORDINATES")

	q := "?latitude=12.4962&longitude=78.5696"
	code, body = a.do(http.MethodGet, "/delivery/check-availability"+q, "", nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 1, body["availableShops"])
	assert.Equal(t, true, body["inServiceArea"])
}

func TestRegisterValidation(t *testing.T) {
	a := newAPI(t)
	code, body := a.do(http.MethodPost, "/users/register", "", map[string]string{"name": "X", "email": "not-an-email", "password": "secret123"})
	assert.Equal(t, http.StatusBadRequest, code)
	assertFailure(t, body, "VALIDATION_ERROR")
	assert.Equal(t, "Email", body["field"])

	code, body = a.do(http.MethodPost, "/users/register", "", "{")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.True(t, strings.Contains(body["message"].(string), "invalid"))
}

func TestProductCatalog(t *testing.T) {
	a := newAPI(t)
	seller := a.seller()
	productID := a.product(seller, 3)

	code, body := a.do(http.MethodGet, "/products", "", nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 1, body["total"])

	code, body = a.do(http.MethodGet, "/products?kind=event", "", nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 0, body["total"])

	code, body = a.do(http.MethodGet, "/products/"+productID, "", nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Filter coffee", body["product"].(map[string]interface{})["name"])

	code, body = a.do(http.MethodGet, "/products/not-an-id", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assertFailure(t, body, "VALIDATION_ERROR")
}

func (a *api) admin() string {
	_, err := a.accounts.CreateAdmin(context.Background(), services.RegisterUserInput{
		Name: "Ops", Email: "ops@example.com", Password: "secret123",
	})
	require.NoError(a.t, err)
	code, body := a.do(http.MethodPost, "/users/login", "", map[string]string{"email": "ops@example.com", "password": "secret123"})
	require.Equal(a.t, http.StatusOK, code, body)
	return body["token"].(string)
}

func TestOrderListsForShopAndAdmin(t *testing.T) {
	a := newAPI(t)
	customer, seller, admin := a.customer(), a.seller(), a.admin()
	productID := a.product(seller, 5)

	code, body := a.do(http.MethodPost, "/orders", customer, checkoutBody(productID, 1))
	require.Equal(t, http.StatusCreated, code, body)

	code, body = a.do(http.MethodGet, "/shop/orders", seller, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 1, body["total"])

	code, body = a.do(http.MethodGet, "/admin/orders?status=Processing", admin, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 1, body["total"])

	code, body = a.do(http.MethodGet, "/admin/orders?status=Delivered", admin, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 0, body["total"])

	code, body = a.do(http.MethodGet, "/admin/orders", seller, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assertFailure(t, body, "ROLE_NOT_ALLOWED")
}

func TestWithdrawThroughRouter(t *testing.T) {
	a := newAPI(t)
	seller, admin := a.seller(), a.admin()

	code, body := a.do(http.MethodGet, "/shops/me", seller, nil)
	require.Equal(t, http.StatusOK, code, body)
	shopID, err := primitive.ObjectIDFromHex(body["shop"].(map[string]interface{})["id"].(string))
	require.NoError(t, err)
	require.NoError(t, a.store.CreditShopBalance(context.Background(), shopID, 100))

	req := map[string]interface{}{"amount": 60, "bankName": "Indian Bank", "bankAccountNumber": "6012345678", "bankIfscCode": "IDIB000T045"}
	code, body = a.do(http.MethodPost, "/shop/withdraws", seller, req)
	require.Equal(t, http.StatusCreated, code, body)
	id := body["withdraw"].(map[string]interface{})["id"].(string)

	code, body = a.do(http.MethodPost, "/shop/withdraws", seller, req)
	assert.Equal(t, http.StatusBadRequest, code)
	assertFailure(t, body, "INSUFFICIENT_BALANCE")

	code, body = a.do(http.MethodGet, "/shop/withdraws", seller, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 1, body["total"])

	code, body = a.do(http.MethodGet, "/admin/withdraws", admin, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 1, body["total"])

	code, body = a.do(http.MethodPut, "/admin/withdraws/"+id+"/approve", admin, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Succeeded", body["withdraw"].(map[string]interface{})["status"])

	code, body = a.do(http.MethodPut, "/admin/withdraws/"+id+"/approve", admin, nil)
	assert.Equal(t, http.StatusConflict, code)
	assertFailure(t, body, "INVALID_STATE")

	code, body = a.do(http.MethodPut, "/admin/withdraws/"+id+"/approve", seller, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestRejectDeliveryManThroughRouter(t *testing.T) {
	a := newAPI(t)
	admin := a.admin()

	code, body := a.do(http.MethodPost, "/deliveryman/register", "", map[string]interface{}{
		"name": "Kumar", "email": "kumar@riders.example.com", "password": "secret123", "vehicleType": "bike", "phoneNumber": "9876543210",
	})
	require.Equal(t, http.StatusCreated, code, body)
	id := body["deliveryMan"].(map[string]interface{})["id"].(string)

	code, body = a.do(http.MethodDelete, "/admin/deliverymen/"+id, admin, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Delivery man rejected and removed successfully", body["message"])

	code, body = a.do(http.MethodDelete, "/admin/deliverymen/"+id, admin, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assertFailure(t, body, "NOT_FOUND")
}
