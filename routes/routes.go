package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"go-marketplace/apperr"
	"go-marketplace/controllers"
	"go-marketplace/middleware"
	"go-marketplace/models"
	"go-marketplace/utils"
)

// Controllers bundles every handler group the router mounts.
type Controllers struct {
	Users         *controllers.UserController
	Shops         *controllers.ShopController
	DeliveryMen   *controllers.DeliveryManController
	Products      *controllers.ProductController
	Cart          *controllers.CartController
	Orders        *controllers.OrderController
	Delivery      *controllers.DeliveryController
	Notifications *controllers.NotificationController
	Payments      *controllers.PaymentController
	Withdraws     *controllers.WithdrawController
	Admin         *controllers.AdminController
}

var everyone = []string{models.RoleCustomer, models.RoleSeller, models.RoleDeliveryMan, models.RoleAdmin}

// Router sets up all the routes for the application
func Router(c Controllers, auth *middleware.Authenticator) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		utils.WriteError(w, apperr.NotFoundf("route not found"))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		utils.WriteFailure(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	only := func(h http.HandlerFunc, roles ...string) http.Handler {
		return auth.Require(roles...)(h)
	}
	customer := func(h http.HandlerFunc) http.Handler { return only(h, models.RoleCustomer) }
	seller := func(h http.HandlerFunc) http.Handler { return only(h, models.RoleSeller) }
	rider := func(h http.HandlerFunc) http.Handler { return only(h, models.RoleDeliveryMan) }
	admin := func(h http.HandlerFunc) http.Handler { return only(h, models.RoleAdmin) }

	// Accounts
	r.HandleFunc("/users/register", c.Users.Register).Methods(http.MethodPost)
	r.HandleFunc("/users/login", c.Users.Login).Methods(http.MethodPost)
	r.Handle("/users/me", only(c.Users.Me, models.RoleCustomer, models.RoleAdmin)).Methods(http.MethodGet)
	r.Handle("/users/push-token", only(c.Users.SetPushToken, models.RoleCustomer, models.RoleAdmin)).Methods(http.MethodPut)

	r.HandleFunc("/shops/register", c.Shops.Register).Methods(http.MethodPost)
	r.HandleFunc("/shops/login", c.Shops.Login).Methods(http.MethodPost)
	r.Handle("/shops/me", seller(c.Shops.Me)).Methods(http.MethodGet)
	r.Handle("/shops/push-token", seller(c.Users.SetPushToken)).Methods(http.MethodPut)
	r.Handle("/shop/orders", seller(c.Shops.ListOrders)).Methods(http.MethodGet)
	r.Handle("/shop/withdraws", seller(c.Withdraws.Create)).Methods(http.MethodPost)
	r.Handle("/shop/withdraws", seller(c.Withdraws.Mine)).Methods(http.MethodGet)

	r.HandleFunc("/deliveryman/register", c.DeliveryMen.Register).Methods(http.MethodPost)
	r.HandleFunc("/deliveryman/login", c.DeliveryMen.Login).Methods(http.MethodPost)
	r.Handle("/deliveryman/me", rider(c.DeliveryMen.Me)).Methods(http.MethodGet)
	r.Handle("/deliveryman/location", rider(c.DeliveryMen.UpdateLocation)).Methods(http.MethodPut)
	r.Handle("/deliveryman/push-token", rider(c.Users.SetPushToken)).Methods(http.MethodPut)
	r.Handle("/deliveryman/orders/available", rider(c.DeliveryMen.Available)).Methods(http.MethodGet)
	r.Handle("/deliveryman/orders/history", rider(c.DeliveryMen.History)).Methods(http.MethodGet)

	// Product routes
	r.HandleFunc("/products", c.Products.GetProducts).Methods(http.MethodGet)
	r.HandleFunc("/products/{id}", c.Products.GetProductByID).Methods(http.MethodGet)
	r.Handle("/products", seller(c.Products.CreateProduct)).Methods(http.MethodPost)

	// Delivery availability
	r.HandleFunc("/delivery/check-availability", c.Delivery.CheckAvailability).Methods(http.MethodGet)
	r.HandleFunc("/delivery/product-availability/{productId}", c.Delivery.CheckProduct).Methods(http.MethodGet)

	// Cart routes
	r.Handle("/cart", customer(c.Cart.AddToCart)).Methods(http.MethodPost)
	r.Handle("/cart", customer(c.Cart.GetCart)).Methods(http.MethodGet)
	r.Handle("/cart", customer(c.Cart.RemoveMany)).Methods(http.MethodDelete)
	r.Handle("/cart/{itemId}", customer(c.Cart.UpdateItem)).Methods(http.MethodPut)
	r.Handle("/cart/{itemId}", customer(c.Cart.RemoveFromCart)).Methods(http.MethodDelete)

	// Order routes
	r.Handle("/orders", customer(c.Orders.Create)).Methods(http.MethodPost)
	r.Handle("/orders", customer(c.Orders.Mine)).Methods(http.MethodGet)
	r.Handle("/orders/{id}", only(c.Orders.Get, everyone...)).Methods(http.MethodGet)
	r.Handle("/orders/{id}/status", seller(c.Orders.UpdateStatus)).Methods(http.MethodPut)
	r.Handle("/orders/{id}/accept", rider(c.Orders.Accept)).Methods(http.MethodPut)
	r.Handle("/orders/{id}/ignore", rider(c.Orders.Ignore)).Methods(http.MethodPut)
	r.Handle("/orders/{id}/confirm-delivery", rider(c.Orders.ConfirmDelivery)).Methods(http.MethodPut)
	r.Handle("/orders/{id}/refund", customer(c.Orders.RequestRefund)).Methods(http.MethodPut)
	r.Handle("/orders/{id}/refund/approve", seller(c.Orders.ApproveRefund)).Methods(http.MethodPut)

	// Payment routes
	r.Handle("/payment/orders", customer(c.Payments.CreateOrder)).Methods(http.MethodPost)
	r.Handle("/payment/verify", customer(c.Payments.Verify)).Methods(http.MethodPost)

	// In-app notifications
	r.Handle("/notifications", only(c.Notifications.List, everyone...)).Methods(http.MethodGet)
	r.Handle("/notifications", only(c.Notifications.DeleteAll, everyone...)).Methods(http.MethodDelete)
	r.Handle("/notifications/unread-count", only(c.Notifications.UnreadCount, everyone...)).Methods(http.MethodGet)
	r.Handle("/notifications/read-all", only(c.Notifications.MarkAllRead, everyone...)).Methods(http.MethodPut)
	r.Handle("/notifications/{id}/read", only(c.Notifications.MarkRead, everyone...)).Methods(http.MethodPut)
	r.Handle("/notifications/{id}", only(c.Notifications.Delete, everyone...)).Methods(http.MethodDelete)

	// Admin routes
	r.Handle("/admin/orders", admin(c.Admin.ListOrders)).Methods(http.MethodGet)
	r.Handle("/admin/deliverymen", admin(c.Admin.DeliveryMen)).Methods(http.MethodGet)
	r.Handle("/admin/deliverymen/{id}/approve", admin(c.Admin.ApproveDeliveryMan)).Methods(http.MethodPut)
	r.Handle("/admin/deliverymen/{id}", admin(c.Admin.RejectDeliveryMan)).Methods(http.MethodDelete)
	r.Handle("/admin/withdraws", admin(c.Withdraws.All)).Methods(http.MethodGet)
	r.Handle("/admin/withdraws/{id}/approve", admin(c.Withdraws.Approve)).Methods(http.MethodPut)

	return middleware.Logging(r)
}
