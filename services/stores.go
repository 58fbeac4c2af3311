package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-marketplace/models"
)

// OrderStore persists orders. UpdateOrderIf applies change only when guard holds,
// as one atomic write, and returns models.ErrNoMatch otherwise.
type OrderStore interface {
	InsertOrders(ctx context.Context, orders []*models.Order) error
	FindOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	UpdateOrderIf(ctx context.Context, id primitive.ObjectID, guard models.OrderGuard, change models.OrderChange) (*models.Order, error)
	ListOrders(ctx context.Context, filter models.OrderFilter, page models.Page) ([]models.Order, int64, error)
}

// CatalogStore covers both the product and the event universes.
type CatalogStore interface {
	FindItem(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindItemOfKind(ctx context.Context, kind string, id primitive.ObjectID) (*models.Product, error)
	ReserveStock(ctx context.Context, kind string, id primitive.ObjectID, qty int) error
	ReleaseStock(ctx context.Context, kind string, id primitive.ObjectID, qty int) error
	CreateProduct(ctx context.Context, p *models.Product) error
	ListProducts(ctx context.Context, kind string, shopID *primitive.ObjectID, page models.Page) ([]models.Product, int64, error)
}

type CartStore interface {
	UpsertCartItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	FindCartItem(ctx context.Context, userID, itemID primitive.ObjectID) (*models.CartItem, error)
	UpdateCartQuantity(ctx context.Context, userID, itemID primitive.ObjectID, qty int, at time.Time) (*models.CartItem, error)
	DeleteCartItems(ctx context.Context, userID primitive.ObjectID, ids []primitive.ObjectID) (int64, error)
	ListCartItems(ctx context.Context, userID primitive.ObjectID) ([]models.CartItem, error)
	RemoveCartProducts(ctx context.Context, userID primitive.ObjectID, productIDs []primitive.ObjectID) error
}

type UserStore interface {
	FindUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	InsertUser(ctx context.Context, u *models.User) error
	SetUserPushToken(ctx context.Context, id primitive.ObjectID, token string) error
}

type ShopStore interface {
	FindShop(ctx context.Context, id primitive.ObjectID) (*models.Shop, error)
	FindShopByEmail(ctx context.Context, email string) (*models.Shop, error)
	InsertShop(ctx context.Context, s *models.Shop) error
	ListShops(ctx context.Context, limit int) ([]models.Shop, error)
	CreditShopBalance(ctx context.Context, id primitive.ObjectID, amount float64) error
	// DebitShopBalance subtracts amount only when the balance covers it and
	// returns models.ErrInsufficientBalance otherwise.
	DebitShopBalance(ctx context.Context, id primitive.ObjectID, amount float64) error
	AddShopTransaction(ctx context.Context, id primitive.ObjectID, tx models.ShopTransaction) error
	SetShopPushToken(ctx context.Context, id primitive.ObjectID, token string) error
}

type DeliveryManStore interface {
	FindDeliveryMan(ctx context.Context, id primitive.ObjectID) (*models.DeliveryMan, error)
	FindDeliveryManByEmail(ctx context.Context, email string) (*models.DeliveryMan, error)
	InsertDeliveryMan(ctx context.Context, d *models.DeliveryMan) error
	SetDeliveryManApproved(ctx context.Context, id primitive.ObjectID, approved bool) (*models.DeliveryMan, error)
	// DeleteUnapprovedDeliveryMan removes a pending account. It returns
	// models.ErrNoMatch when the account exists but is already approved.
	DeleteUnapprovedDeliveryMan(ctx context.Context, id primitive.ObjectID) error
	UpdateDeliveryManLocation(ctx context.Context, id primitive.ObjectID, loc *models.GeoPoint) error
	SetDeliveryManPushToken(ctx context.Context, id primitive.ObjectID, token string) error
	ListDeliveryMen(ctx context.Context, approved *bool, page models.Page) ([]models.DeliveryMan, int64, error)
	ListApprovedPushTokens(ctx context.Context, limit int) ([]string, error)
}

type NotificationStore interface {
	InsertNotifications(ctx context.Context, ns []*models.Notification) error
	ListNotifications(ctx context.Context, userID primitive.ObjectID, page models.Page) ([]models.Notification, int64, error)
	CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error)
	MarkNotificationRead(ctx context.Context, userID, id primitive.ObjectID) (*models.Notification, error)
	MarkAllNotificationsRead(ctx context.Context, userID primitive.ObjectID) (int64, error)
	DeleteNotification(ctx context.Context, userID, id primitive.ObjectID) error
	DeleteAllNotifications(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

// PaymentStore keeps gateway orders. ClaimPaymentIntent moves a created intent
// to paid and returns models.ErrNoMatch when it was already used.
type PaymentStore interface {
	InsertPaymentIntent(ctx context.Context, in *models.PaymentIntent) error
	FindPaymentIntent(ctx context.Context, gatewayOrderID string) (*models.PaymentIntent, error)
	ClaimPaymentIntent(ctx context.Context, gatewayOrderID, paymentID string, at time.Time) (*models.PaymentIntent, error)
}

// WithdrawStore keeps payout requests. CompleteWithdraw only moves a
// Processing request and returns models.ErrNoMatch otherwise.
type WithdrawStore interface {
	InsertWithdraw(ctx context.Context, w *models.Withdraw) error
	FindWithdraw(ctx context.Context, id primitive.ObjectID) (*models.Withdraw, error)
	ListWithdraws(ctx context.Context, shopID *primitive.ObjectID, page models.Page) ([]models.Withdraw, int64, error)
	CompleteWithdraw(ctx context.Context, id primitive.ObjectID, transactionID string, at time.Time) (*models.Withdraw, error)
}

// TxRunner runs fn atomically when the backend supports it; otherwise fn runs as is.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store is everything the services need from persistence.
type Store interface {
	OrderStore
	CatalogStore
	CartStore
	UserStore
	ShopStore
	DeliveryManStore
	NotificationStore
	PaymentStore
	WithdrawStore
	TxRunner
}
