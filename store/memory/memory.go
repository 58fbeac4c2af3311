// Package memory is an in-process implementation of the repositories. Every method
// holds one lock, so conditional updates are atomic the same way single-document
// writes are in MongoDB.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-marketplace/models"
)

type cartKey struct {
	user      primitive.ObjectID
	product   primitive.ObjectID
	variation string
}

// Store keeps every collection in maps guarded by one mutex
type Store struct {
	mu sync.Mutex

	orders        map[primitive.ObjectID]*models.Order
	products      map[primitive.ObjectID]*models.Product
	events        map[primitive.ObjectID]*models.Product
	carts         map[primitive.ObjectID]*models.CartItem
	cartIndex     map[cartKey]primitive.ObjectID
	users         map[primitive.ObjectID]*models.User
	shops         map[primitive.ObjectID]*models.Shop
	deliveryMen   map[primitive.ObjectID]*models.DeliveryMan
	notifications map[primitive.ObjectID]*models.Notification
	payments      map[string]*models.PaymentIntent
	withdraws     map[primitive.ObjectID]*models.Withdraw
}

func New() *Store {
	return &Store{
		orders:        map[primitive.ObjectID]*models.Order{},
		products:      map[primitive.ObjectID]*models.Product{},
		events:        map[primitive.ObjectID]*models.Product{},
		carts:         map[primitive.ObjectID]*models.CartItem{},
		cartIndex:     map[cartKey]primitive.ObjectID{},
		users:         map[primitive.ObjectID]*models.User{},
		shops:         map[primitive.ObjectID]*models.Shop{},
		deliveryMen:   map[primitive.ObjectID]*models.DeliveryMan{},
		notifications: map[primitive.ObjectID]*models.Notification{},
		payments:      map[string]*models.PaymentIntent{},
		withdraws:     map[primitive.ObjectID]*models.Withdraw{},
	}
}

// WithTransaction runs fn directly. Callers compensate on failure.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func window(n int, page models.Page) (int, int) {
	start := page.Skip()
	if start > n {
		start = n
	}
	end := n
	if page.Limit > 0 && start+page.Limit < n {
		end = start + page.Limit
	}
	return start, end
}

func newestFirst(a, b time.Time, ida, idb primitive.ObjectID) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return ida.Hex() > idb.Hex()
}

// Orders

func copyOrder(o *models.Order) *models.Order {
	c := *o
	c.Cart = append([]models.OrderLine(nil), o.Cart...)
	c.IgnoredBy = append([]primitive.ObjectID(nil), o.IgnoredBy...)
	if o.DeliveryMan != nil {
		id := *o.DeliveryMan
		c.DeliveryMan = &id
	}
	if o.UserLocation != nil {
		loc := *o.UserLocation
		c.UserLocation = &loc
	}
	return &c
}

func (s *Store) InsertOrders(_ context.Context, orders []*models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range orders {
		if o.ID.IsZero() {
			o.ID = primitive.NewObjectID()
		}
		s.orders[o.ID] = copyOrder(o)
	}
	return nil
}

func (s *Store) FindOrder(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	return copyOrder(o), nil
}

func (s *Store) UpdateOrderIf(_ context.Context, id primitive.ObjectID, guard models.OrderGuard, change models.OrderChange) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || !guard.Matches(o) {
		return nil, models.ErrNoMatch
	}
	change.Apply(o)
	return copyOrder(o), nil
}

func orderMatches(f models.OrderFilter, o *models.Order) bool {
	if f.UserID != nil && o.User.ID != *f.UserID {
		return false
	}
	if f.ShopID != nil && o.ShopID != *f.ShopID {
		return false
	}
	if f.DeliveryMan != nil && !o.AssignedTo(*f.DeliveryMan) {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.AvailableFor != nil {
		if o.DeliveryMan != nil || o.IgnoredByID(*f.AvailableFor) {
			return false
		}
		if f.Status == "" && !o.Status.Assignable() {
			return false
		}
	}
	return true
}

func (s *Store) ListOrders(_ context.Context, filter models.OrderFilter, page models.Page) ([]models.Order, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []*models.Order
	for _, o := range s.orders {
		if orderMatches(filter, o) {
			matched = append(matched, o)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return newestFirst(matched[i].CreatedAt, matched[j].CreatedAt, matched[i].ID, matched[j].ID)
	})
	start, end := window(len(matched), page)
	out := make([]models.Order, 0, end-start)
	for _, o := range matched[start:end] {
		out = append(out, *copyOrder(o))
	}
	return out, int64(len(matched)), nil
}

// Catalog

func (s *Store) catalog(kind string) map[primitive.ObjectID]*models.Product {
	if kind == models.KindEvent {
		return s.events
	}
	return s.products
}

func (s *Store) FindItem(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	p, err := s.FindItemOfKind(ctx, models.KindProduct, id)
	if err == models.ErrProductNotFound {
		return s.FindItemOfKind(ctx, models.KindEvent, id)
	}
	return p, err
}

func (s *Store) FindItemOfKind(_ context.Context, kind string, id primitive.ObjectID) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.catalog(kind)[id]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	c := *p
	return &c, nil
}

func (s *Store) ReserveStock(_ context.Context, kind string, id primitive.ObjectID, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.catalog(kind)[id]
	if !ok || p.Stock < qty {
		return models.ErrInsufficientStock
	}
	p.Stock -= qty
	p.SoldOut += qty
	return nil
}

func (s *Store) ReleaseStock(_ context.Context, kind string, id primitive.ObjectID, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.catalog(kind)[id]
	if !ok {
		return models.ErrProductNotFound
	}
	p.Stock += qty
	p.SoldOut -= qty
	return nil
}

func (s *Store) CreateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Kind != models.KindEvent {
		p.Kind = models.KindProduct
	}
	c := *p
	s.catalog(p.Kind)[p.ID] = &c
	return nil
}

func (s *Store) ListProducts(_ context.Context, kind string, shopID *primitive.ObjectID, page models.Page) ([]models.Product, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []*models.Product
	for _, p := range s.catalog(kind) {
		if shopID == nil || p.ShopID == *shopID {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return newestFirst(matched[i].CreatedAt, matched[j].CreatedAt, matched[i].ID, matched[j].ID)
	})
	start, end := window(len(matched), page)
	out := make([]models.Product, 0, end-start)
	for _, p := range matched[start:end] {
		out = append(out, *p)
	}
	return out, int64(len(matched)), nil
}

// Carts

func (s *Store) UpsertCartItem(_ context.Context, item *models.CartItem) (*models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := item.UpdatedAt
	if now.IsZero() {
		now = time.Now()
	}
	key := cartKey{item.UserID, item.ProductID, item.SelectedVariation}
	if id, ok := s.cartIndex[key]; ok {
		existing := s.carts[id]
		existing.Quantity = item.Quantity
		existing.ProductType = item.ProductType
		existing.UpdatedAt = now
		c := *existing
		return &c, nil
	}
	c := *item
	c.ID = primitive.NewObjectID()
	c.CreatedAt = now
	c.UpdatedAt = now
	s.carts[c.ID] = &c
	s.cartIndex[key] = c.ID
	out := c
	return &out, nil
}

func (s *Store) FindCartItem(_ context.Context, userID, itemID primitive.ObjectID) (*models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.carts[itemID]
	if !ok || item.UserID != userID {
		return nil, models.ErrCartItemNotFound
	}
	c := *item
	return &c, nil
}

func (s *Store) UpdateCartQuantity(_ context.Context, userID, itemID primitive.ObjectID, qty int, at time.Time) (*models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.carts[itemID]
	if !ok || item.UserID != userID {
		return nil, models.ErrCartItemNotFound
	}
	item.Quantity = qty
	item.UpdatedAt = at
	c := *item
	return &c, nil
}

func (s *Store) deleteCartItem(item *models.CartItem) {
	delete(s.carts, item.ID)
	delete(s.cartIndex, cartKey{item.UserID, item.ProductID, item.SelectedVariation})
}

func (s *Store) DeleteCartItems(_ context.Context, userID primitive.ObjectID, ids []primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, id := range ids {
		if item, ok := s.carts[id]; ok && item.UserID == userID {
			s.deleteCartItem(item)
			n++
		}
	}
	return n, nil
}

func (s *Store) ListCartItems(_ context.Context, userID primitive.ObjectID) ([]models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.CartItem{}
	for _, item := range s.carts {
		if item.UserID == userID {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (s *Store) RemoveCartProducts(_ context.Context, userID primitive.ObjectID, productIDs []primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	drop := map[primitive.ObjectID]bool{}
	for _, id := range productIDs {
		drop[id] = true
	}
	for _, item := range s.carts {
		if item.UserID == userID && drop[item.ProductID] {
			s.deleteCartItem(item)
		}
	}
	return nil
}

// Users

func (s *Store) FindUser(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (s *Store) InsertUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return models.ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	c := *u
	s.users[u.ID] = &c
	return nil
}

func (s *Store) SetUserPushToken(_ context.Context, id primitive.ObjectID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.ErrUserNotFound
	}
	u.ExpoPushToken = token
	return nil
}

// Shops

func (s *Store) FindShop(_ context.Context, id primitive.ObjectID) (*models.Shop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shops[id]
	if !ok {
		return nil, models.ErrShopNotFound
	}
	c := *sh
	return &c, nil
}

func (s *Store) FindShopByEmail(_ context.Context, email string) (*models.Shop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sh := range s.shops {
		if strings.EqualFold(sh.Email, email) {
			c := *sh
			return &c, nil
		}
	}
	return nil, models.ErrShopNotFound
}

func (s *Store) InsertShop(_ context.Context, sh *models.Shop) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.shops {
		if strings.EqualFold(existing.Email, sh.Email) {
			return models.ErrDuplicate
		}
	}
	if sh.ID.IsZero() {
		sh.ID = primitive.NewObjectID()
	}
	c := *sh
	s.shops[sh.ID] = &c
	return nil
}

func (s *Store) ListShops(_ context.Context, limit int) ([]models.Shop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Shop{}
	for _, sh := range s.shops {
		out = append(out, *sh)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CreditShopBalance(_ context.Context, id primitive.ObjectID, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shops[id]
	if !ok {
		return models.ErrShopNotFound
	}
	sh.AvailableBalance += amount
	return nil
}

func (s *Store) DebitShopBalance(_ context.Context, id primitive.ObjectID, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shops[id]
	if !ok {
		return models.ErrShopNotFound
	}
	if sh.AvailableBalance < amount {
		return models.ErrInsufficientBalance
	}
	sh.AvailableBalance -= amount
	return nil
}

func (s *Store) AddShopTransaction(_ context.Context, id primitive.ObjectID, tx models.ShopTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shops[id]
	if !ok {
		return models.ErrShopNotFound
	}
	txs := make([]models.ShopTransaction, 0, len(sh.Transactions)+1)
	sh.Transactions = append(append(txs, sh.Transactions...), tx)
	return nil
}

func (s *Store) SetShopPushToken(_ context.Context, id primitive.ObjectID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shops[id]
	if !ok {
		return models.ErrShopNotFound
	}
	sh.ExpoPushToken = token
	return nil
}

// Delivery men

func (s *Store) FindDeliveryMan(_ context.Context, id primitive.ObjectID) (*models.DeliveryMan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deliveryMen[id]
	if !ok {
		return nil, models.ErrDeliveryManNotFound
	}
	c := *d
	return &c, nil
}

func (s *Store) FindDeliveryManByEmail(_ context.Context, email string) (*models.DeliveryMan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.deliveryMen {
		if strings.EqualFold(d.Email, email) {
			c := *d
			return &c, nil
		}
	}
	return nil, models.ErrDeliveryManNotFound
}

func (s *Store) InsertDeliveryMan(_ context.Context, d *models.DeliveryMan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.deliveryMen {
		if strings.EqualFold(existing.Email, d.Email) {
			return models.ErrDuplicate
		}
	}
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	c := *d
	s.deliveryMen[d.ID] = &c
	return nil
}

func (s *Store) SetDeliveryManApproved(_ context.Context, id primitive.ObjectID, approved bool) (*models.DeliveryMan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deliveryMen[id]
	if !ok {
		return nil, models.ErrDeliveryManNotFound
	}
	d.IsApproved = approved
	d.IsActive = approved
	c := *d
	return &c, nil
}

func (s *Store) DeleteUnapprovedDeliveryMan(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deliveryMen[id]
	if !ok {
		return models.ErrDeliveryManNotFound
	}
	if d.IsApproved {
		return models.ErrNoMatch
	}
	delete(s.deliveryMen, id)
	return nil
}

func (s *Store) UpdateDeliveryManLocation(_ context.Context, id primitive.ObjectID, loc *models.GeoPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deliveryMen[id]
	if !ok {
		return models.ErrDeliveryManNotFound
	}
	d.CurrentLocation = loc
	return nil
}

func (s *Store) SetDeliveryManPushToken(_ context.Context, id primitive.ObjectID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deliveryMen[id]
	if !ok {
		return models.ErrDeliveryManNotFound
	}
	d.ExpoPushToken = token
	return nil
}

func (s *Store) ListDeliveryMen(_ context.Context, approved *bool, page models.Page) ([]models.DeliveryMan, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []*models.DeliveryMan
	for _, d := range s.deliveryMen {
		if approved == nil || d.IsApproved == *approved {
			matched = append(matched, d)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return newestFirst(matched[i].CreatedAt, matched[j].CreatedAt, matched[i].ID, matched[j].ID)
	})
	start, end := window(len(matched), page)
	out := make([]models.DeliveryMan, 0, end-start)
	for _, d := range matched[start:end] {
		out = append(out, *d)
	}
	return out, int64(len(matched)), nil
}

func (s *Store) ListApprovedPushTokens(_ context.Context, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var tokens []string
	for _, d := range s.deliveryMen {
		if d.IsApproved && d.ExpoPushToken != "" {
			tokens = append(tokens, d.ExpoPushToken)
			if limit > 0 && len(tokens) == limit {
				break
			}
		}
	}
	return tokens, nil
}

// Notifications

func (s *Store) InsertNotifications(_ context.Context, ns []*models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range ns {
		if n.ID.IsZero() {
			n.ID = primitive.NewObjectID()
		}
		c := *n
		s.notifications[n.ID] = &c
	}
	return nil
}

func (s *Store) ListNotifications(_ context.Context, userID primitive.ObjectID, page models.Page) ([]models.Notification, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []*models.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			matched = append(matched, n)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return newestFirst(matched[i].CreatedAt, matched[j].CreatedAt, matched[i].ID, matched[j].ID)
	})
	start, end := window(len(matched), page)
	out := make([]models.Notification, 0, end-start)
	for _, n := range matched[start:end] {
		out = append(out, *n)
	}
	return out, int64(len(matched)), nil
}

func (s *Store) CountUnread(_ context.Context, userID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, v := range s.notifications {
		if v.UserID == userID && !v.IsRead {
			n++
		}
	}
	return n, nil
}

func (s *Store) MarkNotificationRead(_ context.Context, userID, id primitive.ObjectID) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return nil, models.ErrNotificationNotFound
	}
	n.IsRead = true
	c := *n
	return &c, nil
}

func (s *Store) MarkAllNotificationsRead(_ context.Context, userID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, n := range s.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count, nil
}

func (s *Store) DeleteNotification(_ context.Context, userID, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return models.ErrNotificationNotFound
	}
	delete(s.notifications, id)
	return nil
}

func (s *Store) DeleteAllNotifications(_ context.Context, userID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for id, n := range s.notifications {
		if n.UserID == userID {
			delete(s.notifications, id)
			count++
		}
	}
	return count, nil
}

// Payments

func copyIntent(in *models.PaymentIntent) *models.PaymentIntent {
	c := *in
	c.OrderIDs = append([]primitive.ObjectID(nil), in.OrderIDs...)
	return &c
}

func (s *Store) InsertPaymentIntent(_ context.Context, in *models.PaymentIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[in.GatewayOrderID]; ok {
		return models.ErrDuplicate
	}
	if in.ID.IsZero() {
		in.ID = primitive.NewObjectID()
	}
	s.payments[in.GatewayOrderID] = copyIntent(in)
	return nil
}

func (s *Store) FindPaymentIntent(_ context.Context, gatewayOrderID string) (*models.PaymentIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.payments[gatewayOrderID]
	if !ok {
		return nil, models.ErrPaymentNotFound
	}
	return copyIntent(in), nil
}

func (s *Store) ClaimPaymentIntent(_ context.Context, gatewayOrderID, paymentID string, at time.Time) (*models.PaymentIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.payments[gatewayOrderID]
	if !ok || in.Status != models.IntentCreated {
		return nil, models.ErrNoMatch
	}
	in.Status = models.IntentPaid
	in.PaymentID = paymentID
	in.PaidAt = &at
	return copyIntent(in), nil
}

// Withdraws

func (s *Store) InsertWithdraw(_ context.Context, w *models.Withdraw) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.ID.IsZero() {
		w.ID = primitive.NewObjectID()
	}
	c := *w
	s.withdraws[w.ID] = &c
	return nil
}

func (s *Store) FindWithdraw(_ context.Context, id primitive.ObjectID) (*models.Withdraw, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.withdraws[id]
	if !ok {
		return nil, models.ErrWithdrawNotFound
	}
	c := *w
	return &c, nil
}

func (s *Store) ListWithdraws(_ context.Context, shopID *primitive.ObjectID, page models.Page) ([]models.Withdraw, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []*models.Withdraw
	for _, w := range s.withdraws {
		if shopID == nil || w.ShopID == *shopID {
			matched = append(matched, w)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return newestFirst(matched[i].CreatedAt, matched[j].CreatedAt, matched[i].ID, matched[j].ID)
	})
	start, end := window(len(matched), page)
	out := make([]models.Withdraw, 0, end-start)
	for _, w := range matched[start:end] {
		out = append(out, *w)
	}
	return out, int64(len(matched)), nil
}

func (s *Store) CompleteWithdraw(_ context.Context, id primitive.ObjectID, transactionID string, at time.Time) (*models.Withdraw, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.withdraws[id]
	if !ok || w.Status != models.WithdrawProcessing {
		return nil, models.ErrNoMatch
	}
	w.Status = models.WithdrawSucceeded
	w.TransactionID = transactionID
	w.UpdatedAt = at
	c := *w
	return &c, nil
}
