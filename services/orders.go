package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-marketplace/apperr"
	"go-marketplace/geofence"
	"go-marketplace/models"
)

// Allowed gap between the client total and the computed one.
var totalTolerance = decimal.NewFromFloat(0.01)

// OrderConfig holds the lifecycle knobs.
type OrderConfig struct {
	RequireLocation bool
	OTPMaxAttempts  int
	CommissionRate  float64
}

// OrderStores is the persistence the lifecycle manager needs.
type OrderStores interface {
	OrderStore
	CatalogStore
	CartStore
	ShopStore
	TxRunner
}

// OrderService owns checkout and every order state transition
type OrderService struct {
	store    OrderStores
	geo      *geofence.Evaluator
	notifier Notifier
	cfg      OrderConfig
	now      func() time.Time
}

func NewOrderService(store OrderStores, geo *geofence.Evaluator, notifier Notifier, cfg OrderConfig) *OrderService {
	if cfg.OTPMaxAttempts < 1 {
		cfg.OTPMaxAttempts = 5
	}
	return &OrderService{store: store, geo: geo, notifier: notifier, cfg: cfg, now: time.Now}
}

// CheckoutLine is one requested cart line.
type CheckoutLine struct {
	ProductID primitive.ObjectID
	ShopID    primitive.ObjectID
	Quantity  int
	Price     float64
	Name      string
	Images    []string
}

// CheckoutRequest is the customer's checkout submission.
type CheckoutRequest struct {
	Lines           []CheckoutLine
	ShippingAddress models.ShippingAddress
	TotalPrice      *float64
	PaymentInfo     models.PaymentInfo
	UserLocation    *models.UserLocation
}

// CheckoutResult lists the created orders and each order's OTP.
type CheckoutResult struct {
	Orders []models.Order    `json:"orders"`
	OTPs   map[string]string `json:"otps"`
}

type reservation struct {
	kind string
	id   primitive.ObjectID
	qty  int
}

func (s *OrderService) publish(typ string, o *models.Order) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(NewEvent(typ, o))
}

// Checkout validates the request, reserves stock and creates one order per shop.
func (s *OrderService) Checkout(ctx context.Context, customer *models.User, req CheckoutRequest) (*CheckoutResult, error) {
	if len(req.Lines) == 0 {
		return nil, apperr.Invalid("cart is empty")
	}
	for _, l := range req.Lines {
		if l.ProductID.IsZero() {
			return nil, apperr.Invalid("every cart line needs a product id")
		}
		if l.Quantity < 1 {
			return nil, apperr.New(apperr.Validation, apperr.CodeInvalidQuantity, "quantity must be at least 1")
		}
	}

	if req.UserLocation != nil {
		if err := geofence.ValidateCoordinates(req.UserLocation.Latitude, req.UserLocation.Longitude); err != nil {
			return nil, apperr.New(apperr.Validation, apperr.CodeInvalidLocation, "invalid delivery location")
		}
	} else if s.cfg.RequireLocation {
		return nil, apperr.Invalid("location required")
	}

	// resolve lines against the catalog; the catalog price and shop win
	lines := make([]models.OrderLine, 0, len(req.Lines))
	var shopOrder []primitive.ObjectID
	byShop := map[primitive.ObjectID][]models.OrderLine{}
	for _, l := range req.Lines {
		p, err := s.store.FindItem(ctx, l.ProductID)
		if err != nil {
			return nil, translate(err, "find product")
		}
		if !l.ShopID.IsZero() && l.ShopID != p.ShopID {
			return nil, apperr.Invalid("product " + p.ID.Hex() + " does not belong to shop " + l.ShopID.Hex())
		}
		images := l.Images
		if len(images) == 0 {
			images = p.Images
		}
		line := models.OrderLine{
			ProductID:   p.ID,
			ShopID:      p.ShopID,
			ProductType: p.Kind,
			Quantity:    l.Quantity,
			Price:       p.UnitPrice(),
			Name:        p.Name,
			Images:      images,
		}
		lines = append(lines, line)
		if _, seen := byShop[p.ShopID]; !seen {
			shopOrder = append(shopOrder, p.ShopID)
		}
		byShop[p.ShopID] = append(byShop[p.ShopID], line)
	}

	shops := make(map[primitive.ObjectID]*models.Shop, len(shopOrder))
	sites := make([]geofence.Site, 0, len(shopOrder))
	for _, id := range shopOrder {
		shop, err := s.store.FindShop(ctx, id)
		if err != nil {
			return nil, translate(err, "find shop")
		}
		shops[id] = shop
		sites = append(sites, SiteFor(shop))
	}

	if req.UserLocation != nil {
		checks, unavailable, err := s.geo.CheckAll(req.UserLocation.Latitude, req.UserLocation.Longitude, sites)
		if err != nil {
			return nil, err
		}
		if len(unavailable) > 0 {
			return nil, apperr.New(apperr.Validation, apperr.CodeDeliveryUnavailable,
				"delivery is not available from some shops in your cart").
				WithDetail("unavailableShops", unavailable).
				WithDetail("deliveryChecks", checks)
		}
	}

	overall := decimal.Zero
	for _, l := range lines {
		overall = overall.Add(decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	if req.TotalPrice != nil {
		if overall.Sub(decimal.NewFromFloat(*req.TotalPrice)).Abs().GreaterThan(totalTolerance) {
			return nil, apperr.Invalid("total price does not match cart").
				WithDetail("expectedTotal", overall.Round(2).InexactFloat64())
		}
	}

	now := s.now()
	payment := req.PaymentInfo
	if payment.Type == "" {
		payment.Type = models.PaymentTypeCOD
	}
	if payment.Status == "" || payment.IsCOD() {
		payment.Status = models.PaymentPending
	}

	orders := make([]*models.Order, 0, len(shopOrder))
	otps := make(map[string]string, len(shopOrder))
	for _, shopID := range shopOrder {
		otp, err := GenerateOTP()
		if err != nil {
			return nil, apperr.Wrap(err, "generate otp")
		}
		shopLines := byShop[shopID]
		total := decimal.Zero
		for _, l := range shopLines {
			total = total.Add(decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
		}
		o := &models.Order{
			ID:              primitive.NewObjectID(),
			Cart:            shopLines,
			ShippingAddress: req.ShippingAddress,
			User:            customer.Snapshot(),
			ShopID:          shopID,
			IgnoredBy:       []primitive.ObjectID{},
			TotalPrice:      total.Round(2).InexactFloat64(),
			Status:          models.StatusProcessing,
			OTP:             otp,
			UserLocation:    req.UserLocation,
			PaymentInfo:     payment,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		orders = append(orders, o)
		otps[o.ID.Hex()] = otp
	}

	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		reserved, err := s.reserve(ctx, lines)
		if err != nil {
			return err
		}
		if err := s.store.InsertOrders(ctx, orders); err != nil {
			s.release(ctx, reserved)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, "create orders")
	}

	productIDs := make([]primitive.ObjectID, 0, len(lines))
	for _, l := range lines {
		productIDs = append(productIDs, l.ProductID)
	}
	if err := s.store.RemoveCartProducts(ctx, customer.ID, productIDs); err != nil {
		log.WithError(err).WithField("user", customer.ID.Hex()).Warn("failed to clear ordered products from cart")
	}

	result := &CheckoutResult{Orders: make([]models.Order, 0, len(orders)), OTPs: otps}
	for _, o := range orders {
		result.Orders = append(result.Orders, *o)
		s.publish(models.EventOrderCreated, o)
	}
	log.WithFields(log.Fields{"user": customer.ID.Hex(), "orders": len(orders)}).Info("checkout completed")
	return result, nil
}

// reserve takes stock for every line and gives back what it took if one line fails.
func (s *OrderService) reserve(ctx context.Context, lines []models.OrderLine) ([]reservation, error) {
	reserved := make([]reservation, 0, len(lines))
	for _, l := range lines {
		err := s.store.ReserveStock(ctx, l.ProductType, l.ProductID, l.Quantity)
		if err != nil {
			s.release(ctx, reserved)
			if errors.Is(err, models.ErrInsufficientStock) {
				return nil, apperr.Newf(apperr.Conflict, apperr.CodeOutOfStock, "%s is out of stock", l.Name).
					WithDetail("productId", l.ProductID.Hex())
			}
			return nil, err
		}
		reserved = append(reserved, reservation{kind: l.ProductType, id: l.ProductID, qty: l.Quantity})
	}
	return reserved, nil
}

func (s *OrderService) release(ctx context.Context, reserved []reservation) {
	for _, r := range reserved {
		if err := s.store.ReleaseStock(ctx, r.kind, r.id, r.qty); err != nil {
			log.WithError(err).WithField("product", r.id.Hex()).Error("failed to release reserved stock")
		}
	}
}

// restoreStock puts every line that is not yet restocked back into the catalog.
// A line is flagged on the order before its stock moves and unflagged when the
// move fails, so a retry finishes the remaining lines and never restocks twice.
func (s *OrderService) restoreStock(ctx context.Context, o *models.Order) (*models.Order, error) {
	current := o
	for i, l := range o.Cart {
		if l.Restocked {
			continue
		}
		idx := i
		flagged, err := s.store.UpdateOrderIf(ctx, o.ID, models.OrderGuard{LineNotRestocked: &idx},
			models.OrderChange{Restock: &models.LineFlag{Index: idx, Restocked: true}})
		if errors.Is(err, models.ErrNoMatch) {
			continue
		}
		if err != nil {
			return current, err
		}
		err = s.store.ReleaseStock(ctx, l.ProductType, l.ProductID, l.Quantity)
		if errors.Is(err, models.ErrProductNotFound) {
			log.WithFields(log.Fields{"order": o.ID.Hex(), "product": l.ProductID.Hex()}).
				Warn("product gone, nothing to restock")
			err = nil
		}
		if err != nil {
			_, uerr := s.store.UpdateOrderIf(ctx, o.ID, models.OrderGuard{},
				models.OrderChange{Restock: &models.LineFlag{Index: idx, Restocked: false}})
			if uerr != nil {
				log.WithError(uerr).WithField("order", o.ID.Hex()).Error("failed to unflag restock line")
			}
			return current, err
		}
		current = flagged
	}
	return current, nil
}

// creditSeller adds the seller's share to the shop balance once per order. The
// order is flagged first and unflagged when the balance write fails.
func (s *OrderService) creditSeller(ctx context.Context, o *models.Order) (*models.Order, error) {
	if o.SellerCredited {
		return o, nil
	}
	credited, cleared := true, false
	flagged, err := s.store.UpdateOrderIf(ctx, o.ID, models.OrderGuard{NotCredited: true},
		models.OrderChange{SellerCredited: &credited})
	if errors.Is(err, models.ErrNoMatch) {
		return o, nil
	}
	if err != nil {
		return o, err
	}
	if err := s.store.CreditShopBalance(ctx, o.ShopID, s.sellerShare(o.TotalPrice)); err != nil {
		_, uerr := s.store.UpdateOrderIf(ctx, o.ID, models.OrderGuard{}, models.OrderChange{SellerCredited: &cleared})
		if uerr != nil {
			log.WithError(uerr).WithField("order", o.ID.Hex()).Error("failed to unflag seller credit")
		}
		return o, err
	}
	return flagged, nil
}

// SiteFor turns a shop into a geofence site.
func SiteFor(shop *models.Shop) geofence.Site {
	site := geofence.Site{ID: shop.ID.Hex(), Name: shop.Name, RadiusKm: shop.RadiusOverride()}
	if lat, lng, ok := shop.Location.LatLng(); ok {
		site.Lat, site.Lng = &lat, &lng
	}
	return site
}

// Get returns the order if actor may see it.
func (s *OrderService) Get(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Order, error) {
	o, err := s.store.FindOrder(ctx, id)
	if err != nil {
		return nil, translate(err, "find order")
	}
	if !actor.CanView(o) {
		return nil, apperr.Forbidden("you are not allowed to view this order")
	}
	return o, nil
}

// OrderPage is one page of a listing.
type OrderPage struct {
	Orders     []models.Order `json:"orders"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	Total      int64          `json:"total"`
	TotalPages int64          `json:"totalPages"`
}

func (s *OrderService) List(ctx context.Context, filter models.OrderFilter, page models.Page) (*OrderPage, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperr.Invalid("unknown status " + string(filter.Status))
	}
	orders, total, err := s.store.ListOrders(ctx, filter, page)
	if err != nil {
		return nil, translate(err, "list orders")
	}
	return &OrderPage{
		Orders:     orders,
		Page:       page.Page,
		Limit:      page.Limit,
		Total:      total,
		TotalPages: page.TotalPages(total),
	}, nil
}

func invalidState(o *models.Order, action string) error {
	return apperr.Newf(apperr.Conflict, apperr.CodeInvalidState, "cannot %s an order that is %s", action, o.Status).
		WithDetail("status", o.Status)
}

// UpdateStatus applies a seller-driven transition on one of the shop's orders.
func (s *OrderService) UpdateStatus(ctx context.Context, shopID, id primitive.ObjectID, to models.OrderStatus) (*models.Order, error) {
	if !to.Valid() {
		return nil, apperr.Invalid("unknown status " + string(to))
	}
	if to == models.StatusDelivered {
		return nil, apperr.New(apperr.Validation, apperr.CodeInvalidState, "delivery must be confirmed with the customer's OTP")
	}
	sources := models.SellerSources(to)
	if len(sources) == 0 {
		return nil, apperr.Newf(apperr.Validation, apperr.CodeInvalidState, "sellers cannot set status %s", to)
	}

	now := s.now()
	guard := models.OrderGuard{Statuses: sources, ShopID: &shopID}
	change := models.OrderChange{Status: &to, UpdatedAt: now}

	var updated *models.Order
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.store.UpdateOrderIf(ctx, id, guard, change)
		if err != nil {
			return err
		}
		if to == models.StatusCancelled {
			if o, err = s.restoreStock(ctx, o); err != nil {
				return err
			}
		}
		updated = o
		return nil
	})
	if errors.Is(err, models.ErrNoMatch) {
		o, ferr := s.store.FindOrder(ctx, id)
		if ferr != nil {
			return nil, translate(ferr, "find order")
		}
		if o.ShopID != shopID {
			return nil, apperr.Forbidden("order belongs to another shop")
		}
		if o.Status != to {
			return nil, invalidState(o, "move to "+string(to))
		}
		if to != models.StatusCancelled || !o.PendingRestock() {
			return o, nil
		}
		// an earlier cancel stopped part way through restocking
		if updated, err = s.restoreStock(ctx, o); err != nil {
			return nil, translate(err, "restore stock")
		}
	} else if err != nil {
		return nil, translate(err, "update order status")
	}

	switch to {
	case models.StatusAccepted:
		s.publish(models.EventOrderAccepted, updated)
	case models.StatusCancelled:
		s.publish(models.EventOrderCancelled, updated)
	default:
		s.publish(models.EventStatusChanged, updated)
	}
	return updated, nil
}

// Accept assigns the order to the delivery man in one conditional write.
// Re-accepting an order you already hold returns it unchanged.
func (s *OrderService) Accept(ctx context.Context, deliveryManID, id primitive.ObjectID, instruction string) (*models.Order, error) {
	now := s.now()
	status := models.StatusOutForDelivery
	change := models.OrderChange{
		Status:      &status,
		DeliveryMan: &deliveryManID,
		AcceptedAt:  &now,
		UpdatedAt:   now,
	}
	if instruction != "" {
		change.DeliveryInstruction = &instruction
	}
	guard := models.OrderGuard{Statuses: models.AssignableStatuses, Unassigned: true}

	o, err := s.store.UpdateOrderIf(ctx, id, guard, change)
	if errors.Is(err, models.ErrNoMatch) {
		current, ferr := s.store.FindOrder(ctx, id)
		if ferr != nil {
			return nil, translate(ferr, "find order")
		}
		switch {
		case current.AssignedTo(deliveryManID):
			return current, nil
		case current.DeliveryMan != nil:
			return nil, apperr.New(apperr.Conflict, apperr.CodeAlreadyAssigned, "order already accepted by another delivery partner")
		default:
			return nil, invalidState(current, "accept")
		}
	}
	if err != nil {
		return nil, translate(err, "accept order")
	}

	log.WithFields(log.Fields{"order": id.Hex(), "deliveryMan": deliveryManID.Hex()}).Info("order accepted for delivery")
	s.publish(models.EventOrderAssigned, o)
	return o, nil
}

// Ignore hides an open order from the delivery man's available list.
func (s *OrderService) Ignore(ctx context.Context, deliveryManID, id primitive.ObjectID) (*models.Order, error) {
	guard := models.OrderGuard{
		Statuses:     models.AssignableStatuses,
		Unassigned:   true,
		NotIgnoredBy: &deliveryManID,
	}
	o, err := s.store.UpdateOrderIf(ctx, id, guard, models.OrderChange{AddIgnoredBy: &deliveryManID, UpdatedAt: s.now()})
	if errors.Is(err, models.ErrNoMatch) {
		current, ferr := s.store.FindOrder(ctx, id)
		if ferr != nil {
			return nil, translate(ferr, "find order")
		}
		switch {
		case current.DeliveryMan != nil:
			return nil, apperr.New(apperr.Conflict, apperr.CodeAlreadyAssigned, "order already accepted by a delivery partner")
		case !current.Status.Assignable():
			return nil, invalidState(current, "ignore")
		default:
			return nil, apperr.New(apperr.Conflict, apperr.CodeAlreadyIgnored, "order already ignored")
		}
	}
	if err != nil {
		return nil, translate(err, "ignore order")
	}
	return o, nil
}

// ConfirmDelivery checks the OTP and, on a match, completes the order and credits the seller.
func (s *OrderService) ConfirmDelivery(ctx context.Context, deliveryManID, id primitive.ObjectID, otp string) (*models.Order, error) {
	o, err := s.store.FindOrder(ctx, id)
	if err != nil {
		return nil, translate(err, "find order")
	}
	if !o.AssignedTo(deliveryManID) {
		return nil, apperr.New(apperr.Authorization, apperr.CodeNotAssignedToYou, "order is not assigned to you")
	}
	if o.Status == models.StatusDelivered && !o.SellerCredited {
		// the OTP was accepted earlier but the seller credit did not land
		return s.finishDelivery(ctx, o)
	}
	sources := models.Sources(models.StatusDelivered)
	if !containsStatus(sources, o.Status) {
		return nil, invalidState(o, "confirm delivery of")
	}
	limit := s.cfg.OTPMaxAttempts
	if o.OTPAttempts >= limit {
		return nil, attemptsExceeded()
	}

	inFlight := models.OrderGuard{
		Statuses:         sources,
		DeliveryMan:      &deliveryManID,
		OTPAttemptsBelow: limit,
	}

	if !otpEqual(o.OTP, otp) {
		after, err := s.store.UpdateOrderIf(ctx, id, inFlight, models.OrderChange{IncOTPAttempts: true})
		if errors.Is(err, models.ErrNoMatch) {
			return nil, s.diagnoseConfirm(ctx, deliveryManID, id)
		}
		if err != nil {
			return nil, translate(err, "record otp attempt")
		}
		log.WithFields(log.Fields{"order": id.Hex(), "attempts": after.OTPAttempts}).Warn("invalid delivery otp")
		return nil, apperr.New(apperr.Validation, apperr.CodeInvalidOtp, "invalid OTP").
			WithDetail("attemptsRemaining", limit-after.OTPAttempts)
	}

	now := s.now()
	delivered := models.StatusDelivered
	change := models.OrderChange{
		Status:      &delivered,
		DeliveredAt: &now,
		ClearOTP:    true,
		UpdatedAt:   now,
	}
	if o.PaymentInfo.IsCOD() {
		change.PaymentStatus = models.PaymentSucceeded
		change.PaidAt = &now
	}
	guard := inFlight
	guard.OTP = otp

	var updated *models.Order
	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		u, err := s.store.UpdateOrderIf(ctx, id, guard, change)
		if err != nil {
			return err
		}
		if updated, err = s.creditSeller(ctx, u); err != nil {
			return err
		}
		return nil
	})
	if errors.Is(err, models.ErrNoMatch) {
		return nil, s.diagnoseConfirm(ctx, deliveryManID, id)
	}
	if err != nil {
		return nil, translate(err, "confirm delivery")
	}

	log.WithFields(log.Fields{"order": id.Hex(), "shop": updated.ShopID.Hex()}).Info("order delivered")
	s.publish(models.EventOrderDelivered, updated)
	return updated, nil
}

func (s *OrderService) finishDelivery(ctx context.Context, o *models.Order) (*models.Order, error) {
	updated, err := s.creditSeller(ctx, o)
	if err != nil {
		return nil, translate(err, "credit seller")
	}
	log.WithFields(log.Fields{"order": o.ID.Hex(), "shop": o.ShopID.Hex()}).Info("order delivered")
	s.publish(models.EventOrderDelivered, updated)
	return updated, nil
}

func containsStatus(list []models.OrderStatus, st models.OrderStatus) bool {
	for _, v := range list {
		if v == st {
			return true
		}
	}
	return false
}

func attemptsExceeded() error {
	return apperr.New(apperr.Authorization, apperr.CodeOtpAttemptsExceeded, "too many invalid OTP attempts")
}

// diagnoseConfirm explains why a guarded confirmation write matched nothing.
func (s *OrderService) diagnoseConfirm(ctx context.Context, deliveryManID, id primitive.ObjectID) error {
	o, err := s.store.FindOrder(ctx, id)
	if err != nil {
		return translate(err, "find order")
	}
	switch {
	case !o.AssignedTo(deliveryManID):
		return apperr.New(apperr.Authorization, apperr.CodeNotAssignedToYou, "order is not assigned to you")
	case !containsStatus(models.Sources(models.StatusDelivered), o.Status):
		return invalidState(o, "confirm delivery of")
	case o.OTPAttempts >= s.cfg.OTPMaxAttempts:
		return attemptsExceeded()
	}
	return apperr.New(apperr.Validation, apperr.CodeInvalidOtp, "invalid OTP")
}

// sellerShare is the order total minus the platform commission, rounded to paise.
func (s *OrderService) sellerShare(total float64) float64 {
	t := decimal.NewFromFloat(total)
	charge := t.Mul(decimal.NewFromFloat(s.cfg.CommissionRate))
	return t.Sub(charge).Round(2).InexactFloat64()
}

// RequestRefund moves a delivered order of the customer to RefundRequested.
func (s *OrderService) RequestRefund(ctx context.Context, userID, id primitive.ObjectID) (*models.Order, error) {
	to := models.StatusRefundRequested
	guard := models.OrderGuard{Statuses: models.Sources(to), UserID: &userID}
	o, err := s.store.UpdateOrderIf(ctx, id, guard, models.OrderChange{Status: &to, UpdatedAt: s.now()})
	if errors.Is(err, models.ErrNoMatch) {
		current, ferr := s.store.FindOrder(ctx, id)
		if ferr != nil {
			return nil, translate(ferr, "find order")
		}
		if current.User.ID != userID {
			return nil, apperr.Forbidden("you are not allowed to refund this order")
		}
		return nil, invalidState(current, "request a refund for")
	}
	if err != nil {
		return nil, translate(err, "request refund")
	}
	s.publish(models.EventRefundRequested, o)
	return o, nil
}

// ApproveRefund completes a refund and puts the stock back.
func (s *OrderService) ApproveRefund(ctx context.Context, shopID, id primitive.ObjectID) (*models.Order, error) {
	to := models.StatusRefundSucceeded
	guard := models.OrderGuard{Statuses: models.Sources(to), ShopID: &shopID}

	var updated *models.Order
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.store.UpdateOrderIf(ctx, id, guard, models.OrderChange{Status: &to, UpdatedAt: s.now()})
		if err != nil {
			return err
		}
		if updated, err = s.restoreStock(ctx, o); err != nil {
			return err
		}
		return nil
	})
	if errors.Is(err, models.ErrNoMatch) {
		current, ferr := s.store.FindOrder(ctx, id)
		if ferr != nil {
			return nil, translate(ferr, "find order")
		}
		if current.ShopID != shopID {
			return nil, apperr.Forbidden("order belongs to another shop")
		}
		if current.Status != to || !current.PendingRestock() {
			return nil, invalidState(current, "approve a refund for")
		}
		if updated, err = s.restoreStock(ctx, current); err != nil {
			return nil, translate(err, "restore stock")
		}
	} else if err != nil {
		return nil, translate(err, "approve refund")
	}
	s.publish(models.EventRefundSucceeded, updated)
	return updated, nil
}
