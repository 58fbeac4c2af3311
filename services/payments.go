package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-marketplace/apperr"
	"go-marketplace/models"
	"go-marketplace/utils"
)

const paymentCurrency = "INR"

// PaymentStores is the persistence online payments need.
type PaymentStores interface {
	OrderStore
	PaymentStore
}

// PaymentService creates gateway orders and records verified online payments
type PaymentService struct {
	store   PaymentStores
	gateway utils.PaymentGateway
	now     func() time.Time
}

func NewPaymentService(store PaymentStores, gateway utils.PaymentGateway) *PaymentService {
	return &PaymentService{store: store, gateway: gateway, now: time.Now}
}

func notConfigured() error {
	return apperr.New(apperr.Upstream, apperr.CodeUpstream, "online payments are not configured")
}

// CreateGatewayOrder quotes the customer's unpaid online orders to the gateway.
// The amount is computed here from the orders, never taken from the client.
func (p *PaymentService) CreateGatewayOrder(ctx context.Context, userID primitive.ObjectID, orderIDs []primitive.ObjectID) (*utils.GatewayOrder, error) {
	if p.gateway == nil {
		return nil, notConfigured()
	}
	if len(orderIDs) == 0 {
		return nil, apperr.Invalid("orderIds must not be empty")
	}
	seen := make(map[primitive.ObjectID]bool, len(orderIDs))
	for _, id := range orderIDs {
		if seen[id] {
			return nil, apperr.Invalid("orderIds must not repeat")
		}
		seen[id] = true
	}

	paise, err := p.quote(ctx, userID, orderIDs, "")
	if err != nil {
		return nil, err
	}
	if paise <= 0 {
		return nil, apperr.Invalid("nothing to pay")
	}

	order, err := p.gateway.CreateOrder(paise, paymentCurrency, "receipt_"+primitive.NewObjectID().Hex())
	if err != nil {
		log.WithError(err).WithField("user", userID.Hex()).Error("payment gateway order failed")
		return nil, apperr.New(apperr.Upstream, apperr.CodeUpstream, "failed to create payment order")
	}
	if order.Amount != paise {
		log.WithFields(log.Fields{"gatewayOrder": order.ID, "quoted": paise, "recorded": order.Amount}).
			Error("payment gateway recorded a different amount")
		return nil, apperr.New(apperr.Upstream, apperr.CodeUpstream, "payment gateway recorded a different amount")
	}

	intent := &models.PaymentIntent{
		GatewayOrderID: order.ID,
		UserID:         userID,
		OrderIDs:       orderIDs,
		Amount:         paise,
		Currency:       paymentCurrency,
		Status:         models.IntentCreated,
		CreatedAt:      p.now(),
	}
	if err := p.store.InsertPaymentIntent(ctx, intent); err != nil {
		return nil, translate(err, "save payment intent")
	}
	return order, nil
}

// quote sums the orders in paise after checking each one can be paid online by
// userID. Orders already settled by paymentID pass as well, so an interrupted
// verification can be finished.
func (p *PaymentService) quote(ctx context.Context, userID primitive.ObjectID, ids []primitive.ObjectID, paymentID string) (int64, error) {
	total := decimal.Zero
	for _, id := range ids {
		o, err := p.store.FindOrder(ctx, id)
		if errors.Is(err, models.ErrOrderNotFound) || (err == nil && o.User.ID != userID) {
			return 0, apperr.NotFoundf("order %s not found", id.Hex())
		}
		if err != nil {
			return 0, translate(err, "find order")
		}
		if err := payable(o, paymentID); err != nil {
			return 0, err
		}
		total = total.Add(decimal.NewFromFloat(o.TotalPrice))
	}
	return total.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}

func payable(o *models.Order, paymentID string) error {
	if o.PaymentInfo.IsCOD() {
		return apperr.Newf(apperr.Validation, apperr.CodeInvalidState, "order %s is cash on delivery", o.ID.Hex())
	}
	if paymentID != "" && o.PaymentInfo.Status == models.PaymentSucceeded && o.PaymentInfo.ID == paymentID {
		return nil
	}
	if o.PaymentInfo.Status != models.PaymentPending {
		return apperr.Newf(apperr.Conflict, apperr.CodeInvalidState, "order %s is already paid", o.ID.Hex())
	}
	if !containsStatus(models.PayableStatuses, o.Status) {
		return invalidState(o, "pay for")
	}
	return nil
}

// VerifyInput carries the gateway callback fields plus, optionally, the orders
// the client believes it paid for.
type VerifyInput struct {
	GatewayOrderID string
	PaymentID      string
	Signature      string
	OrderIDs       []primitive.ObjectID
}

// Verify checks the payment signature and marks the orders bound to the gateway
// order paid. A gateway order settles its orders once.
func (p *PaymentService) Verify(ctx context.Context, userID primitive.ObjectID, in VerifyInput) ([]models.Order, error) {
	if p.gateway == nil {
		return nil, notConfigured()
	}
	if !p.gateway.VerifySignature(in.GatewayOrderID, in.PaymentID, in.Signature) {
		return nil, apperr.New(apperr.Validation, apperr.CodeInvalidSignature, "invalid payment signature")
	}

	intent, err := p.store.FindPaymentIntent(ctx, in.GatewayOrderID)
	if err != nil {
		return nil, translate(err, "find payment intent")
	}
	if intent.UserID != userID {
		return nil, apperr.NotFoundf("payment not found")
	}
	if len(in.OrderIDs) > 0 && !sameIDs(in.OrderIDs, intent.OrderIDs) {
		return nil, apperr.New(apperr.Validation, apperr.CodeAmountMismatch, "orders do not match the payment")
	}
	resuming := intent.Status == models.IntentPaid && intent.PaymentID == in.PaymentID
	if intent.Status != models.IntentCreated && !resuming {
		return nil, apperr.New(apperr.Conflict, apperr.CodePaymentAlreadyUsed, "payment was already used")
	}

	paise, err := p.quote(ctx, userID, intent.OrderIDs, in.PaymentID)
	if err != nil {
		return nil, err
	}
	if paise != intent.Amount {
		log.WithFields(log.Fields{"gatewayOrder": intent.GatewayOrderID, "paid": intent.Amount, "due": paise}).
			Warn("payment amount mismatch")
		return nil, apperr.New(apperr.Validation, apperr.CodeAmountMismatch, "paid amount does not match the orders")
	}

	now := p.now()
	if !resuming {
		_, err := p.store.ClaimPaymentIntent(ctx, in.GatewayOrderID, in.PaymentID, now)
		if errors.Is(err, models.ErrNoMatch) {
			return nil, apperr.New(apperr.Conflict, apperr.CodePaymentAlreadyUsed, "payment was already used")
		}
		if err != nil {
			return nil, translate(err, "claim payment intent")
		}
	}

	change := models.OrderChange{
		PaymentStatus:  models.PaymentSucceeded,
		PaymentID:      in.PaymentID,
		GatewayOrderID: in.GatewayOrderID,
		PaidAt:         &now,
		UpdatedAt:      now,
	}
	guard := models.OrderGuard{
		UserID:        &userID,
		Statuses:      models.PayableStatuses,
		OnlinePayment: true,
		PaymentStatus: models.PaymentPending,
	}

	paid := make([]models.Order, 0, len(intent.OrderIDs))
	settled := 0
	for _, id := range intent.OrderIDs {
		o, err := p.store.UpdateOrderIf(ctx, id, guard, change)
		if err == nil {
			settled++
		}
		if errors.Is(err, models.ErrNoMatch) {
			current, ferr := p.store.FindOrder(ctx, id)
			if ferr != nil {
				return paid, translate(ferr, "find order")
			}
			if current.PaymentInfo.ID != in.PaymentID {
				return paid, invalidState(current, "pay for")
			}
			o = current
		} else if err != nil {
			return paid, translate(err, "mark order paid")
		}
		paid = append(paid, *o)
	}
	if resuming && settled == 0 {
		return nil, apperr.New(apperr.Conflict, apperr.CodePaymentAlreadyUsed, "payment was already used")
	}
	log.WithFields(log.Fields{"user": userID.Hex(), "payment": in.PaymentID, "orders": len(paid)}).Info("payment verified")
	return paid, nil
}

func sameIDs(a, b []primitive.ObjectID) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[primitive.ObjectID]bool, len(b))
	for _, id := range b {
		set[id] = true
	}
	matched := make(map[primitive.ObjectID]bool, len(a))
	for _, id := range a {
		if !set[id] {
			return false
		}
		matched[id] = true
	}
	return len(matched) == len(set)
}
