// models/order.models.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	StatusProcessing      OrderStatus = "Processing"
	StatusAccepted        OrderStatus = "Accepted"
	StatusOutForDelivery  OrderStatus = "OutForDelivery"
	StatusDelivered       OrderStatus = "Delivered"
	StatusCancelled       OrderStatus = "Cancelled"
	StatusRefundRequested OrderStatus = "RefundRequested"
	StatusRefundSucceeded OrderStatus = "RefundSucceeded"
)

// lifecycle lists every status in display order.
var lifecycle = []OrderStatus{
	StatusProcessing, StatusAccepted, StatusOutForDelivery, StatusDelivered,
	StatusCancelled, StatusRefundRequested, StatusRefundSucceeded,
}

// transitions is the lifecycle graph. Every guarded status write takes its
// allowed source statuses from here.
var transitions = map[OrderStatus][]OrderStatus{
	StatusProcessing:      {StatusAccepted, StatusOutForDelivery, StatusCancelled},
	StatusAccepted:        {StatusOutForDelivery},
	StatusOutForDelivery:  {StatusDelivered},
	StatusDelivered:       {StatusRefundRequested},
	StatusRefundRequested: {StatusRefundSucceeded},
}

// sellerTransitions is the subset of transitions a shop may drive by hand.
var sellerTransitions = map[OrderStatus][]OrderStatus{
	StatusProcessing: {StatusAccepted, StatusCancelled},
}

// AssignableStatuses are the statuses from which a delivery person may accept or ignore an order.
var AssignableStatuses = Sources(StatusOutForDelivery)

// PayableStatuses are the statuses in which an online order may still be paid:
// every status that can still reach Delivered.
var PayableStatuses = append(Sources(StatusOutForDelivery), Sources(StatusDelivered)...)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	return contains(lifecycle, s)
}

// Assignable reports whether an order in status s can still be picked up.
func (s OrderStatus) Assignable() bool {
	return contains(AssignableStatuses, s)
}

// Sources returns the statuses with an edge to to, in lifecycle order.
func Sources(to OrderStatus) []OrderStatus {
	return sourcesIn(transitions, to)
}

// SellerSources returns the statuses from which a seller may reach to.
func SellerSources(to OrderStatus) []OrderStatus {
	return sourcesIn(sellerTransitions, to)
}

func sourcesIn(graph map[OrderStatus][]OrderStatus, to OrderStatus) []OrderStatus {
	var out []OrderStatus
	for _, from := range lifecycle {
		if contains(graph[from], to) {
			out = append(out, from)
		}
	}
	return out
}

func contains(list []OrderStatus, s OrderStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// OrderLine is one purchased item inside an order
type OrderLine struct {
	ProductID   primitive.ObjectID `bson:"product" json:"productId"`
	ShopID      primitive.ObjectID `bson:"shopId" json:"shopId"`
	ProductType string             `bson:"productType" json:"productType"`
	Quantity    int                `bson:"quantity" json:"quantity"`
	Price       float64            `bson:"price" json:"price"`
	Name        string             `bson:"name" json:"name"`
	Images      []string           `bson:"images,omitempty" json:"images,omitempty"`
	IsReviewed  bool               `bson:"isReviewed" json:"isReviewed"`
	Restocked   bool               `bson:"restocked,omitempty" json:"-"`
}

// UserSnapshot is a copy of the customer taken at checkout
type UserSnapshot struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email" json:"email"`
	PhoneNumber string             `bson:"phoneNumber" json:"phoneNumber"`
}

// ShippingAddress is where the order goes
type ShippingAddress struct {
	Address1    string `bson:"address1" json:"address1"`
	Address2    string `bson:"address2" json:"address2"`
	City        string `bson:"city" json:"city"`
	ZipCode     string `bson:"zipCode" json:"zipCode"`
	Country     string `bson:"country" json:"country"`
	AddressType string `bson:"addressType" json:"addressType"`
}

// UserLocation is the customer position captured at checkout
type UserLocation struct {
	Latitude        float64 `bson:"latitude" json:"latitude"`
	Longitude       float64 `bson:"longitude" json:"longitude"`
	DeliveryAddress string  `bson:"deliveryAddress,omitempty" json:"deliveryAddress,omitempty"`
}

// Order is a single-shop order produced by checkout
type Order struct {
	ID                  primitive.ObjectID   `bson:"_id,omitempty" json:"id,omitempty"`
	Cart                []OrderLine          `bson:"cart" json:"cart"`
	ShippingAddress     ShippingAddress      `bson:"shippingAddress" json:"shippingAddress"`
	User                UserSnapshot         `bson:"user" json:"user"`
	ShopID              primitive.ObjectID   `bson:"shop" json:"shop"`
	DeliveryMan         *primitive.ObjectID  `bson:"deliveryMan" json:"deliveryMan,omitempty"`
	IgnoredBy           []primitive.ObjectID `bson:"ignoredBy" json:"ignoredBy,omitempty"`
	DeliveryInstruction string               `bson:"deliveryInstruction,omitempty" json:"deliveryInstruction,omitempty"`
	TotalPrice          float64              `bson:"totalPrice" json:"totalPrice"`
	Status              OrderStatus          `bson:"status" json:"status"`
	OTP                 string               `bson:"otp,omitempty" json:"-"`
	OTPAttempts         int                  `bson:"otpAttempts" json:"-"`
	UserLocation        *UserLocation        `bson:"userLocation,omitempty" json:"userLocation,omitempty"`
	PaymentInfo         PaymentInfo          `bson:"paymentInfo" json:"paymentInfo"`
	CreatedAt           time.Time            `bson:"createdAt" json:"createdAt"`
	AcceptedAt          *time.Time           `bson:"acceptedAt,omitempty" json:"acceptedAt,omitempty"`
	DeliveredAt         *time.Time           `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	SellerCredited      bool                 `bson:"sellerCredited,omitempty" json:"-"`
	UpdatedAt           time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// AssignedTo reports whether id is the order's delivery person.
func (o *Order) AssignedTo(id primitive.ObjectID) bool {
	return o.DeliveryMan != nil && *o.DeliveryMan == id
}

// IgnoredByID reports whether id has skipped the order.
func (o *Order) IgnoredByID(id primitive.ObjectID) bool {
	for _, v := range o.IgnoredBy {
		if v == id {
			return true
		}
	}
	return false
}

// PendingRestock reports whether some line has not been restocked yet.
func (o *Order) PendingRestock() bool {
	for _, l := range o.Cart {
		if !l.Restocked {
			return true
		}
	}
	return false
}

// OrderGuard is the precondition of a conditional order update. Zero fields are not checked.
type OrderGuard struct {
	Statuses         []OrderStatus
	UserID           *primitive.ObjectID
	ShopID           *primitive.ObjectID
	DeliveryMan      *primitive.ObjectID
	Unassigned       bool
	NotIgnoredBy     *primitive.ObjectID
	OTP              string
	OTPAttemptsBelow int
	PaymentStatus    string
	OnlinePayment    bool
	LineNotRestocked *int
	NotCredited      bool
}

// Matches evaluates the guard against an in-memory order.
func (g OrderGuard) Matches(o *Order) bool {
	if len(g.Statuses) > 0 && !contains(g.Statuses, o.Status) {
		return false
	}
	if g.UserID != nil && o.User.ID != *g.UserID {
		return false
	}
	if g.ShopID != nil && o.ShopID != *g.ShopID {
		return false
	}
	if g.DeliveryMan != nil && !o.AssignedTo(*g.DeliveryMan) {
		return false
	}
	if g.Unassigned && o.DeliveryMan != nil {
		return false
	}
	if g.NotIgnoredBy != nil && o.IgnoredByID(*g.NotIgnoredBy) {
		return false
	}
	if g.OTP != "" && o.OTP != g.OTP {
		return false
	}
	if g.OTPAttemptsBelow > 0 && o.OTPAttempts >= g.OTPAttemptsBelow {
		return false
	}
	if g.PaymentStatus != "" && o.PaymentInfo.Status != g.PaymentStatus {
		return false
	}
	if g.OnlinePayment && o.PaymentInfo.IsCOD() {
		return false
	}
	if i := g.LineNotRestocked; i != nil && (*i < 0 || *i >= len(o.Cart) || o.Cart[*i].Restocked) {
		return false
	}
	if g.NotCredited && o.SellerCredited {
		return false
	}
	return true
}

// OrderChange is the mutation applied when a guard matches. Nil fields are left untouched.
type OrderChange struct {
	Status              *OrderStatus
	DeliveryMan         *primitive.ObjectID
	AddIgnoredBy        *primitive.ObjectID
	DeliveryInstruction *string
	AcceptedAt          *time.Time
	DeliveredAt         *time.Time
	PaymentStatus       string
	PaymentID           string
	GatewayOrderID      string
	PaidAt              *time.Time
	ClearOTP            bool
	IncOTPAttempts      bool
	Restock             *LineFlag
	SellerCredited      *bool
	UpdatedAt           time.Time
}

// LineFlag sets the restocked flag of one cart line.
type LineFlag struct {
	Index     int
	Restocked bool
}

// Apply mutates o in place.
func (c OrderChange) Apply(o *Order) {
	if c.Status != nil {
		o.Status = *c.Status
	}
	if c.DeliveryMan != nil {
		id := *c.DeliveryMan
		o.DeliveryMan = &id
	}
	if c.AddIgnoredBy != nil && !o.IgnoredByID(*c.AddIgnoredBy) {
		o.IgnoredBy = append(o.IgnoredBy, *c.AddIgnoredBy)
	}
	if c.DeliveryInstruction != nil {
		o.DeliveryInstruction = *c.DeliveryInstruction
	}
	if c.AcceptedAt != nil {
		o.AcceptedAt = c.AcceptedAt
	}
	if c.DeliveredAt != nil {
		o.DeliveredAt = c.DeliveredAt
	}
	if c.PaymentStatus != "" {
		o.PaymentInfo.Status = c.PaymentStatus
	}
	if c.PaymentID != "" {
		o.PaymentInfo.ID = c.PaymentID
	}
	if c.GatewayOrderID != "" {
		o.PaymentInfo.GatewayOrderID = c.GatewayOrderID
	}
	if c.PaidAt != nil {
		o.PaymentInfo.PaidAt = c.PaidAt
	}
	if c.ClearOTP {
		o.OTP = ""
	}
	if c.IncOTPAttempts {
		o.OTPAttempts++
	}
	if f := c.Restock; f != nil && f.Index >= 0 && f.Index < len(o.Cart) {
		o.Cart[f.Index].Restocked = f.Restocked
	}
	if c.SellerCredited != nil {
		o.SellerCredited = *c.SellerCredited
	}
	if !c.UpdatedAt.IsZero() {
		o.UpdatedAt = c.UpdatedAt
	}
}

// OrderFilter selects orders for listings.
type OrderFilter struct {
	UserID       *primitive.ObjectID
	ShopID       *primitive.ObjectID
	DeliveryMan  *primitive.ObjectID
	Status       OrderStatus
	AvailableFor *primitive.ObjectID // unassigned, assignable, not ignored by this delivery person
}

// Page is a 1-based pagination window.
type Page struct {
	Page  int
	Limit int
}

// Skip returns the number of documents before the window.
func (p Page) Skip() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// TotalPages is the number of windows needed for total items.
func (p Page) TotalPages(total int64) int64 {
	if p.Limit <= 0 {
		return 0
	}
	return (total + int64(p.Limit) - 1) / int64(p.Limit)
}
