package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/pkg/errors"
	"github.com/razorpay/razorpay-go"
)

// GatewayOrder is the gateway-side order a client pays against
type GatewayOrder struct {
	ID       string `json:"gatewayOrderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"keyId"`
}

// PaymentGateway creates payable orders and verifies payment signatures.
type PaymentGateway interface {
	CreateOrder(paise int64, currency, receipt string) (*GatewayOrder, error)
	VerifySignature(gatewayOrderID, paymentID, signature string) bool
}

// RazorpayGateway talks to Razorpay
type RazorpayGateway struct {
	client *razorpay.Client
	keyID  string
	secret string
}

func NewRazorpayGateway(keyID, secret string) *RazorpayGateway {
	return &RazorpayGateway{client: razorpay.NewClient(keyID, secret), keyID: keyID, secret: secret}
}

// CreateOrder creates a Razorpay order for paise and reports the amount Razorpay recorded.
func (g *RazorpayGateway) CreateOrder(paise int64, currency, receipt string) (*GatewayOrder, error) {
	if currency == "" {
		currency = "INR"
	}
	data := map[string]interface{}{
		"amount":   paise,
		"currency": currency,
		"receipt":  receipt,
	}

	order, err := g.client.Order.Create(data, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create razorpay order")
	}
	id, ok := order["id"].(string)
	if !ok || id == "" {
		return nil, errors.Errorf("razorpay order id missing in response: %v", order)
	}
	amount := paise
	switch v := order["amount"].(type) {
	case float64:
		amount = int64(v)
	case int64:
		amount = v
	}
	return &GatewayOrder{ID: id, Amount: amount, Currency: currency, KeyID: g.keyID}, nil
}

func (g *RazorpayGateway) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	return VerifyRazorpaySignature(g.secret, gatewayOrderID, paymentID, signature)
}

// SignRazorpayPayment returns hex(HMAC-SHA256(secret, orderID|paymentID)).
func SignRazorpayPayment(secret, gatewayOrderID, paymentID string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(h.Sum(nil))
}

func VerifyRazorpaySignature(secret, gatewayOrderID, paymentID, signature string) bool {
	expected := SignRazorpayPayment(secret, gatewayOrderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
