// utils/email.go
package utils

import (
	"context"
	"fmt"
	"strings"

	"github.com/keighl/postmark"
	"github.com/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	log "github.com/sirupsen/logrus"

	"go-marketplace/models"
)

// Mailer delivers a single email
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// NewMailer picks an implementation by provider name: "postmark", "sendgrid" or "none".
func NewMailer(provider, postmarkToken, sendgridKey, sender string) (Mailer, error) {
	switch provider {
	case "postmark":
		if postmarkToken == "" {
			return nil, errors.New("POSTMARK_API_TOKEN is not set")
		}
		return NewPostmarkMailer(postmarkToken, sender), nil
	case "sendgrid":
		if sendgridKey == "" {
			return nil, errors.New("SENDGRID_API_KEY is not set")
		}
		return NewSendgridMailer(sendgridKey, sender), nil
	case "", "none":
		return LogMailer{}, nil
	}
	return nil, errors.Errorf("unknown email provider %q", provider)
}

// PostmarkMailer sends through the Postmark API
type PostmarkMailer struct {
	client *postmark.Client
	sender string
}

func NewPostmarkMailer(apiToken, sender string) *PostmarkMailer {
	return &PostmarkMailer{client: postmark.NewClient(apiToken, ""), sender: sender}
}

func (m *PostmarkMailer) Send(_ context.Context, to, subject, html, text string) error {
	_, err := m.client.SendEmail(postmark.Email{
		From:     m.sender,
		To:       to,
		Subject:  subject,
		HtmlBody: html,
		TextBody: text,
	})
	if err != nil {
		return errors.Wrap(err, "postmark send")
	}
	return nil
}

// SendgridMailer sends through the SendGrid v3 API
type SendgridMailer struct {
	client *sendgrid.Client
	sender string
}

func NewSendgridMailer(apiKey, sender string) *SendgridMailer {
	return &SendgridMailer{client: sendgrid.NewSendClient(apiKey), sender: sender}
}

func (m *SendgridMailer) Send(ctx context.Context, to, subject, html, text string) error {
	msg := mail.NewSingleEmail(mail.NewEmail("Marketplace", m.sender), subject, mail.NewEmail("", to), text, html)
	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return errors.Wrap(err, "sendgrid send")
	}
	if resp.StatusCode >= 300 {
		return errors.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// LogMailer only logs; used when no provider is configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, _, _ string) error {
	log.WithFields(log.Fields{"to": to, "subject": subject}).Info("email provider disabled, skipping send")
	return nil
}

// OrderConfirmationEmail renders the checkout confirmation for one order.
func OrderConfirmationEmail(order *models.Order) (subject, html, text string) {
	subject = "Order Confirmation"

	var lines strings.Builder
	for _, l := range order.Cart {
		fmt.Fprintf(&lines, "<li>%s x %d - ₹%.2f</li>", l.Name, l.Quantity, l.Price*float64(l.Quantity))
	}
	html = fmt.Sprintf(
		"<strong>Dear %s,</strong><br><br>Thank you for your purchase! Your order (ID: %s) has been placed successfully.<br><ul>%s</ul>Total Amount: <strong>₹%.2f</strong><br>Payment Method: <strong>%s</strong><br><br>Thank you for shopping with us!",
		order.User.Name,
		order.ID.Hex(),
		lines.String(),
		order.TotalPrice,
		order.PaymentInfo.Type,
	)
	text = fmt.Sprintf("Dear %s, your order %s has been placed. Total: ₹%.2f.", order.User.Name, order.ID.Hex(), order.TotalPrice)
	return subject, html, text
}

// WithdrawRequestedEmail tells the seller their payout is being processed.
func WithdrawRequestedEmail(shop *models.Shop, w *models.Withdraw) (subject, html, text string) {
	subject = "Withdraw Request"
	text = fmt.Sprintf("Hello %s, your withdraw request of ₹%.2f is processing. It takes 3 to 7 days to complete.", shop.Name, w.Amount)
	html = fmt.Sprintf("<strong>Hello %s,</strong><br><br>Your withdraw request of <strong>₹%.2f</strong> is processing. It takes 3 to 7 days to complete.", shop.Name, w.Amount)
	return subject, html, text
}

// WithdrawApprovedEmail carries the payout transaction id.
func WithdrawApprovedEmail(shop *models.Shop, w *models.Withdraw) (subject, html, text string) {
	subject = "Withdraw Request Approved"
	text = fmt.Sprintf("Hello %s, your withdraw request of ₹%.2f has been approved. Transaction ID: %s", shop.Name, w.Amount, w.TransactionID)
	html = fmt.Sprintf("<strong>Hello %s,</strong><br><br>Your withdraw request of <strong>₹%.2f</strong> has been approved.<br>Transaction ID: <strong>%s</strong>", shop.Name, w.Amount, w.TransactionID)
	return subject, html, text
}
