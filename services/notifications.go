package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-marketplace/models"
	"go-marketplace/utils"
)

// Delivery people reached by a new-order broadcast.
const broadcastLimit = 100

// Event is an order-state change handed to the dispatcher.
type Event struct {
	ID    string
	Type  string
	Order models.Order
	At    time.Time
}

// NewEvent snapshots o for type typ.
func NewEvent(typ string, o *models.Order) Event {
	return Event{ID: uuid.NewString(), Type: typ, Order: *o, At: time.Now()}
}

// Notifier accepts events without blocking the caller.
type Notifier interface {
	Publish(e Event) bool
}

// NotifyStore is what the dispatcher reads and writes.
type NotifyStore interface {
	UserStore
	ShopStore
	DeliveryManStore
	NotificationStore
}

type message struct {
	title string
	body  string
}

type template struct {
	customer  *message
	seller    *message
	delivery  *message
	broadcast *message
	email     bool
}

func orderRef(o *models.Order) string {
	return o.ID.Hex()[len(o.ID.Hex())-6:]
}

func templateFor(e Event) (template, bool) {
	o := &e.Order
	ref := orderRef(o)
	total := fmt.Sprintf("₹%.2f", o.TotalPrice)
	switch e.Type {
	case models.EventOrderCreated:
		return template{
			customer:  &message{"Order placed", fmt.Sprintf("Your order #%s of %s has been placed.", ref, total)},
			seller:    &message{"New order received", fmt.Sprintf("Order #%s from %s (%s).", ref, o.User.Name, total)},
			broadcast: &message{"New order available", fmt.Sprintf("Order #%s is ready for pickup.", ref)},
			email:     true,
		}, true
	case models.EventOrderAccepted:
		return template{
			customer: &message{"Order accepted", fmt.Sprintf("The shop accepted your order #%s.", ref)},
		}, true
	case models.EventOrderAssigned:
		return template{
			customer: &message{"Out for delivery", fmt.Sprintf("Your order #%s is on its way.", ref)},
			seller:   &message{"Order picked up", fmt.Sprintf("Order #%s was picked up for delivery.", ref)},
		}, true
	case models.EventOrderCancelled:
		return template{
			customer: &message{"Order cancelled", fmt.Sprintf("Your order #%s was cancelled by the shop.", ref)},
		}, true
	case models.EventOrderDelivered:
		return template{
			customer: &message{"Order delivered", fmt.Sprintf("Your order #%s has been delivered.", ref)},
			seller:   &message{"Order delivered", fmt.Sprintf("Order #%s was delivered (%s).", ref, total)},
			delivery: &message{"Delivery completed", fmt.Sprintf("You delivered order #%s.", ref)},
		}, true
	case models.EventStatusChanged:
		return template{
			customer: &message{"Order updated", fmt.Sprintf("Your order #%s is now %s.", ref, o.Status)},
		}, true
	case models.EventRefundRequested:
		return template{
			seller: &message{"Refund requested", fmt.Sprintf("A refund was requested for order #%s.", ref)},
		}, true
	case models.EventRefundSucceeded:
		return template{
			customer: &message{"Refund approved", fmt.Sprintf("Your refund for order #%s was approved.", ref)},
		}, true
	}
	return template{}, false
}

// DispatcherConfig sizes the worker pool.
type DispatcherConfig struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

// Dispatcher fans order events out to in-app records, push and email.
// Delivery is best effort: at most once, and a full queue drops the event.
type Dispatcher struct {
	store  NotifyStore
	push   utils.PushGateway
	mailer utils.Mailer
	cfg    DispatcherConfig

	queue  chan Event
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool

	dropped int64
	failed  int64
	handled int64
}

func NewDispatcher(store NotifyStore, push utils.PushGateway, mailer utils.Mailer, cfg DispatcherConfig) *Dispatcher {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Dispatcher{
		store:  store,
		push:   push,
		mailer: mailer,
		cfg:    cfg,
		queue:  make(chan Event, cfg.QueueSize),
	}
}

// Start launches the workers.
func (d *Dispatcher) Start() {
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.work(i)
	}
	log.WithFields(log.Fields{"workers": d.cfg.Workers, "queue": d.cfg.QueueSize}).Info("notification dispatcher started")
}

// Publish enqueues e and reports whether it was accepted.
func (d *Dispatcher) Publish(e Event) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	select {
	case d.queue <- e:
		return true
	default:
		atomic.AddInt64(&d.dropped, 1)
		log.WithFields(log.Fields{"event": e.Type, "eventId": e.ID, "orderId": e.Order.ID.Hex()}).
			Warn("notification queue full, dropping event")
		return false
	}
}

// Close stops intake and waits for queued events to drain or ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns counters of dropped events, failed sends and handled events.
func (d *Dispatcher) Stats() (dropped, failed, handled int64) {
	return atomic.LoadInt64(&d.dropped), atomic.LoadInt64(&d.failed), atomic.LoadInt64(&d.handled)
}

func (d *Dispatcher) work(n int) {
	defer d.wg.Done()
	for e := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.Timeout)
		d.handle(ctx, e)
		cancel()
		atomic.AddInt64(&d.handled, 1)
	}
	log.WithField("worker", n).Debug("notification worker stopped")
}

func (d *Dispatcher) fail(err error, e Event, what string) {
	atomic.AddInt64(&d.failed, 1)
	log.WithError(err).WithFields(log.Fields{
		"event":   e.Type,
		"eventId": e.ID,
		"orderId": e.Order.ID.Hex(),
	}).Warn(what)
}

func (d *Dispatcher) handle(ctx context.Context, e Event) {
	tpl, ok := templateFor(e)
	if !ok {
		log.WithField("event", e.Type).Warn("unknown notification event")
		return
	}
	o := &e.Order
	orderID := o.ID
	shopID := o.ShopID
	data := map[string]string{
		"orderId": o.ID.Hex(),
		"type":    e.Type,
		"status":  string(o.Status),
	}

	var records []*models.Notification
	var pushes []utils.PushMessage

	if tpl.customer != nil {
		records = append(records, &models.Notification{
			UserID:        o.User.ID,
			RecipientRole: models.RoleCustomer,
			Title:         tpl.customer.title,
			Description:   tpl.customer.body,
			Type:          e.Type,
			OrderID:       &orderID,
			ShopID:        &shopID,
			Data:          data,
			CreatedAt:     e.At,
		})
		if u, err := d.store.FindUser(ctx, o.User.ID); err != nil {
			d.fail(err, e, "resolve customer")
		} else if u.ExpoPushToken != "" {
			pushes = append(pushes, pushFor(u.ExpoPushToken, tpl.customer, data))
		}
	}

	if tpl.seller != nil {
		records = append(records, &models.Notification{
			UserID:        o.ShopID,
			RecipientRole: models.RoleSeller,
			Title:         tpl.seller.title,
			Description:   tpl.seller.body,
			Type:          e.Type,
			OrderID:       &orderID,
			ShopID:        &shopID,
			Data:          data,
			CreatedAt:     e.At,
		})
		if s, err := d.store.FindShop(ctx, o.ShopID); err != nil {
			d.fail(err, e, "resolve seller")
		} else if s.ExpoPushToken != "" {
			pushes = append(pushes, pushFor(s.ExpoPushToken, tpl.seller, data))
		}
	}

	if tpl.delivery != nil && o.DeliveryMan != nil {
		if dm, err := d.store.FindDeliveryMan(ctx, *o.DeliveryMan); err != nil {
			d.fail(err, e, "resolve delivery man")
		} else if dm.ExpoPushToken != "" {
			pushes = append(pushes, pushFor(dm.ExpoPushToken, tpl.delivery, data))
		}
	}

	if tpl.broadcast != nil {
		tokens, err := d.store.ListApprovedPushTokens(ctx, broadcastLimit)
		if err != nil {
			d.fail(err, e, "list delivery push tokens")
		}
		for _, t := range tokens {
			pushes = append(pushes, pushFor(t, tpl.broadcast, data))
		}
	}

	if len(records) > 0 {
		if err := d.store.InsertNotifications(ctx, records); err != nil {
			d.fail(err, e, "write in-app notifications")
		}
	}

	if len(pushes) > 0 && d.push != nil {
		tickets, err := d.push.Send(ctx, pushes)
		if err != nil {
			d.fail(err, e, "send push")
		}
		for _, t := range tickets {
			if t.Status == "error" {
				log.WithFields(log.Fields{"eventId": e.ID, "message": t.Message}).Warn("push ticket rejected")
			}
		}
	}

	if tpl.email && d.mailer != nil && o.User.Email != "" {
		subject, html, text := utils.OrderConfirmationEmail(o)
		if err := d.mailer.Send(ctx, o.User.Email, subject, html, text); err != nil {
			d.fail(err, e, "send confirmation email")
		}
	}
}

func pushFor(token string, m *message, data map[string]string) utils.PushMessage {
	return utils.PushMessage{
		To:        token,
		Title:     m.title,
		Body:      m.body,
		Data:      data,
		ChannelID: "orders",
	}
}

// Inbox serves the in-app notification endpoints for one recipient.
type Inbox struct {
	store NotificationStore
}

func NewInbox(store NotificationStore) *Inbox {
	return &Inbox{store: store}
}

// InboxPage is a page of notifications plus the unread counter.
type InboxPage struct {
	Notifications []models.Notification `json:"notifications"`
	Total         int64                 `json:"total"`
	UnreadCount   int64                 `json:"unreadCount"`
}

func (i *Inbox) List(ctx context.Context, recipient primitive.ObjectID, page models.Page) (*InboxPage, error) {
	list, total, err := i.store.ListNotifications(ctx, recipient, page)
	if err != nil {
		return nil, translate(err, "list notifications")
	}
	unread, err := i.store.CountUnread(ctx, recipient)
	if err != nil {
		return nil, translate(err, "count unread notifications")
	}
	return &InboxPage{Notifications: list, Total: total, UnreadCount: unread}, nil
}

func (i *Inbox) UnreadCount(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	n, err := i.store.CountUnread(ctx, recipient)
	return n, translate(err, "count unread notifications")
}

func (i *Inbox) MarkRead(ctx context.Context, recipient primitive.ObjectID, id string) (*models.Notification, error) {
	nid, err := ParseID(id, "notification id")
	if err != nil {
		return nil, err
	}
	n, err := i.store.MarkNotificationRead(ctx, recipient, nid)
	if err != nil {
		return nil, translate(err, "mark notification read")
	}
	return n, nil
}

func (i *Inbox) MarkAllRead(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	n, err := i.store.MarkAllNotificationsRead(ctx, recipient)
	return n, translate(err, "mark all notifications read")
}

func (i *Inbox) Delete(ctx context.Context, recipient primitive.ObjectID, id string) error {
	nid, err := ParseID(id, "notification id")
	if err != nil {
		return err
	}
	return translate(i.store.DeleteNotification(ctx, recipient, nid), "delete notification")
}

func (i *Inbox) DeleteAll(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	n, err := i.store.DeleteAllNotifications(ctx, recipient)
	return n, translate(err, "delete notifications")
}
