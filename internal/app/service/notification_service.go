package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sync"
	"time"

	"github.com/helmetkart/helmet-backend/internal/app/model"
	"github.com/helmetkart/helmet-backend/internal/app/repository"
	"github.com/helmetkart/helmet-backend/pkg/events"
	"github.com/helmetkart/helmet-backend/pkg/logger"
	"github.com/helmetkart/helmet-backend/pkg/mailer"
)

const defaultNotificationTimeout = 15 * time.Second

// Order lifecycle event types published to the event stream.
const (
	EventOrderPlaced        = "order.placed"
	EventOrderPaid          = "order.paid"
	EventOrderStatusChanged = "order.status_changed"
)

// UserPusher delivers a live message to every connection of a user.
type UserPusher interface {
	SendToUser(userID uint, message interface{}) error
}

// Recipient is who an order notification is addressed to. Email may be empty
// when the account could not be loaded; push and events still go out.
type Recipient struct {
	UserID uint
	Email  string
	Name   string
}

// OrderEvent is the payload published for every lifecycle change.
type OrderEvent struct {
	Type          string    `json:"type"`
	OrderID       uint      `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	UserID        uint      `json:"user_id"`
	OrderStatus   string    `json:"order_status"`
	PaymentStatus string    `json:"payment_status"`
	PaymentMethod string    `json:"payment_method"`
	Total         float64   `json:"total"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Notifier sends best-effort order notifications after a commit. Callers
// never see a notification failure.
type Notifier interface {
	OrderPlaced(to Recipient, order model.Order)
	PaymentSucceeded(to Recipient, order model.Order)
	OrderStatusChanged(to Recipient, order model.Order)
}

// Dispatcher runs each notification task on its own goroutine with a
// timeout. Failures and panics are logged and dropped.
type Dispatcher struct {
	mailer    mailer.Mailer
	publisher events.Publisher
	pusher    UserPusher
	timeout   time.Duration
	now       func() time.Time

	wg sync.WaitGroup
}

func NewDispatcher(m mailer.Mailer, publisher events.Publisher, pusher UserPusher) *Dispatcher {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Dispatcher{
		mailer:    m,
		publisher: publisher,
		pusher:    pusher,
		timeout:   defaultNotificationTimeout,
		now:       time.Now,
	}
}

// Dispatch runs task in the background.
func (d *Dispatcher) Dispatch(name string, task func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Notification task panicked", fmt.Errorf("%v", r), map[string]interface{}{
					"task": name,
				})
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := task(ctx); err != nil {
			logger.Warn("Notification task failed", map[string]interface{}{
				"task":  name,
				"error": err.Error(),
			})
			return
		}
		logger.Debug("Notification task completed", map[string]interface{}{
			"task": name,
		})
	}()
}

// Wait blocks until every dispatched task has finished. Used on shutdown and
// in tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) OrderPlaced(to Recipient, order model.Order) {
	d.publish(EventOrderPlaced, order)
	d.push(to, "order_placed", order)

	if to.Email == "" {
		return
	}
	d.Dispatch("email:order_placed", func(ctx context.Context) error {
		body, err := renderEmail(orderPlacedTemplate, emailData{Name: to.Name, Order: order})
		if err != nil {
			return err
		}
		return d.mailer.Send(ctx, mailer.Message{
			To:       to.Email,
			Subject:  fmt.Sprintf("Order %s received", order.OrderNumber),
			HTMLBody: body,
		})
	})
}

func (d *Dispatcher) PaymentSucceeded(to Recipient, order model.Order) {
	d.publish(EventOrderPaid, order)
	d.push(to, "payment_succeeded", order)

	if to.Email == "" {
		return
	}
	d.Dispatch("email:payment_succeeded", func(ctx context.Context) error {
		body, err := renderEmail(paymentSucceededTemplate, emailData{Name: to.Name, Order: order})
		if err != nil {
			return err
		}
		return d.mailer.Send(ctx, mailer.Message{
			To:       to.Email,
			Subject:  fmt.Sprintf("Payment received for order %s", order.OrderNumber),
			HTMLBody: body,
		})
	})
}

// OrderStatusChanged pushes the new status and, for SHIPPED with a tracking
// number or DELIVERED, emails the customer. The delivery email carries the
// XLSX invoice.
func (d *Dispatcher) OrderStatusChanged(to Recipient, order model.Order) {
	d.publish(EventOrderStatusChanged, order)
	d.push(to, "order_status_changed", order)

	if to.Email == "" {
		return
	}
	switch {
	case order.OrderStatus == model.OrderStatusShipped && order.TrackingNumber != "":
		d.Dispatch("email:order_shipped", func(ctx context.Context) error {
			body, err := renderEmail(orderShippedTemplate, emailData{Name: to.Name, Order: order})
			if err != nil {
				return err
			}
			return d.mailer.Send(ctx, mailer.Message{
				To:       to.Email,
				Subject:  fmt.Sprintf("Order %s has shipped", order.OrderNumber),
				HTMLBody: body,
			})
		})
	case order.OrderStatus == model.OrderStatusDelivered:
		d.Dispatch("email:order_delivered", func(ctx context.Context) error {
			invoice, err := BuildInvoice(&order)
			if err != nil {
				return fmt.Errorf("build invoice: %w", err)
			}
			body, err := renderEmail(orderDeliveredTemplate, emailData{Name: to.Name, Order: order})
			if err != nil {
				return err
			}
			return d.mailer.Send(ctx, mailer.Message{
				To:       to.Email,
				Subject:  fmt.Sprintf("Invoice for order %s", order.OrderNumber),
				HTMLBody: body,
				Attachments: []mailer.Attachment{{
					Filename:    InvoiceFilename(&order),
					ContentType: InvoiceContentType,
					Data:        invoice,
				}},
			})
		})
	}
}

func (d *Dispatcher) publish(eventType string, order model.Order) {
	event := OrderEvent{
		Type:          eventType,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID,
		OrderStatus:   string(order.OrderStatus),
		PaymentStatus: string(order.PaymentStatus),
		PaymentMethod: string(order.PaymentMethod),
		Total:         order.Total,
		OccurredAt:    d.now().UTC(),
	}
	d.Dispatch("event:"+eventType, func(ctx context.Context) error {
		return d.publisher.Publish(ctx, order.OrderNumber, event)
	})
}

func (d *Dispatcher) push(to Recipient, messageType string, order model.Order) {
	if d.pusher == nil {
		return
	}
	message := map[string]interface{}{
		"type":           messageType,
		"order_id":       order.ID,
		"order_number":   order.OrderNumber,
		"order_status":   order.OrderStatus,
		"payment_status": order.PaymentStatus,
	}
	d.Dispatch("push:"+messageType, func(context.Context) error {
		return d.pusher.SendToUser(to.UserID, message)
	})
}

// resolveRecipient loads notification details for a user. Lookup failures
// only drop the email channel.
func resolveRecipient(users repository.UserRepository, userID uint) Recipient {
	to := Recipient{UserID: userID}
	if users == nil {
		return to
	}
	user, err := users.FindByID(userID)
	if err != nil {
		logger.Warn("Failed to load notification recipient", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return to
	}
	to.Email = user.Email
	to.Name = user.Name
	return to
}

type emailData struct {
	Name  string
	Order model.Order
}

func renderEmail(tmpl *template.Template, data emailData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

var emailFuncs = template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("₹%.2f", v) },
}

var orderPlacedTemplate = template.Must(template.New("order_placed").Funcs(emailFuncs).Parse(`
<p>Hi {{.Name}},</p>
<p>Thanks for your order <strong>{{.Order.OrderNumber}}</strong>.</p>
<table>
{{range .Order.Items}}<tr><td>{{.ProductName}}{{if .Size}} ({{.Size}}{{if .Color}}, {{.Color}}{{end}}){{end}}</td><td>x{{.Quantity}}</td><td>{{money .Subtotal}}</td></tr>
{{end}}</table>
<p>Subtotal: {{money .Order.Subtotal}}<br>
Discount: {{money .Order.Discount}}<br>
Shipping: {{money .Order.ShippingCharge}}<br>
Tax: {{money .Order.Tax}}<br>
<strong>Total: {{money .Order.Total}}</strong></p>
<p>Payment method: {{.Order.PaymentMethod}}</p>
`))

var paymentSucceededTemplate = template.Must(template.New("payment_succeeded").Funcs(emailFuncs).Parse(`
<p>Hi {{.Name}},</p>
<p>We received your payment of <strong>{{money .Order.Total}}</strong> for order {{.Order.OrderNumber}}.
Your order is confirmed and will be packed shortly.</p>
`))

var orderShippedTemplate = template.Must(template.New("order_shipped").Funcs(emailFuncs).Parse(`
<p>Hi {{.Name}},</p>
<p>Your order {{.Order.OrderNumber}} is on its way.</p>
<p>Tracking number: <strong>{{.Order.TrackingNumber}}</strong></p>
`))

var orderDeliveredTemplate = template.Must(template.New("order_delivered").Funcs(emailFuncs).Parse(`
<p>Hi {{.Name}},</p>
<p>Your order {{.Order.OrderNumber}} has been delivered. The invoice is attached.</p>
<p>Ride safe!</p>
`))
