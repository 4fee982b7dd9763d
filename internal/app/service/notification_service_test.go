package service

import (
	"bytes"
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/helmetkart/helmet-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
)

func sampleOrder() model.Order {
	return model.Order{
		ID:          7,
		OrderNumber: "ORD-20260310-ABC123",
		UserID:      3,
		ShippingAddress: datatypes.NewJSONType(model.AddressSnapshot{
			FullName:   "Asha Rao",
			Phone:      "9876543210",
			Line1:      "4 Residency Road",
			City:       "Bengaluru",
			State:      "Karnataka",
			PostalCode: "560025",
			Country:    "IN",
		}),
		Subtotal:       1000,
		Discount:       100,
		Tax:            180,
		Total:          1080,
		CouponCode:     "WELCOME10",
		PaymentMethod:  model.PaymentMethodCOD,
		PaymentStatus:  model.PaymentStatusPaid,
		OrderStatus:    model.OrderStatusDelivered,
		TrackingNumber: "DTDC123456",
		CreatedAt:      time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		Items: []model.OrderItem{{
			ProductName: "Aero Full Face",
			Size:        "M",
			Color:       "Matte Black",
			UnitPrice:   500,
			Quantity:    2,
			Subtotal:    1000,
		}},
	}
}

func TestDispatcher_RecoversFromPanics(t *testing.T) {
	d := NewDispatcher(&fakeMailer{}, nil, &fakePusher{})
	var ran atomic.Int32

	d.Dispatch("panics", func(ctx context.Context) error {
		panic("kaboom")
	})
	d.Dispatch("fails", func(ctx context.Context) error {
		ran.Add(1)
		return errBoom
	})
	d.Dispatch("succeeds", func(ctx context.Context) error {
		ran.Add(1)
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		return nil
	})
	d.Wait()

	assert.Equal(t, int32(2), ran.Load())
}

func TestDispatcher_SkipsEmailWithoutAddress(t *testing.T) {
	mail := &fakeMailer{}
	publisher := &fakePublisher{}
	pusher := &fakePusher{}
	d := NewDispatcher(mail, publisher, pusher)

	d.OrderPlaced(Recipient{UserID: 3}, sampleOrder())
	d.Wait()

	assert.Empty(t, mail.sent())
	assert.Equal(t, []string{EventOrderPlaced}, publisher.types())
	assert.Equal(t, 1, pusher.count(3))
}

func TestDispatcher_OrderStatusChanged(t *testing.T) {
	mail := &fakeMailer{}
	publisher := &fakePublisher{}
	d := NewDispatcher(mail, publisher, &fakePusher{})
	to := Recipient{UserID: 3, Email: "asha@example.com", Name: "Asha"}

	order := sampleOrder()
	order.OrderStatus = model.OrderStatusConfirmed
	d.OrderStatusChanged(to, order)
	d.Wait()
	assert.Empty(t, mail.sent())

	d.OrderStatusChanged(to, sampleOrder())
	d.Wait()

	sent := mail.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Invoice for order ORD-20260310-ABC123", sent[0].Subject)
	require.Len(t, sent[0].Attachments, 1)
	assert.Equal(t, "invoice-ORD-20260310-ABC123.xlsx", sent[0].Attachments[0].Filename)
	assert.Equal(t, []string{EventOrderStatusChanged, EventOrderStatusChanged}, publisher.types())
}

func TestResolveRecipient(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t)

	to := resolveRecipient(env.users, user.ID)
	assert.Equal(t, user.Email, to.Email)
	assert.Equal(t, user.Name, to.Name)

	missing := resolveRecipient(env.users, 4242)
	assert.Equal(t, uint(4242), missing.UserID)
	assert.Empty(t, missing.Email)
}

func TestBuildInvoice(t *testing.T) {
	order := sampleOrder()
	data, err := BuildInvoice(&order)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Invoice")
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, "HelmetKart Tax Invoice", rows[0][0])
	assert.Equal(t, []string{"Order number", "ORD-20260310-ABC123"}, rows[1])

	var itemRow, couponRow []string
	for _, row := range rows {
		if len(row) > 0 && row[0] == "Aero Full Face" {
			itemRow = row
		}
		if len(row) == 6 && row[4] == "Coupon" {
			couponRow = row
		}
	}
	require.NotNil(t, itemRow)
	assert.Equal(t, "M", itemRow[1])
	assert.Equal(t, "Matte Black", itemRow[2])
	require.NotNil(t, couponRow)
	assert.Equal(t, "WELCOME10", couponRow[5])
}
