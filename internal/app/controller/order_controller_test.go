package controller

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/helmetkart/helmet-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkoutFixture is a shopper with one helmet (1000, qty 1) in the cart.
type checkoutFixture struct {
	env     *apiEnv
	rider   *shopper
	address *model.Address
	product *model.Product
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	env := newAPIEnv(t)
	rider := env.createShopper(t, model.RoleUser)
	product := env.createProduct(t, 1000, 5)
	env.fillCart(t, rider.user.ID, product, 1)
	return &checkoutFixture{
		env:     env,
		rider:   rider,
		address: env.createAddress(t, rider.user.ID),
		product: product,
	}
}

func (f *checkoutFixture) checkout(t *testing.T, method model.PaymentMethod) map[string]interface{} {
	t.Helper()
	w := f.env.do(t, http.MethodPost, "/api/v1/orders", f.rider.token, CreateOrderRequest{
		AddressID:     f.address.ID,
		PaymentMethod: method,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)
}

func orderField(body map[string]interface{}, field string) interface{} {
	return body["order"].(map[string]interface{})[field]
}

func TestOrderController_CreateOrder_COD(t *testing.T) {
	f := newCheckoutFixture(t)

	body := f.checkout(t, model.PaymentMethodCOD)

	assert.Equal(t, "PENDING", orderField(body, "order_status"))
	assert.Equal(t, "PENDING", orderField(body, "payment_status"))
	assert.Equal(t, 1000.0, orderField(body, "subtotal"))
	assert.Equal(t, 0.0, orderField(body, "shipping_charge"))
	assert.Equal(t, 180.0, orderField(body, "tax"))
	assert.Equal(t, 1180.0, orderField(body, "total"))
	assert.Regexp(t, `^ORD-\d{8}-[A-Z0-9]{6}$`, orderField(body, "order_number"))
	assert.Nil(t, body["gateway_order"])

	variant, err := f.env.products.FindVariant(f.product.ID, f.product.Variants[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 4, variant.Stock)
}

func TestOrderController_CreateOrder_ValidationErrors(t *testing.T) {
	f := newCheckoutFixture(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{name: "unknown payment method", body: map[string]interface{}{"address_id": f.address.ID, "payment_method": "UPI"}},
		{name: "missing address", body: map[string]interface{}{"payment_method": "COD"}},
		{name: "client supplied total", body: map[string]interface{}{"address_id": f.address.ID, "payment_method": "COD", "total": 1}},
		{name: "malformed json", body: `{"address_id":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.env.do(t, http.MethodPost, "/api/v1/orders", f.rider.token, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "VALIDATION_INVALID_INPUT", decode(t, w)["error"])
		})
	}
	assert.Equal(t, int64(0), countRows(t, f.env, &model.Order{}))
}

func TestOrderController_CreateOrder_ServiceErrors(t *testing.T) {
	f := newCheckoutFixture(t)
	other := f.env.createShopper(t, model.RoleUser)
	foreignAddress := f.env.createAddress(t, other.user.ID)

	w := f.env.do(t, http.MethodPost, "/api/v1/orders", f.rider.token, CreateOrderRequest{
		AddressID: foreignAddress.ID, PaymentMethod: model.PaymentMethodCOD,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ADDRESS_NOT_FOUND", decode(t, w)["error"])

	w = f.env.do(t, http.MethodPost, "/api/v1/orders", other.token, CreateOrderRequest{
		AddressID: foreignAddress.ID, PaymentMethod: model.PaymentMethodCOD,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "CART_EMPTY", decode(t, w)["error"])

	w = f.env.do(t, http.MethodPost, "/api/v1/orders", f.rider.token, CreateOrderRequest{
		AddressID: f.address.ID, PaymentMethod: model.PaymentMethodCOD, CouponCode: "NOPE",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "COUPON_INVALID", decode(t, w)["error"])
}

func TestOrderController_CreateOrder_InsufficientStock(t *testing.T) {
	f := newCheckoutFixture(t)
	require.NoError(t, f.env.db.Model(&model.ProductVariant{}).Where("id = ?", f.product.Variants[0].ID).Update("stock", 0).Error)

	w := f.env.do(t, http.MethodPost, "/api/v1/orders", f.rider.token, CreateOrderRequest{
		AddressID: f.address.ID, PaymentMethod: model.PaymentMethodCOD,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ORDER_INSUFFICIENT_STOCK", decode(t, w)["error"])
}

func TestOrderController_CreateOrder_RequiresAuthentication(t *testing.T) {
	f := newCheckoutFixture(t)

	w := f.env.do(t, http.MethodPost, "/api/v1/orders", "", CreateOrderRequest{
		AddressID: f.address.ID, PaymentMethod: model.PaymentMethodCOD,
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOrderController_RazorpayCheckoutAndVerify(t *testing.T) {
	f := newCheckoutFixture(t)

	body := f.checkout(t, model.PaymentMethodRazorpay)
	gateway := body["gateway_order"].(map[string]interface{})
	assert.Equal(t, testGatewayKey, gateway["key_id"])
	assert.Equal(t, 118000.0, gateway["amount"])
	assert.Equal(t, "INR", gateway["currency"])
	gatewayOrderID := gateway["order_id"].(string)
	assert.Equal(t, gatewayOrderID, orderField(body, "gateway_order_id"))

	// Retrying checkout with the same cart returns the same order.
	retry := f.checkout(t, model.PaymentMethodRazorpay)
	assert.Equal(t, orderField(body, "id"), orderField(retry, "id"))

	w := f.env.do(t, http.MethodPost, "/api/v1/orders/verify-payment", f.rider.token, f.env.gateway.capture(gatewayOrderID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	verified := decode(t, w)
	assert.Equal(t, "CONFIRMED", orderField(verified, "order_status"))
	assert.Equal(t, "PAID", orderField(verified, "payment_status"))
	assert.NotEmpty(t, orderField(verified, "paid_at"))

	variant, err := f.env.products.FindVariant(f.product.ID, f.product.Variants[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 4, variant.Stock)

	w = f.env.do(t, http.MethodGet, "/api/v1/cart", f.rider.token, nil)
	assert.Equal(t, 0.0, decode(t, w)["item_count"])
}

func TestOrderController_VerifyPayment_Errors(t *testing.T) {
	f := newCheckoutFixture(t)
	body := f.checkout(t, model.PaymentMethodRazorpay)
	gatewayOrderID := body["gateway_order"].(map[string]interface{})["order_id"].(string)

	valid := f.env.gateway.capture(gatewayOrderID)
	tampered := valid
	tampered.Signature = "deadbeef"

	w := f.env.do(t, http.MethodPost, "/api/v1/orders/verify-payment", f.rider.token, tampered)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "PAYMENT_INVALID_SIGNATURE", decode(t, w)["error"])

	intruder := f.env.createShopper(t, model.RoleUser)
	w = f.env.do(t, http.MethodPost, "/api/v1/orders/verify-payment", intruder.token, valid)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.env.do(t, http.MethodPost, "/api/v1/orders/verify-payment", f.rider.token, map[string]string{"gateway_order_id": gatewayOrderID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_INVALID_INPUT", decode(t, w)["error"])

	w = f.env.do(t, http.MethodPost, "/api/v1/orders/verify-payment", f.rider.token, valid)
	assert.Equal(t, http.StatusOK, w.Code)

	// Same payment again is idempotent.
	w = f.env.do(t, http.MethodPost, "/api/v1/orders/verify-payment", f.rider.token, valid)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOrderController_CreateOrder_GatewayUnavailable(t *testing.T) {
	f := newCheckoutFixture(t)
	f.env.gateway.setDown(true)

	w := f.env.do(t, http.MethodPost, "/api/v1/orders", f.rider.token, CreateOrderRequest{
		AddressID: f.address.ID, PaymentMethod: model.PaymentMethodRazorpay,
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "PAYMENT_GATEWAY_UNAVAILABLE", decode(t, w)["error"])

	var order model.Order
	require.NoError(t, f.env.db.First(&order).Error)
	assert.Equal(t, model.OrderStatusCancelled, order.OrderStatus)
}

func TestOrderController_ValidateCoupon(t *testing.T) {
	f := newCheckoutFixture(t)
	maxDiscount := 500.0
	require.NoError(t, f.env.coupons.Create(&model.Coupon{
		Code:          "WELCOME10",
		DiscountType:  model.DiscountPercentage,
		DiscountValue: 10,
		MinPurchase:   1000,
		MaxDiscount:   &maxDiscount,
		UsageLimit:    5,
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidUntil:    time.Now().Add(time.Hour),
		IsActive:      true,
	}))

	w := f.env.do(t, http.MethodPost, "/api/v1/orders/validate-coupon", f.rider.token, ValidateCouponRequest{
		CouponCode: "welcome10", Subtotal: 1000,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	preview := decode(t, w)
	assert.Equal(t, "WELCOME10", preview["code"])
	assert.Equal(t, 100.0, preview["discount"])
	assert.Equal(t, 1080.0, preview["total"])

	w = f.env.do(t, http.MethodPost, "/api/v1/orders/validate-coupon", f.rider.token, ValidateCouponRequest{
		CouponCode: "WELCOME10", Subtotal: 999,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "COUPON_MIN_PURCHASE", decode(t, w)["error"])

	coupon, err := f.env.coupons.FindByCode("WELCOME10")
	require.NoError(t, err)
	assert.Equal(t, 0, coupon.UsedCount)
}

func TestOrderController_GetOrders(t *testing.T) {
	f := newCheckoutFixture(t)
	f.checkout(t, model.PaymentMethodCOD)
	for i := 0; i < 2; i++ {
		f.env.fillCart(t, f.rider.user.ID, f.product, 1)
		f.checkout(t, model.PaymentMethodCOD)
	}
	other := f.env.createShopper(t, model.RoleUser)

	w := f.env.do(t, http.MethodGet, "/api/v1/orders?limit=2", f.rider.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, 3.0, body["total"])
	assert.Len(t, body["orders"], 2)
	assert.Equal(t, 2.0, body["limit"])

	w = f.env.do(t, http.MethodGet, "/api/v1/orders?status=SHIPPED", f.rider.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, decode(t, w)["total"])

	w = f.env.do(t, http.MethodGet, "/api/v1/orders?status=LOST", f.rider.token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.env.do(t, http.MethodGet, "/api/v1/orders", other.token, nil)
	assert.Equal(t, 0.0, decode(t, w)["total"])
}

func TestOrderController_GetOrderByID(t *testing.T) {
	f := newCheckoutFixture(t)
	body := f.checkout(t, model.PaymentMethodCOD)
	path := fmt.Sprintf("/api/v1/orders/%.0f", orderField(body, "id"))

	w := f.env.do(t, http.MethodGet, path, f.rider.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	order := decode(t, w)["order"].(map[string]interface{})
	assert.Len(t, order["items"], 1)
	assert.Equal(t, "Bengaluru", order["shipping_address"].(map[string]interface{})["city"])

	other := f.env.createShopper(t, model.RoleUser)
	w = f.env.do(t, http.MethodGet, path, other.token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ORDER_NOT_FOUND", decode(t, w)["error"])

	admin := f.env.createShopper(t, model.RoleAdmin)
	w = f.env.do(t, http.MethodGet, path, admin.token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.env.do(t, http.MethodGet, "/api/v1/orders/abc", f.rider.token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_INVALID_ID", decode(t, w)["error"])
}

func TestOrderController_CancelOrder(t *testing.T) {
	f := newCheckoutFixture(t)
	body := f.checkout(t, model.PaymentMethodCOD)
	path := fmt.Sprintf("/api/v1/orders/%.0f/cancel", orderField(body, "id"))

	other := f.env.createShopper(t, model.RoleUser)
	w := f.env.do(t, http.MethodPut, path, other.token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.env.do(t, http.MethodPut, path, f.rider.token, CancelOrderRequest{Reason: "ordered the wrong size"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cancelled := decode(t, w)
	assert.Equal(t, "CANCELLED", orderField(cancelled, "order_status"))
	assert.Equal(t, "ordered the wrong size", orderField(cancelled, "cancel_reason"))

	variant, err := f.env.products.FindVariant(f.product.ID, f.product.Variants[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 5, variant.Stock)

	w = f.env.do(t, http.MethodPut, path, f.rider.token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ORDER_NOT_CANCELLABLE", decode(t, w)["error"])
}

func TestOrderController_AdminStatusUpdates(t *testing.T) {
	f := newCheckoutFixture(t)
	body := f.checkout(t, model.PaymentMethodCOD)
	path := fmt.Sprintf("/api/v1/admin/orders/%.0f/status", orderField(body, "id"))
	admin := f.env.createShopper(t, model.RoleAdmin)

	w := f.env.do(t, http.MethodPut, path, f.rider.token, UpdateOrderStatusRequest{Status: model.OrderStatusConfirmed})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.env.do(t, http.MethodPut, path, admin.token, UpdateOrderStatusRequest{Status: model.OrderStatusShipped})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ORDER_INVALID_STATUS_TRANSITION", decode(t, w)["error"])

	for _, status := range []model.OrderStatus{model.OrderStatusConfirmed, model.OrderStatusProcessing} {
		w = f.env.do(t, http.MethodPut, path, admin.token, UpdateOrderStatusRequest{Status: status})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = f.env.do(t, http.MethodPut, path, admin.token, UpdateOrderStatusRequest{Status: model.OrderStatusShipped, TrackingNumber: "DTDC123456"})
	require.Equal(t, http.StatusOK, w.Code)
	shipped := decode(t, w)
	assert.Equal(t, "SHIPPED", orderField(shipped, "order_status"))
	assert.Equal(t, "DTDC123456", orderField(shipped, "tracking_number"))

	w = f.env.do(t, http.MethodPut, path, admin.token, UpdateOrderStatusRequest{Status: model.OrderStatusDelivered})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PAID", orderField(decode(t, w), "payment_status"))

	w = f.env.do(t, http.MethodGet, "/api/v1/admin/orders?status=DELIVERED", admin.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, decode(t, w)["total"])
}

func countRows(t *testing.T, env *apiEnv, table interface{}) int64 {
	t.Helper()
	var count int64
	require.NoError(t, env.db.Model(table).Count(&count).Error)
	return count
}
