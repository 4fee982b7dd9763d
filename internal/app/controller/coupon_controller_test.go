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

func TestCouponController_Lifecycle(t *testing.T) {
	env := newAPIEnv(t)
	admin := env.createShopper(t, model.RoleAdmin)
	rider := env.createShopper(t, model.RoleUser)
	maxDiscount := 300.0

	req := CreateCouponRequest{
		Code:          " monsoon15 ",
		DiscountType:  model.DiscountPercentage,
		DiscountValue: 15,
		MinPurchase:   1500,
		MaxDiscount:   &maxDiscount,
		UsageLimit:    100,
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidUntil:    time.Now().Add(30 * 24 * time.Hour),
	}
	w := env.do(t, http.MethodPost, "/api/v1/admin/coupons", admin.token, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	coupon := decode(t, w)["coupon"].(map[string]interface{})
	assert.Equal(t, "MONSOON15", coupon["code"])
	assert.Equal(t, true, coupon["is_active"])

	w = env.do(t, http.MethodPost, "/api/v1/admin/coupons", admin.token, req)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "COUPON_CODE_EXISTS", decode(t, w)["error"])

	w = env.do(t, http.MethodGet, "/api/v1/admin/coupons", admin.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, decode(t, w)["count"])

	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/coupons/%.0f/deactivate", coupon["id"]), admin.token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/orders/validate-coupon", rider.token, ValidateCouponRequest{CouponCode: "MONSOON15", Subtotal: 2000})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "COUPON_INACTIVE", decode(t, w)["error"])

	w = env.do(t, http.MethodPut, "/api/v1/admin/coupons/9999/deactivate", admin.token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCouponController_CreateCoupon_Validation(t *testing.T) {
	env := newAPIEnv(t)
	admin := env.createShopper(t, model.RoleAdmin)
	now := time.Now()

	tests := []struct {
		name string
		req  CreateCouponRequest
	}{
		{name: "unknown type", req: CreateCouponRequest{Code: "X1", DiscountType: "BOGO", DiscountValue: 1, UsageLimit: 1, ValidFrom: now, ValidUntil: now.Add(time.Hour)}},
		{name: "window reversed", req: CreateCouponRequest{Code: "X2", DiscountType: model.DiscountFixed, DiscountValue: 100, UsageLimit: 1, ValidFrom: now, ValidUntil: now.Add(-time.Hour)}},
		{name: "percentage above 100", req: CreateCouponRequest{Code: "X3", DiscountType: model.DiscountPercentage, DiscountValue: 150, UsageLimit: 1, ValidFrom: now, ValidUntil: now.Add(time.Hour)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/v1/admin/coupons", admin.token, tt.req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
