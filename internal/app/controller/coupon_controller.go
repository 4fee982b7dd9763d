package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/helmetkart/helmet-backend/internal/app/model"
	"github.com/helmetkart/helmet-backend/internal/app/service"
	"github.com/helmetkart/helmet-backend/internal/middleware"
)

type CouponController struct {
	couponService service.CouponService
}

func NewCouponController(couponService service.CouponService) *CouponController {
	return &CouponController{
		couponService: couponService,
	}
}

type CreateCouponRequest struct {
	Code          string             `json:"code" binding:"required,max=50"`
	Description   string             `json:"description" binding:"omitempty,max=500"`
	DiscountType  model.DiscountType `json:"discount_type" binding:"required,oneof=PERCENTAGE FIXED"`
	DiscountValue float64            `json:"discount_value" binding:"required,gt=0"`
	MinPurchase   float64            `json:"min_purchase" binding:"gte=0"`
	MaxDiscount   *float64           `json:"max_discount" binding:"omitempty,gt=0"`
	UsageLimit    int                `json:"usage_limit" binding:"required,gt=0"`
	ValidFrom     time.Time          `json:"valid_from" binding:"required"`
	ValidUntil    time.Time          `json:"valid_until" binding:"required,gtfield=ValidFrom"`
}

// CreateCoupon creates a coupon
// POST /api/v1/admin/coupons
func (ctrl *CouponController) CreateCoupon(c *gin.Context) {
	var req CreateCouponRequest
	if !bindJSON(c, &req) {
		return
	}

	coupon, err := ctrl.couponService.CreateCoupon(service.CreateCouponInput{
		Code:          req.Code,
		Description:   req.Description,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		MinPurchase:   req.MinPurchase,
		MaxDiscount:   req.MaxDiscount,
		UsageLimit:    req.UsageLimit,
		ValidFrom:     req.ValidFrom,
		ValidUntil:    req.ValidUntil,
	})
	if err != nil {
		middleware.GetLoggerFromContext(c).Warn("Coupon creation failed", map[string]interface{}{
			"code":  req.Code,
			"error": err.Error(),
		})
		serviceErrors.Respond(c, err, "coupon")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"coupon": coupon})
}

// ListCoupons lists every coupon
// GET /api/v1/admin/coupons
func (ctrl *CouponController) ListCoupons(c *gin.Context) {
	coupons, err := ctrl.couponService.ListCoupons()
	if err != nil {
		serviceErrors.Respond(c, err, "coupon")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"coupons": coupons,
		"count":   len(coupons),
	})
}

// DeactivateCoupon stops a coupon from being redeemed
// PUT /api/v1/admin/coupons/:id/deactivate
func (ctrl *CouponController) DeactivateCoupon(c *gin.Context) {
	couponID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.couponService.DeactivateCoupon(couponID); err != nil {
		serviceErrors.Respond(c, err, "coupon")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "coupon deactivated"})
}
