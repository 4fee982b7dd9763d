package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/helmetkart/helmet-backend/internal/app/model"
	"github.com/helmetkart/helmet-backend/internal/app/repository"
	"github.com/helmetkart/helmet-backend/internal/app/service"
	apperrors "github.com/helmetkart/helmet-backend/internal/errors"
	"github.com/helmetkart/helmet-backend/internal/middleware"
)

type OrderController struct {
	orderService   service.OrderService
	paymentService service.PaymentService
	couponService  service.CouponService
}

func NewOrderController(
	orderService service.OrderService,
	paymentService service.PaymentService,
	couponService service.CouponService,
) *OrderController {
	return &OrderController{
		orderService:   orderService,
		paymentService: paymentService,
		couponService:  couponService,
	}
}

type CreateOrderRequest struct {
	AddressID     uint                `json:"address_id" binding:"required"`
	PaymentMethod model.PaymentMethod `json:"payment_method" binding:"required,oneof=COD RAZORPAY"`
	CouponCode    string              `json:"coupon_code" binding:"omitempty,max=50"`
	Notes         string              `json:"notes" binding:"omitempty,max=500"`
}

type VerifyPaymentRequest struct {
	GatewayOrderID string `json:"gateway_order_id" binding:"required"`
	PaymentID      string `json:"payment_id" binding:"required"`
	Signature      string `json:"signature" binding:"required"`
}

type ValidateCouponRequest struct {
	CouponCode string  `json:"coupon_code" binding:"required,max=50"`
	Subtotal   float64 `json:"subtotal" binding:"required,gt=0"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=255"`
}

type UpdateOrderStatusRequest struct {
	Status         model.OrderStatus `json:"status" binding:"required"`
	TrackingNumber string            `json:"tracking_number" binding:"omitempty,max=64"`
	Reason         string            `json:"reason" binding:"omitempty,max=255"`
}

// CreateOrder checks out the user's cart
// POST /api/v1/orders
func (ctrl *OrderController) CreateOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := ctrl.orderService.CreateOrder(c.Request.Context(), userID, service.CreateOrderInput{
		AddressID:     req.AddressID,
		PaymentMethod: req.PaymentMethod,
		CouponCode:    req.CouponCode,
		Notes:         req.Notes,
	})
	if err != nil {
		log.Warn("Checkout failed", map[string]interface{}{
			"user_id":        userID,
			"payment_method": req.PaymentMethod,
			"error":          err.Error(),
		})
		serviceErrors.Respond(c, err, "order")
		return
	}

	c.JSON(http.StatusCreated, result)
}

// VerifyPayment confirms a gateway payment reported by the client
// POST /api/v1/orders/verify-payment
func (ctrl *OrderController) VerifyPayment(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req VerifyPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := ctrl.paymentService.VerifyPayment(c.Request.Context(), userID, service.VerifyPaymentInput{
		GatewayOrderID: req.GatewayOrderID,
		PaymentID:      req.PaymentID,
		Signature:      req.Signature,
	})
	if err != nil {
		log.Warn("Payment verification failed", map[string]interface{}{
			"user_id":          userID,
			"gateway_order_id": req.GatewayOrderID,
			"error":            err.Error(),
		})
		serviceErrors.Respond(c, err, "order")
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// ValidateCoupon previews a coupon against a subtotal without redeeming it
// POST /api/v1/orders/validate-coupon
func (ctrl *OrderController) ValidateCoupon(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	var req ValidateCouponRequest
	if !bindJSON(c, &req) {
		return
	}

	preview, err := ctrl.couponService.Preview(req.CouponCode, req.Subtotal)
	if err != nil {
		serviceErrors.Respond(c, err, "coupon")
		return
	}

	c.JSON(http.StatusOK, preview)
}

// GetOrders lists the user's orders
// GET /api/v1/orders
func (ctrl *OrderController) GetOrders(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	status, ok := statusFilter(c)
	if !ok {
		return
	}
	limit, offset := pagination(c)

	orders, total, err := ctrl.orderService.GetUserOrders(userID, status, limit, offset)
	if err != nil {
		middleware.GetLoggerFromContext(c).Error("Failed to list orders", err, map[string]interface{}{
			"user_id": userID,
		})
		serviceErrors.Respond(c, err, "order")
		return
	}

	respondList(c, "orders", orders, total, limit, offset)
}

// GetOrderByID returns one order visible to the caller
// GET /api/v1/orders/:id
func (ctrl *OrderController) GetOrderByID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.orderService.GetOrder(service.Actor{UserID: userID, IsAdmin: middleware.IsAdmin(c)}, orderID)
	if err != nil {
		serviceErrors.Respond(c, err, "order")
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// CancelOrder cancels an order of the caller (or any order for admins)
// PUT /api/v1/orders/:id/cancel
func (ctrl *OrderController) CancelOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req CancelOrderRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	order, err := ctrl.orderService.CancelOrder(service.Actor{UserID: userID, IsAdmin: middleware.IsAdmin(c)}, orderID, req.Reason)
	if err != nil {
		log.Warn("Order cancellation failed", map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
			"error":    err.Error(),
		})
		serviceErrors.Respond(c, err, "order")
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// ListAllOrders lists every order for the admin console
// GET /api/v1/admin/orders
func (ctrl *OrderController) ListAllOrders(c *gin.Context) {
	status, ok := statusFilter(c)
	if !ok {
		return
	}
	limit, offset := pagination(c)

	orders, total, err := ctrl.orderService.ListOrders(repository.OrderFilter{
		OrderStatus: status,
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		middleware.GetLoggerFromContext(c).Error("Failed to list all orders", err)
		serviceErrors.Respond(c, err, "order")
		return
	}

	respondList(c, "orders", orders, total, limit, offset)
}

// UpdateOrderStatus moves an order through its lifecycle
// PUT /api/v1/admin/orders/:id/status
func (ctrl *OrderController) UpdateOrderStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := ctrl.orderService.UpdateStatus(orderID, service.UpdateStatusInput{
		Status:         req.Status,
		TrackingNumber: req.TrackingNumber,
		Reason:         req.Reason,
	})
	if err != nil {
		log.Warn("Order status update failed", map[string]interface{}{
			"order_id": orderID,
			"status":   req.Status,
			"error":    err.Error(),
		})
		serviceErrors.Respond(c, err, "order")
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

func statusFilter(c *gin.Context) (model.OrderStatus, bool) {
	status := model.OrderStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "unknown order status")
		return "", false
	}
	return status, true
}
