package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/helmetkart/helmet-backend/internal/app/model"
	"github.com/helmetkart/helmet-backend/internal/app/repository"
	"github.com/helmetkart/helmet-backend/pkg/logger"
	"github.com/helmetkart/helmet-backend/pkg/payment/razorpay"
	"github.com/helmetkart/helmet-backend/pkg/redis"
	"github.com/helmetkart/helmet-backend/pkg/util"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound             = errors.New("order not found")
	ErrCartEmpty                 = errors.New("cart is empty")
	ErrInvalidPaymentMethod      = errors.New("invalid payment method")
	ErrInvalidStatusTransition   = errors.New("invalid status transition")
	ErrOrderNotCancellable       = errors.New("order cannot be cancelled in its current status")
	ErrOrderStateChanged         = errors.New("order was updated by another request")
	ErrCheckoutInProgress        = errors.New("another checkout is already in progress")
	ErrPaymentGatewayUnavailable = errors.New("payment gateway unavailable, please retry")
)

const (
	checkoutLockTTL      = 30 * time.Second
	staleOrderBatchSize  = 100
	cancelReasonExpired  = "payment window expired"
	cancelReasonReplaced = "replaced by a newer checkout"
	cancelReasonGateway  = "payment gateway unavailable"
	orderNumberAttempts  = 2
	defaultPendingWindow = 10 * time.Minute
	paymentAmountEpsilon = 0.01
)

// PaymentGateway is the subset of the Razorpay client used by checkout and
// payment verification.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req razorpay.CreateOrderRequest) (*razorpay.Order, error)
	FetchPayment(ctx context.Context, paymentID string) (*razorpay.Payment, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	KeyID() string
}

// Locker serialises checkouts of the same user.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// Actor is the authenticated caller of an order operation.
type Actor struct {
	UserID  uint
	IsAdmin bool
}

type CreateOrderInput struct {
	AddressID     uint
	PaymentMethod model.PaymentMethod
	CouponCode    string
	Notes         string
}

// GatewayCheckout is what the client needs to open the Razorpay checkout.
type GatewayCheckout struct {
	KeyID    string `json:"key_id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"` // paise
	Currency string `json:"currency"`
}

type CheckoutResult struct {
	Order   *model.Order     `json:"order"`
	Gateway *GatewayCheckout `json:"gateway_order,omitempty"`
}

type UpdateStatusInput struct {
	Status         model.OrderStatus
	TrackingNumber string
	Reason         string
}

type OrderService interface {
	CreateOrder(ctx context.Context, userID uint, input CreateOrderInput) (*CheckoutResult, error)
	GetUserOrders(userID uint, status model.OrderStatus, limit, offset int) ([]model.Order, int64, error)
	ListOrders(filter repository.OrderFilter) ([]model.Order, int64, error)
	GetOrder(actor Actor, orderID uint) (*model.Order, error)
	CancelOrder(actor Actor, orderID uint, reason string) (*model.Order, error)
	UpdateStatus(orderID uint, input UpdateStatusInput) (*model.Order, error)
	ExpireStalePendingOrders() (int, error)
}

// OrderServiceDeps wires the collaborators of the order service.
type OrderServiceDeps struct {
	DB            *gorm.DB
	Orders        repository.OrderRepository
	Carts         repository.CartRepository
	Addresses     repository.AddressRepository
	Coupons       repository.CouponRepository
	Users         repository.UserRepository
	Ledger        StockLedger
	Gateway       PaymentGateway
	Locker        Locker
	Notifier      Notifier
	Pricing       Pricing
	PendingWindow time.Duration
	Currency      string
	Now           func() time.Time
}

type orderService struct {
	db            *gorm.DB
	orderRepo     repository.OrderRepository
	cartRepo      repository.CartRepository
	addressRepo   repository.AddressRepository
	couponRepo    repository.CouponRepository
	userRepo      repository.UserRepository
	ledger        StockLedger
	gateway       PaymentGateway
	locker        Locker
	notifier      Notifier
	pricing       Pricing
	pendingWindow time.Duration
	currency      string
	now           func() time.Time
}

func NewOrderService(deps OrderServiceDeps) OrderService {
	s := &orderService{
		db:            deps.DB,
		orderRepo:     deps.Orders,
		cartRepo:      deps.Carts,
		addressRepo:   deps.Addresses,
		couponRepo:    deps.Coupons,
		userRepo:      deps.Users,
		ledger:        deps.Ledger,
		gateway:       deps.Gateway,
		locker:        deps.Locker,
		notifier:      deps.Notifier,
		pricing:       deps.Pricing,
		pendingWindow: deps.PendingWindow,
		currency:      deps.Currency,
		now:           deps.Now,
	}
	if s.pendingWindow <= 0 {
		s.pendingWindow = defaultPendingWindow
	}
	if s.currency == "" {
		s.currency = "INR"
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.locker == nil {
		s.locker = (*redis.Client)(nil)
	}
	return s
}

func (s *orderService) CreateOrder(ctx context.Context, userID uint, input CreateOrderInput) (*CheckoutResult, error) {
	logger.Info("Creating order", map[string]interface{}{
		"user_id":        userID,
		"address_id":     input.AddressID,
		"payment_method": input.PaymentMethod,
		"coupon_code":    input.CouponCode,
	})

	if !input.PaymentMethod.Valid() {
		return nil, ErrInvalidPaymentMethod
	}
	isGateway := input.PaymentMethod == model.PaymentMethodRazorpay
	if isGateway && s.gateway == nil {
		logger.Warn("Gateway checkout requested but no payment gateway is configured", map[string]interface{}{
			"user_id": userID,
		})
		return nil, ErrPaymentGatewayUnavailable
	}

	address, err := s.addressRepo.FindByIDAndUserID(input.AddressID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Order address not found", map[string]interface{}{
				"user_id":    userID,
				"address_id": input.AddressID,
			})
			return nil, ErrAddressNotFound
		}
		return nil, err
	}

	cart, err := s.cartRepo.GetOrCreate(userID)
	if err != nil {
		logger.Error("Failed to load cart for checkout", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	if len(cart.Items) == 0 {
		logger.Warn("Checkout attempted with empty cart", map[string]interface{}{
			"user_id": userID,
		})
		return nil, ErrCartEmpty
	}

	if isGateway {
		release, err := s.locker.AcquireLock(ctx, fmt.Sprintf("checkout:%d", userID), checkoutLockTTL)
		if err != nil {
			if errors.Is(err, redis.ErrLockHeld) {
				return nil, ErrCheckoutInProgress
			}
			// The dedup race is tolerated without the lock; the sweep cleans up.
			logger.Warn("Checkout lock unavailable, continuing without it", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
		} else {
			defer release()
		}
	}

	items, subtotal, err := buildOrderItems(cart.Items)
	if err != nil {
		logger.Warn("Cart cannot be checked out", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil, err
	}
	couponCode := repository.NormalizeCouponCode(input.CouponCode)

	if isGateway {
		existing, err := s.settlePendingGatewayOrders(userID, subtotal, couponCode)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			logger.Info("Returning existing pending gateway order", map[string]interface{}{
				"user_id":          userID,
				"order_id":         existing.ID,
				"gateway_order_id": *existing.GatewayOrderID,
			})
			return &CheckoutResult{Order: existing, Gateway: s.gatewayCheckout(existing)}, nil
		}
	}

	var coupon *model.Coupon
	var discount float64
	if couponCode != "" {
		coupon, err = s.couponRepo.FindByCode(couponCode)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		discount, err = EvaluateCoupon(coupon, subtotal, s.now())
		if err != nil {
			logger.Warn("Coupon rejected at checkout", map[string]interface{}{
				"user_id":     userID,
				"coupon_code": couponCode,
				"reason":      err.Error(),
			})
			return nil, err
		}
	}

	quote := s.pricing.Quote(subtotal, discount)

	orderNumber, err := s.newOrderNumber()
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		OrderNumber:     orderNumber,
		UserID:          userID,
		ShippingAddress: datatypes.NewJSONType(address.Snapshot()),
		Subtotal:        quote.Subtotal,
		Discount:        quote.Discount,
		ShippingCharge:  quote.ShippingCharge,
		Tax:             quote.Tax,
		Total:           quote.Total,
		PaymentMethod:   input.PaymentMethod,
		PaymentStatus:   model.PaymentStatusPending,
		OrderStatus:     model.OrderStatusPending,
		Notes:           input.Notes,
		Items:           items,
	}
	if coupon != nil {
		order.CouponCode = coupon.Code
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if coupon != nil {
		redeemed, err := s.couponRepo.WithTx(tx).Redeem(coupon.ID)
		if err != nil {
			tx.Rollback()
			logger.Error("Failed to redeem coupon", err, map[string]interface{}{
				"user_id":   userID,
				"coupon_id": coupon.ID,
			})
			return nil, err
		}
		if !redeemed {
			tx.Rollback()
			logger.Warn("Coupon usage limit reached during checkout", map[string]interface{}{
				"user_id":   userID,
				"coupon_id": coupon.ID,
			})
			return nil, ErrCouponUsageLimit
		}
	}

	if err := s.orderRepo.WithTx(tx).Create(order); err != nil {
		tx.Rollback()
		logger.Error("Failed to create order", err, map[string]interface{}{
			"user_id": userID,
			"total":   order.Total,
		})
		return nil, err
	}

	if !isGateway {
		if err := s.ledger.Deduct(tx, order.Items); err != nil {
			tx.Rollback()
			return nil, err
		}
		if err := s.cartRepo.WithTx(tx).ClearByUserID(userID); err != nil {
			tx.Rollback()
			logger.Error("Failed to clear cart after order creation", err, map[string]interface{}{
				"user_id": userID,
			})
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit order transaction", err, map[string]interface{}{
			"user_id":  userID,
			"order_id": order.ID,
		})
		return nil, err
	}

	result := &CheckoutResult{}
	if isGateway {
		gateway, err := s.openGatewayOrder(ctx, order)
		if err != nil {
			return nil, err
		}
		result.Gateway = gateway
	}

	saved, err := s.orderRepo.FindByID(order.ID)
	if err != nil {
		return nil, err
	}
	result.Order = saved

	logger.Info("Order created successfully", map[string]interface{}{
		"user_id":        userID,
		"order_id":       saved.ID,
		"order_number":   saved.OrderNumber,
		"payment_method": saved.PaymentMethod,
		"total":          saved.Total,
		"item_count":     len(saved.Items),
	})

	if s.notifier != nil {
		s.notifier.OrderPlaced(resolveRecipient(s.userRepo, userID), *saved)
	}
	return result, nil
}

// buildOrderItems snapshots cart lines and checks availability against the
// current counters. Lines of the same product are summed for the aggregate.
func buildOrderItems(cartItems []model.CartItem) ([]model.OrderItem, float64, error) {
	items := make([]model.OrderItem, 0, len(cartItems))
	productDemand := make(map[uint]int)
	var subtotal float64

	for i := range cartItems {
		ci := &cartItems[i]
		if ci.Product.ID == 0 {
			return nil, 0, fmt.Errorf("%w: product %d", ErrProductNotFound, ci.ProductID)
		}
		if !ci.Product.IsActive {
			return nil, 0, fmt.Errorf("%w: %s", ErrProductUnavailable, ci.Product.Name)
		}
		if ci.VariantID != nil && ci.Variant == nil {
			return nil, 0, fmt.Errorf("%w: variant %d", ErrVariantNotFound, *ci.VariantID)
		}

		if ci.Variant != nil && ci.Variant.Stock < ci.Quantity {
			return nil, 0, fmt.Errorf("%w: %s (%s)", ErrInsufficientStock, ci.Product.Name, ci.Variant.Size)
		}
		productDemand[ci.ProductID] += ci.Quantity
		if ci.Product.Stock < productDemand[ci.ProductID] {
			return nil, 0, fmt.Errorf("%w: %s", ErrInsufficientStock, ci.Product.Name)
		}

		unitPrice := ci.UnitPrice()
		lineTotal := unitPrice * float64(ci.Quantity)
		item := model.OrderItem{
			ProductID:    ci.ProductID,
			VariantID:    ci.VariantID,
			ProductName:  ci.Product.Name,
			ProductImage: ci.Product.ImageURL,
			UnitPrice:    unitPrice,
			Quantity:     ci.Quantity,
			Subtotal:     lineTotal,
		}
		if ci.Variant != nil {
			item.Size = ci.Variant.Size
			item.Color = ci.Variant.Color
			if ci.Variant.ImageURL != "" {
				item.ProductImage = ci.Variant.ImageURL
			}
		}
		items = append(items, item)
		subtotal += lineTotal
	}
	return items, subtotal, nil
}

// settlePendingGatewayOrders returns a fresh pending gateway order that
// matches the current checkout, and cancels every other pending gateway
// order of the user. Cancellation failures are logged only.
func (s *orderService) settlePendingGatewayOrders(userID uint, subtotal float64, couponCode string) (*model.Order, error) {
	pending, err := s.orderRepo.FindPendingGatewayOrders(userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var reuse *model.Order
	for i := range pending {
		candidate := &pending[i]
		fresh := now.Sub(candidate.CreatedAt) < s.pendingWindow
		if reuse == nil && fresh && candidate.GatewayOrderID != nil &&
			candidate.PaymentStatus == model.PaymentStatusPending &&
			math.Abs(candidate.Subtotal-subtotal) < paymentAmountEpsilon &&
			candidate.CouponCode == couponCode {
			reuse = candidate
			continue
		}

		reason := cancelReasonExpired
		if fresh {
			reason = cancelReasonReplaced
		}
		if _, err := s.abandon(candidate, reason); err != nil {
			logger.Warn("Failed to cancel pending gateway order", map[string]interface{}{
				"user_id":  userID,
				"order_id": candidate.ID,
				"error":    err.Error(),
			})
		}
	}
	return reuse, nil
}

// abandon moves an unpaid gateway order to CANCELLED/FAILED if nobody has
// changed it since it was read.
func (s *orderService) abandon(order *model.Order, reason string) (bool, error) {
	now := s.now()
	return s.orderRepo.UpdateIf(order.ID, model.OrderStatusPending, order.PaymentStatus, map[string]interface{}{
		"order_status":   model.OrderStatusCancelled,
		"payment_status": model.PaymentStatusFailed,
		"cancel_reason":  reason,
		"cancelled_at":   &now,
	})
}

// openGatewayOrder creates the remote Razorpay order for a committed local
// order. Any failure cancels the local order so it never sits half-created.
func (s *orderService) openGatewayOrder(ctx context.Context, order *model.Order) (*GatewayCheckout, error) {
	remote, err := s.gateway.CreateOrder(ctx, razorpay.CreateOrderRequest{
		Amount:   razorpay.ToPaise(order.Total),
		Currency: s.currency,
		Receipt:  order.OrderNumber,
		Notes: map[string]string{
			"order_id":     strconv.FormatUint(uint64(order.ID), 10),
			"order_number": order.OrderNumber,
		},
	})
	if err == nil {
		err = s.orderRepo.Updates(order.ID, map[string]interface{}{"gateway_order_id": remote.ID})
	}
	if err != nil {
		logger.Error("Failed to open gateway order", err, map[string]interface{}{
			"order_id": order.ID,
			"total":    order.Total,
		})
		if _, cancelErr := s.abandon(order, cancelReasonGateway); cancelErr != nil {
			logger.Error("Failed to cancel order after gateway failure", cancelErr, map[string]interface{}{
				"order_id": order.ID,
			})
		}
		return nil, fmt.Errorf("%w: %v", ErrPaymentGatewayUnavailable, err)
	}

	order.GatewayOrderID = &remote.ID
	return &GatewayCheckout{
		KeyID:    s.gateway.KeyID(),
		OrderID:  remote.ID,
		Amount:   remote.Amount,
		Currency: remote.Currency,
	}, nil
}

func (s *orderService) gatewayCheckout(order *model.Order) *GatewayCheckout {
	return &GatewayCheckout{
		KeyID:    s.gateway.KeyID(),
		OrderID:  *order.GatewayOrderID,
		Amount:   razorpay.ToPaise(order.Total),
		Currency: s.currency,
	}
}

func (s *orderService) newOrderNumber() (string, error) {
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		number, err := util.GenerateOrderNumber(s.now())
		if err != nil {
			return "", err
		}
		exists, err := s.orderRepo.OrderNumberExists(number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
		logger.Warn("Order number collision, regenerating", map[string]interface{}{
			"order_number": number,
		})
	}
	return "", errors.New("failed to allocate a unique order number")
}

func (s *orderService) GetUserOrders(userID uint, status model.OrderStatus, limit, offset int) ([]model.Order, int64, error) {
	return s.ListOrders(repository.OrderFilter{
		UserID:      &userID,
		OrderStatus: status,
		Limit:       limit,
		Offset:      offset,
	})
}

func (s *orderService) ListOrders(filter repository.OrderFilter) ([]model.Order, int64, error) {
	orders, total, err := s.orderRepo.FindAll(filter)
	if err != nil {
		logger.Error("Failed to list orders", err, map[string]interface{}{
			"user_id": filter.UserID,
			"status":  filter.OrderStatus,
		})
		return nil, 0, err
	}
	return orders, total, nil
}

func (s *orderService) GetOrder(actor Actor, orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		logger.Error("Failed to fetch order", err, map[string]interface{}{
			"order_id": orderID,
		})
		return nil, err
	}

	if !actor.IsAdmin && order.UserID != actor.UserID {
		logger.Warn("Order access denied: ownership mismatch", map[string]interface{}{
			"user_id":  actor.UserID,
			"order_id": orderID,
			"owner_id": order.UserID,
		})
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) CancelOrder(actor Actor, orderID uint, reason string) (*model.Order, error) {
	order, err := s.GetOrder(actor, orderID)
	if err != nil {
		return nil, err
	}
	if !IsCancellable(order) {
		logger.Warn("Order cancellation rejected", map[string]interface{}{
			"order_id":     orderID,
			"order_status": order.OrderStatus,
		})
		return nil, ErrOrderNotCancellable
	}
	if reason == "" {
		reason = "cancelled by customer"
		if actor.IsAdmin && order.UserID != actor.UserID {
			reason = "cancelled by admin"
		}
	}

	if err := s.cancel(order, reason); err != nil {
		return nil, err
	}
	return s.afterStatusChange(order.ID)
}

// cancel runs the cancellation compensation in one transaction: stock held
// by the order is restored, a PAID order becomes REFUNDED and an unpaid
// gateway order becomes FAILED. Coupon usage is not returned.
func (s *orderService) cancel(order *model.Order, reason string) error {
	now := s.now()
	updates := map[string]interface{}{
		"order_status":  model.OrderStatusCancelled,
		"cancel_reason": reason,
		"cancelled_at":  &now,
	}
	switch {
	case order.PaymentStatus == model.PaymentStatusPaid:
		updates["payment_status"] = model.PaymentStatusRefunded
	case order.PaymentMethod == model.PaymentMethodRazorpay:
		updates["payment_status"] = model.PaymentStatusFailed
	}
	restore := order.StockDeducted()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		changed, err := s.orderRepo.WithTx(tx).UpdateIf(order.ID, order.OrderStatus, order.PaymentStatus, updates)
		if err != nil {
			return err
		}
		if !changed {
			return ErrOrderStateChanged
		}
		if restore {
			return s.ledger.Restore(tx, order.Items)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrOrderStateChanged) {
			logger.Error("Failed to cancel order", err, map[string]interface{}{
				"order_id": order.ID,
			})
		}
		return err
	}

	logger.Info("Order cancelled", map[string]interface{}{
		"order_id":       order.ID,
		"previous":       order.OrderStatus,
		"stock_restored": restore,
		"payment_status": updates["payment_status"],
		"reason":         reason,
	})
	return nil
}

// UpdateStatus applies an admin status transition and its side effects.
func (s *orderService) UpdateStatus(orderID uint, input UpdateStatusInput) (*model.Order, error) {
	if !input.Status.Valid() {
		return nil, ErrInvalidStatusTransition
	}

	order, err := s.GetOrder(Actor{IsAdmin: true}, orderID)
	if err != nil {
		return nil, err
	}

	if !CanTransition(order.OrderStatus, input.Status) {
		logger.Warn("Invalid order status transition", map[string]interface{}{
			"order_id": orderID,
			"from":     order.OrderStatus,
			"to":       input.Status,
		})
		return nil, ErrInvalidStatusTransition
	}

	if input.Status == model.OrderStatusCancelled {
		reason := input.Reason
		if reason == "" {
			reason = "cancelled by admin"
		}
		if err := s.cancel(order, reason); err != nil {
			return nil, err
		}
		return s.afterStatusChange(order.ID)
	}

	// Unpaid gateway orders only move forward through payment verification.
	if order.PaymentMethod == model.PaymentMethodRazorpay && order.PaymentStatus != model.PaymentStatusPaid {
		logger.Warn("Status change rejected for unpaid gateway order", map[string]interface{}{
			"order_id":       orderID,
			"payment_status": order.PaymentStatus,
			"to":             input.Status,
		})
		return nil, ErrInvalidStatusTransition
	}

	now := s.now()
	updates := map[string]interface{}{"order_status": input.Status}
	switch input.Status {
	case model.OrderStatusShipped:
		updates["shipped_at"] = &now
		if input.TrackingNumber != "" {
			updates["tracking_number"] = input.TrackingNumber
		}
	case model.OrderStatusDelivered:
		updates["delivered_at"] = &now
		if order.PaymentMethod == model.PaymentMethodCOD && order.PaymentStatus == model.PaymentStatusPending {
			updates["payment_status"] = model.PaymentStatusPaid
			updates["paid_at"] = &now
		}
	}

	changed, err := s.orderRepo.UpdateIf(order.ID, order.OrderStatus, order.PaymentStatus, updates)
	if err != nil {
		logger.Error("Failed to update order status", err, map[string]interface{}{
			"order_id": orderID,
			"to":       input.Status,
		})
		return nil, err
	}
	if !changed {
		return nil, ErrOrderStateChanged
	}

	logger.Info("Order status updated", map[string]interface{}{
		"order_id": orderID,
		"from":     order.OrderStatus,
		"to":       input.Status,
	})
	return s.afterStatusChange(order.ID)
}

func (s *orderService) afterStatusChange(orderID uint) (*model.Order, error) {
	updated, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.OrderStatusChanged(resolveRecipient(s.userRepo, updated.UserID), *updated)
	}
	return updated, nil
}

// ExpireStalePendingOrders cancels gateway orders that stayed unpaid past the
// pending window. It reports how many orders were cancelled.
func (s *orderService) ExpireStalePendingOrders() (int, error) {
	cutoff := s.now().Add(-s.pendingWindow)
	stale, err := s.orderRepo.FindStalePendingGatewayOrders(cutoff, staleOrderBatchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range stale {
		changed, err := s.abandon(&stale[i], cancelReasonExpired)
		if err != nil {
			logger.Warn("Failed to expire pending order", map[string]interface{}{
				"order_id": stale[i].ID,
				"error":    err.Error(),
			})
			continue
		}
		if changed {
			expired++
		}
	}

	if expired > 0 {
		logger.Info("Expired stale pending gateway orders", map[string]interface{}{
			"count":  expired,
			"cutoff": cutoff,
		})
	}
	return expired, nil
}
