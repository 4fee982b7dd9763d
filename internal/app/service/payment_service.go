package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/helmetkart/helmet-backend/internal/app/model"
	"github.com/helmetkart/helmet-backend/internal/app/repository"
	"github.com/helmetkart/helmet-backend/pkg/logger"
	"github.com/helmetkart/helmet-backend/pkg/payment/razorpay"
	"gorm.io/gorm"
)

var (
	ErrInvalidPaymentSignature = errors.New("invalid payment signature")
	ErrPaymentAmountMismatch   = errors.New("payment amount does not match order total")
	ErrPaymentOrderMismatch    = errors.New("payment does not belong to this order")
	ErrPaymentAlreadyProcessed = errors.New("payment already processed")
	ErrOrderStockChanged       = errors.New("stock changed before payment could be applied")
	ErrOrderForbidden          = errors.New("order belongs to another user")
)

type VerifyPaymentInput struct {
	GatewayOrderID string
	PaymentID      string
	Signature      string
}

// PaymentService reconciles client-reported gateway payments with orders.
type PaymentService interface {
	VerifyPayment(ctx context.Context, userID uint, input VerifyPaymentInput) (*model.Order, error)
}

type paymentService struct {
	db        *gorm.DB
	orderRepo repository.OrderRepository
	cartRepo  repository.CartRepository
	userRepo  repository.UserRepository
	ledger    StockLedger
	gateway   PaymentGateway
	notifier  Notifier
	now       func() time.Time
}

func NewPaymentService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	userRepo repository.UserRepository,
	ledger StockLedger,
	gateway PaymentGateway,
	notifier Notifier,
) PaymentService {
	return &paymentService{
		db:        db,
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
		userRepo:  userRepo,
		ledger:    ledger,
		gateway:   gateway,
		notifier:  notifier,
		now:       time.Now,
	}
}

func (s *paymentService) VerifyPayment(ctx context.Context, userID uint, input VerifyPaymentInput) (*model.Order, error) {
	logger.Info("Verifying payment", map[string]interface{}{
		"user_id":          userID,
		"gateway_order_id": input.GatewayOrderID,
		"payment_id":       input.PaymentID,
	})

	if s.gateway == nil {
		return nil, ErrPaymentGatewayUnavailable
	}

	if !s.gateway.VerifyPaymentSignature(input.GatewayOrderID, input.PaymentID, input.Signature) {
		failed, err := s.orderRepo.MarkPaymentFailedByGatewayOrderID(input.GatewayOrderID)
		if err != nil {
			logger.Error("Failed to mark payment failed after bad signature", err, map[string]interface{}{
				"gateway_order_id": input.GatewayOrderID,
			})
		}
		logger.Warn("Payment signature mismatch", map[string]interface{}{
			"user_id":          userID,
			"gateway_order_id": input.GatewayOrderID,
			"orders_failed":    failed,
		})
		return nil, ErrInvalidPaymentSignature
	}

	order, err := s.orderRepo.FindByGatewayOrderID(input.GatewayOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if order.UserID != userID {
		logger.Warn("Payment verification by non-owner", map[string]interface{}{
			"user_id":  userID,
			"order_id": order.ID,
			"owner_id": order.UserID,
		})
		return nil, ErrOrderForbidden
	}

	if order.PaymentStatus == model.PaymentStatusPaid {
		if order.GatewayPaymentID != nil && *order.GatewayPaymentID == input.PaymentID {
			logger.Info("Payment already verified, returning order", map[string]interface{}{
				"order_id":   order.ID,
				"payment_id": input.PaymentID,
			})
			return order, nil
		}
		return nil, ErrPaymentAlreadyProcessed
	}
	if order.OrderStatus != model.OrderStatusPending {
		logger.Warn("Payment received for an order that is no longer pending", map[string]interface{}{
			"order_id":     order.ID,
			"order_status": order.OrderStatus,
		})
		return nil, ErrPaymentAlreadyProcessed
	}

	payment, err := s.gateway.FetchPayment(ctx, input.PaymentID)
	if err != nil {
		logger.Error("Failed to fetch payment from gateway", err, map[string]interface{}{
			"order_id":   order.ID,
			"payment_id": input.PaymentID,
		})
		return nil, fmt.Errorf("%w: %v", ErrPaymentGatewayUnavailable, err)
	}

	if mismatch := checkPayment(order, payment, input.GatewayOrderID); mismatch != nil {
		if _, err := s.orderRepo.UpdateIf(order.ID, order.OrderStatus, order.PaymentStatus, map[string]interface{}{
			"payment_status": model.PaymentStatusFailed,
		}); err != nil {
			logger.Error("Failed to mark payment failed after mismatch", err, map[string]interface{}{
				"order_id": order.ID,
			})
		}
		logger.Warn("Gateway payment does not match order", map[string]interface{}{
			"order_id":         order.ID,
			"order_total":      order.Total,
			"payment_amount":   razorpay.FromPaise(payment.Amount),
			"payment_order_id": payment.OrderID,
			"reason":           mismatch.Error(),
		})
		return nil, mismatch
	}

	paidAt := s.now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		changed, err := s.orderRepo.WithTx(tx).UpdateIf(order.ID, order.OrderStatus, order.PaymentStatus, map[string]interface{}{
			"payment_status":     model.PaymentStatusPaid,
			"order_status":       model.OrderStatusConfirmed,
			"gateway_payment_id": input.PaymentID,
			"gateway_signature":  input.Signature,
			"paid_at":            &paidAt,
		})
		if err != nil {
			return err
		}
		if !changed {
			return ErrPaymentAlreadyProcessed
		}

		if err := s.ledger.Deduct(tx, order.Items); err != nil {
			if errors.Is(err, ErrInsufficientStock) {
				return fmt.Errorf("%w: %v", ErrOrderStockChanged, err)
			}
			return err
		}
		return s.cartRepo.WithTx(tx).ClearByUserID(order.UserID)
	})
	if err != nil {
		logger.Warn("Payment could not be applied", map[string]interface{}{
			"order_id":   order.ID,
			"payment_id": input.PaymentID,
			"error":      err.Error(),
		})
		return nil, err
	}

	updated, err := s.orderRepo.FindByID(order.ID)
	if err != nil {
		return nil, err
	}

	logger.Info("Payment verified", map[string]interface{}{
		"order_id":   updated.ID,
		"payment_id": input.PaymentID,
		"total":      updated.Total,
	})

	if s.notifier != nil {
		s.notifier.PaymentSucceeded(resolveRecipient(s.userRepo, updated.UserID), *updated)
	}
	return updated, nil
}

// checkPayment compares the gateway's view of a payment with the order.
func checkPayment(order *model.Order, payment *razorpay.Payment, gatewayOrderID string) error {
	if payment.OrderID != gatewayOrderID {
		return ErrPaymentOrderMismatch
	}
	if math.Abs(razorpay.FromPaise(payment.Amount)-order.Total) > paymentAmountEpsilon {
		return ErrPaymentAmountMismatch
	}
	return nil
}
