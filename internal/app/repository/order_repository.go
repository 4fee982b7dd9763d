package repository

import (
	"time"

	"github.com/helmetkart/helmet-backend/internal/app/model"
	"github.com/helmetkart/helmet-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderFilter struct {
	UserID      *uint
	OrderStatus model.OrderStatus
	Limit       int
	Offset      int
}

type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository
	Create(order *model.Order) error
	FindByID(id uint) (*model.Order, error)
	FindByIDForUpdate(id uint) (*model.Order, error)
	FindByGatewayOrderID(gatewayOrderID string) (*model.Order, error)
	FindAll(filter OrderFilter) ([]model.Order, int64, error)
	FindPendingGatewayOrders(userID uint) ([]model.Order, error)
	FindStalePendingGatewayOrders(createdBefore time.Time, limit int) ([]model.Order, error)
	OrderNumberExists(orderNumber string) (bool, error)

	// UpdateIf applies updates only while the order still has the expected
	// statuses. It reports whether a row changed.
	UpdateIf(id uint, expectOrder model.OrderStatus, expectPayment model.PaymentStatus, updates map[string]interface{}) (bool, error)
	Updates(id uint, updates map[string]interface{}) error
	MarkPaymentFailedByGatewayOrderID(gatewayOrderID string) (int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) WithTx(tx *gorm.DB) OrderRepository {
	return &orderRepository{db: tx}
}

func (r *orderRepository) preloadOrder() *gorm.DB {
	return r.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.id ASC")
	})
}

func (r *orderRepository) Create(order *model.Order) error {
	logger.Debug("Creating order in database", map[string]interface{}{
		"user_id":        order.UserID,
		"order_number":   order.OrderNumber,
		"total":          order.Total,
		"payment_method": order.PaymentMethod,
	})

	if err := r.db.Omit("User").Create(order).Error; err != nil {
		logger.Error("Failed to create order in database", err, map[string]interface{}{
			"user_id":      order.UserID,
			"order_number": order.OrderNumber,
		})
		return err
	}

	logger.Debug("Order created in database", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"items":        len(order.Items),
	})
	return nil
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	var order model.Order
	if err := r.preloadOrder().First(&order, id).Error; err != nil {
		logger.Debug("Order not found by ID", map[string]interface{}{
			"order_id": id,
		})
		return nil, err
	}
	return &order, nil
}

// FindByIDForUpdate row-locks the order on databases that support it.
func (r *orderRepository) FindByIDForUpdate(id uint) (*model.Order, error) {
	var order model.Order
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, id).Error; err != nil {
		return nil, err
	}
	if err := r.db.Where("order_id = ?", order.ID).Order("id ASC").Find(&order.Items).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByGatewayOrderID(gatewayOrderID string) (*model.Order, error) {
	var order model.Order
	if err := r.preloadOrder().Where("gateway_order_id = ?", gatewayOrderID).
		Order("id DESC").
		First(&order).Error; err != nil {
		logger.Debug("Order not found by gateway order ID", map[string]interface{}{
			"gateway_order_id": gatewayOrderID,
		})
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindAll(filter OrderFilter) ([]model.Order, int64, error) {
	query := r.db.Model(&model.Order{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.OrderStatus != "" {
		query = query.Where("order_status = ?", filter.OrderStatus)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		logger.Error("Failed to count orders", err)
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var orders []model.Order
	if err := query.Preload("Items").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders", err)
		return nil, 0, err
	}

	logger.Debug("Orders found in database", map[string]interface{}{
		"count": len(orders),
		"total": total,
	})
	return orders, total, nil
}

// unpaidStatuses covers gateway orders whose last payment attempt failed but
// which can still be paid.
var unpaidStatuses = []model.PaymentStatus{model.PaymentStatusPending, model.PaymentStatusFailed}

// FindPendingGatewayOrders returns the user's unpaid gateway orders, newest first.
func (r *orderRepository) FindPendingGatewayOrders(userID uint) ([]model.Order, error) {
	var orders []model.Order
	err := r.preloadOrder().
		Where("user_id = ? AND payment_method = ? AND payment_status IN ? AND order_status = ?",
			userID, model.PaymentMethodRazorpay, unpaidStatuses, model.OrderStatusPending).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		logger.Error("Failed to find pending gateway orders", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) FindStalePendingGatewayOrders(createdBefore time.Time, limit int) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.
		Where("payment_method = ? AND payment_status IN ? AND order_status = ? AND created_at < ?",
			model.PaymentMethodRazorpay, unpaidStatuses, model.OrderStatusPending, createdBefore).
		Order("created_at ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		logger.Error("Failed to find stale pending gateway orders", err)
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) OrderNumberExists(orderNumber string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Order{}).Where("order_number = ?", orderNumber).Count(&count).Error
	return count > 0, err
}

func (r *orderRepository) UpdateIf(id uint, expectOrder model.OrderStatus, expectPayment model.PaymentStatus, updates map[string]interface{}) (bool, error) {
	logger.Debug("Updating order with status guard", map[string]interface{}{
		"order_id":       id,
		"order_status":   expectOrder,
		"payment_status": expectPayment,
	})

	result := r.db.Model(&model.Order{}).
		Where("id = ? AND order_status = ? AND payment_status = ?", id, expectOrder, expectPayment).
		Updates(updates)
	if result.Error != nil {
		logger.Error("Failed to update order in database", result.Error, map[string]interface{}{
			"order_id": id,
		})
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *orderRepository) Updates(id uint, updates map[string]interface{}) error {
	if err := r.db.Model(&model.Order{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		logger.Error("Failed to update order in database", err, map[string]interface{}{
			"order_id": id,
		})
		return err
	}
	return nil
}

// MarkPaymentFailedByGatewayOrderID flags every unpaid order carrying the
// gateway order id as FAILED.
func (r *orderRepository) MarkPaymentFailedByGatewayOrderID(gatewayOrderID string) (int64, error) {
	result := r.db.Model(&model.Order{}).
		Where("gateway_order_id = ? AND payment_status <> ?", gatewayOrderID, model.PaymentStatusPaid).
		Update("payment_status", model.PaymentStatusFailed)
	if result.Error != nil {
		logger.Error("Failed to mark payment failed", result.Error, map[string]interface{}{
			"gateway_order_id": gatewayOrderID,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
