package model

import (
	"time"

	"gorm.io/datatypes"
)

type OrderStatus string
type PaymentStatus string
type PaymentMethod string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusReturned   OrderStatus = "RETURNED"

	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"

	PaymentMethodCOD      PaymentMethod = "COD"
	PaymentMethodRazorpay PaymentMethod = "RAZORPAY"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCOD || m == PaymentMethodRazorpay
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusReturned:
		return true
	}
	return false
}

type Order struct {
	ID               uint                                `gorm:"primarykey" json:"id"`
	OrderNumber      string                              `gorm:"size:32;uniqueIndex;not null" json:"order_number"` // ORD-YYYYMMDD-XXXXXX
	UserID           uint                                `gorm:"not null;index" json:"user_id"`
	ShippingAddress  datatypes.JSONType[AddressSnapshot] `json:"shipping_address"` // copied at creation
	Subtotal         float64                             `gorm:"not null" json:"subtotal"`
	Discount         float64                             `gorm:"not null;default:0" json:"discount"`
	ShippingCharge   float64                             `gorm:"not null;default:0" json:"shipping_charge"`
	Tax              float64                             `gorm:"not null;default:0" json:"tax"`
	Total            float64                             `gorm:"not null" json:"total"`
	CouponCode       string                              `gorm:"size:50" json:"coupon_code,omitempty"`
	PaymentMethod    PaymentMethod                       `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentStatus    PaymentStatus                       `gorm:"type:varchar(20);not null;index" json:"payment_status"`
	OrderStatus      OrderStatus                         `gorm:"type:varchar(20);not null;index" json:"order_status"`
	GatewayOrderID   *string                             `gorm:"size:64;index" json:"gateway_order_id,omitempty"`
	GatewayPaymentID *string                             `gorm:"size:64" json:"gateway_payment_id,omitempty"`
	GatewaySignature *string                             `gorm:"size:128" json:"-"`
	Notes            string                              `gorm:"type:text" json:"notes,omitempty"`
	TrackingNumber   string                              `gorm:"size:64" json:"tracking_number,omitempty"`
	CancelReason     string                              `gorm:"type:text" json:"cancel_reason,omitempty"`
	PaidAt           *time.Time                          `json:"paid_at,omitempty"`
	ShippedAt        *time.Time                          `json:"shipped_at,omitempty"`
	DeliveredAt      *time.Time                          `json:"delivered_at,omitempty"`
	CancelledAt      *time.Time                          `json:"cancelled_at,omitempty"`
	CreatedAt        time.Time                           `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time                           `json:"updated_at"`

	User  User        `gorm:"foreignKey:UserID" json:"-"`
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// StockDeducted reports whether this order currently holds stock.
// COD orders deduct at creation, gateway orders once paid.
func (o *Order) StockDeducted() bool {
	if o.PaymentMethod == PaymentMethodCOD {
		return true
	}
	return o.PaymentStatus == PaymentStatusPaid
}

// OrderItem is a snapshot of a cart line at order time. Product and variant
// ids are kept for stock restoration only.
type OrderItem struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	OrderID      uint      `gorm:"not null;index" json:"order_id"`
	ProductID    uint      `gorm:"not null;index" json:"product_id"`
	VariantID    *uint     `gorm:"index" json:"variant_id,omitempty"`
	ProductName  string    `gorm:"not null" json:"product_name"`
	ProductImage string    `json:"product_image"`
	Size         string    `gorm:"size:20" json:"size,omitempty"`
	Color        string    `gorm:"size:50" json:"color,omitempty"`
	UnitPrice    float64   `gorm:"not null" json:"unit_price"`
	Quantity     int       `gorm:"not null" json:"quantity"`
	Subtotal     float64   `gorm:"not null" json:"subtotal"`
	CreatedAt    time.Time `json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
