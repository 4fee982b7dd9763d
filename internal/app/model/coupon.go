package model

import (
	"time"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFixed      DiscountType = "FIXED"
)

type Coupon struct {
	ID            uint         `gorm:"primarykey" json:"id"`
	Code          string       `gorm:"size:50;uniqueIndex;not null" json:"code"` // stored upper-case
	Description   string       `gorm:"type:text" json:"description"`
	DiscountType  DiscountType `gorm:"type:varchar(20);not null" json:"discount_type"`
	DiscountValue float64      `gorm:"not null" json:"discount_value"`
	MinPurchase   float64      `gorm:"not null;default:0" json:"min_purchase"`
	MaxDiscount   *float64     `json:"max_discount,omitempty"` // PERCENTAGE only
	UsageLimit    int          `gorm:"not null" json:"usage_limit"`
	UsedCount     int          `gorm:"not null;default:0" json:"used_count"`
	ValidFrom     time.Time    `gorm:"not null" json:"valid_from"`
	ValidUntil    time.Time    `gorm:"not null" json:"valid_until"`
	IsActive      bool         `gorm:"not null" json:"is_active"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func (Coupon) TableName() string {
	return "coupons"
}
