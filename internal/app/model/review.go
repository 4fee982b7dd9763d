package model

import (
	"time"
)

// Review is unique per (user, product, order).
type Review struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_review_user_product_order" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_review_user_product_order;index" json:"product_id"`
	OrderID   uint      `gorm:"not null;uniqueIndex:idx_review_user_product_order" json:"order_id"`
	Rating    int       `gorm:"not null;check:chk_reviews_rating,rating >= 1 AND rating <= 5" json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Review) TableName() string {
	return "reviews"
}
