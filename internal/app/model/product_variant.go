package model

import (
	"time"

	"gorm.io/gorm"
)

// ProductVariant is a purchasable size/colour combination of a product.
type ProductVariant struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	ProductID       uint           `gorm:"index;not null" json:"product_id"`
	SKU             string         `gorm:"size:64;uniqueIndex" json:"sku"`
	Size            string         `gorm:"size:20" json:"size"`  // XS..XXL
	Color           string         `gorm:"size:50" json:"color"` // e.g. "Matte Black"
	AdditionalPrice float64        `gorm:"default:0" json:"additional_price"`
	Stock           int            `gorm:"not null;default:0;check:chk_product_variants_stock,stock >= 0" json:"stock"`
	ImageURL        string         `json:"image_url"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	Product Product `gorm:"foreignKey:ProductID" json:"-"`
}

func (ProductVariant) TableName() string {
	return "product_variants"
}
