package model

import (
	"time"

	"gorm.io/gorm"
)

type ProductCategory string

const (
	CategoryFullFace  ProductCategory = "full_face"
	CategoryOpenFace  ProductCategory = "open_face"
	CategoryModular   ProductCategory = "modular"
	CategoryOffRoad   ProductCategory = "off_road"
	CategoryHalfFace  ProductCategory = "half_face"
	CategoryAccessory ProductCategory = "accessory"
)

type Product struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	Name          string          `gorm:"not null" json:"name"`
	Brand         string          `gorm:"size:100" json:"brand"`
	Description   string          `gorm:"type:text" json:"description"`
	Category      ProductCategory `gorm:"type:varchar(50)" json:"category"`
	Price         float64         `gorm:"not null" json:"price"`
	DiscountPrice *float64        `json:"discount_price,omitempty"`
	Stock         int             `gorm:"not null;default:0;check:chk_products_stock,stock >= 0" json:"stock"` // aggregate over all variants
	ImageURL      string          `json:"image_url"`
	ImageKey      string          `json:"-"` // object key in the image bucket
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`

	Variants []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

// EffectivePrice is the discount price when set, else the base price.
func (p *Product) EffectivePrice() float64 {
	if p.DiscountPrice != nil && *p.DiscountPrice > 0 {
		return *p.DiscountPrice
	}
	return p.Price
}
