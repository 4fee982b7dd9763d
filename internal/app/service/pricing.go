package service

import (
	"math"

	"github.com/helmetkart/helmet-backend/config"
)

// PriceBreakdown holds the server-derived money fields of an order.
// Total is always Subtotal - Discount + ShippingCharge + Tax.
type PriceBreakdown struct {
	Subtotal       float64 `json:"subtotal"`
	Discount       float64 `json:"discount"`
	ShippingCharge float64 `json:"shipping_charge"`
	Tax            float64 `json:"tax"`
	Total          float64 `json:"total"`
}

// Pricing applies the checkout shipping and tax rules.
type Pricing struct {
	FreeShippingThreshold float64
	ShippingCharge        float64
	TaxRate               float64
}

func NewPricing(cfg config.CheckoutConfig) Pricing {
	return Pricing{
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		ShippingCharge:        cfg.ShippingCharge,
		TaxRate:               cfg.TaxRate,
	}
}

// Quote computes shipping, tax and total. Tax is charged on the subtotal
// before discount.
func (p Pricing) Quote(subtotal, discount float64) PriceBreakdown {
	shipping := p.ShippingCharge
	if subtotal >= p.FreeShippingThreshold {
		shipping = 0
	}
	tax := math.Round(subtotal * p.TaxRate)

	return PriceBreakdown{
		Subtotal:       subtotal,
		Discount:       discount,
		ShippingCharge: shipping,
		Tax:            tax,
		Total:          subtotal - discount + shipping + tax,
	}
}
