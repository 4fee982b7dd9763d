package service

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/helmetkart/helmet-backend/internal/app/model"
	"github.com/helmetkart/helmet-backend/internal/app/repository"
	"github.com/helmetkart/helmet-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrCouponInvalid     = errors.New("invalid coupon code")
	ErrCouponInactive    = errors.New("coupon is no longer active")
	ErrCouponUsageLimit  = errors.New("coupon usage limit reached")
	ErrCouponNotYetValid = errors.New("coupon is not yet valid")
	ErrCouponExpired     = errors.New("coupon has expired")
	ErrCouponMinPurchase = errors.New("minimum purchase not met")
	ErrCouponCodeExists  = errors.New("coupon code already exists")
	ErrCouponNotFound    = errors.New("coupon not found")
	ErrInvalidCoupon     = errors.New("invalid coupon definition")
)

// EvaluateCoupon returns the discount coupon grants on subtotal at now.
// Gates run in a fixed order so callers always see the first failing one.
// A nil coupon is an unknown code.
func EvaluateCoupon(coupon *model.Coupon, subtotal float64, now time.Time) (float64, error) {
	switch {
	case coupon == nil:
		return 0, ErrCouponInvalid
	case !coupon.IsActive:
		return 0, ErrCouponInactive
	case coupon.UsedCount >= coupon.UsageLimit:
		return 0, ErrCouponUsageLimit
	case now.Before(coupon.ValidFrom):
		return 0, ErrCouponNotYetValid
	case now.After(coupon.ValidUntil):
		return 0, ErrCouponExpired
	case subtotal < coupon.MinPurchase:
		return 0, ErrCouponMinPurchase
	}

	var discount float64
	switch coupon.DiscountType {
	case model.DiscountPercentage:
		discount = subtotal * coupon.DiscountValue / 100
		if coupon.MaxDiscount != nil && discount > *coupon.MaxDiscount {
			discount = *coupon.MaxDiscount
		}
	case model.DiscountFixed:
		discount = coupon.DiscountValue
	default:
		return 0, ErrCouponInvalid
	}

	if discount > subtotal {
		discount = subtotal
	}
	return math.Round(discount), nil
}

// CouponPreview is the side-effect-free breakdown returned by validate-coupon.
type CouponPreview struct {
	Code           string  `json:"code"`
	DiscountType   string  `json:"discount_type"`
	DiscountValue  float64 `json:"discount_value"`
	Subtotal       float64 `json:"subtotal"`
	Discount       float64 `json:"discount"`
	ShippingCharge float64 `json:"shipping_charge"`
	Tax            float64 `json:"tax"`
	Total          float64 `json:"total"`
}

type CreateCouponInput struct {
	Code          string
	Description   string
	DiscountType  model.DiscountType
	DiscountValue float64
	MinPurchase   float64
	MaxDiscount   *float64
	UsageLimit    int
	ValidFrom     time.Time
	ValidUntil    time.Time
}

type CouponService interface {
	Preview(code string, subtotal float64) (*CouponPreview, error)
	CreateCoupon(input CreateCouponInput) (*model.Coupon, error)
	ListCoupons() ([]model.Coupon, error)
	DeactivateCoupon(id uint) error
}

type couponService struct {
	couponRepo repository.CouponRepository
	pricing    Pricing
	now        func() time.Time
}

func NewCouponService(couponRepo repository.CouponRepository, pricing Pricing, now func() time.Time) CouponService {
	if now == nil {
		now = time.Now
	}
	return &couponService{
		couponRepo: couponRepo,
		pricing:    pricing,
		now:        now,
	}
}

// Preview evaluates code against subtotal exactly as checkout would, without
// redeeming it.
func (s *couponService) Preview(code string, subtotal float64) (*CouponPreview, error) {
	coupon, err := s.lookup(code)
	if err != nil {
		return nil, err
	}

	discount, err := EvaluateCoupon(coupon, subtotal, s.now())
	if err != nil {
		logger.Debug("Coupon preview rejected", map[string]interface{}{
			"code":     coupon.Code,
			"subtotal": subtotal,
			"reason":   err.Error(),
		})
		return nil, err
	}

	quote := s.pricing.Quote(subtotal, discount)
	return &CouponPreview{
		Code:           coupon.Code,
		DiscountType:   string(coupon.DiscountType),
		DiscountValue:  coupon.DiscountValue,
		Subtotal:       quote.Subtotal,
		Discount:       quote.Discount,
		ShippingCharge: quote.ShippingCharge,
		Tax:            quote.Tax,
		Total:          quote.Total,
	}, nil
}

// lookup resolves a user-entered code. Unknown codes are ErrCouponInvalid.
func (s *couponService) lookup(code string) (*model.Coupon, error) {
	coupon, err := s.couponRepo.FindByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponInvalid
		}
		logger.Error("Failed to fetch coupon", err, map[string]interface{}{
			"code": code,
		})
		return nil, err
	}
	return coupon, nil
}

func (s *couponService) CreateCoupon(input CreateCouponInput) (*model.Coupon, error) {
	code := repository.NormalizeCouponCode(input.Code)
	if err := validateCouponInput(code, input); err != nil {
		return nil, err
	}

	if _, err := s.couponRepo.FindByCode(code); err == nil {
		return nil, ErrCouponCodeExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	coupon := &model.Coupon{
		Code:          code,
		Description:   input.Description,
		DiscountType:  input.DiscountType,
		DiscountValue: input.DiscountValue,
		MinPurchase:   input.MinPurchase,
		UsageLimit:    input.UsageLimit,
		ValidFrom:     input.ValidFrom,
		ValidUntil:    input.ValidUntil,
		IsActive:      true,
	}
	if input.DiscountType == model.DiscountPercentage {
		coupon.MaxDiscount = input.MaxDiscount
	}

	if err := s.couponRepo.Create(coupon); err != nil {
		logger.Error("Failed to create coupon", err, map[string]interface{}{
			"code": code,
		})
		return nil, err
	}

	logger.Info("Coupon created", map[string]interface{}{
		"coupon_id":   coupon.ID,
		"code":        coupon.Code,
		"usage_limit": coupon.UsageLimit,
	})
	return coupon, nil
}

func validateCouponInput(code string, input CreateCouponInput) error {
	switch {
	case code == "":
		return fmt.Errorf("%w: code is required", ErrInvalidCoupon)
	case input.DiscountType != model.DiscountPercentage && input.DiscountType != model.DiscountFixed:
		return fmt.Errorf("%w: unknown discount type %q", ErrInvalidCoupon, input.DiscountType)
	case input.DiscountValue <= 0:
		return fmt.Errorf("%w: discount value must be positive", ErrInvalidCoupon)
	case input.DiscountType == model.DiscountPercentage && input.DiscountValue > 100:
		return fmt.Errorf("%w: percentage cannot exceed 100", ErrInvalidCoupon)
	case input.UsageLimit <= 0:
		return fmt.Errorf("%w: usage limit must be positive", ErrInvalidCoupon)
	case input.MinPurchase < 0:
		return fmt.Errorf("%w: minimum purchase cannot be negative", ErrInvalidCoupon)
	case !input.ValidUntil.After(input.ValidFrom):
		return fmt.Errorf("%w: valid_until must be after valid_from", ErrInvalidCoupon)
	}
	if strings.ContainsAny(code, " \t") {
		return fmt.Errorf("%w: code cannot contain spaces", ErrInvalidCoupon)
	}
	return nil
}

func (s *couponService) ListCoupons() ([]model.Coupon, error) {
	return s.couponRepo.FindAll()
}

func (s *couponService) DeactivateCoupon(id uint) error {
	if err := s.couponRepo.SetActive(id, false); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCouponNotFound
		}
		logger.Error("Failed to deactivate coupon", err, map[string]interface{}{
			"coupon_id": id,
		})
		return err
	}

	logger.Info("Coupon deactivated", map[string]interface{}{
		"coupon_id": id,
	})
	return nil
}
