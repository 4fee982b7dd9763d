package repository

import (
	"strings"

	"github.com/helmetkart/helmet-backend/internal/app/model"
	"github.com/helmetkart/helmet-backend/pkg/logger"
	"gorm.io/gorm"
)

type CouponRepository interface {
	WithTx(tx *gorm.DB) CouponRepository
	Create(coupon *model.Coupon) error
	FindByCode(code string) (*model.Coupon, error)
	FindByID(id uint) (*model.Coupon, error)
	FindAll() ([]model.Coupon, error)
	SetActive(id uint, active bool) error
	// Redeem increments used_count only while it is below usage_limit and
	// reports whether the increment happened.
	Redeem(id uint) (bool, error)
}

type couponRepository struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepository{db: db}
}

func (r *couponRepository) WithTx(tx *gorm.DB) CouponRepository {
	return &couponRepository{db: tx}
}

func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (r *couponRepository) Create(coupon *model.Coupon) error {
	coupon.Code = NormalizeCouponCode(coupon.Code)
	logger.Debug("Creating coupon in database", map[string]interface{}{
		"code": coupon.Code,
	})

	if err := r.db.Create(coupon).Error; err != nil {
		logger.Error("Failed to create coupon in database", err, map[string]interface{}{
			"code": coupon.Code,
		})
		return err
	}
	return nil
}

func (r *couponRepository) FindByCode(code string) (*model.Coupon, error) {
	var coupon model.Coupon
	if err := r.db.Where("code = ?", NormalizeCouponCode(code)).First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepository) FindByID(id uint) (*model.Coupon, error) {
	var coupon model.Coupon
	if err := r.db.First(&coupon, id).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepository) FindAll() ([]model.Coupon, error) {
	var coupons []model.Coupon
	if err := r.db.Order("created_at DESC").Find(&coupons).Error; err != nil {
		logger.Error("Failed to list coupons", err)
		return nil, err
	}
	return coupons, nil
}

func (r *couponRepository) SetActive(id uint, active bool) error {
	result := r.db.Model(&model.Coupon{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *couponRepository) Redeem(id uint) (bool, error) {
	result := r.db.Model(&model.Coupon{}).
		Where("id = ? AND used_count < usage_limit", id).
		Update("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		logger.Error("Failed to redeem coupon", result.Error, map[string]interface{}{
			"coupon_id": id,
		})
		return false, result.Error
	}

	logger.Debug("Coupon redemption attempted", map[string]interface{}{
		"coupon_id": id,
		"redeemed":  result.RowsAffected > 0,
	})
	return result.RowsAffected > 0, nil
}
