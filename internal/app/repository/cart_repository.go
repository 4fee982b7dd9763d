package repository

import (
	"errors"

	"github.com/helmetkart/helmet-backend/internal/app/model"
	"github.com/helmetkart/helmet-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	GetOrCreate(userID uint) (*model.Cart, error)
	FindItem(cartID, productID uint, variantID *uint) (*model.CartItem, error)
	FindItemByID(cartID, itemID uint) (*model.CartItem, error)
	CreateItem(item *model.CartItem) error
	UpdateItemQuantity(itemID uint, quantity int) error
	DeleteItem(cartID, itemID uint) error
	ClearByUserID(userID uint) error
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) WithTx(tx *gorm.DB) CartRepository {
	return &cartRepository{db: tx}
}

// GetOrCreate returns the user's cart with items, product and variant
// preloaded, creating an empty cart on first access.
func (r *cartRepository) GetOrCreate(userID uint) (*model.Cart, error) {
	cart := model.Cart{UserID: userID}
	if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&cart).Error; err != nil {
		logger.Error("Failed to create cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	var loaded model.Cart
	err := r.db.Where("user_id = ?", userID).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("cart_items.id ASC") }).
		Preload("Items.Product").
		Preload("Items.Variant").
		First(&loaded).Error
	if err != nil {
		logger.Error("Failed to load cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Cart loaded", map[string]interface{}{
		"user_id": userID,
		"cart_id": loaded.ID,
		"items":   len(loaded.Items),
	})
	return &loaded, nil
}

// FindItem returns the line for a product/variant pair, or nil when absent.
func (r *cartRepository) FindItem(cartID, productID uint, variantID *uint) (*model.CartItem, error) {
	query := r.db.Where("cart_id = ? AND product_id = ?", cartID, productID)
	if variantID != nil {
		query = query.Where("variant_id = ?", *variantID)
	} else {
		query = query.Where("variant_id IS NULL")
	}

	var item model.CartItem
	if err := query.First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) FindItemByID(cartID, itemID uint) (*model.CartItem, error) {
	var item model.CartItem
	if err := r.db.Where("id = ? AND cart_id = ?", itemID, cartID).
		Preload("Product").
		Preload("Variant").
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) CreateItem(item *model.CartItem) error {
	logger.Debug("Creating cart item in database", map[string]interface{}{
		"cart_id":    item.CartID,
		"product_id": item.ProductID,
		"quantity":   item.Quantity,
	})

	if err := r.db.Omit(clause.Associations).Create(item).Error; err != nil {
		logger.Error("Failed to create cart item in database", err, map[string]interface{}{
			"cart_id":    item.CartID,
			"product_id": item.ProductID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) UpdateItemQuantity(itemID uint, quantity int) error {
	if err := r.db.Model(&model.CartItem{}).Where("id = ?", itemID).
		Update("quantity", quantity).Error; err != nil {
		logger.Error("Failed to update cart item quantity", err, map[string]interface{}{
			"cart_item_id": itemID,
			"quantity":     quantity,
		})
		return err
	}
	return nil
}

func (r *cartRepository) DeleteItem(cartID, itemID uint) error {
	result := r.db.Where("id = ? AND cart_id = ?", itemID, cartID).Delete(&model.CartItem{})
	if result.Error != nil {
		logger.Error("Failed to delete cart item", result.Error, map[string]interface{}{
			"cart_item_id": itemID,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ClearByUserID deletes every item of the user's cart.
func (r *cartRepository) ClearByUserID(userID uint) error {
	logger.Debug("Clearing cart", map[string]interface{}{
		"user_id": userID,
	})

	err := r.db.Where("cart_id IN (?)", r.db.Model(&model.Cart{}).Select("id").Where("user_id = ?", userID)).
		Delete(&model.CartItem{}).Error
	if err != nil {
		logger.Error("Failed to clear cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}
	return nil
}
