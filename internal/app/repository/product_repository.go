package repository

import (
	"errors"

	"github.com/helmetkart/helmet-backend/internal/app/model"
	"github.com/helmetkart/helmet-backend/pkg/logger"
	"gorm.io/gorm"
)

// ErrStockGuard is returned when a guarded decrement matched no row,
// i.e. the counter is lower than the requested quantity.
var ErrStockGuard = errors.New("stock guard rejected decrement")

type ProductRepository interface {
	WithTx(tx *gorm.DB) ProductRepository
	Create(product *model.Product) error
	FindByID(id uint) (*model.Product, error)
	FindVariant(productID, variantID uint) (*model.ProductVariant, error)
	FindByIDs(ids []uint) ([]model.Product, error)
	Delete(id uint) error

	DecrementStock(productID uint, quantity int) error
	DecrementVariantStock(variantID uint, quantity int) error
	IncrementStock(productID uint, quantity int) error
	IncrementVariantStock(variantID uint, quantity int) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepository{db: tx}
}

// Create inserts the product together with its variants. The product-level
// stock is set to the sum of variant stock when variants are given.
func (r *productRepository) Create(product *model.Product) error {
	if len(product.Variants) > 0 {
		total := 0
		for _, v := range product.Variants {
			total += v.Stock
		}
		product.Stock = total
	}

	logger.Debug("Creating product in database", map[string]interface{}{
		"name":     product.Name,
		"variants": len(product.Variants),
		"stock":    product.Stock,
	})

	if err := r.db.Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"name": product.Name,
		})
		return err
	}

	logger.Debug("Product created in database", map[string]interface{}{
		"product_id": product.ID,
	})
	return nil
}

func (r *productRepository) FindByID(id uint) (*model.Product, error) {
	var product model.Product
	if err := r.db.Preload("Variants").First(&product, id).Error; err != nil {
		logger.Debug("Product not found in database", map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindVariant(productID, variantID uint) (*model.ProductVariant, error) {
	var variant model.ProductVariant
	if err := r.db.Where("id = ? AND product_id = ?", variantID, productID).First(&variant).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *productRepository) FindByIDs(ids []uint) ([]model.Product, error) {
	var products []model.Product
	if len(ids) == 0 {
		return products, nil
	}
	if err := r.db.Preload("Variants").Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) Delete(id uint) error {
	logger.Debug("Deleting product from database", map[string]interface{}{
		"product_id": id,
	})

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&model.ProductVariant{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.Product{}, id)
		if result.Error != nil {
			logger.Error("Failed to delete product from database", result.Error, map[string]interface{}{
				"product_id": id,
			})
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *productRepository) DecrementStock(productID uint, quantity int) error {
	return r.guardedDecrement(&model.Product{}, productID, quantity)
}

func (r *productRepository) DecrementVariantStock(variantID uint, quantity int) error {
	return r.guardedDecrement(&model.ProductVariant{}, variantID, quantity)
}

func (r *productRepository) IncrementStock(productID uint, quantity int) error {
	return r.increment(&model.Product{}, productID, quantity)
}

func (r *productRepository) IncrementVariantStock(variantID uint, quantity int) error {
	return r.increment(&model.ProductVariant{}, variantID, quantity)
}

// guardedDecrement runs UPDATE ... SET stock = stock - q WHERE id = ? AND stock >= q.
func (r *productRepository) guardedDecrement(table interface{}, id uint, quantity int) error {
	result := r.db.Model(table).
		Where("id = ? AND stock >= ?", id, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		logger.Error("Failed to decrement stock", result.Error, map[string]interface{}{
			"id":       id,
			"quantity": quantity,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		logger.Warn("Stock guard rejected decrement", map[string]interface{}{
			"id":       id,
			"quantity": quantity,
		})
		return ErrStockGuard
	}
	return nil
}

func (r *productRepository) increment(table interface{}, id uint, quantity int) error {
	result := r.db.Model(table).
		Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", quantity))
	if result.Error != nil {
		logger.Error("Failed to increment stock", result.Error, map[string]interface{}{
			"id":       id,
			"quantity": quantity,
		})
		return result.Error
	}
	return nil
}
