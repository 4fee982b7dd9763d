package service

import (
	"errors"
	"fmt"

	"github.com/helmetkart/helmet-backend/internal/app/model"
	"github.com/helmetkart/helmet-backend/internal/app/repository"
	"github.com/helmetkart/helmet-backend/pkg/logger"
	"gorm.io/gorm"
)

var ErrInsufficientStock = errors.New("insufficient stock")

// StockLedger moves stock for order items. Both calls must run on the
// transaction that changes the order's state.
type StockLedger interface {
	Deduct(tx *gorm.DB, items []model.OrderItem) error
	Restore(tx *gorm.DB, items []model.OrderItem) error
}

type stockLedger struct {
	productRepo repository.ProductRepository
}

func NewStockLedger(productRepo repository.ProductRepository) StockLedger {
	return &stockLedger{productRepo: productRepo}
}

// Deduct decrements the variant counter (if any) and the product aggregate
// for every item. A guard miss on either counter is ErrInsufficientStock.
func (l *stockLedger) Deduct(tx *gorm.DB, items []model.OrderItem) error {
	repo := l.productRepo.WithTx(tx)
	for _, item := range items {
		if item.VariantID != nil {
			if err := repo.DecrementVariantStock(*item.VariantID, item.Quantity); err != nil {
				return stockError(err, item)
			}
		}
		if err := repo.DecrementStock(item.ProductID, item.Quantity); err != nil {
			return stockError(err, item)
		}
	}
	return nil
}

func (l *stockLedger) Restore(tx *gorm.DB, items []model.OrderItem) error {
	repo := l.productRepo.WithTx(tx)
	for _, item := range items {
		if item.VariantID != nil {
			if err := repo.IncrementVariantStock(*item.VariantID, item.Quantity); err != nil {
				return err
			}
		}
		if err := repo.IncrementStock(item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func stockError(err error, item model.OrderItem) error {
	if errors.Is(err, repository.ErrStockGuard) {
		logger.Warn("Stock guard rejected deduction", map[string]interface{}{
			"product_id": item.ProductID,
			"variant_id": item.VariantID,
			"quantity":   item.Quantity,
		})
		return fmt.Errorf("%w: %s", ErrInsufficientStock, item.ProductName)
	}
	return err
}
