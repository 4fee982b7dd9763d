package service

import (
	"errors"

	"github.com/helmetkart/helmet-backend/internal/app/model"
	"github.com/helmetkart/helmet-backend/internal/app/repository"
	"github.com/helmetkart/helmet-backend/pkg/logger"
	"gorm.io/gorm"
)

const maxCartLineQuantity = 10

var (
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrInvalidQuantity  = errors.New("quantity must be between 1 and 10")
	ErrVariantRequired  = errors.New("select a size for this product")
)

type CartService interface {
	GetCart(userID uint) (*model.Cart, error)
	AddItem(userID, productID uint, variantID *uint, quantity int) (*model.Cart, error)
	UpdateItem(userID, itemID uint, quantity int) (*model.Cart, error)
	RemoveItem(userID, itemID uint) (*model.Cart, error)
	ClearCart(userID uint) error
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// GetCart returns the user's cart, creating it on first access.
func (s *cartService) GetCart(userID uint) (*model.Cart, error) {
	cart, err := s.cartRepo.GetOrCreate(userID)
	if err != nil {
		logger.Error("Failed to fetch user cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return cart, nil
}

func (s *cartService) AddItem(userID, productID uint, variantID *uint, quantity int) (*model.Cart, error) {
	logger.Debug("Adding item to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"variant_id": variantID,
		"quantity":   quantity,
	})

	if quantity < 1 || quantity > maxCartLineQuantity {
		return nil, ErrInvalidQuantity
	}

	product, variant, err := s.resolve(productID, variantID)
	if err != nil {
		return nil, err
	}

	cart, err := s.GetCart(userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.cartRepo.FindItem(cart.ID, productID, variantID)
	if err != nil {
		logger.Error("Failed to check existing cart item", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return nil, err
	}

	total := quantity
	if existing != nil {
		total += existing.Quantity
	}
	if total > maxCartLineQuantity {
		return nil, ErrInvalidQuantity
	}
	if err := checkAvailability(product, variant, total); err != nil {
		logger.Warn("Insufficient stock for cart item", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
			"variant_id": variantID,
			"requested":  total,
		})
		return nil, err
	}

	if existing != nil {
		if err := s.cartRepo.UpdateItemQuantity(existing.ID, total); err != nil {
			logger.Error("Failed to update cart item", err, map[string]interface{}{
				"user_id":      userID,
				"cart_item_id": existing.ID,
			})
			return nil, err
		}
	} else {
		item := &model.CartItem{
			CartID:    cart.ID,
			ProductID: productID,
			VariantID: variantID,
			Quantity:  quantity,
		}
		if err := s.cartRepo.CreateItem(item); err != nil {
			logger.Error("Failed to create cart item", err, map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
			})
			return nil, err
		}
	}

	logger.Info("Cart item added", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   total,
	})
	return s.GetCart(userID)
}

func (s *cartService) UpdateItem(userID, itemID uint, quantity int) (*model.Cart, error) {
	if quantity < 1 || quantity > maxCartLineQuantity {
		return nil, ErrInvalidQuantity
	}

	cart, err := s.GetCart(userID)
	if err != nil {
		return nil, err
	}

	item, err := s.cartRepo.FindItemByID(cart.ID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}

	product, variant, err := s.resolve(item.ProductID, item.VariantID)
	if err != nil {
		return nil, err
	}
	if err := checkAvailability(product, variant, quantity); err != nil {
		return nil, err
	}

	if err := s.cartRepo.UpdateItemQuantity(item.ID, quantity); err != nil {
		logger.Error("Failed to update cart item", err, map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": itemID,
		})
		return nil, err
	}
	return s.GetCart(userID)
}

func (s *cartService) RemoveItem(userID, itemID uint) (*model.Cart, error) {
	cart, err := s.GetCart(userID)
	if err != nil {
		return nil, err
	}

	if err := s.cartRepo.DeleteItem(cart.ID, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartItemNotFound
		}
		logger.Error("Failed to delete cart item", err, map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": itemID,
		})
		return nil, err
	}
	return s.GetCart(userID)
}

func (s *cartService) ClearCart(userID uint) error {
	if err := s.cartRepo.ClearByUserID(userID); err != nil {
		logger.Error("Failed to clear cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}
	return nil
}

// resolve loads a purchasable product and, when given, one of its variants.
func (s *cartService) resolve(productID uint, variantID *uint) (*model.Product, *model.ProductVariant, error) {
	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrProductNotFound
		}
		return nil, nil, err
	}
	if !product.IsActive {
		return nil, nil, ErrProductUnavailable
	}

	if variantID == nil {
		if len(product.Variants) > 0 {
			return nil, nil, ErrVariantRequired
		}
		return product, nil, nil
	}

	variant, err := s.productRepo.FindVariant(productID, *variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrVariantNotFound
		}
		return nil, nil, err
	}
	return product, variant, nil
}

func checkAvailability(product *model.Product, variant *model.ProductVariant, quantity int) error {
	if variant != nil && variant.Stock < quantity {
		return ErrInsufficientStock
	}
	if product.Stock < quantity {
		return ErrInsufficientStock
	}
	return nil
}
