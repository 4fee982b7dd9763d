package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/helmetkart/helmet-backend/internal/app/model"
	"github.com/helmetkart/helmet-backend/internal/app/repository"
	"github.com/helmetkart/helmet-backend/internal/storage"
	"github.com/helmetkart/helmet-backend/pkg/logger"
	"github.com/helmetkart/helmet-backend/pkg/util"
	"gorm.io/gorm"
)

const productImageFolder = "products"

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product is no longer available")
	ErrVariantNotFound    = errors.New("product variant not found")
	ErrInvalidProduct     = errors.New("invalid product")
)

// ImageStorage stores product images.
type ImageStorage interface {
	PresignUpload(ctx context.Context, filename, contentType, folder string) (*storage.PresignedUpload, error)
	Delete(ctx context.Context, key string) error
}

type CreateVariantInput struct {
	SKU             string
	Size            string
	Color           string
	AdditionalPrice float64
	Stock           int
	ImageURL        string
}

type CreateProductInput struct {
	Name          string
	Brand         string
	Description   string
	Category      model.ProductCategory
	Price         float64
	DiscountPrice *float64
	Stock         int
	ImageURL      string
	ImageKey      string
	Variants      []CreateVariantInput
}

type ProductService interface {
	CreateProduct(input CreateProductInput) (*model.Product, error)
	GetProduct(id uint) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
	PresignImageUpload(ctx context.Context, filename, contentType string) (*storage.PresignedUpload, error)
}

type productService struct {
	productRepo repository.ProductRepository
	images      ImageStorage
}

func NewProductService(productRepo repository.ProductRepository, images ImageStorage) ProductService {
	return &productService{
		productRepo: productRepo,
		images:      images,
	}
}

func (s *productService) CreateProduct(input CreateProductInput) (*model.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:          strings.TrimSpace(input.Name),
		Brand:         strings.TrimSpace(input.Brand),
		Description:   input.Description,
		Category:      input.Category,
		Price:         input.Price,
		DiscountPrice: input.DiscountPrice,
		Stock:         input.Stock,
		ImageURL:      input.ImageURL,
		ImageKey:      input.ImageKey,
		IsActive:      true,
	}
	for _, v := range input.Variants {
		sku := strings.ToUpper(strings.TrimSpace(v.SKU))
		if sku == "" {
			generated, err := generateSKU(product.Brand, v.Size)
			if err != nil {
				return nil, err
			}
			sku = generated
		}
		product.Variants = append(product.Variants, model.ProductVariant{
			SKU:             sku,
			Size:            strings.ToUpper(strings.TrimSpace(v.Size)),
			Color:           strings.TrimSpace(v.Color),
			AdditionalPrice: v.AdditionalPrice,
			Stock:           v.Stock,
			ImageURL:        v.ImageURL,
		})
	}

	if err := s.productRepo.Create(product); err != nil {
		logger.Error("Failed to create product", err, map[string]interface{}{
			"name": product.Name,
		})
		return nil, err
	}

	logger.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
		"variants":   len(product.Variants),
		"stock":      product.Stock,
	})
	return product, nil
}

func validateProductInput(input CreateProductInput) error {
	switch {
	case strings.TrimSpace(input.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case input.Price <= 0:
		return fmt.Errorf("%w: price must be positive", ErrInvalidProduct)
	case input.DiscountPrice != nil && (*input.DiscountPrice <= 0 || *input.DiscountPrice > input.Price):
		return fmt.Errorf("%w: discount price must be between 0 and price", ErrInvalidProduct)
	case input.Stock < 0:
		return fmt.Errorf("%w: stock cannot be negative", ErrInvalidProduct)
	}
	for _, v := range input.Variants {
		if v.Stock < 0 {
			return fmt.Errorf("%w: variant stock cannot be negative", ErrInvalidProduct)
		}
		if v.AdditionalPrice < 0 {
			return fmt.Errorf("%w: variant additional price cannot be negative", ErrInvalidProduct)
		}
	}
	return nil
}

// generateSKU builds BRAND-SIZE-XXXXXX from the first letters of the brand.
func generateSKU(brand, size string) (string, error) {
	prefix := strings.ToUpper(strings.ReplaceAll(brand, " ", ""))
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}
	if prefix == "" {
		prefix = "HLMT"
	}
	suffix, err := util.RandomAlphanumeric(6)
	if err != nil {
		return "", err
	}
	if size = strings.ToUpper(strings.TrimSpace(size)); size != "" {
		return fmt.Sprintf("%s-%s-%s", prefix, size, suffix), nil
	}
	return fmt.Sprintf("%s-%s", prefix, suffix), nil
}

func (s *productService) GetProduct(id uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to fetch product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}
	return product, nil
}

// DeleteProduct removes the product and its variants. Failing to delete the
// stored image is logged and otherwise ignored.
func (s *productService) DeleteProduct(ctx context.Context, id uint) error {
	product, err := s.GetProduct(id)
	if err != nil {
		return err
	}

	if err := s.productRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		logger.Error("Failed to delete product", err, map[string]interface{}{
			"product_id": id,
		})
		return err
	}

	if s.images != nil && product.ImageKey != "" {
		if err := s.images.Delete(ctx, product.ImageKey); err != nil {
			logger.Warn("Failed to delete product image", map[string]interface{}{
				"product_id": id,
				"image_key":  product.ImageKey,
				"error":      err.Error(),
			})
		}
	}

	logger.Info("Product deleted", map[string]interface{}{
		"product_id": id,
	})
	return nil
}

func (s *productService) PresignImageUpload(ctx context.Context, filename, contentType string) (*storage.PresignedUpload, error) {
	if s.images == nil {
		return nil, errors.New("image storage is not configured")
	}
	upload, err := s.images.PresignUpload(ctx, filename, contentType, productImageFolder)
	if err != nil {
		if !errors.Is(err, storage.ErrContentTypeNotAllowed) {
			logger.Error("Failed to presign image upload", err, map[string]interface{}{
				"filename": filename,
			})
		}
		return nil, err
	}
	return upload, nil
}
