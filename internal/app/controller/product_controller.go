package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/helmetkart/helmet-backend/internal/app/model"
	"github.com/helmetkart/helmet-backend/internal/app/service"
	"github.com/helmetkart/helmet-backend/internal/middleware"
)

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

type CreateVariantRequest struct {
	SKU             string  `json:"sku" binding:"omitempty,max=64"`
	Size            string  `json:"size" binding:"required,max=10"`
	Color           string  `json:"color" binding:"omitempty,max=50"`
	AdditionalPrice float64 `json:"additional_price" binding:"gte=0"`
	Stock           int     `json:"stock" binding:"gte=0"`
	ImageURL        string  `json:"image_url" binding:"omitempty,url"`
}

type CreateProductRequest struct {
	Name          string                 `json:"name" binding:"required,max=200"`
	Brand         string                 `json:"brand" binding:"required,max=100"`
	Description   string                 `json:"description"`
	Category      model.ProductCategory  `json:"category" binding:"required,oneof=full_face open_face modular off_road half_face accessory"`
	Price         float64                `json:"price" binding:"required,gt=0"`
	DiscountPrice *float64               `json:"discount_price" binding:"omitempty,gt=0"`
	Stock         int                    `json:"stock" binding:"gte=0"`
	ImageURL      string                 `json:"image_url" binding:"omitempty,url"`
	ImageKey      string                 `json:"image_key"`
	Variants      []CreateVariantRequest `json:"variants" binding:"omitempty,dive"`
}

type PresignUploadRequest struct {
	Filename    string `json:"filename" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required"`
}

// GetProduct returns a product with its variants
// GET /api/v1/products/:id
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	productID, ok := parseID(c, "id")
	if !ok {
		return
	}

	product, err := ctrl.productService.GetProduct(productID)
	if err != nil {
		serviceErrors.Respond(c, err, "product")
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

// CreateProduct adds a helmet to the catalogue
// POST /api/v1/admin/products
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	input := service.CreateProductInput{
		Name:          req.Name,
		Brand:         req.Brand,
		Description:   req.Description,
		Category:      req.Category,
		Price:         req.Price,
		DiscountPrice: req.DiscountPrice,
		Stock:         req.Stock,
		ImageURL:      req.ImageURL,
		ImageKey:      req.ImageKey,
	}
	for _, v := range req.Variants {
		input.Variants = append(input.Variants, service.CreateVariantInput{
			SKU:             v.SKU,
			Size:            v.Size,
			Color:           v.Color,
			AdditionalPrice: v.AdditionalPrice,
			Stock:           v.Stock,
			ImageURL:        v.ImageURL,
		})
	}

	product, err := ctrl.productService.CreateProduct(input)
	if err != nil {
		log.Warn("Product creation failed", map[string]interface{}{
			"name":  req.Name,
			"error": err.Error(),
		})
		serviceErrors.Respond(c, err, "product")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// DeleteProduct removes a product and its stored image
// DELETE /api/v1/admin/products/:id
func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	productID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.productService.DeleteProduct(c.Request.Context(), productID); err != nil {
		serviceErrors.Respond(c, err, "product")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}

// PresignImageUpload returns a presigned URL for uploading a product image
// POST /api/v1/admin/products/upload-url
func (ctrl *ProductController) PresignImageUpload(c *gin.Context) {
	var req PresignUploadRequest
	if !bindJSON(c, &req) {
		return
	}

	upload, err := ctrl.productService.PresignImageUpload(c.Request.Context(), req.Filename, req.ContentType)
	if err != nil {
		middleware.GetLoggerFromContext(c).Warn("Presign upload failed", map[string]interface{}{
			"filename":     req.Filename,
			"content_type": req.ContentType,
			"error":        err.Error(),
		})
		serviceErrors.Respond(c, err, "upload")
		return
	}

	c.JSON(http.StatusOK, upload)
}
