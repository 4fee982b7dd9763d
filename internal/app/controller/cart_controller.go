package controller

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/helmetkart/helmet-backend/internal/app/model"
	"github.com/helmetkart/helmet-backend/internal/app/service"
	"github.com/helmetkart/helmet-backend/internal/middleware"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

type AddToCartRequest struct {
	ProductID uint  `json:"product_id" binding:"required"`
	VariantID *uint `json:"variant_id"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// cartResponse adds display totals. Checkout prices are recomputed server
// side regardless of what the client saw here.
func cartResponse(cart *model.Cart) gin.H {
	subtotal := 0.0
	count := 0
	for i := range cart.Items {
		subtotal += cart.Items[i].UnitPrice() * float64(cart.Items[i].Quantity)
		count += cart.Items[i].Quantity
	}
	return gin.H{
		"cart":       cart,
		"item_count": count,
		"subtotal":   math.Round(subtotal*100) / 100,
	}
}

// GetCart returns the user's cart
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	cart, err := ctrl.cartService.GetCart(userID)
	if err != nil {
		serviceErrors.Respond(c, err, "cart")
		return
	}

	c.JSON(http.StatusOK, cartResponse(cart))
}

// AddToCart adds a product (and size variant) to the cart
// POST /api/v1/cart
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req AddToCartRequest
	if !bindJSON(c, &req) {
		return
	}

	cart, err := ctrl.cartService.AddItem(userID, req.ProductID, req.VariantID, req.Quantity)
	if err != nil {
		log.Warn("Failed to add item to cart", map[string]interface{}{
			"user_id":    userID,
			"product_id": req.ProductID,
			"error":      err.Error(),
		})
		serviceErrors.Respond(c, err, "cart")
		return
	}

	c.JSON(http.StatusOK, cartResponse(cart))
}

// UpdateCartItem changes a line quantity
// PUT /api/v1/cart/:id
func (ctrl *CartController) UpdateCartItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if !bindJSON(c, &req) {
		return
	}

	cart, err := ctrl.cartService.UpdateItem(userID, itemID, req.Quantity)
	if err != nil {
		serviceErrors.Respond(c, err, "cart")
		return
	}

	c.JSON(http.StatusOK, cartResponse(cart))
}

// RemoveFromCart removes a line
// DELETE /api/v1/cart/:id
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := parseID(c, "id")
	if !ok {
		return
	}

	cart, err := ctrl.cartService.RemoveItem(userID, itemID)
	if err != nil {
		serviceErrors.Respond(c, err, "cart")
		return
	}

	c.JSON(http.StatusOK, cartResponse(cart))
}

// ClearCart empties the cart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := ctrl.cartService.ClearCart(userID); err != nil {
		serviceErrors.Respond(c, err, "cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
}
