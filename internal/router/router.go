package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/helmetkart/helmet-backend/config"
	"github.com/helmetkart/helmet-backend/internal/app/controller"
	"github.com/helmetkart/helmet-backend/internal/app/model"
	"github.com/helmetkart/helmet-backend/internal/middleware"
)

// Controllers groups the HTTP handlers mounted by the router.
type Controllers struct {
	Auth         *controller.AuthController
	Product      *controller.ProductController
	Cart         *controller.CartController
	Address      *controller.AddressController
	Order        *controller.OrderController
	Coupon       *controller.CouponController
	Review       *controller.ReviewController
	Notification *controller.NotificationController
}

type Router struct {
	controllers    Controllers
	authMiddleware *middleware.AuthMiddleware
	config         *config.Config
}

func NewRouter(controllers Controllers, authMiddleware *middleware.AuthMiddleware, cfg *config.Config) *Router {
	return &Router{
		controllers:    controllers,
		authMiddleware: authMiddleware,
		config:         cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "HelmetKart API is running",
		})
	})

	ctrl := r.controllers
	authenticate := r.authMiddleware.Authenticate()

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", ctrl.Auth.Register)
			auth.POST("/login", ctrl.Auth.Login)
			auth.POST("/refresh", ctrl.Auth.Refresh)
			auth.POST("/logout", authenticate, ctrl.Auth.Logout)
			auth.GET("/me", authenticate, ctrl.Auth.GetMe)
		}

		products := v1.Group("/products")
		{
			products.GET("/:id", ctrl.Product.GetProduct)
			products.GET("/:id/reviews", ctrl.Review.GetProductReviews)
		}

		cart := v1.Group("/cart")
		cart.Use(authenticate)
		{
			cart.GET("", ctrl.Cart.GetCart)
			cart.POST("", ctrl.Cart.AddToCart)
			cart.PUT("/:id", ctrl.Cart.UpdateCartItem)
			cart.DELETE("/:id", ctrl.Cart.RemoveFromCart)
			cart.DELETE("", ctrl.Cart.ClearCart)
		}

		addresses := v1.Group("/addresses")
		addresses.Use(authenticate)
		{
			addresses.GET("", ctrl.Address.GetAddresses)
			addresses.POST("", ctrl.Address.CreateAddress)
			addresses.PUT("/:id", ctrl.Address.UpdateAddress)
			addresses.DELETE("/:id", ctrl.Address.DeleteAddress)
			addresses.PUT("/:id/default", ctrl.Address.SetDefaultAddress)
		}

		orders := v1.Group("/orders")
		orders.Use(authenticate)
		{
			orders.POST("", ctrl.Order.CreateOrder)
			orders.POST("/verify-payment", ctrl.Order.VerifyPayment)
			orders.POST("/validate-coupon", ctrl.Order.ValidateCoupon)
			orders.GET("", ctrl.Order.GetOrders)
			orders.GET("/:id", ctrl.Order.GetOrderByID)
			orders.PUT("/:id/cancel", ctrl.Order.CancelOrder)
		}

		reviews := v1.Group("/reviews")
		reviews.Use(authenticate)
		{
			reviews.POST("", ctrl.Review.CreateReview)
		}

		if ctrl.Notification != nil {
			v1.GET("/notifications/ws", authenticate, ctrl.Notification.Connect)
		}

		admin := v1.Group("/admin")
		admin.Use(authenticate, r.authMiddleware.RequireRole(model.RoleAdmin))
		{
			admin.GET("/orders", ctrl.Order.ListAllOrders)
			admin.GET("/orders/:id", ctrl.Order.GetOrderByID)
			admin.PUT("/orders/:id/status", ctrl.Order.UpdateOrderStatus)

			admin.POST("/products", ctrl.Product.CreateProduct)
			admin.DELETE("/products/:id", ctrl.Product.DeleteProduct)
			admin.POST("/products/upload-url", ctrl.Product.PresignImageUpload)

			admin.POST("/coupons", ctrl.Coupon.CreateCoupon)
			admin.GET("/coupons", ctrl.Coupon.ListCoupons)
			admin.PUT("/coupons/:id/deactivate", ctrl.Coupon.DeactivateCoupon)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, "+middleware.RequestIDHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", middleware.RequestIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
