package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/helmetkart/helmet-backend/config"
	"github.com/helmetkart/helmet-backend/internal/app/controller"
	"github.com/helmetkart/helmet-backend/internal/app/repository"
	"github.com/helmetkart/helmet-backend/internal/app/service"
	"github.com/helmetkart/helmet-backend/internal/db"
	"github.com/helmetkart/helmet-backend/internal/middleware"
	"github.com/helmetkart/helmet-backend/internal/router"
	"github.com/helmetkart/helmet-backend/internal/scheduler"
	"github.com/helmetkart/helmet-backend/internal/storage"
	ws "github.com/helmetkart/helmet-backend/internal/websocket"
	"github.com/helmetkart/helmet-backend/pkg/events"
	"github.com/helmetkart/helmet-backend/pkg/logger"
	"github.com/helmetkart/helmet-backend/pkg/mailer"
	"github.com/helmetkart/helmet-backend/pkg/payment/razorpay"
	"github.com/helmetkart/helmet-backend/pkg/redis"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting HelmetKart Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	database, err := db.Open(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(database); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(database); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis backs token revocation and the checkout lock. Without it both
	// degrade to no-ops.
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(&cfg.Redis)
		if err != nil {
			logger.Warn("Redis unavailable, continuing without revocation and checkout locks", map[string]interface{}{
				"error": err.Error(),
			})
			redisClient = nil
		}
	}
	defer redisClient.Close()

	// Payment gateway
	var gateway service.PaymentGateway
	razorpayClient, err := razorpay.NewClient(razorpay.Config{
		KeyID:     cfg.Payment.Razorpay.KeyID,
		KeySecret: cfg.Payment.Razorpay.KeySecret,
		BaseURL:   cfg.Payment.Razorpay.BaseURL,
		Currency:  cfg.Payment.Razorpay.Currency,
		Timeout:   cfg.Payment.Razorpay.Timeout,
	})
	if err != nil {
		logger.Warn("Razorpay not configured, online payments disabled", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		gateway = razorpayClient
	}

	// Notifications
	hub := ws.NewHub()
	publisher := events.NewPublisher(cfg.Kafka)
	defer publisher.Close()
	notifier := service.NewDispatcher(mailer.New(cfg.SMTP), publisher, hub)

	// Initialize repositories
	userRepo := repository.NewUserRepository(database)
	productRepo := repository.NewProductRepository(database)
	cartRepo := repository.NewCartRepository(database)
	addressRepo := repository.NewAddressRepository(database)
	couponRepo := repository.NewCouponRepository(database)
	orderRepo := repository.NewOrderRepository(database)
	reviewRepo := repository.NewReviewRepository(database)

	// Initialize services
	pricing := service.NewPricing(cfg.Checkout)
	ledger := service.NewStockLedger(productRepo)

	authService := service.NewAuthService(
		userRepo,
		redisClient,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	productService := service.NewProductService(productRepo, storage.NewS3Storage(cfg.S3))
	cartService := service.NewCartService(cartRepo, productRepo)
	addressService := service.NewAddressService(addressRepo)
	couponService := service.NewCouponService(couponRepo, pricing, nil)
	reviewService := service.NewReviewService(reviewRepo, orderRepo)
	orderService := service.NewOrderService(service.OrderServiceDeps{
		DB:            database,
		Orders:        orderRepo,
		Carts:         cartRepo,
		Addresses:     addressRepo,
		Coupons:       couponRepo,
		Users:         userRepo,
		Ledger:        ledger,
		Gateway:       gateway,
		Locker:        redisClient,
		Notifier:      notifier,
		Pricing:       pricing,
		PendingWindow: cfg.Checkout.PendingOrderWindow,
		Currency:      cfg.Payment.Razorpay.Currency,
	})
	paymentService := service.NewPaymentService(database, orderRepo, cartRepo, userRepo, ledger, gateway, notifier)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, redisClient)

	// Setup router
	r := router.NewRouter(router.Controllers{
		Auth:         controller.NewAuthController(authService),
		Product:      controller.NewProductController(productService),
		Cart:         controller.NewCartController(cartService),
		Address:      controller.NewAddressController(addressService),
		Order:        controller.NewOrderController(orderService, paymentService, couponService),
		Coupon:       controller.NewCouponController(couponService),
		Review:       controller.NewReviewController(reviewService),
		Notification: controller.NewNotificationController(hub, cfg.CORS.AllowedOrigins),
	}, authMiddleware, cfg)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweeper := scheduler.NewOrderSweeper(cfg.Scheduler.PendingOrderSweep, orderService)
	if err := sweeper.Start(); err != nil {
		logger.Fatal("Failed to start pending order sweeper", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": server.Addr,
			"pid":     os.Getpid(),
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		sweeper.Stop()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server exited with error", err)
	}

	// Let in-flight emails and events finish before closing their transports.
	notifier.Wait()
	logger.Info("Server stopped successfully")
}
