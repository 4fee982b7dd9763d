package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/helmetkart/helmet-backend/config"
	"github.com/helmetkart/helmet-backend/internal/app/model"
	"github.com/helmetkart/helmet-backend/internal/app/repository"
	"github.com/helmetkart/helmet-backend/internal/app/service"
	"github.com/helmetkart/helmet-backend/internal/db"
	"github.com/helmetkart/helmet-backend/internal/middleware"
	"github.com/helmetkart/helmet-backend/internal/storage"
	"github.com/helmetkart/helmet-backend/pkg/mailer"
	"github.com/helmetkart/helmet-backend/pkg/payment/razorpay"
	"github.com/helmetkart/helmet-backend/pkg/util"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	testJWTSecret     = "controller-test-secret"
	testGatewayKey    = "rzp_test_key"
	testGatewaySecret = "rzp_test_secret"
)

func init() {
	gin.SetMode(gin.TestMode)
	util.BcryptCost = bcrypt.MinCost
}

// apiEnv serves the API routes against an in-memory database and a stub
// Razorpay server.
type apiEnv struct {
	db       *gorm.DB
	router   *gin.Engine
	gateway  *gatewayStub
	notifier *service.Dispatcher

	users     repository.UserRepository
	products  repository.ProductRepository
	addresses repository.AddressRepository
	coupons   repository.CouponRepository
	orders    repository.OrderRepository

	cartService service.CartService
	images      *stubImages
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	env := &apiEnv{
		db:        testDB,
		gateway:   newGatewayStub(t),
		users:     repository.NewUserRepository(testDB),
		products:  repository.NewProductRepository(testDB),
		addresses: repository.NewAddressRepository(testDB),
		coupons:   repository.NewCouponRepository(testDB),
		orders:    repository.NewOrderRepository(testDB),
		images:    &stubImages{},
	}
	carts := repository.NewCartRepository(testDB)

	gatewayClient, err := razorpay.NewClient(razorpay.Config{
		KeyID:     testGatewayKey,
		KeySecret: testGatewaySecret,
		BaseURL:   env.gateway.server.URL,
		Timeout:   2 * time.Second,
	})
	require.NoError(t, err)

	env.notifier = service.NewDispatcher(mailer.LogMailer{}, nil, nil)
	t.Cleanup(env.notifier.Wait)

	checkout := config.CheckoutConfig{
		FreeShippingThreshold: 999,
		ShippingCharge:        99,
		TaxRate:               0.18,
		PendingOrderWindow:    10 * time.Minute,
	}
	pricing := service.NewPricing(checkout)
	ledger := service.NewStockLedger(env.products)

	orderService := service.NewOrderService(service.OrderServiceDeps{
		DB:            testDB,
		Orders:        env.orders,
		Carts:         carts,
		Addresses:     env.addresses,
		Coupons:       env.coupons,
		Users:         env.users,
		Ledger:        ledger,
		Gateway:       gatewayClient,
		Notifier:      env.notifier,
		Pricing:       pricing,
		PendingWindow: checkout.PendingOrderWindow,
	})
	paymentService := service.NewPaymentService(testDB, env.orders, carts, env.users, ledger, gatewayClient, env.notifier)
	couponService := service.NewCouponService(env.coupons, pricing, nil)
	env.cartService = service.NewCartService(carts, env.products)

	revocations := &memoryRevocations{}
	authCtrl := NewAuthController(service.NewAuthService(env.users, revocations, testJWTSecret, 15*time.Minute, time.Hour))
	orderCtrl := NewOrderController(orderService, paymentService, couponService)
	cartCtrl := NewCartController(env.cartService)
	addressCtrl := NewAddressController(service.NewAddressService(env.addresses))
	productCtrl := NewProductController(service.NewProductService(env.products, env.images))
	couponCtrl := NewCouponController(couponService)
	reviewCtrl := NewReviewController(service.NewReviewService(repository.NewReviewRepository(testDB), env.orders))

	auth := middleware.NewAuthMiddleware(testJWTSecret, revocations)
	router := gin.New()
	router.Use(middleware.LoggingMiddleware())

	api := router.Group("/api/v1")
	api.POST("/auth/register", authCtrl.Register)
	api.POST("/auth/login", authCtrl.Login)
	api.POST("/auth/refresh", authCtrl.Refresh)
	api.POST("/auth/logout", auth.Authenticate(), authCtrl.Logout)
	api.GET("/auth/me", auth.Authenticate(), authCtrl.GetMe)

	api.GET("/products/:id", productCtrl.GetProduct)
	api.GET("/products/:id/reviews", reviewCtrl.GetProductReviews)

	user := api.Group("", auth.Authenticate())
	user.GET("/cart", cartCtrl.GetCart)
	user.POST("/cart", cartCtrl.AddToCart)
	user.PUT("/cart/:id", cartCtrl.UpdateCartItem)
	user.DELETE("/cart/:id", cartCtrl.RemoveFromCart)
	user.DELETE("/cart", cartCtrl.ClearCart)

	user.GET("/addresses", addressCtrl.GetAddresses)
	user.POST("/addresses", addressCtrl.CreateAddress)
	user.PUT("/addresses/:id", addressCtrl.UpdateAddress)
	user.DELETE("/addresses/:id", addressCtrl.DeleteAddress)
	user.PUT("/addresses/:id/default", addressCtrl.SetDefaultAddress)

	user.POST("/orders", orderCtrl.CreateOrder)
	user.POST("/orders/verify-payment", orderCtrl.VerifyPayment)
	user.POST("/orders/validate-coupon", orderCtrl.ValidateCoupon)
	user.GET("/orders", orderCtrl.GetOrders)
	user.GET("/orders/:id", orderCtrl.GetOrderByID)
	user.PUT("/orders/:id/cancel", orderCtrl.CancelOrder)

	user.POST("/reviews", reviewCtrl.CreateReview)

	admin := api.Group("/admin", auth.Authenticate(), auth.RequireRole(model.RoleAdmin))
	admin.GET("/orders", orderCtrl.ListAllOrders)
	admin.PUT("/orders/:id/status", orderCtrl.UpdateOrderStatus)
	admin.POST("/products", productCtrl.CreateProduct)
	admin.DELETE("/products/:id", productCtrl.DeleteProduct)
	admin.POST("/products/upload-url", productCtrl.PresignImageUpload)
	admin.POST("/coupons", couponCtrl.CreateCoupon)
	admin.GET("/coupons", couponCtrl.ListCoupons)
	admin.PUT("/coupons/:id/deactivate", couponCtrl.DeactivateCoupon)

	env.router = router
	return env
}

var fixtureSeq atomic.Int64

// shopper is a persisted user with a valid access token.
type shopper struct {
	user  *model.User
	token string
}

func (env *apiEnv) createShopper(t *testing.T, role model.UserRole) *shopper {
	t.Helper()
	user := &model.User{
		Email:        fmt.Sprintf("rider%d@example.com", fixtureSeq.Add(1)),
		PasswordHash: "hash",
		Name:         "Test Rider",
		Role:         role,
	}
	require.NoError(t, env.users.Create(user))

	tokens, err := util.GenerateTokenPair(user.ID, user.Email, string(role), testJWTSecret, 15*time.Minute, time.Hour)
	require.NoError(t, err)
	return &shopper{user: user, token: tokens.AccessToken}
}

func (env *apiEnv) createAddress(t *testing.T, userID uint) *model.Address {
	t.Helper()
	address := &model.Address{
		UserID:     userID,
		FullName:   "Test Rider",
		Phone:      "9876543210",
		Line1:      "12 MG Road",
		City:       "Bengaluru",
		State:      "Karnataka",
		PostalCode: "560001",
		Country:    "IN",
	}
	require.NoError(t, env.addresses.Create(address))
	return address
}

func (env *apiEnv) createProduct(t *testing.T, price float64, variantStock int) *model.Product {
	t.Helper()
	product := &model.Product{
		Name:     "Aero Full Face",
		Brand:    "Steelbird",
		Category: model.CategoryFullFace,
		Price:    price,
		Stock:    variantStock,
		IsActive: true,
		Variants: []model.ProductVariant{{
			SKU:   fmt.Sprintf("SB-AERO-M-%d", fixtureSeq.Add(1)),
			Size:  "M",
			Color: "Matte Black",
			Stock: variantStock,
		}},
	}
	require.NoError(t, env.products.Create(product))
	return product
}

func (env *apiEnv) fillCart(t *testing.T, userID uint, product *model.Product, quantity int) {
	t.Helper()
	_, err := env.cartService.AddItem(userID, product.ID, &product.Variants[0].ID, quantity)
	require.NoError(t, err)
}

func (env *apiEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

// gatewayStub emulates the Razorpay orders and payments endpoints.
type gatewayStub struct {
	server *httptest.Server

	mu       sync.Mutex
	seq      int
	orders   map[string]razorpay.Order
	payments map[string]razorpay.Payment
	down     bool
}

func newGatewayStub(t *testing.T) *gatewayStub {
	g := &gatewayStub{
		orders:   make(map[string]razorpay.Order),
		payments: make(map[string]razorpay.Payment),
	}
	g.server = httptest.NewServer(http.HandlerFunc(g.serve))
	t.Cleanup(g.server.Close)
	return g
}

func (g *gatewayStub) serve(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.down {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/orders":
		var req razorpay.CreateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		g.seq++
		order := razorpay.Order{
			ID:       fmt.Sprintf("order_API%06d", g.seq),
			Entity:   "order",
			Amount:   req.Amount,
			Currency: req.Currency,
			Receipt:  req.Receipt,
			Status:   "created",
		}
		g.orders[order.ID] = order
		json.NewEncoder(w).Encode(order)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/payments/"):
		payment, ok := g.payments[strings.TrimPrefix(r.URL.Path, "/payments/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]string{"code": "BAD_REQUEST_ERROR", "description": "The id provided does not exist"},
			})
			return
		}
		json.NewEncoder(w).Encode(payment)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (g *gatewayStub) setDown(down bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.down = down
}

// capture records a captured payment of the full gateway order amount and
// returns the signed verification request.
func (g *gatewayStub) capture(gatewayOrderID string) VerifyPaymentRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	paymentID := fmt.Sprintf("pay_API%06d", len(g.payments)+1)
	g.payments[paymentID] = razorpay.Payment{
		ID:       paymentID,
		Entity:   "payment",
		Amount:   g.orders[gatewayOrderID].Amount,
		Currency: "INR",
		Status:   "captured",
		OrderID:  gatewayOrderID,
		Captured: true,
	}
	return VerifyPaymentRequest{
		GatewayOrderID: gatewayOrderID,
		PaymentID:      paymentID,
		Signature:      razorpay.Sign(testGatewaySecret, gatewayOrderID, paymentID),
	}
}

type memoryRevocations struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (m *memoryRevocations) BlacklistToken(_ context.Context, tokenID string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.revoked == nil {
		m.revoked = make(map[string]bool)
	}
	m.revoked[tokenID] = true
	return nil
}

func (m *memoryRevocations) IsTokenBlacklisted(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revoked[tokenID], nil
}

type stubImages struct {
	deleted []string
}

func (s *stubImages) PresignUpload(_ context.Context, filename, contentType, folder string) (*storage.PresignedUpload, error) {
	if err := storage.ValidateContentType(contentType, storage.AllowedImageTypes); err != nil {
		return nil, err
	}
	key := storage.ObjectKey(folder, filename)
	return &storage.PresignedUpload{
		UploadURL: "https://upload.example.com/" + key,
		FileURL:   "https://cdn.example.com/" + key,
		Key:       key,
		ExpiresIn: 900,
	}, nil
}

func (s *stubImages) Delete(_ context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}
