package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/helmetkart/helmet-backend/config"
	"github.com/helmetkart/helmet-backend/internal/app/model"
	"github.com/helmetkart/helmet-backend/internal/app/repository"
	"github.com/helmetkart/helmet-backend/internal/db"
	"github.com/helmetkart/helmet-backend/internal/storage"
	"github.com/helmetkart/helmet-backend/pkg/mailer"
	"github.com/helmetkart/helmet-backend/pkg/payment/razorpay"
	"github.com/helmetkart/helmet-backend/pkg/util"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testGatewaySecret = "rzp_test_secret"

func init() {
	util.BcryptCost = bcrypt.MinCost
}

var testCheckout = config.CheckoutConfig{
	FreeShippingThreshold: 999,
	ShippingCharge:        99,
	TaxRate:               0.18,
	PendingOrderWindow:    10 * time.Minute,
}

// testEnv wires the order subsystem against an in-memory database and fake
// external collaborators.
type testEnv struct {
	db        *gorm.DB
	users     repository.UserRepository
	products  repository.ProductRepository
	carts     repository.CartRepository
	addresses repository.AddressRepository
	coupons   repository.CouponRepository
	orders    repository.OrderRepository

	gateway   *fakeGateway
	mailer    *fakeMailer
	publisher *fakePublisher
	pusher    *fakePusher
	notifier  *Dispatcher

	orderService   OrderService
	paymentService PaymentService
	cartService    CartService
	couponService  CouponService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	env := &testEnv{
		db:        testDB,
		users:     repository.NewUserRepository(testDB),
		products:  repository.NewProductRepository(testDB),
		carts:     repository.NewCartRepository(testDB),
		addresses: repository.NewAddressRepository(testDB),
		coupons:   repository.NewCouponRepository(testDB),
		orders:    repository.NewOrderRepository(testDB),
		gateway:   newFakeGateway(),
		mailer:    &fakeMailer{},
		publisher: &fakePublisher{},
		pusher:    &fakePusher{},
	}
	env.notifier = NewDispatcher(env.mailer, env.publisher, env.pusher)
	t.Cleanup(env.notifier.Wait)

	pricing := NewPricing(testCheckout)
	ledger := NewStockLedger(env.products)

	env.orderService = NewOrderService(OrderServiceDeps{
		DB:            testDB,
		Orders:        env.orders,
		Carts:         env.carts,
		Addresses:     env.addresses,
		Coupons:       env.coupons,
		Users:         env.users,
		Ledger:        ledger,
		Gateway:       env.gateway,
		Notifier:      env.notifier,
		Pricing:       pricing,
		PendingWindow: testCheckout.PendingOrderWindow,
		Currency:      "INR",
	})
	env.paymentService = NewPaymentService(testDB, env.orders, env.carts, env.users, ledger, env.gateway, env.notifier)
	env.cartService = NewCartService(env.carts, env.products)
	env.couponService = NewCouponService(env.coupons, pricing, nil)
	return env
}

var fixtureSeq atomic.Int64

func (env *testEnv) createUser(t *testing.T) *model.User {
	t.Helper()
	user := &model.User{
		Email:        fmt.Sprintf("rider%d@example.com", fixtureSeq.Add(1)),
		PasswordHash: "hash",
		Name:         "Test Rider",
		Role:         model.RoleUser,
	}
	require.NoError(t, env.users.Create(user))
	return user
}

func (env *testEnv) createAddress(t *testing.T, userID uint) *model.Address {
	t.Helper()
	address := &model.Address{
		UserID:     userID,
		Label:      "Home",
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

// createProduct creates an active helmet. Without variant stocks the product
// itself holds 10 units.
func (env *testEnv) createProduct(t *testing.T, price float64, variantStocks ...int) *model.Product {
	t.Helper()
	product := &model.Product{
		Name:     "Aero Full Face",
		Brand:    "Steelbird",
		Category: model.CategoryFullFace,
		Price:    price,
		Stock:    10,
		ImageURL: "https://cdn.example.com/aero.jpg",
		IsActive: true,
	}
	for i, stock := range variantStocks {
		product.Variants = append(product.Variants, model.ProductVariant{
			SKU:   fmt.Sprintf("SB-AERO-%d", fixtureSeq.Add(1)),
			Size:  []string{"M", "L", "XL"}[i%3],
			Color: "Matte Black",
			Stock: stock,
		})
	}
	require.NoError(t, env.products.Create(product))
	return product
}

func (env *testEnv) addToCart(t *testing.T, userID uint, product *model.Product, variantIndex int, quantity int) {
	t.Helper()
	var variantID *uint
	if variantIndex >= 0 {
		variantID = &product.Variants[variantIndex].ID
	}
	_, err := env.cartService.AddItem(userID, product.ID, variantID, quantity)
	require.NoError(t, err)
}

// createWelcomeCoupon creates WELCOME10: 10% off capped at 500, minimum
// purchase 1000.
func (env *testEnv) createWelcomeCoupon(t *testing.T, usageLimit int) *model.Coupon {
	t.Helper()
	maxDiscount := 500.0
	coupon := &model.Coupon{
		Code:          "WELCOME10",
		DiscountType:  model.DiscountPercentage,
		DiscountValue: 10,
		MinPurchase:   1000,
		MaxDiscount:   &maxDiscount,
		UsageLimit:    usageLimit,
		ValidFrom:     time.Now().Add(-24 * time.Hour),
		ValidUntil:    time.Now().Add(24 * time.Hour),
		IsActive:      true,
	}
	require.NoError(t, env.coupons.Create(coupon))
	return coupon
}

func (env *testEnv) reloadProduct(t *testing.T, id uint) *model.Product {
	t.Helper()
	product, err := env.products.FindByID(id)
	require.NoError(t, err)
	return product
}

func (env *testEnv) reloadOrder(t *testing.T, id uint) *model.Order {
	t.Helper()
	order, err := env.orders.FindByID(id)
	require.NoError(t, err)
	return order
}

func (env *testEnv) cartSize(t *testing.T, userID uint) int {
	t.Helper()
	cart, err := env.carts.GetOrCreate(userID)
	require.NoError(t, err)
	return len(cart.Items)
}

func (env *testEnv) countOrders(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, env.db.Model(&model.Order{}).Count(&count).Error)
	return count
}

// checkoutRazorpay places a gateway order for the user's cart.
func (env *testEnv) checkoutRazorpay(t *testing.T, userID, addressID uint) *CheckoutResult {
	t.Helper()
	result, err := env.orderService.CreateOrder(context.Background(), userID, CreateOrderInput{
		AddressID:     addressID,
		PaymentMethod: model.PaymentMethodRazorpay,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Gateway)
	return result
}

// fakeGateway records gateway calls and serves payments registered by tests.
type fakeGateway struct {
	mu        sync.Mutex
	seq       int
	createErr error
	fetchErr  error
	created   []razorpay.CreateOrderRequest
	payments  map[string]*razorpay.Payment
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{payments: make(map[string]*razorpay.Payment)}
}

func (g *fakeGateway) CreateOrder(_ context.Context, req razorpay.CreateOrderRequest) (*razorpay.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.seq++
	g.created = append(g.created, req)
	return &razorpay.Order{
		ID:       fmt.Sprintf("order_TEST%06d", g.seq),
		Entity:   "order",
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
	}, nil
}

func (g *fakeGateway) FetchPayment(_ context.Context, paymentID string) (*razorpay.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	payment, ok := g.payments[paymentID]
	if !ok {
		return nil, razorpay.ErrNotFound
	}
	return payment, nil
}

func (g *fakeGateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return razorpay.VerifySignature(testGatewaySecret, orderID, paymentID, signature)
}

func (g *fakeGateway) KeyID() string {
	return "rzp_test_key"
}

func (g *fakeGateway) createCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.created)
}

// capture registers a captured payment for a gateway order and returns the
// matching verification input.
func (g *fakeGateway) capture(gatewayOrderID string, amount int64) VerifyPaymentInput {
	g.mu.Lock()
	defer g.mu.Unlock()
	paymentID := fmt.Sprintf("pay_TEST%06d", len(g.payments)+1)
	g.payments[paymentID] = &razorpay.Payment{
		ID:       paymentID,
		Entity:   "payment",
		Amount:   amount,
		Currency: "INR",
		Status:   "captured",
		OrderID:  gatewayOrderID,
		Captured: true,
	}
	return VerifyPaymentInput{
		GatewayOrderID: gatewayOrderID,
		PaymentID:      paymentID,
		Signature:      razorpay.Sign(testGatewaySecret, gatewayOrderID, paymentID),
	}
}

type fakeMailer struct {
	mu       sync.Mutex
	err      error
	messages []mailer.Message
}

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *fakeMailer) sent() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.messages...)
}

type fakePublisher struct {
	mu     sync.Mutex
	err    error
	events []OrderEvent
}

func (p *fakePublisher) Publish(_ context.Context, _ string, event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	if e, ok := event.(OrderEvent); ok {
		p.events = append(p.events, e)
	}
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

type fakePusher struct {
	mu       sync.Mutex
	messages map[uint][]interface{}
}

func (p *fakePusher) SendToUser(userID uint, message interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.messages == nil {
		p.messages = make(map[uint][]interface{})
	}
	p.messages[userID] = append(p.messages[userID], message)
	return nil
}

func (p *fakePusher) count(userID uint) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages[userID])
}

type fakeImageStorage struct {
	deleteErr error
	deleted   []string
	folders   []string
}

func (s *fakeImageStorage) PresignUpload(_ context.Context, filename, contentType, folder string) (*storage.PresignedUpload, error) {
	if err := storage.ValidateContentType(contentType, storage.AllowedImageTypes); err != nil {
		return nil, err
	}
	s.folders = append(s.folders, folder)
	key := storage.ObjectKey(folder, filename)
	return &storage.PresignedUpload{
		UploadURL: "https://upload.example.com/" + key,
		FileURL:   "https://cdn.example.com/" + key,
		Key:       key,
		ExpiresIn: 900,
	}, nil
}

func (s *fakeImageStorage) Delete(_ context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return s.deleteErr
}

// memoryBlacklist is an in-process TokenBlacklist.
type memoryBlacklist struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (b *memoryBlacklist) BlacklistToken(_ context.Context, tokenID string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.revoked == nil {
		b.revoked = make(map[string]bool)
	}
	b.revoked[tokenID] = true
	return nil
}

func (b *memoryBlacklist) IsTokenBlacklisted(_ context.Context, tokenID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.revoked[tokenID], nil
}

var errBoom = errors.New("boom")
