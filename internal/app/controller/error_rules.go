package controller

import (
	"net/http"

	"github.com/helmetkart/helmet-backend/internal/app/service"
	apperrors "github.com/helmetkart/helmet-backend/internal/errors"
	"github.com/helmetkart/helmet-backend/internal/storage"
	"github.com/helmetkart/helmet-backend/pkg/util"
)

// serviceErrors maps service sentinels to responses. Anything unmatched is
// a 500 without detail.
var serviceErrors = apperrors.Rules{
	// auth
	{Target: service.ErrEmailAlreadyExists, Status: http.StatusConflict, Code: apperrors.AuthEmailAlreadyExists, Message: "email already registered"},
	{Target: service.ErrInvalidCredentials, Status: http.StatusUnauthorized, Code: apperrors.AuthInvalidCredentials, Message: "invalid email or password"},
	{Target: service.ErrInvalidToken, Status: http.StatusUnauthorized, Code: apperrors.AuthTokenInvalid, Message: "invalid or expired token"},
	{Target: service.ErrTokenRevoked, Status: http.StatusUnauthorized, Code: apperrors.AuthTokenRevoked, Message: "token has been revoked"},
	{Target: service.ErrUserNotFound, Status: http.StatusNotFound, Code: apperrors.ResourceNotFound, Message: "user not found"},
	{Target: util.ErrWeakPassword, Status: http.StatusBadRequest, Code: apperrors.ValidationInvalidInput},

	// catalog and cart
	{Target: service.ErrProductNotFound, Status: http.StatusNotFound, Code: apperrors.ProductNotFound, Message: "product not found"},
	{Target: service.ErrVariantNotFound, Status: http.StatusNotFound, Code: apperrors.VariantNotFound, Message: "product variant not found"},
	{Target: service.ErrProductUnavailable, Status: http.StatusBadRequest, Code: apperrors.ProductOutOfStock},
	{Target: service.ErrVariantRequired, Status: http.StatusBadRequest, Code: apperrors.ValidationRequired},
	{Target: service.ErrInvalidQuantity, Status: http.StatusBadRequest, Code: apperrors.ValidationInvalidRange},
	{Target: service.ErrInvalidProduct, Status: http.StatusBadRequest, Code: apperrors.ValidationInvalidInput},
	{Target: service.ErrCartItemNotFound, Status: http.StatusNotFound, Code: apperrors.CartItemNotFound, Message: "cart item not found"},
	{Target: service.ErrAddressNotFound, Status: http.StatusNotFound, Code: apperrors.AddressNotFound, Message: "address not found"},
	{Target: storage.ErrContentTypeNotAllowed, Status: http.StatusBadRequest, Code: apperrors.UploadInvalidFileType},

	// orders; stock changed must precede insufficient stock since it wraps it
	{Target: service.ErrOrderStockChanged, Status: http.StatusConflict, Code: apperrors.OrderStockChanged},
	{Target: service.ErrInsufficientStock, Status: http.StatusBadRequest, Code: apperrors.OrderInsufficientStock},
	{Target: service.ErrCartEmpty, Status: http.StatusBadRequest, Code: apperrors.CartEmpty, Message: "cart is empty"},
	{Target: service.ErrOrderNotFound, Status: http.StatusNotFound, Code: apperrors.OrderNotFound, Message: "order not found"},
	{Target: service.ErrOrderForbidden, Status: http.StatusForbidden, Code: apperrors.AuthzOwnerOnly, Message: "order belongs to another user"},
	{Target: service.ErrInvalidPaymentMethod, Status: http.StatusBadRequest, Code: apperrors.OrderInvalidPaymentMethod},
	{Target: service.ErrInvalidStatusTransition, Status: http.StatusBadRequest, Code: apperrors.OrderInvalidStatusTransition},
	{Target: service.ErrOrderNotCancellable, Status: http.StatusBadRequest, Code: apperrors.OrderNotCancellable},
	{Target: service.ErrOrderStateChanged, Status: http.StatusConflict, Code: apperrors.OrderStateChanged, Message: "order changed concurrently, please retry"},
	{Target: service.ErrCheckoutInProgress, Status: http.StatusConflict, Code: apperrors.CheckoutInProgress},

	// payments
	{Target: service.ErrInvalidPaymentSignature, Status: http.StatusBadRequest, Code: apperrors.PaymentInvalidSignature, Message: "invalid payment signature"},
	{Target: service.ErrPaymentAmountMismatch, Status: http.StatusBadRequest, Code: apperrors.PaymentAmountMismatch, Message: "amount mismatch"},
	{Target: service.ErrPaymentOrderMismatch, Status: http.StatusBadRequest, Code: apperrors.PaymentOrderMismatch, Message: "payment does not belong to this order"},
	{Target: service.ErrPaymentAlreadyProcessed, Status: http.StatusConflict, Code: apperrors.PaymentAlreadyProcessed, Message: "payment already processed"},
	{Target: service.ErrPaymentGatewayUnavailable, Status: http.StatusInternalServerError, Code: apperrors.PaymentGatewayUnavailable, Message: "payment gateway unavailable, please retry"},

	// coupons
	{Target: service.ErrCouponInvalid, Status: http.StatusBadRequest, Code: apperrors.CouponInvalid},
	{Target: service.ErrCouponInactive, Status: http.StatusBadRequest, Code: apperrors.CouponInactive},
	{Target: service.ErrCouponUsageLimit, Status: http.StatusBadRequest, Code: apperrors.CouponUsageLimit},
	{Target: service.ErrCouponNotYetValid, Status: http.StatusBadRequest, Code: apperrors.CouponNotYetValid},
	{Target: service.ErrCouponExpired, Status: http.StatusBadRequest, Code: apperrors.CouponExpired},
	{Target: service.ErrCouponMinPurchase, Status: http.StatusBadRequest, Code: apperrors.CouponMinPurchase},
	{Target: service.ErrCouponCodeExists, Status: http.StatusConflict, Code: apperrors.CouponCodeExists},
	{Target: service.ErrCouponNotFound, Status: http.StatusNotFound, Code: apperrors.ResourceNotFound, Message: "coupon not found"},
	{Target: service.ErrInvalidCoupon, Status: http.StatusBadRequest, Code: apperrors.ValidationInvalidInput},

	// reviews
	{Target: service.ErrInvalidRating, Status: http.StatusBadRequest, Code: apperrors.ReviewInvalidRating},
	{Target: service.ErrReviewAlreadyExists, Status: http.StatusConflict, Code: apperrors.ReviewAlreadyExists},
	{Target: service.ErrReviewNotAllowed, Status: http.StatusForbidden, Code: apperrors.ReviewNotAllowed},
}
