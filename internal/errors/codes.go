package errors

// Error code constants.
// Format: CATEGORY_SPECIFIC_DETAIL
// Clients map their user-facing copy from these codes.

const (
	// ==================== Authentication (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // login required
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // wrong email/password
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND"
	AuthzAdminOnly    = "AUTHZ_ADMIN_ONLY"
	AuthzOwnerOnly    = "AUTHZ_OWNER_ONLY"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID     = "VALIDATION_INVALID_ID"
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT"
	ValidationInvalidRange  = "VALIDATION_INVALID_RANGE"
	ValidationRequired      = "VALIDATION_REQUIRED"

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Catalog (PRODUCT_) ====================
	ProductNotFound    = "PRODUCT_NOT_FOUND"
	ProductOutOfStock  = "PRODUCT_OUT_OF_STOCK"
	VariantNotFound    = "PRODUCT_VARIANT_NOT_FOUND"
	AddressNotFound    = "ADDRESS_NOT_FOUND"
	CartEmpty          = "CART_EMPTY"
	CartItemNotFound   = "CART_ITEM_NOT_FOUND"
	CheckoutInProgress = "CHECKOUT_IN_PROGRESS"

	// ==================== Orders (ORDER_) ====================
	OrderNotFound                = "ORDER_NOT_FOUND"
	OrderInsufficientStock       = "ORDER_INSUFFICIENT_STOCK"
	OrderStockChanged            = "ORDER_STOCK_CHANGED"
	OrderInvalidStatusTransition = "ORDER_INVALID_STATUS_TRANSITION"
	OrderNotCancellable          = "ORDER_NOT_CANCELLABLE"
	OrderInvalidPaymentMethod    = "ORDER_INVALID_PAYMENT_METHOD"
	OrderStateChanged            = "ORDER_STATE_CHANGED"

	// ==================== Payments (PAYMENT_) ====================
	PaymentInvalidSignature   = "PAYMENT_INVALID_SIGNATURE"
	PaymentAmountMismatch     = "PAYMENT_AMOUNT_MISMATCH"
	PaymentGatewayUnavailable = "PAYMENT_GATEWAY_UNAVAILABLE"
	PaymentAlreadyProcessed   = "PAYMENT_ALREADY_PROCESSED"
	PaymentOrderMismatch      = "PAYMENT_ORDER_MISMATCH"

	// ==================== Coupons (COUPON_) ====================
	CouponInvalid     = "COUPON_INVALID"
	CouponInactive    = "COUPON_INACTIVE"
	CouponUsageLimit  = "COUPON_USAGE_LIMIT"
	CouponNotYetValid = "COUPON_NOT_YET_VALID"
	CouponExpired     = "COUPON_EXPIRED"
	CouponMinPurchase = "COUPON_MIN_PURCHASE"
	CouponCodeExists  = "COUPON_CODE_EXISTS"

	// ==================== Reviews (REVIEW_) ====================
	ReviewNotFound      = "REVIEW_NOT_FOUND"
	ReviewInvalidRating = "REVIEW_INVALID_RATING"
	ReviewAlreadyExists = "REVIEW_ALREADY_EXISTS"
	ReviewNotAllowed    = "REVIEW_NOT_ALLOWED"

	// ==================== Uploads (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFailed          = "UPLOAD_FAILED"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
	InternalConfigError   = "INTERNAL_CONFIG_ERROR"
)
