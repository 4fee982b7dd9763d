package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a code and a safe message.
type ErrorInfo struct {
	Code    string // see codes.go
	Message string
}

// ParseError turns a persistence or transport error into a code and a message
// that is safe to show to the caller. Driver details never leave this function.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "something went wrong",
		}
	}

	errStr := err.Error()
	errStrLower := strings.ToLower(errStr)

	// 1. gorm sentinels
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}
	}

	// 2. PostgreSQL / SQLite constraint errors

	// 2-1. unique violation (23505)
	if strings.Contains(errStrLower, "duplicate key") || strings.Contains(errStrLower, "unique constraint") {
		return parseDuplicateKeyError(errStr, context)
	}

	// 2-2. foreign key violation (23503)
	if strings.Contains(errStrLower, "foreign key constraint") {
		return parseForeignKeyError(errStr, context)
	}

	// 2-3. not null violation (23502)
	if strings.Contains(errStrLower, "null value") && strings.Contains(errStrLower, "violates not-null constraint") {
		return parseNotNullError(errStr, context)
	}

	// 2-4. check violation (23514)
	if strings.Contains(errStrLower, "check constraint") {
		return parseCheckConstraintError(errStr, context)
	}

	// 3. network
	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "an upstream service is unavailable, please try again shortly",
		}
	}

	return ErrorInfo{
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
	}
}

func parseDuplicateKeyError(errStr string, context string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "email") || strings.Contains(errLower, "idx_users_email") {
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "email is already registered"}
	}
	if strings.Contains(errLower, "coupons") || strings.Contains(errLower, "idx_coupons_code") {
		return ErrorInfo{Code: CouponCodeExists, Message: "coupon code already exists"}
	}
	if strings.Contains(errLower, "reviews") || strings.Contains(errLower, "idx_review_user_product_order") {
		return ErrorInfo{Code: ReviewAlreadyExists, Message: "you have already reviewed this product for this order"}
	}
	if strings.Contains(errLower, "sku") {
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "SKU is already in use"}
	}
	if strings.Contains(errLower, "pkey") || strings.Contains(errLower, "primary key") {
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "record already exists, please retry"}
	}

	return ErrorInfo{Code: ResourceAlreadyExists, Message: "record already exists"}
}

func parseForeignKeyError(errStr string, context string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "still referenced") {
		if strings.Contains(strings.ToLower(context), "product") {
			return ErrorInfo{Code: ResourceConflict, Message: "product is referenced by other records and cannot be deleted"}
		}
		return ErrorInfo{Code: ResourceConflict, Message: "record is referenced by other records and cannot be deleted"}
	}
	if strings.Contains(errLower, "user_id") {
		return ErrorInfo{Code: ResourceNotFound, Message: "user does not exist"}
	}
	if strings.Contains(errLower, "product_id") {
		return ErrorInfo{Code: ProductNotFound, Message: "product does not exist"}
	}

	return ErrorInfo{Code: ResourceNotFound, Message: "referenced record not found"}
}

func parseNotNullError(errStr string, context string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	switch {
	case strings.Contains(errLower, "email"):
		return ErrorInfo{Code: ValidationRequired, Message: "email is required"}
	case strings.Contains(errLower, "password"):
		return ErrorInfo{Code: ValidationRequired, Message: "password is required"}
	case strings.Contains(errLower, "name"):
		return ErrorInfo{Code: ValidationRequired, Message: "name is required"}
	}

	return ErrorInfo{Code: ValidationRequired, Message: "a required field is missing"}
}

func parseCheckConstraintError(errStr string, context string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "rating") {
		return ErrorInfo{Code: ReviewInvalidRating, Message: "rating must be between 1 and 5"}
	}
	if strings.Contains(errLower, "stock") {
		return ErrorInfo{Code: OrderInsufficientStock, Message: "insufficient stock"}
	}

	return ErrorInfo{Code: ValidationInvalidInput, Message: "invalid input"}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "order"):
		return "order not found"
	case strings.Contains(contextLower, "product"):
		return "product not found"
	case strings.Contains(contextLower, "address"):
		return "address not found"
	case strings.Contains(contextLower, "coupon"):
		return "coupon not found"
	case strings.Contains(contextLower, "user"):
		return "user not found"
	case strings.Contains(contextLower, "review"):
		return "review not found"
	}

	return "requested resource not found"
}

func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "create"):
		return "failed to create the resource, please try again later"
	case strings.Contains(contextLower, "update"):
		return "failed to update the resource, please try again later"
	case strings.Contains(contextLower, "delete"):
		return "failed to delete the resource, please try again later"
	}

	return "something went wrong, please try again later"
}

// ParseAndRespond parses err and writes it with statusCode.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	errorInfo := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   errorInfo.Code,
		Message: errorInfo.Message,
	})
}
