package razorpay

import "errors"

var (
	// ErrInvalidConfig is returned when the key pair or base URL is missing
	ErrInvalidConfig = errors.New("invalid razorpay configuration")

	// ErrInvalidRequest is returned when Razorpay rejects the request parameters
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrUnauthorized is returned when the key pair is rejected
	ErrUnauthorized = errors.New("unauthorized: invalid API key")

	// ErrNotFound is returned when the order or payment does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrGateway is returned for 5xx and unexpected responses
	ErrGateway = errors.New("payment gateway error")

	// ErrNetworkError is returned when there's a network communication error
	ErrNetworkError = errors.New("network error")
)
