package razorpay

import "time"

// Config represents the configuration for the Razorpay client
type Config struct {
	// KeyID is the public API key id
	KeyID string

	// KeySecret signs API calls and payment signatures
	KeySecret string

	// BaseURL is the Razorpay API base URL
	BaseURL string

	// Currency is the ISO code used for new orders
	Currency string

	// Timeout bounds every API call
	Timeout time.Duration
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.KeyID == "" || c.KeySecret == "" {
		return ErrInvalidConfig
	}
	if c.BaseURL == "" {
		return ErrInvalidConfig
	}
	if c.Currency == "" {
		c.Currency = "INR"
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	return nil
}
