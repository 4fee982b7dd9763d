package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign returns hex(HMAC-SHA256(secret, orderID|paymentID)).
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares the checkout callback signature in constant time.
func VerifySignature(secret, orderID, paymentID, signature string) bool {
	expected := Sign(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyPaymentSignature checks a signature with the client's key secret.
func (c *Client) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return VerifySignature(c.config.KeySecret, orderID, paymentID, signature)
}

// ToPaise converts whole rupees to the smallest currency unit.
func ToPaise(amount float64) int64 {
	return int64(amount*100 + 0.5)
}

// FromPaise converts the smallest currency unit back to rupees.
func FromPaise(paise int64) float64 {
	return float64(paise) / 100
}
