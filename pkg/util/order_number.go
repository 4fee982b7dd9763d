package util

import (
	"fmt"
	"time"
)

const orderNumberSuffixLen = 6

// GenerateOrderNumber returns ORD-YYYYMMDD-XXXXXX using the UTC date of now.
func GenerateOrderNumber(now time.Time) (string, error) {
	suffix, err := RandomAlphanumeric(orderNumberSuffixLen)
	if err != nil {
		return "", fmt.Errorf("failed to generate order number: %w", err)
	}
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102"), suffix), nil
}
