package rate

import (
	"errors"
	"strings"
)

const codeLength = 3

var (
	ErrCodeRequired = errors.New("currency code is required")
	ErrCodeLength   = errors.New("currency code must be 3 characters")
)

// NormalizeCode trims and lower-cases a currency code.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

func ValidateCode(code string) error {
	if code == "" {
		return ErrCodeRequired
	}
	if len(code) != codeLength {
		return ErrCodeLength
	}
	return nil
}
