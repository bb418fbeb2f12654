package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/username/tradejournal/backend/src/logger"
)

var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	MaxInstrumentLength = 64
	MaxDurationLength   = 64
	MaxCommentsLength   = 10000
)

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ValidateFloatString parses a numeric form value. An empty value is 0.
func ValidateFloatString(s, fieldName string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, nil
	}
	val, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s ('%s') is not a valid number", ErrValidationFailed, fieldName, s)
	}
	if math.IsNaN(val) || math.IsInf(val, 0) {
		logger.L.Warn("Non-finite value rejected", "field", fieldName, "value", s)
		return 0, fmt.Errorf("%w: %s must be a finite number", ErrValidationFailed, fieldName)
	}
	return val, nil
}

// ValidateDirection accepts "", "long" or "short" in any case and returns it lowercased.
func ValidateDirection(s string) (string, error) {
	d := strings.ToLower(strings.TrimSpace(s))
	switch d {
	case "", "long", "short":
		return d, nil
	}
	return "", fmt.Errorf("%w: direction ('%s') must be 'long' or 'short'", ErrValidationFailed, s)
}
