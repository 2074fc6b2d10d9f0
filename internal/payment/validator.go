// Package payment validates the simulated card payment submitted at
// checkout and masks the card number before anything is persisted.
package payment

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// MaskPlaceholder replaces the middle digits of a stored card number.
const MaskPlaceholder = "XXXXXXXX"

// Card is the raw payment form input.  Number may contain whitespace.
type Card struct {
	Number      string `json:"card_number"`
	Name        string `json:"card_name"`
	ExpiryMonth string `json:"expiry_month"`
	ExpiryYear  string `json:"expiry_year"`
	CVV         string `json:"cvv"`
}

// ValidationError reports the first payment rule a card failed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validation failures, in rule order.
var (
	ErrFieldsRequired    = &ValidationError{Field: "card", Message: "all fields required"}
	ErrInvalidCardNumber = &ValidationError{Field: "card_number", Message: "invalid card number"}
	ErrInvalidName       = &ValidationError{Field: "card_name", Message: "invalid name"}
	ErrInvalidMonth      = &ValidationError{Field: "expiry_month", Message: "invalid month"}
	ErrInvalidYear       = &ValidationError{Field: "expiry_year", Message: "invalid year"}
	ErrCardExpired       = &ValidationError{Field: "expiry_year", Message: "card has expired"}
	ErrInvalidCVV        = &ValidationError{Field: "cvv", Message: "invalid CVV"}
)

// Validate checks c against the payment rules at time now and returns the
// first failure, or nil.  It has no side effects.
func Validate(c Card, now time.Time) error {
	if c.Number == "" || c.Name == "" || c.ExpiryMonth == "" || c.ExpiryYear == "" || c.CVV == "" {
		return ErrFieldsRequired
	}
	if !isDigits(StripSpaces(c.Number), 16, 16) {
		return ErrInvalidCardNumber
	}
	if len([]rune(strings.TrimSpace(c.Name))) < 2 {
		return ErrInvalidName
	}
	month, err := strconv.Atoi(strings.TrimSpace(c.ExpiryMonth))
	if err != nil || month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	yy := strings.TrimSpace(c.ExpiryYear)
	if !isDigits(yy, 1, 2) {
		return ErrInvalidYear
	}
	year, _ := strconv.Atoi(yy)
	curYear := now.Year() % 100
	if year < curYear {
		return ErrInvalidYear
	}
	if year == curYear && month < int(now.Month()) {
		return ErrCardExpired
	}
	if !isDigits(c.CVV, 3, 4) {
		return ErrInvalidCVV
	}
	return nil
}

// StripSpaces removes every whitespace character from s.
func StripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// MaskCardNumber keeps the first and last four digits of number and
// replaces the rest with MaskPlaceholder.  Whitespace is ignored.
func MaskCardNumber(number string) string {
	n := StripSpaces(number)
	if len(n) < 8 {
		return MaskPlaceholder
	}
	return n[:4] + MaskPlaceholder + n[len(n)-4:]
}

func isDigits(s string, minLen, maxLen int) bool {
	if len(s) < minLen || len(s) > maxLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
