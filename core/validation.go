package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultMaxBidAmount is the bid ceiling used by ValidateBidData, in ETH.
var DefaultMaxBidAmount = decimal.NewFromInt(1000)

const (
	// MaxAmountDecimals is the finest precision accepted: one wei.
	MaxAmountDecimals = 18
	// maxAmountExponent bounds positive exponents so that comparisons
	// against the ceiling never rescale to an unbounded coefficient.
	maxAmountExponent = 18
	// maxAmountLength bounds the raw input before it is parsed.
	maxAmountLength = 100
)

var (
	// ErrInvalidFormat means the amount is not a finite decimal number.
	ErrInvalidFormat = errors.New("invalid amount format")
	// ErrNonPositiveAmount means the amount is zero or negative.
	ErrNonPositiveAmount = errors.New("amount must be greater than 0")
	// ErrAmountTooLarge means the amount exceeds the configured ceiling.
	ErrAmountTooLarge = errors.New("amount too large")
)

// ValidationError reports why a bid amount was rejected.
// Code is one of ErrInvalidFormat, ErrNonPositiveAmount or ErrAmountTooLarge.
type ValidationError struct {
	Code   error
	Amount string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid bid amount %q: %v", e.Amount, e.Code)
}

func (e *ValidationError) Unwrap() error {
	return e.Code
}

// ValidationResult is the outcome of validating a bid amount.
type ValidationResult struct {
	IsValid bool             `json:"is_valid"`
	Error   *ValidationError `json:"-"`
}

// Message returns the user-facing reason, or "" when valid.
func (r ValidationResult) Message() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Code.Error()
}

// Err returns the validation error as an error value, or nil when valid.
func (r ValidationResult) Err() error {
	if r.Error == nil {
		return nil
	}
	return r.Error
}

// Validator validates bid amounts against a ceiling.
type Validator struct {
	MaxAmount decimal.Decimal
}

// NewValidator returns a Validator with the given ceiling.
func NewValidator(maxAmount decimal.Decimal) *Validator {
	return &Validator{MaxAmount: maxAmount}
}

// ValidateBidData validates amount against DefaultMaxBidAmount.
func ValidateBidData(amount string) ValidationResult {
	return NewValidator(DefaultMaxBidAmount).Validate(amount)
}

// Validate checks that amount parses as a finite decimal in (0, MaxAmount].
// It must run before any commitment, sealing or contract call.
func (v *Validator) Validate(amount string) ValidationResult {
	_, err := v.Parse(amount)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return ValidationResult{IsValid: false, Error: verr}
		}
		return ValidationResult{IsValid: false, Error: &ValidationError{Code: ErrInvalidFormat, Amount: amount}}
	}
	return ValidationResult{IsValid: true}
}

// Parse validates amount and returns its decimal value.
//
// Amounts finer than one wei are rejected as ErrInvalidFormat. The exponent
// is checked before any arithmetic, since comparing "1e-30000000" against
// the ceiling would rescale it to a thirty-million-digit coefficient.
func (v *Validator) Parse(amount string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(amount)
	if len(trimmed) > maxAmountLength {
		return decimal.Zero, &ValidationError{Code: ErrInvalidFormat, Amount: amount}
	}

	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, &ValidationError{Code: ErrInvalidFormat, Amount: amount}
	}

	if value.Exponent() < -MaxAmountDecimals {
		return decimal.Zero, &ValidationError{Code: ErrInvalidFormat, Amount: amount}
	}

	if !value.IsPositive() {
		return decimal.Zero, &ValidationError{Code: ErrNonPositiveAmount, Amount: amount}
	}

	if value.Exponent() > maxAmountExponent {
		return decimal.Zero, &ValidationError{Code: ErrAmountTooLarge, Amount: amount}
	}

	if value.GreaterThan(v.MaxAmount) {
		return decimal.Zero, &ValidationError{Code: ErrAmountTooLarge, Amount: amount}
	}

	return value, nil
}
