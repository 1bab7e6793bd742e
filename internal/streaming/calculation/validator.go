package calculation

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks input validation failures. Validation errors are
// reported before any computation proceeds; values are never silently
// clamped.
var ErrInvalidInput = errors.New("invalid input")

// ValidateStreamingPercentage checks that a streaming percentage lies in
// [0, 1] inclusive.
func ValidateStreamingPercentage(pct float64) error {
	if pct < 0 || pct > 1 {
		return fmt.Errorf("%w: streaming percentage must be between 0 and 1, got %g", ErrInvalidInput, pct)
	}
	return nil
}

// ValidateInvestment checks the investment amount and deployment tenor.
func ValidateInvestment(total float64, tenor int) error {
	if total < 0 {
		return fmt.Errorf("%w: investment total must not be negative, got %g", ErrInvalidInput, total)
	}
	if tenor <= 0 {
		return fmt.Errorf("%w: investment tenor must be a positive number of years, got %d", ErrInvalidInput, tenor)
	}
	return nil
}

// ValidatePurchasePrice checks that a deal purchase price is positive.
func ValidatePurchasePrice(price float64) error {
	if price <= 0 {
		return fmt.Errorf("%w: purchase price must be positive, got %g", ErrInvalidInput, price)
	}
	return nil
}
