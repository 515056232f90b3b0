package ledger

import (
	"math"

	domainerr "tally/internal/errors"
)

// NormalizeAmount truncates raw toward zero to an integer amount. Non-finite
// and negative values are rejected, as is zero unless the operation allows
// it (SET). The rule runs before any storage access.
func NormalizeAmount(raw float64, allowZero bool) (int64, error) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0, domainerr.ErrInvalidAmount
	}
	truncated := math.Trunc(raw)
	if truncated < 0 || truncated >= math.MaxInt64 {
		return 0, domainerr.ErrInvalidAmount
	}
	amount := int64(truncated)
	if amount == 0 && !allowZero {
		return 0, domainerr.ErrInvalidAmount
	}
	return amount, nil
}
