package engine

import (
	"math"
	"strings"

	"github.com/spf13/cast"
)

// Input ceilings. With every item at the limit, subtotal, tax and total stay
// far below the float64 range, so derived fields are always finite.
const (
	maxQuantity    = 1_000_000_000
	maxUnitPrice   = 1e12
	maxTaxRate     = 1e6
	maxMoneyAmount = 1e30
)

// toAmount coerces user input to a finite number in [0, limit].
// Anything that does not parse as a number becomes 0.
func toAmount(value any, limit float64) float64 {
	switch v := value.(type) {
	case nil, bool:
		return 0
	case string:
		value = strings.TrimSpace(v)
	}

	f, err := cast.ToFloat64E(value)
	if err != nil {
		return 0
	}
	return clampAmount(f, limit)
}

// toQuantity coerces user input to a non-negative integer, truncating fractions.
func toQuantity(value any) int64 {
	return int64(math.Trunc(toAmount(value, maxQuantity)))
}

func toText(value any) string {
	if value == nil {
		return ""
	}
	return cast.ToString(value)
}

func toFlag(value any) bool {
	flag, err := cast.ToBoolE(value)
	if err != nil {
		return false
	}
	return flag
}

// clampAmount maps NaN and negatives to 0 and caps at limit.
func clampAmount(v, limit float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return math.Min(v, limit)
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
