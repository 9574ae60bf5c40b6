package sentiment

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round3 rounds half away from zero to three decimals. NaN and infinities
// become 0 so they can never leak into a published result.
func Round3(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(3).InexactFloat64()
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
