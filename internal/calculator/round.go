package calculator

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round2 rounds x to two decimal places, half away from zero, using the
// shortest decimal representation of x so that 1.005 becomes 1.01.
// NaN and ±Inf are returned unchanged.
func Round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}
