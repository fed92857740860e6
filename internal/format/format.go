package format

import (
	"math"

	"github.com/shopspring/decimal"
)

// Price renders v with exactly three decimal places, rounding half away from zero.
func Price(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return decimal.NewFromFloat(v).StringFixed(3)
}
