package calc

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// DisplayDecimals is the number of decimals kept by FormatNumber.
const DisplayDecimals = 2

// ParseNumber interprets a literal cell. Currency and grouping marks are
// stripped, a trailing % divides by 100 and anything unparsable is 0.
func ParseNumber(literal string) float64 {
	s := strings.TrimSpace(literal)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	scale := 1.0
	if strings.HasSuffix(s, "%") {
		s = strings.TrimSpace(s[:len(s)-1])
		scale = 100
	}
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v / scale
}

// FormatNumber rounds half away from zero to two decimals and drops a
// trailing ".00".
func FormatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "#ERR"
	}
	d := decimal.NewFromFloat(v).Round(DisplayDecimals)
	if d.IsZero() {
		return "0"
	}
	return strings.TrimSuffix(d.StringFixed(DisplayDecimals), ".00")
}

// Round rounds v half away from zero at the given number of decimal
// places; negative places round to tens, hundreds and so on. Rounding
// works on the shortest decimal form of v, so 2.345 rounds to 2.35.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	places = max(-maxPlaces, min(places, maxPlaces))
	return decimal.NewFromFloat(v).Round(int32(places)).InexactFloat64()
}

const maxPlaces = 330
