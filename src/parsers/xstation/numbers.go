package xstation

import (
	"math"
	"strconv"
	"strings"
)

// Thousands are grouped with spaces (often non-breaking ones) and the decimal
// separator is a comma, e.g. "18 939,71".
var numberNormalizer = strings.NewReplacer(
	" ", "",
	"\u00a0", "",
	"\u202f", "",
	",", ".",
)

// ParseLocalizedFloat converts a localized number to float64.
// Anything that does not parse, or parses to Inf/NaN, yields 0, which callers
// must treat the same as a missing value.
func ParseLocalizedFloat(s string) float64 {
	v, err := strconv.ParseFloat(numberNormalizer.Replace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
