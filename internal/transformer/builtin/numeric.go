package builtin

import (
	"strconv"
	"strings"
)

// CoerceNumber accepts only plain unsigned decimals: digits with at most one
// '.'. Signs, exponents, thousands separators, commas and surrounding
// whitespace are rejected so that free text never turns into a number by
// accident.
func CoerceNumber(s string) (float64, bool) {
	digits := strings.Replace(s, ".", "", 1)
	if digits == "" {
		return 0, false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, false
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
