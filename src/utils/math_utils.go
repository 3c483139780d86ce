package utils

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// RoundFloat rounds a float64 to a specified number of decimal places.
func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// ParseDecimal parses a user or file supplied number strictly. Thousands
// separators, currency signs and exponents are rejected rather than guessed.
func ParseDecimal(field, s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%s is required", field)
	}
	if strings.ContainsAny(s, "eE,") {
		return 0, fmt.Errorf("%s %q is not a plain decimal number", field, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a number", field, s)
	}
	f, _ := d.Float64()
	return f, nil
}

// ParseOptionalDecimal is ParseDecimal with an empty value meaning zero.
func ParseOptionalDecimal(field, s string) (float64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return ParseDecimal(field, s)
}
