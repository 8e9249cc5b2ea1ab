package utils

import (
	"math"
	"strconv"
	"strings"
)

// RoundFloat rounds a float64 to a specified number of decimal places.
func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// ParseAmount parses a numeric cell that may carry spaces as thousand
// separators and a comma as the decimal mark, alongside plain formats.
func ParseAmount(s string) (float64, bool) {
	cleaned := strings.NewReplacer(" ", "", " ", "", "\t", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0, false
	}
	if strings.Contains(cleaned, ",") && strings.Contains(cleaned, ".") {
		// "1.234,56" style: dot is the thousand separator.
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
