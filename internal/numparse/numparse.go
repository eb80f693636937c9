// Package numparse converts locale-formatted monetary and quantity text
// into floats. Brazilian reports format values as "1.234,56", often with
// an "R$" marker; clean decimal strings pass through untouched. Malformed
// text degrades to 0.0 instead of failing, so a bad cell never aborts an
// entire import.
package numparse

import (
	"strconv"
	"strings"
)

// Value parses a monetary or quantity token. Already-clean decimal strings
// parse directly, which makes the function idempotent on its own output.
// Otherwise the currency marker and "." thousands separators are stripped
// and the "," decimal separator is replaced before parsing. Returns 0.0 on
// failure, never an error.
func Value(token string) float64 {
	s := strings.TrimSpace(token)
	if s == "" {
		return 0
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, "R$", ""))

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}

	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// NonNegative parses like Value and clamps negative results to zero.
// Ingestion uses it for quantities and monetary fields, which must never
// propagate negative values.
func NonNegative(token string) float64 {
	f := Value(token)
	if f < 0 {
		return 0
	}
	return f
}
