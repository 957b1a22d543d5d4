package doji

import (
	"strconv"
	"strings"
)

// ParseFormattedNumber parses a feed number with thousands separators
// ("9,205" -> 9205). An empty or non-numeric field yields nil, never zero.
func ParseFormattedNumber(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
