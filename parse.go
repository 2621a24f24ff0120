package thinfilm

import (
	"math"
	"strconv"
	"strings"
)

func normalizeNumber(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	text = strings.ReplaceAll(text, ",", ".")
	text = strings.ReplaceAll(text, " ", "")
	if strings.Count(text, ".") > 1 {
		return "", false
	}
	return text, true
}

// ParseDecimal converts user text to a float, accepting a decimal comma.
// Blank or malformed input yields (0, false).
func ParseDecimal(text string) (float64, bool) {
	normalized, ok := normalizeNumber(text)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseInt is ParseDecimal for integer fields; decimals are rounded.
func ParseInt(text string) (int, bool) {
	normalized, ok := normalizeNumber(text)
	if !ok {
		return 0, false
	}
	if strings.Contains(normalized, ".") {
		v, err := strconv.ParseFloat(normalized, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > math.MaxInt32 {
			return 0, false
		}
		return int(math.Round(v)), true
	}
	v, err := strconv.Atoi(normalized)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseStackSpec parses a comma separated QWOT sequence such as "1,0.5,1".
// Blank input is a valid stack with zero layers.
func ParseStackSpec(text string) ([]float64, error) {
	factors := make([]float64, 0)
	if strings.TrimSpace(text) == "" {
		return factors, nil
	}
	for i, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, ok := ParseDecimal(part)
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &ParseError{Pos: i + 1, Token: part, Reason: "invalid value"}
		}
		if v < 0 {
			return nil, &ParseError{Pos: i + 1, Token: part, Reason: "negative value not allowed"}
		}
		factors = append(factors, v)
	}
	return factors, nil
}
