package utils

import (
	"encoding/json"
	"strconv"
)

// ParseFloat converts a loosely typed feed value into a float64, falling back
// when the value is absent or unparseable. Feeds report USD amounts as either
// JSON numbers or quoted strings, so both are accepted.
func ParseFloat(v interface{}, fallback float64) float64 {
	switch x := v.(type) {
	case nil:
		return fallback
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case uint64:
		return float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return fallback
		}
		return f
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return fallback
		}
		return f
	default:
		return fallback
	}
}

// SafeDiv performs safe division avoiding division by zero
func SafeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// Min returns the smaller of two float64 values
func Min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
