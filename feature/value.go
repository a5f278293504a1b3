package feature

import (
	"github.com/xiam/to"
	"strconv"
	"strings"
)

// Float coerces a loosely typed driver value to a float, nil and non numeric values are unknown.
func Float(v any) (float64, bool) {
	switch tv := v.(type) {
	case nil:
		return 0, false
	case string:
		trimmed := strings.TrimSpace(tv)
		if _, err := strconv.ParseFloat(trimmed, 64); err != nil {
			return 0, false
		}
		v = trimmed
	case bool:
		if tv {
			return 1, true
		}
		return 0, true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
	default:
		return 0, false
	}

	return to.Float64(v), true
}

// Int coerces a driver value to an integer, truncating fractions.
func Int(v any) (int, bool) {
	if f, ok := Float(v); ok {
		return int(f), true
	}

	return 0, false
}

// Bool coerces a driver value to a boolean, numbers are true when non zero.
func Bool(v any) (bool, bool) {
	switch tv := v.(type) {
	case nil:
		return false, false
	case bool:
		return tv, true
	case string:
		switch strings.ToLower(strings.TrimSpace(tv)) {
		case "true", "1", "on":
			return true, true
		case "false", "0", "off":
			return false, true
		default:
			return false, false
		}
	}

	if f, ok := Float(v); ok {
		return f != 0, true
	}

	return false, false
}

// Clamp restricts v to [min, max].
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}

	if v > max {
		return max
	}

	return v
}
