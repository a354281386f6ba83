package abi

import "math"

// CoerceToBits returns the two's complement bits of an integer value.
// Float values (as produced by JSON and YAML decoders) are accepted when
// integral. Booleans are not integers and are rejected.
func CoerceToBits(value any) (uint64, bool) {
	switch v := value.(type) {
	case int:
		return uint64(v), true
	case int8:
		return uint64(v), true
	case int16:
		return uint64(v), true
	case int32:
		return uint64(v), true
	case int64:
		return uint64(v), true
	case uint:
		return uint64(v), true
	case uint8:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint64:
		return v, true
	case uintptr:
		return uint64(v), true
	case float64:
		if v == math.Trunc(v) && v >= math.MinInt64 && v < math.MaxUint64 {
			if v < 0 {
				return uint64(int64(v)), true
			}
			return uint64(v), true
		}
	case float32:
		return CoerceToBits(float64(v))
	}
	return 0, false
}

// CoerceToInt64 accepts any integer type that fits in int64.
func CoerceToInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, false
		}
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
	case uintptr:
		if uint64(v) > math.MaxInt64 {
			return 0, false
		}
	}
	bits, ok := CoerceToBits(value)
	return int64(bits), ok
}

func CoerceToFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}

func CoerceToBool(value any) (bool, bool) {
	if b, ok := value.(bool); ok {
		return b, true
	}
	if _, isFloat := value.(float64); isFloat {
		return false, false
	}
	bits, ok := CoerceToBits(value)
	return bits != 0, ok
}
