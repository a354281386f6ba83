package abi

import (
	"math"
	"reflect"
)

func SafeMulU32(a, b uint32) (uint32, bool) {
	if b != 0 && a > math.MaxUint32/b {
		return 0, false
	}
	return a * b, true
}

func SafeAddU32(a, b uint32) (uint32, bool) {
	if a > math.MaxUint32-b {
		return 0, false
	}
	return a + b, true
}

// TypeName returns "nil" for nil values, avoiding reflect.TypeOf(nil) panic.
func TypeName(value any) string {
	if value == nil {
		return "nil"
	}
	return reflect.TypeOf(value).String()
}

// AlignTo rounds offset up to a multiple of align, which must be a power of two.
func AlignTo(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// Truncate keeps the low width*8 bits of v.
func Truncate(v uint64, width uint32) uint64 {
	if width >= 8 {
		return v
	}
	return v & (1<<(width*8) - 1)
}

// SignExtend interprets the low width*8 bits of v as a signed integer.
func SignExtend(v uint64, width uint32) int64 {
	if width >= 8 {
		return int64(v)
	}
	shift := 64 - width*8
	return int64(v<<shift) >> shift
}
