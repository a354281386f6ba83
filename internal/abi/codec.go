package abi

import (
	"encoding/binary"
	"math"

	"github.com/wippyai/cstruct/schema"
)

// Load reads the raw little-endian bits of p at off. Pointer-like
// primitives use ptrSize bytes.
func Load(buf []byte, off uint32, p schema.Primitive, ptrSize uint32) (uint64, bool) {
	w := p.Width(ptrSize)
	if w == 0 || uint64(off)+uint64(w) > uint64(len(buf)) {
		return 0, false
	}
	b := buf[off : off+w]
	switch w {
	case 1:
		return uint64(b[0]), true
	case 2:
		return uint64(binary.LittleEndian.Uint16(b)), true
	case 4:
		return uint64(binary.LittleEndian.Uint32(b)), true
	case 8:
		return binary.LittleEndian.Uint64(b), true
	}
	return 0, false
}

// Store writes the low bits of v for p at off, wrapping modulo 2^width.
func Store(buf []byte, off uint32, p schema.Primitive, ptrSize uint32, v uint64) bool {
	w := p.Width(ptrSize)
	if w == 0 || uint64(off)+uint64(w) > uint64(len(buf)) {
		return false
	}
	b := buf[off : off+w]
	switch w {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(b, v)
	default:
		return false
	}
	return true
}

// Decode converts raw bits to the natural Go value for a non-pointer
// primitive: int8..int64, uint8..uint64, float32, float64 or bool.
func Decode(p schema.Primitive, bits uint64) (any, bool) {
	switch p {
	case schema.I8:
		return int8(bits), true
	case schema.I16:
		return int16(bits), true
	case schema.I32:
		return int32(bits), true
	case schema.I64:
		return int64(bits), true
	case schema.U8:
		return uint8(bits), true
	case schema.U16:
		return uint16(bits), true
	case schema.U32:
		return uint32(bits), true
	case schema.U64:
		return bits, true
	case schema.F32:
		return math.Float32frombits(uint32(bits)), true
	case schema.F64:
		return math.Float64frombits(bits), true
	case schema.Bool:
		return bits&0xff != 0, true
	}
	return nil, false
}

// Encode converts a Go value to raw bits for a non-pointer primitive.
// Integers wrap to the primitive width; floats are accepted by integer
// fields only when integral.
func Encode(p schema.Primitive, value any) (uint64, bool) {
	switch {
	case p.IsInteger():
		v, ok := CoerceToBits(value)
		return v, ok
	case p == schema.F32:
		f, ok := CoerceToFloat64(value)
		if !ok {
			return 0, false
		}
		return uint64(math.Float32bits(float32(f))), true
	case p == schema.F64:
		f, ok := CoerceToFloat64(value)
		if !ok {
			return 0, false
		}
		return math.Float64bits(f), true
	case p == schema.Bool:
		b, ok := CoerceToBool(value)
		if !ok {
			return 0, false
		}
		if b {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
