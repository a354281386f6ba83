package host

import (
	"fmt"
	"unsafe"

	"github.com/wippyai/cstruct"
	"github.com/wippyai/cstruct/layout"
	"github.com/wippyai/cstruct/schema"
)

// Binding reads process memory through unsafe pointers.
type Binding struct{}

var _ cstruct.Binding = (*Binding)(nil)
var _ cstruct.Allocator = (*Binding)(nil)

func New() *Binding {
	return &Binding{}
}

// DataModel reports the pointer width of the running process.
func (*Binding) DataModel() layout.DataModel {
	if unsafe.Sizeof(uintptr(0)) == 4 {
		return layout.ILP32
	}
	return layout.LP64
}

func (*Binding) AddressOf(buf []byte) (cstruct.Address, error) {
	if len(buf) == 0 {
		return 0, fmt.Errorf("address of empty buffer")
	}
	return cstruct.Address(uintptr(unsafe.Pointer(unsafe.SliceData(buf)))), nil
}

func (*Binding) ReadPrimitive(addr cstruct.Address, offset uint32, p schema.Primitive) (any, error) {
	if addr.IsNull() {
		return nil, fmt.Errorf("read %s at NULL", p)
	}
	ptr := pointer(addr + cstruct.Address(offset))
	switch p {
	case schema.I8:
		return *(*int8)(ptr), nil
	case schema.I16:
		return *(*int16)(ptr), nil
	case schema.I32:
		return *(*int32)(ptr), nil
	case schema.I64:
		return *(*int64)(ptr), nil
	case schema.U8:
		return *(*uint8)(ptr), nil
	case schema.U16:
		return *(*uint16)(ptr), nil
	case schema.U32:
		return *(*uint32)(ptr), nil
	case schema.U64:
		return *(*uint64)(ptr), nil
	case schema.F32:
		return *(*float32)(ptr), nil
	case schema.F64:
		return *(*float64)(ptr), nil
	case schema.Bool:
		return *(*uint8)(ptr) != 0, nil
	case schema.Pointer, schema.String:
		return cstruct.Address(*(*uintptr)(ptr)), nil
	}
	return nil, fmt.Errorf("unsupported primitive %s", p)
}

// ReadCString reads a NUL-terminated string. maxLen <= 0 scans until NUL.
func (*Binding) ReadCString(addr cstruct.Address, maxLen int) (string, error) {
	if addr.IsNull() {
		return "", nil
	}
	p := (*byte)(pointer(addr))
	if maxLen <= 0 {
		return goString(p), nil
	}
	buf := unsafe.Slice(p, maxLen)
	for n, c := range buf {
		if c == 0 {
			return string(buf[:n]), nil
		}
	}
	return string(buf), nil
}

// Bytes returns a slice aliasing size bytes at addr.
func (*Binding) Bytes(addr cstruct.Address, size uint32) ([]byte, error) {
	if addr.IsNull() {
		return nil, fmt.Errorf("map %d bytes at NULL", size)
	}
	return unsafe.Slice((*byte)(pointer(addr)), size), nil
}

// Alloc returns zeroed Go memory aligned to 8 bytes. The memory does not
// move and stays valid while the slice is reachable.
func (*Binding) Alloc(size, align uint32) ([]byte, error) {
	if align > 8 {
		return nil, fmt.Errorf("alignment %d exceeds 8", align)
	}
	if size == 0 {
		return []byte{}, nil
	}
	words := make([]uint64, (size+7)/8)
	return unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), size), nil
}

func pointer(addr cstruct.Address) unsafe.Pointer {
	return unsafe.Pointer(uintptr(addr)) //nolint:govet // addresses come from native memory
}
