package wasm

import (
	"fmt"
	"unsafe"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/cstruct"
	"github.com/wippyai/cstruct/layout"
	"github.com/wippyai/cstruct/schema"
)

// Binding reads and allocates guest linear memory.
type Binding struct {
	mem   api.Memory
	alloc Allocator
}

var _ cstruct.Binding = (*Binding)(nil)
var _ cstruct.Allocator = (*Binding)(nil)
var _ cstruct.Remapper = (*Binding)(nil)

// New binds mem. alloc may be nil, in which case instances cannot be
// allocated in guest memory and Instantiate fails.
func New(mem api.Memory, alloc Allocator) *Binding {
	return &Binding{mem: mem, alloc: alloc}
}

func (*Binding) DataModel() layout.DataModel {
	return layout.ILP32
}

// Memory returns the bound guest memory.
func (b *Binding) Memory() api.Memory {
	return b.mem
}

// AddressOf returns the guest offset of buf, which must alias guest memory.
func (b *Binding) AddressOf(buf []byte) (cstruct.Address, error) {
	if len(buf) == 0 {
		return 0, fmt.Errorf("address of empty buffer")
	}
	whole, ok := b.mem.Read(0, b.mem.Size())
	if !ok || len(whole) == 0 {
		return 0, fmt.Errorf("guest memory is empty")
	}
	start := uintptr(unsafe.Pointer(unsafe.SliceData(whole)))
	p := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	if p < start || p+uintptr(len(buf)) > start+uintptr(len(whole)) {
		return 0, fmt.Errorf("buffer is not in guest memory")
	}
	return cstruct.Address(p - start), nil
}

// Current reports whether buf still aliases guest memory. Growing the
// memory can move it, leaving earlier slices detached.
func (b *Binding) Current(buf []byte) bool {
	if len(buf) == 0 {
		return true
	}
	_, err := b.AddressOf(buf)
	return err == nil
}

func (b *Binding) ReadPrimitive(addr cstruct.Address, offset uint32, p schema.Primitive) (any, error) {
	off, err := guestOffset(addr, offset)
	if err != nil {
		return nil, err
	}

	var (
		v  any
		ok bool
	)
	switch p {
	case schema.I8:
		var x byte
		x, ok = b.mem.ReadByte(off)
		v = int8(x)
	case schema.U8:
		v, ok = b.mem.ReadByte(off)
	case schema.Bool:
		var x byte
		x, ok = b.mem.ReadByte(off)
		v = x != 0
	case schema.I16:
		var x uint16
		x, ok = b.mem.ReadUint16Le(off)
		v = int16(x)
	case schema.U16:
		v, ok = b.mem.ReadUint16Le(off)
	case schema.I32:
		var x uint32
		x, ok = b.mem.ReadUint32Le(off)
		v = int32(x)
	case schema.U32:
		v, ok = b.mem.ReadUint32Le(off)
	case schema.I64:
		var x uint64
		x, ok = b.mem.ReadUint64Le(off)
		v = int64(x)
	case schema.U64:
		v, ok = b.mem.ReadUint64Le(off)
	case schema.F32:
		v, ok = b.mem.ReadFloat32Le(off)
	case schema.F64:
		v, ok = b.mem.ReadFloat64Le(off)
	case schema.Pointer, schema.String:
		var x uint32
		x, ok = b.mem.ReadUint32Le(off)
		v = cstruct.Address(x)
	default:
		return nil, fmt.Errorf("unsupported primitive %s", p)
	}
	if !ok {
		return nil, fmt.Errorf("guest memory read out of bounds: offset=%d, type=%s", off, p)
	}
	return v, nil
}

// ReadCString reads a NUL-terminated string. maxLen <= 0 scans to the end
// of guest memory.
func (b *Binding) ReadCString(addr cstruct.Address, maxLen int) (string, error) {
	if addr.IsNull() {
		return "", nil
	}
	off, err := guestOffset(addr, 0)
	if err != nil {
		return "", err
	}
	size := b.mem.Size()
	if off >= size {
		return "", fmt.Errorf("guest memory read out of bounds: offset=%d", off)
	}
	n := size - off
	if maxLen > 0 && uint32(maxLen) < n {
		n = uint32(maxLen)
	}
	data, _ := b.mem.Read(off, n)
	for k, c := range data {
		if c == 0 {
			return string(data[:k]), nil
		}
	}
	if maxLen > 0 && len(data) == maxLen {
		return string(data), nil
	}
	return "", fmt.Errorf("unterminated string at offset %d", off)
}

// Bytes returns a slice aliasing guest memory.
func (b *Binding) Bytes(addr cstruct.Address, size uint32) ([]byte, error) {
	off, err := guestOffset(addr, 0)
	if err != nil {
		return nil, err
	}
	data, ok := b.mem.Read(off, size)
	if !ok {
		return nil, fmt.Errorf("guest memory read out of bounds: offset=%d, length=%d", off, size)
	}
	return data[:size:size], nil
}

// Alloc reserves guest memory through the configured allocator.
func (b *Binding) Alloc(size, align uint32) ([]byte, error) {
	if b.alloc == nil {
		return nil, fmt.Errorf("no guest allocator configured")
	}
	ptr, err := b.alloc.Alloc(size, align)
	if err != nil {
		return nil, err
	}
	if ptr == 0 {
		return nil, fmt.Errorf("guest allocator returned NULL for %d bytes", size)
	}
	data, ok := b.mem.Read(ptr, size)
	if !ok {
		return nil, fmt.Errorf("allocation out of bounds: offset=%d, length=%d", ptr, size)
	}
	return data[:size:size], nil
}

func guestOffset(addr cstruct.Address, offset uint32) (uint32, error) {
	sum := uint64(addr) + uint64(offset)
	if sum > 0xffffffff {
		return 0, fmt.Errorf("address %s exceeds 32-bit guest memory", addr)
	}
	return uint32(sum), nil
}
