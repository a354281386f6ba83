package cstruct

import (
	"strconv"

	"github.com/wippyai/cstruct/layout"
	"github.com/wippyai/cstruct/schema"
)

// Address is a native memory address in the binding's address space.
// Zero is NULL.
type Address uintptr

func (a Address) String() string {
	return "0x" + strconv.FormatUint(uint64(a), 16)
}

// IsNull reports whether the address is zero.
func (a Address) IsNull() bool {
	return a == 0
}

// Binding gives raw access to native memory. Implementations decide what
// an address means: a process pointer for the host, a guest offset for wasm.
type Binding interface {
	// AddressOf returns the native address of the first byte of buf.
	AddressOf(buf []byte) (Address, error)
	// ReadPrimitive reads p at addr+offset. Integer, float and bool kinds
	// return the matching Go type; Pointer and String return an Address.
	ReadPrimitive(addr Address, offset uint32, p schema.Primitive) (any, error)
	// ReadCString reads a NUL-terminated string at addr. maxLen <= 0 means
	// no bound.
	ReadCString(addr Address, maxLen int) (string, error)
	// Bytes maps size bytes at addr as a slice aliasing native memory.
	Bytes(addr Address, size uint32) ([]byte, error)
}

// Allocator is implemented by bindings that own instance storage. The
// returned slice must stay valid and addressable through AddressOf.
type Allocator interface {
	Alloc(size, align uint32) ([]byte, error)
}

// Remapper is implemented by bindings whose memory can move, such as a
// wasm linear memory that is reallocated when it grows. Current reports
// whether buf still aliases live memory; stale buffers are mapped again
// through Bytes.
type Remapper interface {
	Current(buf []byte) bool
}

// DataModeler is implemented by bindings with a fixed pointer width.
type DataModeler interface {
	DataModel() layout.DataModel
}

// Callable is anything that can be stored in a function pointer slot.
type Callable interface {
	Pointer() Address
}
