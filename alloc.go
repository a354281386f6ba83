package cstruct

import (
	"unsafe"

	"github.com/wippyai/cstruct/errors"
)

// alloc returns size zeroed bytes aligned to align, from the binding
// allocator when there is one.
func (l *Library) alloc(size, align uint32) ([]byte, error) {
	return allocWith(l.Binding(), size, align)
}

func allocWith(b Binding, size, align uint32) ([]byte, error) {
	if a, ok := b.(Allocator); ok {
		buf, err := a.Alloc(size, align)
		if err != nil {
			return nil, errors.AllocationFailed(errors.PhaseWrite, size, align, err)
		}
		if uint32(len(buf)) < size {
			return nil, errors.AllocationFailed(errors.PhaseWrite, size, align, nil)
		}
		buf = buf[:size:size]
		clear(buf)
		return buf, nil
	}
	return heapAlloc(size), nil
}

// heapAlloc returns 8-aligned Go memory. The largest primitive is 8 bytes,
// so no struct needs more.
func heapAlloc(size uint32) []byte {
	if size == 0 {
		return []byte{}
	}
	words := make([]uint64, (size+7)/8)
	return unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), size)
}
