package cstruct

import (
	"fmt"
	"unsafe"

	"github.com/wippyai/cstruct/internal/abi"
	"github.com/wippyai/cstruct/layout"
	"github.com/wippyai/cstruct/schema"
)

const arenaBase Address = 0x10000

// arenaBinding maps addresses onto a fixed slab the way a guest linear
// memory does, so tests see stable, predictable addresses.
type arenaBinding struct {
	mem   []byte
	next  uint32
	reads int
	model layout.DataModel
}

func newArena(size uint32) *arenaBinding {
	return &arenaBinding{mem: heapAlloc(size), next: 8, model: layout.LP64}
}

func (a *arenaBinding) DataModel() layout.DataModel {
	return a.model
}

func (a *arenaBinding) Alloc(size, align uint32) ([]byte, error) {
	off := abi.AlignTo(a.next, align)
	if uint64(off)+uint64(size) > uint64(len(a.mem)) {
		return nil, fmt.Errorf("arena exhausted: need %d bytes", size)
	}
	a.next = off + size
	return a.mem[off : off+size : off+size], nil
}

func (a *arenaBinding) AddressOf(buf []byte) (Address, error) {
	if len(buf) == 0 {
		return 0, fmt.Errorf("empty buffer")
	}
	start := uintptr(unsafe.Pointer(unsafe.SliceData(a.mem)))
	p := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	if p < start || p >= start+uintptr(len(a.mem)) {
		return 0, fmt.Errorf("buffer is outside the arena")
	}
	return arenaBase + Address(p-start), nil
}

func (a *arenaBinding) Bytes(addr Address, size uint32) ([]byte, error) {
	if addr < arenaBase {
		return nil, fmt.Errorf("address %s below arena", addr)
	}
	off := uint64(addr - arenaBase)
	if off+uint64(size) > uint64(len(a.mem)) {
		return nil, fmt.Errorf("address %s out of range", addr)
	}
	return a.mem[off : off+uint64(size) : off+uint64(size)], nil
}

func (a *arenaBinding) ReadPrimitive(addr Address, offset uint32, p schema.Primitive) (any, error) {
	a.reads++
	w := p.Width(a.model.PointerSize)
	buf, err := a.Bytes(addr+Address(offset), w)
	if err != nil {
		return nil, err
	}
	bits, ok := abi.Load(buf, 0, p, a.model.PointerSize)
	if !ok {
		return nil, fmt.Errorf("cannot load %s", p)
	}
	if p.IsPointer() {
		return Address(bits), nil
	}
	v, _ := abi.Decode(p, bits)
	return v, nil
}

func (a *arenaBinding) ReadCString(addr Address, maxLen int) (string, error) {
	if addr < arenaBase {
		return "", fmt.Errorf("address %s below arena", addr)
	}
	rest := a.mem[addr-arenaBase:]
	for n, c := range rest {
		if c == 0 || (maxLen > 0 && n == maxLen) {
			return string(rest[:n]), nil
		}
	}
	return "", fmt.Errorf("unterminated string at %s", addr)
}

type fakeFn Address

func (f fakeFn) Pointer() Address {
	return Address(f)
}
