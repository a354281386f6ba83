package cstruct

import (
	"unsafe"

	"github.com/wippyai/cstruct/errors"
	"github.com/wippyai/cstruct/internal/abi"
	"github.com/wippyai/cstruct/layout"
	"github.com/wippyai/cstruct/schema"
)

// Instance binds a Type to a byte buffer. Owned instances come from
// Instantiate; views wrap memory owned elsewhere. Every accessor reads or
// writes the buffer directly.
//
// Instance is not safe for concurrent use.
type Instance struct {
	typ     *Type
	binding Binding
	keep    *retainer
	buf     []byte
	addr    Address // base address when the binding owns the bytes
	mapped  bool    // addr is set; buf can be mapped again from it
	foreign bool
}

func (i *Instance) Type() *Type {
	return i.typ
}

// Buffer returns the backing bytes. Writes through it are visible to
// field reads.
//
// Buffers in movable binding memory are mapped again on access, so a
// slice kept from an earlier call may be stale after the memory grows.
func (i *Instance) Buffer() []byte {
	_ = i.refresh()
	return i.buf
}

// Owned reports whether the instance was allocated by Instantiate, or is a
// part of one.
func (i *Instance) Owned() bool {
	return !i.foreign
}

// Addr returns the native address of the instance bytes.
func (i *Instance) Addr() (Address, error) {
	b, err := i.bind(errors.PhaseRead)
	if err != nil {
		return 0, err
	}
	return i.base(b)
}

func (i *Instance) base(b Binding) (Address, error) {
	if i.mapped {
		return i.addr, nil
	}
	addr, err := b.AddressOf(i.buf)
	if err != nil {
		return 0, errors.New(errors.PhaseBinding, errors.KindUnsupported).
			Path(i.typ.Name()).
			Detail("instance memory has no native address").
			Cause(err).
			Build()
	}
	return addr, nil
}

// bind resolves the library binding once and keeps it.
func (i *Instance) bind(phase errors.Phase) (Binding, error) {
	if i.binding != nil {
		return i.binding, nil
	}
	b := i.typ.lib.Binding()
	if b == nil {
		return nil, errors.BindingNotConfigured(phase, []string{i.typ.Name()})
	}
	i.binding = b
	return b, nil
}

// refresh maps the bytes again when the binding's memory has moved since
// they were obtained.
func (i *Instance) refresh() error {
	if !i.mapped {
		return nil
	}
	b := i.binding
	if b == nil {
		b = i.typ.lib.Binding()
	}
	r, ok := b.(Remapper)
	if !ok || r.Current(i.buf) {
		return nil
	}
	buf, err := b.Bytes(i.addr, uint32(len(i.buf)))
	if err != nil {
		return errors.New(errors.PhaseBinding, errors.KindOutOfBounds).
			Path(i.typ.Name()).
			Detail("remap %d bytes at %s", len(i.buf), i.addr).
			Cause(err).
			Build()
	}
	i.buf = buf
	return nil
}

// slotKey identifies the pointer slot at off for retention.
func (i *Instance) slotKey(off uint32) uintptr {
	if i.mapped {
		return uintptr(i.addr) + uintptr(off)
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(i.buf))) + uintptr(off)
}

func (i *Instance) ptrSize() uint32 {
	return i.typ.info.Model.PointerSize
}

func (i *Instance) path(name string) []string {
	return []string{i.typ.Name(), name}
}

func (i *Instance) field(phase errors.Phase, name string) (*layout.FieldInfo, Binding, error) {
	b, err := i.bind(phase)
	if err != nil {
		return nil, nil, err
	}
	f, ok := i.typ.info.Field(name)
	if !ok {
		return nil, nil, errors.FieldUnknown(phase, []string{i.typ.Name()}, name)
	}
	return f, b, nil
}

// load reads primitive p at off. Views read through the binding so that a
// binding may observe every foreign access; owned buffers decode in place.
// Pointer-like primitives return an Address.
func (i *Instance) load(b Binding, off uint32, p schema.Primitive) (any, error) {
	if i.foreign {
		v, err := b.ReadPrimitive(i.addr, off, p)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseRead, errors.KindOutOfBounds, err, "read "+p.String())
		}
		return v, nil
	}

	if err := i.refresh(); err != nil {
		return nil, err
	}
	bits, ok := abi.Load(i.buf, off, p, i.ptrSize())
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseRead, []string{i.typ.Name()}, int(off), len(i.buf))
	}
	if p.IsPointer() {
		return Address(bits), nil
	}
	v, ok := abi.Decode(p, bits)
	if !ok {
		return nil, errors.Unsupported(errors.PhaseRead, []string{i.typ.Name()}, "primitive "+p.String())
	}
	return v, nil
}

// loadBits reads the raw bits of p at off.
func (i *Instance) loadBits(b Binding, off uint32, p schema.Primitive) (uint64, error) {
	if !i.foreign {
		if err := i.refresh(); err != nil {
			return 0, err
		}
		bits, ok := abi.Load(i.buf, off, p, i.ptrSize())
		if !ok {
			return 0, errors.OutOfBounds(errors.PhaseRead, []string{i.typ.Name()}, int(off), len(i.buf))
		}
		return bits, nil
	}
	v, err := i.load(b, off, p)
	if err != nil {
		return 0, err
	}
	bits, ok := toBits(v)
	if !ok {
		return 0, errors.TypeMismatch(errors.PhaseRead, []string{i.typ.Name()}, abi.TypeName(v), p.CName())
	}
	return bits, nil
}

func (i *Instance) store(off uint32, p schema.Primitive, bits uint64) error {
	if err := i.refresh(); err != nil {
		return err
	}
	if !abi.Store(i.buf, off, p, i.ptrSize(), bits) {
		return errors.OutOfBounds(errors.PhaseWrite, []string{i.typ.Name()}, int(off), len(i.buf))
	}
	return nil
}

func (i *Instance) loadAddress(b Binding, off uint32) (Address, error) {
	bits, err := i.loadBits(b, off, schema.Pointer)
	if err != nil {
		return 0, err
	}
	return Address(bits), nil
}

// storeAddress writes addr into the pointer slot at off and retains keep
// (which may be nil) for as long as the slot holds it.
func (i *Instance) storeAddress(off uint32, addr Address, keep any) error {
	if err := i.store(off, schema.Pointer, uint64(addr)); err != nil {
		return err
	}
	i.keep.hold(i.slotKey(off), keep)
	return nil
}

// sub returns an instance over an inline member sharing bytes and the
// retained set with i.
func (i *Instance) sub(b Binding, f *layout.FieldInfo) (*Instance, error) {
	t, err := i.typ.lib.typeOf(f.Nested.Schema)
	if err != nil {
		return nil, err
	}
	if err := i.refresh(); err != nil {
		return nil, err
	}
	s := &Instance{
		typ:     t,
		binding: b,
		keep:    i.keep,
		buf:     i.buf[f.Offset:f.End():f.End()],
		mapped:  i.mapped,
		foreign: i.foreign,
	}
	if i.mapped {
		s.addr = i.addr + Address(f.Offset)
	}
	return s, nil
}

// CopyFrom overwrites the instance bytes with src, which must not be
// longer than the type. It returns the number of bytes copied.
func (i *Instance) CopyFrom(src []byte) (int, error) {
	if err := i.refresh(); err != nil {
		return 0, err
	}
	if len(src) > len(i.buf) {
		return 0, errors.OutOfBounds(errors.PhaseWrite, []string{i.typ.Name()}, len(src), len(i.buf))
	}
	return copy(i.buf, src), nil
}

// CopyTo copies the instance bytes from start into dst.
func (i *Instance) CopyTo(dst []byte, start int) (int, error) {
	if err := i.refresh(); err != nil {
		return 0, err
	}
	if start < 0 || start > len(i.buf) {
		return 0, errors.OutOfBounds(errors.PhaseRead, []string{i.typ.Name()}, start, len(i.buf))
	}
	return copy(dst, i.buf[start:]), nil
}

// Bytes returns a copy of length bytes starting at start.
func (i *Instance) Bytes(start, length int) ([]byte, error) {
	if err := i.refresh(); err != nil {
		return nil, err
	}
	if start < 0 || length < 0 || start+length > len(i.buf) {
		return nil, errors.OutOfBounds(errors.PhaseRead, []string{i.typ.Name()}, start+length, len(i.buf))
	}
	out := make([]byte, length)
	copy(out, i.buf[start:start+length])
	return out, nil
}

// toBits converts a decoded primitive back to its raw bits.
func toBits(v any) (uint64, bool) {
	switch x := v.(type) {
	case Address:
		return uint64(x), true
	case float32:
		return abi.Encode(schema.F32, x)
	case float64:
		return abi.Encode(schema.F64, x)
	case bool:
		return abi.Encode(schema.Bool, x)
	}
	return abi.CoerceToBits(v)
}
