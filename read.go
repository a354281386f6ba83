package cstruct

import (
	"github.com/wippyai/cstruct/errors"
	"github.com/wippyai/cstruct/internal/abi"
	"github.com/wippyai/cstruct/layout"
	"github.com/wippyai/cstruct/schema"
)

// Get reads a member and returns its Go value:
//
//	i8..i64, u8..u64, f32, f64, bool   int8..int64, uint8..uint64, float32, float64, bool
//	string                             string ("" for NULL)
//	pointer, fn, T[]                   Address
//	enum                               int64
//	T[n]                               []T ([]Address, []string for pointer-like elements)
//	inline struct                      *Instance sharing the parent's bytes
//	struct by reference                *Instance viewing the pointee, or nil for NULL
func (i *Instance) Get(name string) (any, error) {
	f, b, err := i.field(errors.PhaseRead, name)
	if err != nil {
		return nil, err
	}
	return i.get(b, f)
}

func (i *Instance) get(b Binding, f *layout.FieldInfo) (any, error) {
	fd := f.Field
	switch fd.Kind {
	case schema.KindPrimitive:
		if fd.Type == schema.String {
			return i.readString(b, f.Offset)
		}
		return i.load(b, f.Offset, fd.Type)

	case schema.KindEnum:
		bits, err := i.loadBits(b, f.Offset, fd.Type)
		if err != nil {
			return nil, err
		}
		return enumValue(fd.Type, bits), nil

	case schema.KindFunc:
		return i.loadAddress(b, f.Offset)

	case schema.KindArray:
		if fd.Length == 0 {
			return i.loadAddress(b, f.Offset)
		}
		return (&Array{inst: i, binding: b, field: f}).Values()

	case schema.KindStruct:
		if fd.Inline {
			return i.sub(b, f)
		}
		v, err := i.deref(b, f)
		if err != nil || v == nil {
			return nil, err
		}
		return v, nil
	}
	return nil, errors.Unsupported(errors.PhaseRead, i.path(f.Name), "field kind "+fd.Kind.String())
}

func (i *Instance) readString(b Binding, off uint32) (string, error) {
	addr, err := i.loadAddress(b, off)
	if err != nil || addr.IsNull() {
		return "", err
	}
	s, err := b.ReadCString(addr, 0)
	if err != nil {
		return "", errors.Wrap(errors.PhaseRead, errors.KindInvalidData, err, "read string at "+addr.String())
	}
	return s, nil
}

// deref returns a view over the struct a by-reference member points at,
// or nil when the pointer is NULL.
func (i *Instance) deref(b Binding, f *layout.FieldInfo) (*Instance, error) {
	addr, err := i.loadAddress(b, f.Offset)
	if err != nil || addr.IsNull() {
		return nil, err
	}
	t, err := i.typ.lib.typeOf(i.typ.schema.Target(f.Field))
	if err != nil {
		return nil, err
	}
	return view(b, t, addr, i.keep)
}

// Deref copies the struct a by-reference member points at into a new owned
// instance. Later changes to the pointee are not visible through the copy.
// Strings and structs the copy points at stay retained with it.
func (i *Instance) Deref(name string) (*Instance, error) {
	f, b, err := i.field(errors.PhaseRead, name)
	if err != nil {
		return nil, err
	}
	if f.Field.Kind != schema.KindStruct || f.Field.Inline {
		return nil, errors.TypeMismatch(errors.PhaseRead, i.path(name), "*Instance", f.Field.TypeString())
	}
	v, err := i.deref(b, f)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, errors.NilPointer(errors.PhaseRead, i.path(name), "struct pointer")
	}
	out, _, err := i.typ.lib.Instantiate(v.typ)
	if err != nil {
		return nil, err
	}
	if err := v.refresh(); err != nil {
		return nil, err
	}
	copy(out.buf, v.buf)
	// pointer slots in the copy still reference memory i retains
	out.keep.link(i.keep)
	return out, nil
}

func enumValue(p schema.Primitive, bits uint64) int64 {
	if p.IsSigned() {
		return abi.SignExtend(bits, p.Width(0))
	}
	return int64(bits)
}
