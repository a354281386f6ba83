package cstruct

import (
	"reflect"
	"sort"
	"strconv"

	"github.com/wippyai/cstruct/errors"
	"github.com/wippyai/cstruct/internal/abi"
	"github.com/wippyai/cstruct/layout"
	"github.com/wippyai/cstruct/schema"
)

// Set writes a Go value into a member. Integers wrap to the member width.
// Accepted values by member type:
//
//	integers, enum       any Go integer, or an integral float (not bool)
//	f32, f64             any Go integer or float
//	bool                 bool or integer (non-zero is true)
//	string               string; "" or nil stores NULL
//	pointer              Address, uintptr, nil, []byte, *Instance or Callable
//	fn                   Callable, Address, uintptr or nil
//	T[n]                 slice or array of at most n elements
//	T[]                  slice (copied to retained memory), Address or nil
//	inline struct        *Instance of the same schema, or map[string]any
//	struct by reference  *Instance of the target schema, Address or nil
//
// Memory allocated for strings and slices is retained by the instance until
// the member is overwritten. An instance stored by reference is retained
// together with everything it retains; an instance copied into an inline
// member hands its retained memory to the destination.
func (i *Instance) Set(name string, v any) error {
	f, b, err := i.field(errors.PhaseWrite, name)
	if err != nil {
		return err
	}
	return i.set(b, f, v)
}

func (i *Instance) set(b Binding, f *layout.FieldInfo, v any) error {
	fd := f.Field
	path := i.path(f.Name)

	switch fd.Kind {
	case schema.KindPrimitive:
		switch fd.Type {
		case schema.String:
			return i.writeString(b, f.Offset, path, v)
		case schema.Pointer:
			return i.writePointer(b, f.Offset, path, fd.Type.CName(), v)
		}
		bits, ok := abi.Encode(fd.Type, v)
		if !ok {
			return errors.TypeMismatch(errors.PhaseWrite, path, abi.TypeName(v), fd.Type.CName())
		}
		return i.store(f.Offset, fd.Type, bits)

	case schema.KindEnum:
		bits, ok := abi.CoerceToBits(v)
		if !ok {
			return errors.TypeMismatch(errors.PhaseWrite, path, abi.TypeName(v), fd.TypeString())
		}
		return i.store(f.Offset, fd.Type, bits)

	case schema.KindFunc:
		switch v.(type) {
		case nil, Callable, Address, uintptr:
			return i.writePointer(b, f.Offset, path, "fn", v)
		}
		return errors.TypeMismatch(errors.PhaseWrite, path, abi.TypeName(v), "fn")

	case schema.KindArray:
		if fd.Length == 0 {
			return i.writeSlice(b, f, path, v)
		}
		return (&Array{inst: i, binding: b, field: f}).set(v)

	case schema.KindStruct:
		if fd.Inline {
			return i.writeInline(b, f, path, v)
		}
		return i.writeRef(b, f, path, v)
	}
	return errors.Unsupported(errors.PhaseWrite, path, "field kind "+fd.Kind.String())
}

func (i *Instance) writeString(b Binding, off uint32, path []string, v any) error {
	var s string
	switch x := v.(type) {
	case nil:
	case string:
		s = x
	default:
		return errors.TypeMismatch(errors.PhaseWrite, path, abi.TypeName(v), "const char*")
	}
	addr, cstr, err := i.cstring(b, s)
	if err != nil {
		return err
	}
	return i.storeAddress(off, addr, cstr)
}

// cstring copies s into retained NUL-terminated memory. The empty string
// maps to NULL.
func (i *Instance) cstring(b Binding, s string) (Address, []byte, error) {
	if s == "" {
		return 0, nil, nil
	}
	buf, err := i.typ.lib.alloc(uint32(len(s)+1), 1)
	if err != nil {
		return 0, nil, err
	}
	copy(buf, s)
	buf[len(s)] = 0
	addr, err := b.AddressOf(buf)
	if err != nil {
		return 0, nil, errors.Wrap(errors.PhaseBinding, errors.KindUnsupported, err, "string memory has no native address")
	}
	return addr, buf, nil
}

func (i *Instance) writePointer(b Binding, off uint32, path []string, ctype string, v any) error {
	addr, keep, err := i.pointerValue(b, path, ctype, v)
	if err != nil {
		return err
	}
	return i.storeAddress(off, addr, keep)
}

// pointerValue resolves v to an address and the Go value that must stay
// reachable while the address is stored.
func (i *Instance) pointerValue(b Binding, path []string, ctype string, v any) (Address, any, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil, nil
	case Address:
		return x, nil, nil
	case uintptr:
		return Address(x), nil, nil
	case *Instance:
		if x == nil {
			return 0, nil, nil
		}
		addr, err := x.base(b)
		if err != nil {
			return 0, nil, err
		}
		return addr, x, nil
	case []byte:
		if len(x) == 0 {
			return 0, nil, nil
		}
		addr, err := b.AddressOf(x)
		if err != nil {
			return 0, nil, errors.Wrap(errors.PhaseBinding, errors.KindUnsupported, err, "byte slice has no native address")
		}
		return addr, x, nil
	case Callable:
		return x.Pointer(), nil, nil
	}
	return 0, nil, errors.TypeMismatch(errors.PhaseWrite, path, abi.TypeName(v), ctype)
}

func (i *Instance) writeRef(b Binding, f *layout.FieldInfo, path []string, v any) error {
	target := i.typ.schema.Target(f.Field)
	switch x := v.(type) {
	case *Instance:
		if x != nil && x.typ.schema != target {
			return errors.TypeMismatch(errors.PhaseWrite, path, "*"+x.typ.Name(), "*"+target.Name())
		}
	case nil, Address, uintptr:
	default:
		return errors.TypeMismatch(errors.PhaseWrite, path, abi.TypeName(v), "*"+target.Name())
	}
	return i.writePointer(b, f.Offset, path, "*"+target.Name(), v)
}

func (i *Instance) writeInline(b Binding, f *layout.FieldInfo, path []string, v any) error {
	nested := f.Nested.Schema
	switch x := v.(type) {
	case *Instance:
		if x == nil {
			return errors.NilPointer(errors.PhaseWrite, path, "source struct")
		}
		if x.typ.schema != nested {
			return errors.TypeMismatch(errors.PhaseWrite, path, x.typ.Name(), nested.Name())
		}
		if err := x.refresh(); err != nil {
			return err
		}
		if err := i.refresh(); err != nil {
			return err
		}
		copy(i.buf[f.Offset:f.End()], x.buf)
		i.keep.adopt(x.keep, x.slotKey(0), i.slotKey(f.Offset), f.Size)
		return nil

	case map[string]any:
		sub, err := i.sub(b, f)
		if err != nil {
			return err
		}
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := sub.Set(k, x[k]); err != nil {
				return err
			}
		}
		return nil
	}
	return errors.TypeMismatch(errors.PhaseWrite, path, abi.TypeName(v), nested.Name())
}

// writeSlice stores an unbounded array. Slices are copied into retained
// memory whose address goes into the slot.
func (i *Instance) writeSlice(b Binding, f *layout.FieldInfo, path []string, v any) error {
	switch v.(type) {
	case nil, Address, uintptr:
		return i.writePointer(b, f.Offset, path, f.Field.TypeString(), v)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return errors.TypeMismatch(errors.PhaseWrite, path, abi.TypeName(v), f.Field.TypeString())
	}
	n := rv.Len()
	if n == 0 {
		return i.storeAddress(f.Offset, 0, nil)
	}

	elem := f.Elem
	size, ok := abi.SafeMulU32(uint32(n), elem)
	if !ok {
		return errors.OutOfBounds(errors.PhaseWrite, path, n, int(^uint32(0)/elem))
	}
	mem, err := i.typ.lib.alloc(size, elem)
	if err != nil {
		return err
	}
	addr, err := b.AddressOf(mem)
	if err != nil {
		return errors.Wrap(errors.PhaseBinding, errors.KindUnsupported, err, "array memory has no native address")
	}
	pending, err := i.encodeElems(b, path, f.Field.Type, mem, rv, func(k int) uintptr {
		return uintptr(addr) + uintptr(uint32(k)*elem)
	})
	if err != nil {
		return err
	}
	// element strings may have moved the memory mem was taken from
	if r, ok := b.(Remapper); ok && !r.Current(mem) {
		fresh, err := b.Bytes(addr, size)
		if err != nil {
			return errors.Wrap(errors.PhaseBinding, errors.KindOutOfBounds, err, "remap array memory")
		}
		copy(fresh, mem)
		mem = fresh
	}
	for _, p := range pending {
		i.keep.hold(p.slot, p.v)
	}
	return i.storeAddress(f.Offset, addr, mem)
}

type retained struct {
	v    any
	slot uintptr
}

// encodeElems encodes every element of vals into dst. Nothing outside dst
// is touched; buffers allocated for pointer-like elements are returned for
// the caller to retain once the write commits.
func (i *Instance) encodeElems(b Binding, path []string, p schema.Primitive, dst []byte, vals reflect.Value, slot func(int) uintptr) ([]retained, error) {
	w := p.Width(i.ptrSize())
	var pending []retained

	for k := 0; k < vals.Len(); k++ {
		v := vals.Index(k).Interface()
		off := uint32(k) * w
		elemPath := append(path[:len(path):len(path)], "["+strconv.Itoa(k)+"]")

		var bits uint64
		switch p {
		case schema.String:
			s, ok := v.(string)
			if !ok {
				return nil, errors.TypeMismatch(errors.PhaseWrite, elemPath, abi.TypeName(v), "const char*")
			}
			addr, cstr, err := i.cstring(b, s)
			if err != nil {
				return nil, err
			}
			bits = uint64(addr)
			pending = append(pending, retained{slot: slot(k), v: cstr})
		case schema.Pointer:
			addr, keep, err := i.pointerValue(b, elemPath, "void*", v)
			if err != nil {
				return nil, err
			}
			bits = uint64(addr)
			pending = append(pending, retained{slot: slot(k), v: keep})
		default:
			var ok bool
			bits, ok = abi.Encode(p, v)
			if !ok {
				return nil, errors.TypeMismatch(errors.PhaseWrite, elemPath, abi.TypeName(v), p.CName())
			}
		}
		if !abi.Store(dst, off, p, i.ptrSize(), bits) {
			return nil, errors.OutOfBounds(errors.PhaseWrite, path, k, len(dst)/int(w))
		}
	}
	return pending, nil
}
