package cstruct

import (
	"reflect"

	"github.com/wippyai/cstruct/errors"
	"github.com/wippyai/cstruct/internal/abi"
	"github.com/wippyai/cstruct/layout"
	"github.com/wippyai/cstruct/schema"
)

// Array is a typed view over an inline array member. It shares bytes with
// its instance.
type Array struct {
	inst    *Instance
	binding Binding
	field   *layout.FieldInfo
}

// Len returns the declared element count.
func (a *Array) Len() int {
	return a.field.Field.Length
}

// Elem returns the element primitive.
func (a *Array) Elem() schema.Primitive {
	return a.field.Field.Type
}

func (a *Array) offset(k int) uint32 {
	return a.field.Offset + uint32(k)*a.field.Elem
}

func (a *Array) check(phase errors.Phase, k int) error {
	if k < 0 || k >= a.Len() {
		return errors.OutOfBounds(phase, a.inst.path(a.field.Name), k, a.Len())
	}
	return nil
}

// At reads element k.
func (a *Array) At(k int) (any, error) {
	if err := a.check(errors.PhaseRead, k); err != nil {
		return nil, err
	}
	if a.Elem() == schema.String {
		return a.inst.readString(a.binding, a.offset(k))
	}
	return a.inst.load(a.binding, a.offset(k), a.Elem())
}

// SetAt writes element k.
func (a *Array) SetAt(k int, v any) error {
	if err := a.check(errors.PhaseWrite, k); err != nil {
		return err
	}
	one := reflect.ValueOf([]any{v})
	return a.write(one, k)
}

// Values returns all elements as a typed slice ([]int32, []float64,
// []bool, []Address, []string, ...).
func (a *Array) Values() (any, error) {
	n := a.Len()
	switch a.Elem() {
	case schema.I8:
		return collect[int8](a, n)
	case schema.I16:
		return collect[int16](a, n)
	case schema.I32:
		return collect[int32](a, n)
	case schema.I64:
		return collect[int64](a, n)
	case schema.U8:
		return collect[uint8](a, n)
	case schema.U16:
		return collect[uint16](a, n)
	case schema.U32:
		return collect[uint32](a, n)
	case schema.U64:
		return collect[uint64](a, n)
	case schema.F32:
		return collect[float32](a, n)
	case schema.F64:
		return collect[float64](a, n)
	case schema.Bool:
		return collect[bool](a, n)
	case schema.Pointer:
		return collect[Address](a, n)
	case schema.String:
		return collect[string](a, n)
	}
	return nil, errors.Unsupported(errors.PhaseRead, a.inst.path(a.field.Name), "array element "+a.Elem().String())
}

func collect[T any](a *Array, n int) ([]T, error) {
	out := make([]T, n)
	for k := range out {
		v, err := a.At(k)
		if err != nil {
			return nil, err
		}
		t, ok := v.(T)
		if !ok {
			var zero T
			return nil, errors.TypeMismatch(errors.PhaseRead, a.inst.path(a.field.Name), abi.TypeName(v), abi.TypeName(zero))
		}
		out[k] = t
	}
	return out, nil
}

// set replaces the leading elements with v. A value longer than the array
// fails before any byte is written; a shorter one leaves the tail as is.
func (a *Array) set(v any) error {
	path := a.inst.path(a.field.Name)
	if v == nil {
		return errors.TypeMismatch(errors.PhaseWrite, path, "nil", a.field.Field.TypeString())
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return errors.TypeMismatch(errors.PhaseWrite, path, abi.TypeName(v), a.field.Field.TypeString())
	}
	if rv.Len() > a.Len() {
		return errors.LengthMismatch(path, rv.Len(), a.Len())
	}
	return a.write(rv, 0)
}

func (a *Array) write(vals reflect.Value, start int) error {
	inst := a.inst
	first := a.offset(start)
	end := first + uint32(vals.Len())*a.field.Elem

	if err := inst.refresh(); err != nil {
		return err
	}
	scratch := make([]byte, end-first)
	copy(scratch, inst.buf[first:end])

	pending, err := inst.encodeElems(a.binding, inst.path(a.field.Name), a.Elem(), scratch, vals, func(k int) uintptr {
		return inst.slotKey(a.offset(start + k))
	})
	if err != nil {
		return err
	}
	if err := inst.refresh(); err != nil {
		return err
	}
	copy(inst.buf[first:end], scratch)
	for _, p := range pending {
		inst.keep.hold(p.slot, p.v)
	}
	return nil
}
