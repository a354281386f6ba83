package cstruct

import (
	"math"

	"github.com/wippyai/cstruct/errors"
	"github.com/wippyai/cstruct/internal/abi"
	"github.com/wippyai/cstruct/layout"
	"github.com/wippyai/cstruct/schema"
)

// typed resolves a member and checks it against accept.
func (i *Instance) typed(phase errors.Phase, name, want string, accept func(schema.Field) bool) (*layout.FieldInfo, Binding, error) {
	f, b, err := i.field(phase, name)
	if err != nil {
		return nil, nil, err
	}
	if !accept(f.Field) {
		return nil, nil, errors.TypeMismatch(phase, i.path(name), want, f.Field.TypeString())
	}
	return f, b, nil
}

func isInteger(f schema.Field) bool {
	return (f.Kind == schema.KindPrimitive || f.Kind == schema.KindEnum) && f.Type.IsInteger()
}

func isFloat(f schema.Field) bool {
	return f.Kind == schema.KindPrimitive && f.Type.IsFloat()
}

func isAddress(f schema.Field) bool {
	return f.IsPointerSlot()
}

// Int reads an integer or enum member, sign-extending signed types.
func (i *Instance) Int(name string) (int64, error) {
	f, b, err := i.typed(errors.PhaseRead, name, "int64", isInteger)
	if err != nil {
		return 0, err
	}
	bits, err := i.loadBits(b, f.Offset, f.Field.Type)
	if err != nil {
		return 0, err
	}
	return enumValue(f.Field.Type, bits), nil
}

// SetInt writes an integer or enum member, wrapping to its width.
func (i *Instance) SetInt(name string, v int64) error {
	f, _, err := i.typed(errors.PhaseWrite, name, "int64", isInteger)
	if err != nil {
		return err
	}
	return i.store(f.Offset, f.Field.Type, uint64(v))
}

// Uint reads an integer or enum member as its unsigned bit pattern.
func (i *Instance) Uint(name string) (uint64, error) {
	f, b, err := i.typed(errors.PhaseRead, name, "uint64", isInteger)
	if err != nil {
		return 0, err
	}
	return i.loadBits(b, f.Offset, f.Field.Type)
}

func (i *Instance) SetUint(name string, v uint64) error {
	f, _, err := i.typed(errors.PhaseWrite, name, "uint64", isInteger)
	if err != nil {
		return err
	}
	return i.store(f.Offset, f.Field.Type, v)
}

// Float reads an f32 or f64 member.
func (i *Instance) Float(name string) (float64, error) {
	f, b, err := i.typed(errors.PhaseRead, name, "float64", isFloat)
	if err != nil {
		return 0, err
	}
	bits, err := i.loadBits(b, f.Offset, f.Field.Type)
	if err != nil {
		return 0, err
	}
	if f.Field.Type == schema.F32 {
		return float64(math.Float32frombits(uint32(bits))), nil
	}
	return math.Float64frombits(bits), nil
}

func (i *Instance) SetFloat(name string, v float64) error {
	f, _, err := i.typed(errors.PhaseWrite, name, "float64", isFloat)
	if err != nil {
		return err
	}
	bits, _ := abi.Encode(f.Field.Type, v)
	return i.store(f.Offset, f.Field.Type, bits)
}

func isBool(f schema.Field) bool {
	return f.Kind == schema.KindPrimitive && f.Type == schema.Bool
}

func (i *Instance) Bool(name string) (bool, error) {
	f, b, err := i.typed(errors.PhaseRead, name, "bool", isBool)
	if err != nil {
		return false, err
	}
	bits, err := i.loadBits(b, f.Offset, schema.Bool)
	return bits&0xff != 0, err
}

func (i *Instance) SetBool(name string, v bool) error {
	f, _, err := i.typed(errors.PhaseWrite, name, "bool", isBool)
	if err != nil {
		return err
	}
	var bits uint64
	if v {
		bits = 1
	}
	return i.store(f.Offset, schema.Bool, bits)
}

// String reads a string member; NULL reads as "".
func (i *Instance) String(name string) (string, error) {
	f, b, err := i.typed(errors.PhaseRead, name, "string", func(f schema.Field) bool {
		return f.Kind == schema.KindPrimitive && f.Type == schema.String
	})
	if err != nil {
		return "", err
	}
	return i.readString(b, f.Offset)
}

// SetString copies v into retained NUL-terminated memory and stores its
// address. The empty string stores NULL.
func (i *Instance) SetString(name string, v string) error {
	f, b, err := i.typed(errors.PhaseWrite, name, "string", func(f schema.Field) bool {
		return f.Kind == schema.KindPrimitive && f.Type == schema.String
	})
	if err != nil {
		return err
	}
	return i.writeString(b, f.Offset, i.path(name), v)
}

// Address reads the raw value of any pointer-sized member.
func (i *Instance) Address(name string) (Address, error) {
	f, b, err := i.typed(errors.PhaseRead, name, "Address", isAddress)
	if err != nil {
		return 0, err
	}
	return i.loadAddress(b, f.Offset)
}

// SetAddress stores a raw address in any pointer-sized member. Retained
// memory previously stored there is released.
func (i *Instance) SetAddress(name string, v Address) error {
	f, _, err := i.typed(errors.PhaseWrite, name, "Address", isAddress)
	if err != nil {
		return err
	}
	return i.storeAddress(f.Offset, v, nil)
}

// Struct returns an inline member as a sub-view, or a by-reference member
// as a view over its pointee (nil for NULL).
func (i *Instance) Struct(name string) (*Instance, error) {
	f, b, err := i.typed(errors.PhaseRead, name, "*Instance", func(f schema.Field) bool {
		return f.Kind == schema.KindStruct
	})
	if err != nil {
		return nil, err
	}
	if f.Field.Inline {
		return i.sub(b, f)
	}
	return i.deref(b, f)
}

// SetStruct copies v into an inline member, or stores v's address in a
// by-reference member. A nil v clears a by-reference member.
func (i *Instance) SetStruct(name string, v *Instance) error {
	f, b, err := i.typed(errors.PhaseWrite, name, "*Instance", func(f schema.Field) bool {
		return f.Kind == schema.KindStruct
	})
	if err != nil {
		return err
	}
	if f.Field.Inline {
		return i.writeInline(b, f, i.path(name), v)
	}
	return i.writeRef(b, f, i.path(name), v)
}

// Enum reads an enum member.
func (i *Instance) Enum(name string) (int64, error) {
	f, b, err := i.typed(errors.PhaseRead, name, "enum", func(f schema.Field) bool {
		return f.Kind == schema.KindEnum
	})
	if err != nil {
		return 0, err
	}
	bits, err := i.loadBits(b, f.Offset, f.Field.Type)
	if err != nil {
		return 0, err
	}
	return enumValue(f.Field.Type, bits), nil
}

func (i *Instance) SetEnum(name string, v int64) error {
	f, _, err := i.typed(errors.PhaseWrite, name, "enum", func(f schema.Field) bool {
		return f.Kind == schema.KindEnum
	})
	if err != nil {
		return err
	}
	return i.store(f.Offset, f.Field.Type, uint64(v))
}

// Array returns a view over an inline array member.
func (i *Instance) Array(name string) (*Array, error) {
	f, b, err := i.typed(errors.PhaseRead, name, "array", func(f schema.Field) bool {
		return f.Kind == schema.KindArray
	})
	if err != nil {
		return nil, err
	}
	if f.Field.Length == 0 {
		return nil, errors.Unsupported(errors.PhaseRead, i.path(name), "unbounded array has no length; read its address instead")
	}
	return &Array{inst: i, binding: b, field: f}, nil
}

// SetArray writes an inline array (prefix semantics) or an unbounded one.
func (i *Instance) SetArray(name string, v any) error {
	f, b, err := i.typed(errors.PhaseWrite, name, "array", func(f schema.Field) bool {
		return f.Kind == schema.KindArray
	})
	if err != nil {
		return err
	}
	return i.set(b, f, v)
}

// SetFunc stores a callable's address in a function pointer member. The
// caller keeps fn alive while native code may call it.
func (i *Instance) SetFunc(name string, fn Callable) error {
	f, b, err := i.typed(errors.PhaseWrite, name, "fn", func(f schema.Field) bool {
		return f.Kind == schema.KindFunc
	})
	if err != nil {
		return err
	}
	var v any
	if fn != nil {
		v = fn
	}
	return i.writePointer(b, f.Offset, i.path(name), "fn", v)
}
