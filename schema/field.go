package schema

import (
	"reflect"
	"strconv"
)

// Field describes one member of a C struct. Name is assigned from the
// Fields map key when the schema is built.
type Field struct {
	Struct  *Schema // struct target; nil when Self is set
	Default any     // initial value written by Instantiate; scalars and enums only
	Name    string
	Order   int
	Length  int // array length; 0 means unbounded (pointer slot)
	Kind    Kind
	Type    Primitive // primitive type, array element or enum backing integer
	Fixed   bool      // array declared with an explicit length
	Inline  bool      // struct bytes embedded in the parent
	Self    bool      // struct target is the enclosing schema
}

// Fields maps member names to their specs.
type Fields map[string]Field

// Prim declares a primitive member.
func Prim(order int, p Primitive) Field {
	return Field{Order: order, Kind: KindPrimitive, Type: p}
}

func Int8(order int) Field    { return Prim(order, I8) }
func Int16(order int) Field   { return Prim(order, I16) }
func Int32(order int) Field   { return Prim(order, I32) }
func Int64(order int) Field   { return Prim(order, I64) }
func Uint8(order int) Field   { return Prim(order, U8) }
func Uint16(order int) Field  { return Prim(order, U16) }
func Uint32(order int) Field  { return Prim(order, U32) }
func Uint64(order int) Field  { return Prim(order, U64) }
func Float32(order int) Field { return Prim(order, F32) }
func Float64(order int) Field { return Prim(order, F64) }
func Boolean(order int) Field { return Prim(order, Bool) }
func Ptr(order int) Field     { return Prim(order, Pointer) }
func CString(order int) Field { return Prim(order, String) }

// Array declares a fixed-length array stored inline.
func Array(order int, elem Primitive, length int) Field {
	return Field{Order: order, Kind: KindArray, Type: elem, Length: length, Fixed: true}
}

// Slice declares an unbounded array stored as a pointer to external memory.
func Slice(order int, elem Primitive) Field {
	return Field{Order: order, Kind: KindArray, Type: elem}
}

// Inline embeds the bytes of s in the parent.
func Inline(order int, s *Schema) Field {
	return Field{Order: order, Kind: KindStruct, Struct: s, Inline: true}
}

// Ref stores a pointer to an s elsewhere in memory.
func Ref(order int, s *Schema) Field {
	return Field{Order: order, Kind: KindStruct, Struct: s}
}

// SelfRef stores a pointer to another instance of the enclosing schema.
func SelfRef(order int) Field {
	return Field{Order: order, Kind: KindStruct, Self: true}
}

// Enum declares an enum backed by a 4-byte unsigned integer.
func Enum(order int) Field {
	return EnumOf(order, U32)
}

// EnumOf declares an enum with an explicit integer backing.
func EnumOf(order int, backing Primitive) Field {
	return Field{Order: order, Kind: KindEnum, Type: backing}
}

// Func declares a function pointer slot.
func Func(order int) Field {
	return Field{Order: order, Kind: KindFunc}
}

// WithDefault returns f with an initial value. Integer and enum fields take
// Go integers (or integral floats), float fields any number, and bool fields
// a bool or an integer.
func (f Field) WithDefault(v any) Field {
	f.Default = v
	return f
}

// acceptsDefault reports whether v can initialize a member of type p,
// following the coercions writes apply.
func acceptsDefault(p Primitive, v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return p.IsInteger() || p.IsFloat() || p == Bool
	case reflect.Float32, reflect.Float64:
		if p.IsFloat() {
			return true
		}
		x := rv.Float()
		return p.IsInteger() && x == float64(int64(x))
	case reflect.Bool:
		return p == Bool
	}
	return false
}

// IsPointerSlot reports whether the field is stored as a single pointer.
func (f Field) IsPointerSlot() bool {
	switch f.Kind {
	case KindPrimitive:
		return f.Type.IsPointer()
	case KindArray:
		return f.Length == 0
	case KindStruct:
		return !f.Inline
	case KindFunc:
		return true
	}
	return false
}

// TypeString renders the field type the way schema documents spell it.
func (f Field) TypeString() string {
	switch f.Kind {
	case KindPrimitive:
		return f.Type.String()
	case KindArray:
		if f.Length == 0 {
			return f.Type.String() + "[]"
		}
		return f.Type.String() + "[" + strconv.Itoa(f.Length) + "]"
	case KindStruct:
		name := "self"
		if !f.Self && f.Struct != nil {
			name = f.Struct.Name()
		}
		if f.Inline {
			return name
		}
		return "*" + name
	case KindEnum:
		return "enum<" + f.Type.String() + ">"
	case KindFunc:
		return "fn"
	}
	return "unknown"
}
