package schema

// Primitive is a scalar C type.
type Primitive uint8

const (
	Invalid Primitive = iota
	I8
	I16
	I32
	I64
	U8
	U16
	U32
	U64
	F32
	F64
	Bool
	Pointer // opaque void*
	String  // const char*, externally owned NUL-terminated UTF-8
)

var primitiveNames = [...]string{
	Invalid: "invalid",
	I8:      "i8",
	I16:     "i16",
	I32:     "i32",
	I64:     "i64",
	U8:      "u8",
	U16:     "u16",
	U32:     "u32",
	U64:     "u64",
	F32:     "f32",
	F64:     "f64",
	Bool:    "bool",
	Pointer: "pointer",
	String:  "string",
}

var primitiveCNames = [...]string{
	Invalid: "?",
	I8:      "int8_t",
	I16:     "int16_t",
	I32:     "int32_t",
	I64:     "int64_t",
	U8:      "uint8_t",
	U16:     "uint16_t",
	U32:     "uint32_t",
	U64:     "uint64_t",
	F32:     "float",
	F64:     "double",
	Bool:    "bool",
	Pointer: "void*",
	String:  "const char*",
}

func (p Primitive) String() string {
	if int(p) < len(primitiveNames) {
		return primitiveNames[p]
	}
	return "unknown"
}

// CName returns the C spelling used in diagnostics.
func (p Primitive) CName() string {
	if int(p) < len(primitiveCNames) {
		return primitiveCNames[p]
	}
	return "?"
}

func (p Primitive) Valid() bool {
	return p > Invalid && p <= String
}

func (p Primitive) IsSigned() bool {
	return p >= I8 && p <= I64
}

func (p Primitive) IsInteger() bool {
	return p >= I8 && p <= U64
}

func (p Primitive) IsFloat() bool {
	return p == F32 || p == F64
}

// IsPointer reports whether the primitive occupies a pointer-sized slot.
func (p Primitive) IsPointer() bool {
	return p == Pointer || p == String
}

// Width returns the byte width; pointer-like primitives take ptrSize.
func (p Primitive) Width(ptrSize uint32) uint32 {
	switch p {
	case I8, U8, Bool:
		return 1
	case I16, U16:
		return 2
	case I32, U32, F32:
		return 4
	case I64, U64, F64:
		return 8
	case Pointer, String:
		return ptrSize
	default:
		return 0
	}
}

// ParsePrimitive resolves the short names returned by Primitive.String.
func ParsePrimitive(name string) (Primitive, bool) {
	for i := I8; i <= String; i++ {
		if primitiveNames[i] == name {
			return i, true
		}
	}
	return Invalid, false
}

// Kind discriminates field specs.
type Kind uint8

const (
	KindPrimitive Kind = iota
	KindArray
	KindStruct
	KindEnum
	KindFunc
)

var kindNames = [...]string{
	KindPrimitive: "primitive",
	KindArray:     "array",
	KindStruct:    "struct",
	KindEnum:      "enum",
	KindFunc:      "fn",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}
