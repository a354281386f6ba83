package schemafile

import (
	"fmt"
	"strconv"
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/cstruct/schema"
)

// typeExpr is a parsed field type before struct names are resolved.
type typeExpr struct {
	target string // struct name for struct members
	kind   schema.Kind
	prim   schema.Primitive
	length int
	fixed  bool
	ref    bool
	self   bool
}

var cAliases = map[string]schema.Primitive{
	"int8_t":             schema.I8,
	"signed char":        schema.I8,
	"char":               schema.I8,
	"int16_t":            schema.I16,
	"short":              schema.I16,
	"int32_t":            schema.I32,
	"int":                schema.I32,
	"int64_t":            schema.I64,
	"long long":          schema.I64,
	"uint8_t":            schema.U8,
	"unsigned char":      schema.U8,
	"uint16_t":           schema.U16,
	"unsigned short":     schema.U16,
	"uint32_t":           schema.U32,
	"unsigned":           schema.U32,
	"unsigned int":       schema.U32,
	"uint64_t":           schema.U64,
	"unsigned long long": schema.U64,
	"float":              schema.F32,
	"double":             schema.F64,
	"_Bool":              schema.Bool,
	"void*":              schema.Pointer,
	"*void":              schema.Pointer,
	"char*":              schema.String,
	"const char*":        schema.String,
}

// parsePrimitive resolves short names, C spellings and WIT primitives.
func parsePrimitive(name string) (schema.Primitive, bool) {
	if p, ok := schema.ParsePrimitive(name); ok {
		return p, true
	}
	if p, ok := cAliases[name]; ok {
		return p, true
	}
	t, err := wit.ParseType(name)
	if err != nil {
		return schema.Invalid, false
	}
	switch t.(type) {
	case wit.Bool:
		return schema.Bool, true
	case wit.S8:
		return schema.I8, true
	case wit.S16:
		return schema.I16, true
	case wit.S32:
		return schema.I32, true
	case wit.S64:
		return schema.I64, true
	case wit.U8:
		return schema.U8, true
	case wit.U16:
		return schema.U16, true
	case wit.U32:
		return schema.U32, true
	case wit.U64:
		return schema.U64, true
	case wit.F32:
		return schema.F32, true
	case wit.F64:
		return schema.F64, true
	case wit.Char:
		return schema.U32, true
	case wit.String:
		return schema.String, true
	}
	return schema.Invalid, false
}

func parseType(s string) (typeExpr, error) {
	s = strings.ReplaceAll(strings.Join(strings.Fields(s), " "), " *", "*")
	if s == "" {
		return typeExpr{}, fmt.Errorf("empty type")
	}

	switch {
	case s == "fn":
		return typeExpr{kind: schema.KindFunc}, nil

	case s == "enum":
		return typeExpr{kind: schema.KindEnum, prim: schema.U32}, nil

	case strings.HasPrefix(s, "enum<") && strings.HasSuffix(s, ">"):
		inner := strings.TrimSpace(s[len("enum<") : len(s)-1])
		p, ok := parsePrimitive(inner)
		if !ok || !p.IsInteger() {
			return typeExpr{}, fmt.Errorf("enum backing type %q is not an integer", inner)
		}
		return typeExpr{kind: schema.KindEnum, prim: p}, nil

	case strings.HasSuffix(s, "]"):
		open := strings.LastIndexByte(s, '[')
		if open <= 0 {
			return typeExpr{}, fmt.Errorf("malformed array type %q", s)
		}
		elem := strings.TrimSpace(s[:open])
		p, ok := parsePrimitive(elem)
		if !ok {
			return typeExpr{}, fmt.Errorf("unknown array element type %q", elem)
		}
		n := strings.TrimSpace(s[open+1 : len(s)-1])
		if n == "" {
			return typeExpr{kind: schema.KindArray, prim: p}, nil
		}
		length, err := strconv.Atoi(n)
		if err != nil || length <= 0 {
			return typeExpr{}, fmt.Errorf("invalid array length %q", n)
		}
		return typeExpr{kind: schema.KindArray, prim: p, length: length, fixed: true}, nil
	}

	if p, ok := parsePrimitive(s); ok {
		return typeExpr{kind: schema.KindPrimitive, prim: p}, nil
	}

	if strings.HasPrefix(s, "*") {
		name := strings.TrimSpace(s[1:])
		if name == "self" {
			return typeExpr{kind: schema.KindStruct, ref: true, self: true}, nil
		}
		if !isIdent(name) {
			return typeExpr{}, fmt.Errorf("invalid struct name %q", name)
		}
		return typeExpr{kind: schema.KindStruct, ref: true, target: name}, nil
	}

	if s == "self" {
		return typeExpr{}, fmt.Errorf("struct cannot embed itself inline")
	}
	if !isIdent(s) {
		return typeExpr{}, fmt.Errorf("unknown type %q", s)
	}
	return typeExpr{kind: schema.KindStruct, target: s}, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for k, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case k > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

// field turns a resolved expression into a field spec.
func (e typeExpr) field(order int, structs map[string]*schema.Schema) schema.Field {
	switch e.kind {
	case schema.KindFunc:
		return schema.Func(order)
	case schema.KindEnum:
		return schema.EnumOf(order, e.prim)
	case schema.KindArray:
		if e.fixed {
			return schema.Array(order, e.prim, e.length)
		}
		return schema.Slice(order, e.prim)
	case schema.KindStruct:
		if e.self {
			return schema.SelfRef(order)
		}
		if e.ref {
			return schema.Ref(order, structs[e.target])
		}
		return schema.Inline(order, structs[e.target])
	}
	return schema.Prim(order, e.prim)
}
