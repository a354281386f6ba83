package schema

import (
	"sort"

	"github.com/wippyai/cstruct/errors"
)

// Schema is a validated, immutable C struct or union description.
type Schema struct {
	index  map[string]int
	name   string
	fields []Field
	union  bool
}

// New validates fields and returns a struct schema. Fields are ordered by
// their Order values, which must be a permutation of 0..n-1.
func New(name string, fields Fields) (*Schema, error) {
	return build(name, fields, false)
}

// NewUnion returns a schema whose members all start at offset 0.
func NewUnion(name string, fields Fields) (*Schema, error) {
	return build(name, fields, true)
}

// MustNew is like New but panics on an invalid schema. Intended for
// package-level declarations.
func MustNew(name string, fields Fields) *Schema {
	s, err := New(name, fields)
	if err != nil {
		panic(err)
	}
	return s
}

// MustNewUnion is like NewUnion but panics on an invalid schema.
func MustNewUnion(name string, fields Fields) *Schema {
	s, err := NewUnion(name, fields)
	if err != nil {
		panic(err)
	}
	return s
}

func build(name string, fields Fields, union bool) (*Schema, error) {
	if name == "" {
		return nil, errors.Schema(nil, "schema name is empty")
	}
	if len(fields) == 0 {
		return nil, errors.Schema([]string{name}, "schema declares no fields")
	}

	n := len(fields)
	ordered := make([]Field, n)
	seen := make([]string, n)

	// map iteration is random; sort names so error messages are stable
	names := make([]string, 0, n)
	for fname := range fields {
		names = append(names, fname)
	}
	sort.Strings(names)

	defaults := ""
	for _, fname := range names {
		f := fields[fname]
		path := []string{name, fname}
		if fname == "" {
			return nil, errors.Schema([]string{name}, "field name is empty")
		}
		if f.Order < 0 || f.Order >= n {
			return nil, errors.Schema(path, "order %d outside 0..%d", f.Order, n-1)
		}
		if prev := seen[f.Order]; prev != "" {
			return nil, errors.Schema(path, "duplicate order %d (also used by %q)", f.Order, prev)
		}
		if err := validateField(path, f); err != nil {
			return nil, err
		}
		if f.Default != nil {
			if err := validateDefault(path, f); err != nil {
				return nil, err
			}
			// union members share bytes, so a second default would clobber the first
			if union && defaults != "" {
				return nil, errors.Schema(path, "union already has a default on %q", defaults)
			}
			defaults = fname
		}
		f.Name = fname
		seen[f.Order] = fname
		ordered[f.Order] = f
	}

	s := &Schema{
		name:   name,
		fields: ordered,
		union:  union,
		index:  make(map[string]int, n),
	}
	for i, f := range ordered {
		s.index[f.Name] = i
	}
	return s, nil
}

func validateField(path []string, f Field) error {
	switch f.Kind {
	case KindPrimitive:
		if !f.Type.Valid() {
			return errors.Schema(path, "invalid primitive type %d", f.Type)
		}
	case KindArray:
		if !f.Type.Valid() {
			return errors.Schema(path, "invalid array element type %d", f.Type)
		}
		if f.Length < 0 {
			return errors.Schema(path, "negative array length %d", f.Length)
		}
		if f.Fixed && f.Length == 0 {
			return errors.Schema(path, "fixed array length must be positive")
		}
	case KindStruct:
		if f.Self {
			if f.Inline {
				return errors.Schema(path, "struct cannot embed itself inline")
			}
			return nil
		}
		if f.Struct == nil {
			return errors.Schema(path, "struct field has no target schema")
		}
		if f.Struct.index == nil {
			return errors.Schema(path, "struct target %q was not built with schema.New", f.Struct.name)
		}
	case KindEnum:
		if !f.Type.IsInteger() {
			return errors.Schema(path, "enum backing type %s is not an integer", f.Type)
		}
	case KindFunc:
	default:
		return errors.Schema(path, "unknown field kind %d", f.Kind)
	}
	return nil
}

func validateDefault(path []string, f Field) error {
	switch {
	case f.Kind == KindEnum:
	case f.Kind == KindPrimitive && !f.Type.IsPointer():
	default:
		return errors.Schema(path, "%s field cannot have a default", f.TypeString())
	}
	if !acceptsDefault(f.Type, f.Default) {
		return errors.Schema(path, "default %v (%T) does not fit %s", f.Default, f.Default, f.TypeString())
	}
	return nil
}

func (s *Schema) Name() string {
	return s.name
}

// Union reports whether all members share offset 0.
func (s *Schema) Union() bool {
	return s.union
}

func (s *Schema) Len() int {
	return len(s.fields)
}

// Fields returns the members in layout order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field looks up a member by name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// FieldAt returns the member with the given order.
func (s *Schema) FieldAt(order int) Field {
	return s.fields[order]
}

// Target resolves the schema a struct field points at or embeds.
func (s *Schema) Target(f Field) *Schema {
	if f.Self {
		return s
	}
	return f.Struct
}
