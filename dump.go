package cstruct

import (
	"encoding/json"

	"github.com/wippyai/cstruct/errors"
	"github.com/wippyai/cstruct/layout"
	"github.com/wippyai/cstruct/schema"
)

// Dump returns the instance as a tree of plain values for diagnostics.
// Pointer-sized members render as hex strings (nil for NULL), inline and
// referenced structs as nested maps. A struct pointer leading back to a
// struct already on the current path renders as "<cycle 0x...>".
func (i *Instance) Dump() (map[string]any, error) {
	b, err := i.bind(errors.PhaseRead)
	if err != nil {
		return nil, err
	}
	visiting := make(map[Address]bool)
	if addr, err := i.base(b); err == nil {
		visiting[addr] = true
	}
	return i.dump(b, visiting)
}

// MarshalJSON encodes Dump as JSON.
func (i *Instance) MarshalJSON() ([]byte, error) {
	tree, err := i.Dump()
	if err != nil {
		return nil, err
	}
	return json.Marshal(tree)
}

func (i *Instance) dump(b Binding, visiting map[Address]bool) (map[string]any, error) {
	out := make(map[string]any, len(i.typ.info.Fields))
	for k := range i.typ.info.Fields {
		f := &i.typ.info.Fields[k]
		v, err := i.dumpField(b, f, visiting)
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}
	return out, nil
}

func (i *Instance) dumpField(b Binding, f *layout.FieldInfo, visiting map[Address]bool) (any, error) {
	fd := f.Field
	switch {
	case fd.Kind == schema.KindStruct && fd.Inline:
		sub, err := i.sub(b, f)
		if err != nil {
			return nil, err
		}
		return sub.dump(b, visiting)

	case fd.Kind == schema.KindStruct:
		addr, err := i.loadAddress(b, f.Offset)
		if err != nil || addr.IsNull() {
			return nil, err
		}
		if visiting[addr] {
			return "<cycle " + addr.String() + ">", nil
		}
		target, err := i.deref(b, f)
		if err != nil {
			return nil, err
		}
		visiting[addr] = true
		defer delete(visiting, addr)
		return target.dump(b, visiting)
	}

	v, err := i.get(b, f)
	if err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case Address:
		if x.IsNull() {
			return nil, nil
		}
		return x.String(), nil
	case []Address:
		hex := make([]any, len(x))
		for k, a := range x {
			if !a.IsNull() {
				hex[k] = a.String()
			}
		}
		return hex, nil
	}
	return v, nil
}
