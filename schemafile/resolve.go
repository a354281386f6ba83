package schemafile

import (
	"sort"

	"github.com/wippyai/cstruct/errors"
	"github.com/wippyai/cstruct/schema"
)

type visitState uint8

const (
	unvisited visitState = iota
	visiting
	done
)

// resolver builds schemas depth-first so that every struct target exists
// before the struct that names it.
type resolver struct {
	defs   map[string]*StructDef
	state  map[string]visitState
	built  map[string]*schema.Schema
	order  []*schema.Schema
	parsed map[string][]typeExpr
}

// Schemas builds every struct in the document. The result is in dependency
// order: targets precede the structs that reference them.
func (d *Document) Schemas() ([]*schema.Schema, error) {
	r := &resolver{
		defs:   make(map[string]*StructDef, len(d.Structs)),
		state:  make(map[string]visitState, len(d.Structs)),
		built:  make(map[string]*schema.Schema, len(d.Structs)),
		parsed: make(map[string][]typeExpr, len(d.Structs)),
	}

	for i := range d.Structs {
		def := &d.Structs[i]
		if def.Name == "" {
			return nil, errors.InvalidData(errors.PhaseLoad, nil, "struct without a name")
		}
		if _, dup := r.defs[def.Name]; dup {
			return nil, errors.InvalidData(errors.PhaseLoad, []string{def.Name}, "duplicate struct definition")
		}
		r.defs[def.Name] = def

		exprs := make([]typeExpr, len(def.Fields))
		for k, f := range def.Fields {
			e, err := parseType(f.Type)
			if err != nil {
				return nil, errors.New(errors.PhaseLoad, errors.KindInvalidData).
					Path(def.Name, f.Name).
					Detail("field type %q", f.Type).
					Cause(err).
					Build()
			}
			if e.ref && e.target == def.Name {
				e.self, e.target = true, ""
			}
			exprs[k] = e
		}
		r.parsed[def.Name] = exprs
	}

	for _, def := range d.Structs {
		if err := r.visit(def.Name, nil); err != nil {
			return nil, err
		}
	}
	return r.order, nil
}

func (r *resolver) visit(name string, chain []string) error {
	switch r.state[name] {
	case done:
		return nil
	case visiting:
		return errors.Schema(append(chain, name), "struct dependency cycle")
	}

	def, ok := r.defs[name]
	if !ok {
		err := errors.NotFound(errors.PhaseLoad, "struct", name)
		err.Path = chain
		return err
	}

	r.state[name] = visiting
	chain = append(chain, name)

	exprs := r.parsed[name]
	for _, e := range exprs {
		if e.kind == schema.KindStruct && !e.self {
			if err := r.visit(e.target, chain); err != nil {
				return err
			}
		}
	}

	fields := make(schema.Fields, len(def.Fields))
	for k, f := range def.Fields {
		order := k
		if f.Order != nil {
			order = *f.Order
		}
		if _, dup := fields[f.Name]; dup {
			return errors.Schema([]string{name, f.Name}, "duplicate field name")
		}
		field := exprs[k].field(order, r.built)
		if f.Default != nil {
			field = field.WithDefault(f.Default)
		}
		fields[f.Name] = field
	}

	var (
		s   *schema.Schema
		err error
	)
	if def.Union {
		s, err = schema.NewUnion(name, fields)
	} else {
		s, err = schema.New(name, fields)
	}
	if err != nil {
		return err
	}

	r.state[name] = done
	r.built[name] = s
	r.order = append(r.order, s)
	return nil
}

// Names returns the struct names defined by the document, sorted.
func (d *Document) Names() []string {
	names := make([]string, 0, len(d.Structs))
	for _, s := range d.Structs {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}
