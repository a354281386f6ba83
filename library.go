package cstruct

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/cstruct/errors"
	"github.com/wippyai/cstruct/internal/abi"
	"github.com/wippyai/cstruct/layout"
	"github.com/wippyai/cstruct/schema"
)

// Library owns registered struct types and the memory binding their
// instances use.
type Library struct {
	binding  Binding
	calc     *layout.Calculator
	log      *zap.Logger
	types    map[string]*Type
	bySchema map[*schema.Schema]*Type
	model    layout.DataModel
	mu       sync.RWMutex
}

// Option configures a Library.
type Option func(*config)

type config struct {
	log   *zap.Logger
	model layout.DataModel
}

// WithDataModel fixes the pointer width used for layouts. Without it the
// binding's model is used, or LP64 when there is none.
func WithDataModel(m layout.DataModel) Option {
	return func(c *config) {
		c.model = m
	}
}

// WithLogger sets the logger for registration and binding events.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		c.log = l
	}
}

// New creates a library. b may be nil and installed later with Setup.
func New(b Binding, opts ...Option) (*Library, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.model.PointerSize == 0 {
		cfg.model = layout.LP64
		if m, ok := b.(DataModeler); ok {
			cfg.model = m.DataModel()
		}
	}
	if cfg.log == nil {
		cfg.log = Logger()
	}

	lib := &Library{
		calc:     layout.NewCalculator(cfg.model),
		log:      cfg.log,
		model:    cfg.model,
		types:    make(map[string]*Type),
		bySchema: make(map[*schema.Schema]*Type),
	}
	if b != nil {
		if err := lib.Setup(b); err != nil {
			return nil, err
		}
	}
	return lib, nil
}

// Setup installs the memory binding. It can be called once; a binding
// whose data model differs from the library's is rejected.
func (l *Library) Setup(b Binding) error {
	if b == nil {
		return errors.NilPointer(errors.PhaseBinding, nil, "binding")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.binding != nil {
		return errors.New(errors.PhaseBinding, errors.KindInvalidData).
			Detail("binding already configured").
			Build()
	}
	if m, ok := b.(DataModeler); ok && m.DataModel() != l.model {
		return errors.New(errors.PhaseBinding, errors.KindUnsupported).
			Detail("binding data model %s does not match library data model %s", m.DataModel(), l.model).
			Build()
	}
	l.binding = b
	l.log.Debug("binding configured",
		zap.String("model", l.model.String()),
		zap.Bool("allocator", isAllocator(b)))
	return nil
}

// Binding returns the configured binding, or nil.
func (l *Library) Binding() Binding {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.binding
}

func (l *Library) Model() layout.DataModel {
	return l.model
}

// Register builds a struct schema from fields and registers it under name.
func (l *Library) Register(name string, fields schema.Fields) (*Type, error) {
	s, err := schema.New(name, fields)
	if err != nil {
		return nil, err
	}
	return l.RegisterSchema(s)
}

// RegisterUnion is Register for C unions.
func (l *Library) RegisterUnion(name string, fields schema.Fields) (*Type, error) {
	s, err := schema.NewUnion(name, fields)
	if err != nil {
		return nil, err
	}
	return l.RegisterSchema(s)
}

// MustRegister is like Register but panics on error.
func (l *Library) MustRegister(name string, fields schema.Fields) *Type {
	t, err := l.Register(name, fields)
	if err != nil {
		panic(err)
	}
	return t
}

// RegisterSchema computes the layout of s and registers it by name.
// Registering the same schema twice returns the existing type.
func (l *Library) RegisterSchema(s *schema.Schema) (*Type, error) {
	if s == nil {
		return nil, errors.Schema(nil, "nil schema")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.types[s.Name()]; ok {
		if existing.schema == s {
			return existing, nil
		}
		return nil, errors.Schema([]string{s.Name()}, "type already registered")
	}

	t, err := l.typeOfLocked(s)
	if err != nil {
		return nil, err
	}
	l.types[s.Name()] = t
	l.log.Debug("struct registered",
		zap.String("type", s.Name()),
		zap.Uint32("size", t.info.Size),
		zap.Uint32("align", t.info.Align),
		zap.Bool("union", s.Union()))
	return t, nil
}

// Lookup returns a registered type by name.
func (l *Library) Lookup(name string) (*Type, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.types[name]
	return t, ok
}

// Types returns the registered type names in sorted order.
func (l *Library) Types() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.types))
	for name := range l.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// typeOf returns the type for any schema reachable from a registered one.
// Nested schemas get a type on first use without being registered by name.
func (l *Library) typeOf(s *schema.Schema) (*Type, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.typeOfLocked(s)
}

func (l *Library) typeOfLocked(s *schema.Schema) (*Type, error) {
	if t, ok := l.bySchema[s]; ok {
		return t, nil
	}
	info, err := l.calc.Calculate(s)
	if err != nil {
		return nil, err
	}
	t := &Type{lib: l, schema: s, info: info}
	l.bySchema[s] = t
	return t, nil
}

// Instantiate allocates a zero-filled buffer of the type's size, writes the
// field defaults and returns an owned instance over it together with the
// buffer. Storage comes from the binding when it implements Allocator,
// otherwise from the Go heap.
func (l *Library) Instantiate(t *Type) (*Instance, []byte, error) {
	if t == nil {
		return nil, nil, errors.NilPointer(errors.PhaseWrite, nil, "type")
	}
	if t.lib != l {
		return nil, nil, errors.Unsupported(errors.PhaseWrite, []string{t.Name()}, "type belongs to another library")
	}

	b := l.Binding()
	buf, err := allocWith(b, t.info.Size, t.info.Align)
	if err != nil {
		return nil, nil, err
	}
	inst := &Instance{
		typ:  t,
		buf:  buf,
		keep: newRetainer(),
	}
	if isAllocator(b) {
		addr, err := b.AddressOf(buf)
		if err != nil {
			return nil, nil, errors.Wrap(errors.PhaseBinding, errors.KindUnsupported, err, "allocated memory has no native address")
		}
		inst.binding = b
		inst.addr = addr
		inst.mapped = true
	}
	if err := inst.applyDefaults(t.info, 0); err != nil {
		return nil, nil, err
	}
	return inst, buf, nil
}

// applyDefaults writes the declared field defaults of info, and of inline
// members nested in it, at base.
func (i *Instance) applyDefaults(info *layout.Info, base uint32) error {
	for k := range info.Fields {
		f := &info.Fields[k]
		if f.Nested != nil && f.Field.Inline {
			if err := i.applyDefaults(f.Nested, base+f.Offset); err != nil {
				return err
			}
			continue
		}
		if f.Field.Default == nil {
			continue
		}
		bits, ok := abi.Encode(f.Field.Type, f.Field.Default)
		if !ok {
			return errors.TypeMismatch(errors.PhaseWrite, i.path(f.Name), abi.TypeName(f.Field.Default), f.Field.TypeString())
		}
		if err := i.store(base+f.Offset, f.Field.Type, bits); err != nil {
			return err
		}
	}
	return nil
}

// View wraps size bytes of native memory at addr. The memory is not owned
// and is never freed by the instance.
func (l *Library) View(t *Type, addr Address) (*Instance, error) {
	if t == nil {
		return nil, errors.NilPointer(errors.PhaseRead, nil, "type")
	}
	b := l.Binding()
	if b == nil {
		return nil, errors.BindingNotConfigured(errors.PhaseRead, []string{t.Name()})
	}
	return view(b, t, addr, newRetainer())
}

func view(b Binding, t *Type, addr Address, keep *retainer) (*Instance, error) {
	if addr.IsNull() {
		return nil, errors.NilPointer(errors.PhaseRead, []string{t.Name()}, "struct address")
	}
	buf, err := b.Bytes(addr, t.info.Size)
	if err != nil {
		return nil, errors.New(errors.PhaseBinding, errors.KindOutOfBounds).
			Path(t.Name()).
			Detail("map %d bytes at %s", t.info.Size, addr).
			Cause(err).
			Build()
	}
	return &Instance{
		typ:     t,
		buf:     buf,
		binding: b,
		addr:    addr,
		mapped:  true,
		foreign: true,
		keep:    keep,
	}, nil
}

func isAllocator(b Binding) bool {
	_, ok := b.(Allocator)
	return ok
}
