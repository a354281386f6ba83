package native

import (
	"fmt"
	"reflect"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/cstruct"
	"github.com/wippyai/cstruct/errors"
	"github.com/wippyai/cstruct/internal/abi"
)

// Library is an open shared library.
type Library struct {
	syms   map[string]uintptr
	path   string
	handle uintptr
	mu     sync.Mutex
	closed bool
}

// Open loads the library at path, resolving all symbols immediately.
func Open(path string) (*Library, error) {
	handle, err := dlopen(path)
	if err != nil {
		return nil, &LibError{Op: "open", Library: path, Cause: err}
	}
	Logger().Debug("library opened", zap.String("path", path))
	return &Library{
		path:   path,
		handle: handle,
		syms:   make(map[string]uintptr),
	}, nil
}

func (l *Library) Path() string {
	return l.path
}

// Symbol resolves an exported symbol. Results are cached.
func (l *Library) Symbol(name string) (cstruct.Address, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return 0, &LibError{Op: "lookup", Library: l.path, Symbol: name, Cause: fmt.Errorf("library closed")}
	}
	if sym, ok := l.syms[name]; ok {
		return cstruct.Address(sym), nil
	}
	sym, err := dlsym(l.handle, name)
	if err != nil {
		return 0, &LibError{Op: "lookup", Library: l.path, Symbol: name, Cause: err}
	}
	if sym == 0 {
		return 0, &LibError{Op: "lookup", Library: l.path, Symbol: name, Cause: errors.NotFound(errors.PhaseNative, "symbol", name)}
	}
	l.syms[name] = sym
	Logger().Debug("symbol resolved", zap.String("library", l.path), zap.String("symbol", name))
	return cstruct.Address(sym), nil
}

// Bind points fptr, a pointer to a Go func variable, at the named symbol.
func (l *Library) Bind(fptr any, name string) (err error) {
	sym, err := l.Symbol(name)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = &LibError{Op: "bind", Library: l.path, Symbol: name, Cause: fmt.Errorf("%v", r)}
		}
	}()
	return registerFunc(fptr, uintptr(sym))
}

// BindAll binds every func field of the struct table points at whose
// `ffi` tag names a symbol.
func (l *Library) BindAll(table any) error {
	v := reflect.ValueOf(table)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return &LibError{Op: "bind", Library: l.path, Cause: fmt.Errorf("table must be a pointer to a struct, got %T", table)}
	}
	v = v.Elem()
	t := v.Type()
	for i := range t.NumField() {
		field := t.Field(i)
		if field.Type.Kind() != reflect.Func {
			continue
		}
		name := field.Tag.Get("ffi")
		if name == "" {
			continue
		}
		if err := l.Bind(v.Field(i).Addr().Interface(), name); err != nil {
			return err
		}
	}
	return nil
}

// Call invokes the named symbol with integer-class arguments. Accepted
// argument types are Go integers, bool, uintptr, cstruct.Address,
// cstruct.Callable and *cstruct.Instance, which passes the instance
// address. Floating-point arguments need Bind.
func (l *Library) Call(name string, args ...any) (uintptr, error) {
	sym, err := l.Symbol(name)
	if err != nil {
		return 0, err
	}
	words := make([]uintptr, len(args))
	for k, arg := range args {
		w, err := word(arg)
		if err != nil {
			return 0, &LibError{
				Op:      "call",
				Library: l.path,
				Symbol:  name,
				Cause:   fmt.Errorf("failed to construct argument %d for native call %s: %w", k, name, err),
			}
		}
		words[k] = w
	}
	r1 := syscallN(uintptr(sym), words...)
	runtime.KeepAlive(args)
	return r1, nil
}

// Close unloads the library. Bound functions must not be called afterwards.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	l.syms = nil
	if err := dlclose(l.handle); err != nil {
		return &LibError{Op: "close", Library: l.path, Cause: err}
	}
	Logger().Debug("library closed", zap.String("path", l.path))
	return nil
}

func word(arg any) (uintptr, error) {
	switch v := arg.(type) {
	case nil:
		return 0, nil
	case uintptr:
		return v, nil
	case cstruct.Address:
		return uintptr(v), nil
	case *cstruct.Instance:
		if v == nil {
			return 0, nil
		}
		addr, err := v.Addr()
		return uintptr(addr), err
	case cstruct.Callable:
		return uintptr(v.Pointer()), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case float32, float64:
		return 0, errors.Unsupported(errors.PhaseNative, nil, "floating-point argument in Call")
	}
	bits, ok := abi.CoerceToBits(arg)
	if !ok {
		return 0, errors.TypeMismatch(errors.PhaseNative, nil, abi.TypeName(arg), "word")
	}
	return uintptr(bits), nil
}
