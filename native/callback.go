package native

import (
	"fmt"

	"github.com/wippyai/cstruct"
)

// Callback is a Go function exposed as a native function pointer.
type Callback struct {
	fn  any
	ptr uintptr
}

var _ cstruct.Callable = (*Callback)(nil)

// NewCallback wraps fn, a Go func whose arguments and result are
// integer-class or pointer types.
func NewCallback(fn any) (cb *Callback, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &LibError{Op: "callback", Cause: fmt.Errorf("%v", r)}
		}
	}()
	ptr := newCallback(fn)
	return &Callback{fn: fn, ptr: ptr}, nil
}

// Pointer returns the native function pointer.
func (c *Callback) Pointer() cstruct.Address {
	return cstruct.Address(c.ptr)
}
