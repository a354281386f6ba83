// Package native loads shared libraries and calls into them without cgo,
// using purego. It is the collaborator that passes cstruct instances to
// native code: instance arguments are converted to their addresses and kept
// alive for the duration of the call.
//
// # Loading
//
//	lib, err := native.Open("libc.so.6")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer lib.Close()
//
// # Calling
//
// Call converts each argument to a machine word:
//
//	ts, _, _ := structs.Instantiate(timespec)
//	rc, err := lib.Call("clock_gettime", 0, ts)
//
// Bind and BindAll register typed Go functions for hot paths:
//
//	var strlen func(string) int
//	err := lib.Bind(&strlen, "strlen")
//
// # Callbacks
//
// NewCallback turns a Go function into a native function pointer that can
// be stored in a struct fn member. Callbacks are never released; the
// process can create a limited number of them.
//
// Native loading is available on Linux and macOS. Other platforms return
// errors.ErrUnsupported from Open and NewCallback.
package native
