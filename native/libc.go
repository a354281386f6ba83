package native

import "runtime"

// LibcPath returns the C library name for the running platform, or "" when
// it is unknown.
func LibcPath() string {
	switch runtime.GOOS {
	case "linux":
		return "libc.so.6"
	case "darwin":
		return "/usr/lib/libSystem.B.dylib"
	}
	return ""
}

// OpenLibc opens the platform C library.
func OpenLibc() (*Library, error) {
	path := LibcPath()
	if path == "" {
		return nil, &LibError{Op: "open", Library: "libc", Cause: unsupported()}
	}
	return Open(path)
}
