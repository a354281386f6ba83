//go:build darwin || linux

package native

import "github.com/ebitengine/purego"

func dlopen(path string) (uintptr, error) {
	return purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
}

func dlsym(handle uintptr, name string) (uintptr, error) {
	return purego.Dlsym(handle, name)
}

func dlclose(handle uintptr) error {
	return purego.Dlclose(handle)
}

// registerFunc panics on unsupported signatures; callers recover.
func registerFunc(fptr any, sym uintptr) error {
	purego.RegisterFunc(fptr, sym)
	return nil
}

func syscallN(fn uintptr, args ...uintptr) uintptr {
	r1, _, _ := purego.SyscallN(fn, args...)
	return r1
}

func newCallback(fn any) uintptr {
	return purego.NewCallback(fn)
}
