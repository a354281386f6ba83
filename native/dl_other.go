//go:build !(darwin || linux)

package native

func dlopen(string) (uintptr, error) {
	return 0, unsupported()
}

func dlsym(uintptr, string) (uintptr, error) {
	return 0, unsupported()
}

func dlclose(uintptr) error {
	return unsupported()
}

func registerFunc(any, uintptr) error {
	return unsupported()
}

func syscallN(uintptr, ...uintptr) uintptr {
	return 0
}

func newCallback(any) uintptr {
	panic(unsupported())
}
