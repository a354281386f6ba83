// Package host implements cstruct.Binding over the current process address
// space. Addresses are real pointers, so instances can be passed straight
// to native code loaded with the native package.
//
//	lib, err := cstruct.New(host.New())
//
// Reads through an address dereference it directly. Passing an address that
// does not point at live memory crashes the process, the same as in C.
package host
