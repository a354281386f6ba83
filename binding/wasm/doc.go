// Package wasm implements cstruct.Binding over the linear memory of a
// wazero guest module. Addresses are 32-bit guest offsets and layouts use
// the ILP32 data model, matching wasm32 C code.
//
// # Memory Binding
//
//	mem := mod.ExportedMemory("memory")
//	alloc := wasm.WrapAllocator(ctx, mod.ExportedFunction("cabi_realloc"))
//	lib, err := cstruct.New(wasm.New(mem, alloc))
//
// Instances allocated through the library live in guest memory, so their
// addresses can be passed to guest exports directly.
//
// # Allocators
//
// WrapAllocator adapts a guest realloc-style export. NewBumpAllocator
// hands out a reserved region without guest cooperation.
//
// Slices returned by Bytes and Alloc alias guest memory and are detached
// when the memory grows. Instances keep their guest address and map their
// bytes again on the next access, so an allocator may grow memory at any
// time; slices taken from Instance.Buffer before the growth are stale.
package wasm
