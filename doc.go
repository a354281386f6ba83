// Package cstruct describes native C structs, lays them out with C ABI
// size and alignment, and reads and writes their members through typed
// accessors backed by raw memory.
//
// # Architecture Overview
//
//	cstruct/             Library, Type, Instance, Array and the Binding contract
//	├── schema/          Field specs and validated struct/union schemas
//	├── layout/          Offset, size and alignment computation (LP64, ILP32)
//	├── binding/host/    Binding over the current process address space
//	├── binding/wasm/    Binding over a wazero guest linear memory
//	├── native/          Dynamic library loading and calls via purego
//	├── schemafile/      YAML schema documents
//	├── errors/          Structured error types
//	└── cmd/structview/  Layout inspector
//
// # Quick Start
//
//	lib, err := cstruct.New(host.New())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	point := lib.MustRegister("Point", schema.Fields{
//	    "x": schema.Int32(0),
//	    "y": schema.Int32(1),
//	})
//
//	p, buf, err := lib.Instantiate(point)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	p.Set("x", 5)
//	p.Set("y", -1)
//	// buf is now 05 00 00 00 ff ff ff ff
//
// # Data Model
//
// Layouts follow the platform data model. LP64 (8-byte pointers) is the
// default; ILP32 is used for wasm32 guests. All multi-byte values are
// little-endian.
//
// # Memory
//
// Instance buffers are zero-filled at creation. Owned buffers are allocated
// by the binding when it implements Allocator, otherwise on the Go heap.
// Views wrap memory owned elsewhere and never free it. Strings and slices
// written into pointer members are copied into memory retained by the
// instance; the address stays valid while the instance is reachable and
// the member is not overwritten.
//
// # Thread Safety
//
// Library is safe for concurrent use. Instance is NOT thread-safe and
// should be used by a single goroutine, or access must be synchronized.
package cstruct
