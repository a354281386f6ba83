package wasm

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/cstruct"
	"github.com/wippyai/cstruct/errors"
	"github.com/wippyai/cstruct/internal/abi"
	"github.com/wippyai/cstruct/layout"
	"github.com/wippyai/cstruct/schema"
)

// memoryWASM is a minimal WASM module with 1 page of memory exported as "memory"
var memoryWASM = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic
	0x01, 0x00, 0x00, 0x00, // version
	0x05, 0x03, 0x01, 0x00, 0x01, // memory section: 1 page, no max
	0x07, 0x0a, 0x01, // export section: 10 bytes, 1 export
	0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, // name: "memory" (6 bytes + string)
	0x02, 0x00, // kind: memory, index 0
}

func newGuest(t *testing.T) (context.Context, wazero.Runtime, api.Memory) {
	t.Helper()
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { rt.Close(ctx) })

	mod, err := rt.Instantiate(ctx, memoryWASM)
	if err != nil {
		t.Fatalf("failed to instantiate: %v", err)
	}
	mem := mod.ExportedMemory("memory")
	if mem == nil {
		t.Fatal("memory not exported")
	}
	return ctx, rt, mem
}

func TestReadPrimitive(t *testing.T) {
	_, _, mem := newGuest(t)
	b := New(mem, nil)

	mem.WriteUint32Le(16, 0xfffffffe)
	mem.WriteFloat64Le(24, 0.5)
	mem.WriteByte(32, 2)
	mem.WriteUint32Le(36, 0x100)

	tests := []struct {
		name string
		addr cstruct.Address
		p    schema.Primitive
		want any
	}{
		{"i32", 16, schema.I32, int32(-2)},
		{"u32", 16, schema.U32, uint32(0xfffffffe)},
		{"i16", 16, schema.I16, int16(-2)},
		{"u8", 16, schema.U8, uint8(0xfe)},
		{"i8", 16, schema.I8, int8(-2)},
		{"f64", 24, schema.F64, 0.5},
		{"bool", 32, schema.Bool, true},
		{"pointer", 36, schema.Pointer, cstruct.Address(0x100)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := b.ReadPrimitive(tc.addr, 0, tc.p)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("got %v (%T), want %v (%T)", got, got, tc.want, tc.want)
			}
		})
	}

	if _, err := b.ReadPrimitive(65535, 0, schema.U32); err == nil {
		t.Error("expected out of bounds error")
	}
	if _, err := b.ReadPrimitive(1<<32-1, 4, schema.U8); err == nil {
		t.Error("expected error for address overflow")
	}
}

func TestAddressOf(t *testing.T) {
	_, _, mem := newGuest(t)
	b := New(mem, nil)

	view, err := b.Bytes(100, 4)
	if err != nil {
		t.Fatal(err)
	}
	addr, err := b.AddressOf(view)
	if err != nil || addr != 100 {
		t.Errorf("got %v %v, want 100", addr, err)
	}
	if _, err := b.AddressOf(make([]byte, 4)); err == nil {
		t.Error("expected error for Go memory")
	}
	if _, err := b.Bytes(65534, 4); err == nil {
		t.Error("expected out of bounds error")
	}
}

func TestReadCString(t *testing.T) {
	_, _, mem := newGuest(t)
	b := New(mem, nil)
	mem.Write(200, []byte("guest\x00"))

	if s, err := b.ReadCString(200, 0); err != nil || s != "guest" {
		t.Errorf("got %q %v", s, err)
	}
	if s, _ := b.ReadCString(200, 2); s != "gu" {
		t.Errorf("bounded: got %q", s)
	}
	if s, err := b.ReadCString(0, 0); s != "" || err != nil {
		t.Errorf("NULL: got %q %v", s, err)
	}
}

func TestBumpAllocator(t *testing.T) {
	a := NewBumpAllocator(0, 64)
	p1, err := a.Alloc(3, 1)
	if err != nil || p1 != 8 {
		t.Fatalf("first: %d %v", p1, err)
	}
	p2, err := a.Alloc(8, 8)
	if err != nil || p2 != 16 {
		t.Fatalf("aligned: %d %v", p2, err)
	}
	if _, err := a.Alloc(64, 1); err == nil {
		t.Error("expected exhaustion")
	}
	if a.Used() != 24 {
		t.Errorf("Used: %d", a.Used())
	}
}

func TestWrapAllocatorNil(t *testing.T) {
	if WrapAllocator(context.Background(), nil) != nil {
		t.Error("expected nil for nil function")
	}
}

func TestLibraryOverGuestMemory(t *testing.T) {
	_, _, mem := newGuest(t)
	b := New(mem, NewBumpAllocator(1024, 4096))
	lib, err := cstruct.New(b)
	if err != nil {
		t.Fatal(err)
	}
	if lib.Model() != layout.ILP32 {
		t.Fatalf("model %v, want ILP32", lib.Model())
	}

	node := lib.MustRegister("Node", schema.Fields{
		"value": schema.Int32(0),
		"name":  schema.CString(1),
		"next":  schema.SelfRef(2),
	})
	if node.Size() != 12 {
		t.Fatalf("size %d, want 12", node.Size())
	}

	a, _, err := lib.Instantiate(node)
	if err != nil {
		t.Fatal(err)
	}
	n, _, err := lib.Instantiate(node)
	if err != nil {
		t.Fatal(err)
	}
	_ = a.Set("value", -5)
	_ = n.Set("value", 6)
	if err := a.SetString("name", "head"); err != nil {
		t.Fatal(err)
	}
	if err := a.Set("next", n); err != nil {
		t.Fatal(err)
	}

	addr, err := a.Addr()
	if err != nil {
		t.Fatal(err)
	}
	if addr != 1024 {
		t.Errorf("first instance at %s, want 0x400", addr)
	}
	if v, _ := mem.ReadUint32Le(uint32(addr)); int32(v) != -5 {
		t.Errorf("guest value: %d", int32(v))
	}

	nameAddr, _ := mem.ReadUint32Le(uint32(addr) + 4)
	if s, _ := b.ReadCString(cstruct.Address(nameAddr), 0); s != "head" {
		t.Errorf("guest string: %q", s)
	}

	next, err := a.Struct("next")
	if err != nil || next == nil {
		t.Fatalf("next: %v %v", next, err)
	}
	if v, _ := next.Int("value"); v != 6 {
		t.Errorf("next.value: %d", v)
	}

	view, err := lib.View(node, addr)
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := view.String("name"); s != "head" {
		t.Errorf("view name: %q", s)
	}
}

func TestLibraryWithoutAllocator(t *testing.T) {
	_, _, mem := newGuest(t)
	lib, err := cstruct.New(New(mem, nil))
	if err != nil {
		t.Fatal(err)
	}
	typ := lib.MustRegister("P", schema.Fields{"x": schema.Int32(0)})
	if _, _, err := lib.Instantiate(typ); !isKind(err, errors.KindAllocation) {
		t.Errorf("got %v, want allocation error", err)
	}
}

func TestReallocExport(t *testing.T) {
	ctx, rt, mem := newGuest(t)

	bump := NewBumpAllocator(2048, 8192)
	host, err := rt.NewHostModuleBuilder("alloc").
		NewFunctionBuilder().
		WithFunc(func(_ context.Context, oldPtr, oldSize, align, newSize uint32) uint32 {
			ptr, err := bump.Alloc(newSize, align)
			if err != nil {
				return 0
			}
			return ptr
		}).
		Export("cabi_realloc").
		Instantiate(ctx)
	if err != nil {
		t.Fatal(err)
	}

	b := New(mem, WrapAllocator(ctx, host.ExportedFunction("cabi_realloc")))
	buf, err := b.Alloc(16, 8)
	if err != nil {
		t.Fatal(err)
	}
	addr, err := b.AddressOf(buf)
	if err != nil || addr != 2048 {
		t.Errorf("got %v %v, want 2048", addr, err)
	}
	if abi.AlignTo(uint32(addr), 8) != uint32(addr) {
		t.Error("allocation not aligned")
	}

	if _, err := b.Alloc(1<<20, 1); err == nil {
		t.Error("expected NULL allocation to fail")
	}
}

// growingAllocator grows guest memory by a page before every allocation,
// the way a guest malloc does when its heap runs out.
type growingAllocator struct {
	mem  api.Memory
	bump *BumpAllocator
}

func (g *growingAllocator) Alloc(size, align uint32) (uint32, error) {
	if _, ok := g.mem.Grow(1); !ok {
		return 0, fmt.Errorf("memory.grow failed")
	}
	return g.bump.Alloc(size, align)
}

func TestInstanceSurvivesMemoryGrowth(t *testing.T) {
	_, _, mem := newGuest(t)
	b := New(mem, &growingAllocator{mem: mem, bump: NewBumpAllocator(1024, 1<<20)})
	lib, err := cstruct.New(b)
	if err != nil {
		t.Fatal(err)
	}
	typ := lib.MustRegister("Entry", schema.Fields{
		"value": schema.Int32(0),
		"name":  schema.CString(1),
		"tags":  schema.Slice(2, schema.String),
	})

	inst, _, err := lib.Instantiate(typ)
	if err != nil {
		t.Fatal(err)
	}
	addr, err := inst.Addr()
	if err != nil {
		t.Fatal(err)
	}
	pages := mem.Size()

	if err := inst.SetString("name", "grown"); err != nil {
		t.Fatal(err)
	}
	if err := inst.Set("value", 42); err != nil {
		t.Fatal(err)
	}
	if err := inst.Set("tags", []string{"a", "bc"}); err != nil {
		t.Fatal(err)
	}
	if mem.Size() <= pages {
		t.Fatalf("memory did not grow: %d bytes", mem.Size())
	}

	if v, _ := mem.ReadUint32Le(uint32(addr)); v != 42 {
		t.Errorf("guest value: got %d, want 42", v)
	}
	nameAddr, _ := mem.ReadUint32Le(uint32(addr) + 4)
	if s, _ := b.ReadCString(cstruct.Address(nameAddr), 0); s != "grown" {
		t.Errorf("guest name: got %q", s)
	}
	tagsAddr, _ := mem.ReadUint32Le(uint32(addr) + 8)
	for k, want := range []string{"a", "bc"} {
		p, _ := mem.ReadUint32Le(tagsAddr + uint32(k)*4)
		if s, _ := b.ReadCString(cstruct.Address(p), 0); s != want {
			t.Errorf("tag %d: got %q, want %q", k, s, want)
		}
	}

	if v, _ := inst.Int("value"); v != 42 {
		t.Errorf("read back value: %d", v)
	}
	if s, _ := inst.String("name"); s != "grown" {
		t.Errorf("read back name: %q", s)
	}
	if !b.Current(inst.Buffer()) {
		t.Error("Buffer returned a detached slice")
	}
}

func isKind(err error, kind errors.Kind) bool {
	var e *errors.Error
	return stderrors.As(err, &e) && e.Kind == kind
}
