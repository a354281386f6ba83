//go:build darwin || linux

package native

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/wippyai/cstruct"
	"github.com/wippyai/cstruct/binding/host"
	"github.com/wippyai/cstruct/errors"
	"github.com/wippyai/cstruct/schema"
)

func openLibc(t *testing.T) *Library {
	t.Helper()
	lib, err := OpenLibc()
	if err != nil {
		t.Skipf("libc not available: %v", err)
	}
	t.Cleanup(func() { lib.Close() })
	return lib
}

func newStructs(t *testing.T) *cstruct.Library {
	t.Helper()
	structs, err := cstruct.New(host.New())
	if err != nil {
		t.Fatal(err)
	}
	return structs
}

func TestOpenMissing(t *testing.T) {
	_, err := Open("libcstruct-does-not-exist.so.0")
	var le *LibError
	if !stderrors.As(err, &le) {
		t.Fatalf("got %v, want *LibError", err)
	}
	if le.Op != "open" || !strings.Contains(le.Error(), "libcstruct-does-not-exist") {
		t.Errorf("error: %v", le)
	}
}

func TestSymbol(t *testing.T) {
	lib := openLibc(t)

	a, err := lib.Symbol("strlen")
	if err != nil || a.IsNull() {
		t.Fatalf("strlen: %v %v", a, err)
	}
	b, _ := lib.Symbol("strlen")
	if a != b {
		t.Error("symbol cache returned a different address")
	}
	if _, err := lib.Symbol("cstruct_no_such_symbol"); err == nil {
		t.Error("expected lookup failure")
	}
}

func TestBind(t *testing.T) {
	lib := openLibc(t)

	var strlen func(string) int
	if err := lib.Bind(&strlen, "strlen"); err != nil {
		t.Fatal(err)
	}
	if n := strlen("hello"); n != 5 {
		t.Errorf("strlen: got %d", n)
	}

	var table struct {
		Abs    func(int32) int32 `ffi:"abs"`
		Strlen func(string) int  `ffi:"strlen"`
		Skip   func()
		Count  int
	}
	if err := lib.BindAll(&table); err != nil {
		t.Fatal(err)
	}
	if table.Abs(-7) != 7 || table.Strlen("ab") != 2 {
		t.Error("BindAll produced wrong bindings")
	}
	if table.Skip != nil {
		t.Error("untagged field was bound")
	}
	if err := lib.BindAll(table); err == nil {
		t.Error("expected error for non-pointer table")
	}
}

func TestCallWithInstance(t *testing.T) {
	lib := openLibc(t)
	structs := newStructs(t)
	timespec := structs.MustRegister("timespec", schema.Fields{
		"tv_sec":  schema.Int64(0),
		"tv_nsec": schema.Int64(1),
	})

	ts, _, err := structs.Instantiate(timespec)
	if err != nil {
		t.Fatal(err)
	}

	const clockRealtime = 0
	rc, err := lib.Call("clock_gettime", clockRealtime, ts)
	if err != nil {
		t.Fatal(err)
	}
	if rc != 0 {
		t.Fatalf("clock_gettime returned %d", rc)
	}
	sec, _ := ts.Int("tv_sec")
	nsec, _ := ts.Int("tv_nsec")
	if sec < 1_600_000_000 {
		t.Errorf("tv_sec %d is implausible", sec)
	}
	if nsec < 0 || nsec >= 1_000_000_000 {
		t.Errorf("tv_nsec %d out of range", nsec)
	}

	if _, err := lib.Call("memset", ts, 0x41, timespec.Size()); err != nil {
		t.Fatal(err)
	}
	if v, _ := ts.Uint("tv_sec"); v != 0x4141414141414141 {
		t.Errorf("memset through instance: %#x", v)
	}
}

func TestCallbackFromNative(t *testing.T) {
	lib := openLibc(t)
	structs := newStructs(t)
	b := host.New()

	list := structs.MustRegister("list", schema.Fields{
		"count":  schema.Uint32(0),
		"values": schema.Array(1, schema.I32, 5),
		"cmp":    schema.Func(2),
	})
	inst, _, err := structs.Instantiate(list)
	if err != nil {
		t.Fatal(err)
	}
	_ = inst.Set("count", 5)
	_ = inst.Set("values", []int32{4, -1, 9, 0, 2})

	cmp, err := NewCallback(func(a, b2 uintptr) int32 {
		x, _ := b.ReadPrimitive(cstruct.Address(a), 0, schema.I32)
		y, _ := b.ReadPrimitive(cstruct.Address(b2), 0, schema.I32)
		switch xv, yv := x.(int32), y.(int32); {
		case xv < yv:
			return -1
		case xv > yv:
			return 1
		}
		return 0
	})
	if err != nil {
		t.Skipf("callbacks unavailable: %v", err)
	}
	if err := inst.SetFunc("cmp", cmp); err != nil {
		t.Fatal(err)
	}
	stored, _ := inst.Address("cmp")
	if stored != cmp.Pointer() {
		t.Fatalf("stored %s, want %s", stored, cmp.Pointer())
	}

	base, _ := inst.Addr()
	off, _ := list.Offset("values")
	if _, err := lib.Call("qsort", base+cstruct.Address(off), 5, 4, stored); err != nil {
		t.Fatal(err)
	}

	got, _ := inst.Get("values")
	want := []int32{-1, 0, 2, 4, 9}
	for k, v := range got.([]int32) {
		if v != want[k] {
			t.Fatalf("sorted values: got %v, want %v", got, want)
		}
	}
}

func TestWord(t *testing.T) {
	tests := []struct {
		name string
		arg  any
		want uintptr
		err  bool
	}{
		{"nil", nil, 0, false},
		{"int", 42, 42, false},
		{"negative", -1, ^uintptr(0), false},
		{"bool", true, 1, false},
		{"address", cstruct.Address(0x1000), 0x1000, false},
		{"float", 1.5, 0, true},
		{"string", "x", 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := word(tc.arg)
			if (err != nil) != tc.err {
				t.Fatalf("err = %v, want error %v", err, tc.err)
			}
			if got != tc.want {
				t.Errorf("got %#x, want %#x", got, tc.want)
			}
		})
	}

	_, err := word(1.5)
	if !stderrors.Is(err, errors.ErrUnsupported) {
		t.Errorf("float: got %v", err)
	}
}

func TestCallArgumentError(t *testing.T) {
	lib := openLibc(t)
	_, err := lib.Call("strlen", "not a pointer")
	var le *LibError
	if !stderrors.As(err, &le) || le.Symbol != "strlen" {
		t.Fatalf("got %v", err)
	}
	if !strings.Contains(err.Error(), "failed to construct argument 0 for native call strlen") {
		t.Errorf("message: %v", err)
	}
	var ce *errors.Error
	if !stderrors.As(err, &ce) || ce.Kind != errors.KindTypeMismatch {
		t.Errorf("cause not preserved: %v", err)
	}
}

func TestClose(t *testing.T) {
	lib, err := OpenLibc()
	if err != nil {
		t.Skipf("libc not available: %v", err)
	}
	if err := lib.Close(); err != nil {
		t.Fatal(err)
	}
	if err := lib.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, err := lib.Symbol("strlen"); err == nil {
		t.Error("lookup after Close succeeded")
	}
}
