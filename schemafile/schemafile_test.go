package schemafile

import (
	"encoding/binary"
	stderrors "errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wippyai/cstruct"
	"github.com/wippyai/cstruct/errors"
	"github.com/wippyai/cstruct/schema"
)

const spriteDoc = `
structs:
  - name: Sprite
    fields:
      - {name: pos, type: Vec2}
      - {name: name, type: "const char *"}
      - {name: pixels, type: "u8[]"}
      - {name: tint, type: "f32[4]"}
      - {name: next, type: "*self"}
      - {name: mode, type: "enum<u8>"}
      - {name: draw, type: fn}
  - name: Vec2
    fields:
      - {name: x, type: float}
      - {name: y, type: f32}
`

func TestParseTypes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"i32", "i32"},
		{"int32_t", "i32"},
		{"unsigned  int", "u32"},
		{"double", "f64"},
		{"void *", "pointer"},
		{"const char*", "string"},
		{"s16", "i16"},
		{"char", "i8"},
		{"string", "string"},
		{"u8[16]", "u8[16]"},
		{"uint16_t[]", "u16[]"},
		{"enum", "enum<u32>"},
		{"enum<u16>", "enum<u16>"},
		{"fn", "fn"},
		{"*self", "*self"},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			e, err := parseType(tc.in)
			if err != nil {
				t.Fatalf("parseType: %v", err)
			}
			if got := e.field(0, nil).TypeString(); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseTypeErrors(t *testing.T) {
	for _, in := range []string{"", "enum<f32>", "u8[0]", "u8[x]", "[4]", "self", "not a type", "*9lives", "widget[2]"} {
		t.Run(in, func(t *testing.T) {
			if _, err := parseType(in); err == nil {
				t.Errorf("parseType(%q) succeeded", in)
			}
		})
	}
}

func TestSchemasDependencyOrder(t *testing.T) {
	doc, err := Parse([]byte(spriteDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	schemas, err := doc.Schemas()
	if err != nil {
		t.Fatalf("Schemas: %v", err)
	}
	if len(schemas) != 2 {
		t.Fatalf("got %d schemas, want 2", len(schemas))
	}
	if schemas[0].Name() != "Vec2" || schemas[1].Name() != "Sprite" {
		t.Errorf("order: got %s, %s", schemas[0].Name(), schemas[1].Name())
	}

	sprite := schemas[1]
	pos, _ := sprite.Field("pos")
	if !pos.Inline || sprite.Target(pos) != schemas[0] {
		t.Errorf("pos does not embed Vec2")
	}
	next, _ := sprite.Field("next")
	if !next.Self || sprite.Target(next) != sprite {
		t.Errorf("next is not a self reference")
	}
	if got := sprite.FieldAt(6).Name; got != "draw" {
		t.Errorf("order 6: got %q, want draw", got)
	}
}

func TestRegister(t *testing.T) {
	doc, err := Parse([]byte(spriteDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	lib, err := cstruct.New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	types, err := doc.Register(lib)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if len(types) != 2 {
		t.Fatalf("got %d types, want 2", len(types))
	}

	sprite, ok := lib.Lookup("Sprite")
	if !ok {
		t.Fatal("Sprite not registered")
	}
	// pos 0..8, name 8, pixels 16, tint 24..40, next 40, mode 48, draw 56
	want := map[string]uint32{"pos": 0, "name": 8, "pixels": 16, "tint": 24, "next": 40, "mode": 48, "draw": 56}
	for name, off := range want {
		got, ok := sprite.Offset(name)
		if !ok || got != off {
			t.Errorf("%s: got offset %d, want %d", name, got, off)
		}
	}
	if sprite.Size() != 64 {
		t.Errorf("size: got %d, want 64", sprite.Size())
	}
}

func TestExplicitOrderAndUnion(t *testing.T) {
	doc, err := Parse([]byte(`
structs:
  - name: Value
    union: true
    fields:
      - {name: f, type: f64}
      - {name: i, type: i32}
  - name: Pair
    fields:
      - {name: second, type: u8, order: 1}
      - {name: first, type: u32, order: 0}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	schemas, err := doc.Schemas()
	if err != nil {
		t.Fatalf("Schemas: %v", err)
	}
	if !schemas[0].Union() {
		t.Error("Value is not a union")
	}
	if got := schemas[1].FieldAt(0).Name; got != "first" {
		t.Errorf("Pair order 0: got %q, want first", got)
	}
}

func TestFieldDefaults(t *testing.T) {
	doc, err := Parse([]byte(`
structs:
  - name: Info
    fields:
      - {name: sType, type: i32, default: 17}
      - {name: scale, type: f64, default: 0.5}
      - {name: on, type: bool, default: true}
      - {name: next, type: pointer}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	lib, err := cstruct.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	types, err := doc.Register(lib)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, buf, err := lib.Instantiate(types[0])
	if err != nil {
		t.Fatal(err)
	}
	if got := binary.LittleEndian.Uint32(buf[0:]); got != 17 {
		t.Errorf("sType: got %d, want 17", got)
	}
	if got := math.Float64frombits(binary.LittleEndian.Uint64(buf[8:])); got != 0.5 {
		t.Errorf("scale: got %v, want 0.5", got)
	}
	if buf[16] != 1 {
		t.Errorf("on: got %d, want 1", buf[16])
	}

	out, err := Marshal(types[0].Schema())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "default: 17") {
		t.Errorf("marshalled document lost the default:\n%s", out)
	}

	bad, err := Parse([]byte(`
structs:
  - name: Bad
    fields:
      - {name: s, type: string, default: hi}
`))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := bad.Schemas(); !stderrors.Is(err, errors.ErrSchema) {
		t.Errorf("string default: got %v, want schema error", err)
	}
}

func TestSchemasErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		kind errors.Kind
	}{
		{"missing_target", `
structs:
  - name: A
    fields:
      - {name: b, type: B}
`, errors.KindNotFound},
		{"inline_cycle", `
structs:
  - name: A
    fields:
      - {name: b, type: B}
  - name: B
    fields:
      - {name: a, type: "*A"}
`, errors.KindSchema},
		{"duplicate_struct", `
structs:
  - name: A
    fields: [{name: x, type: i8}]
  - name: A
    fields: [{name: y, type: i8}]
`, errors.KindInvalidData},
		{"bad_type", `
structs:
  - name: A
    fields: [{name: x, type: "enum<bool>"}]
`, errors.KindInvalidData},
		{"bad_order", `
structs:
  - name: A
    fields:
      - {name: x, type: i8, order: 3}
`, errors.KindSchema},
		{"no_fields", `
structs:
  - name: A
`, errors.KindSchema},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := Parse([]byte(tc.doc))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			_, err = doc.Schemas()
			var e *errors.Error
			if !stderrors.As(err, &e) {
				t.Fatalf("expected *errors.Error, got %v", err)
			}
			if e.Kind != tc.kind {
				t.Errorf("kind: got %s, want %s (%v)", e.Kind, tc.kind, err)
			}
		})
	}
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("structs: [\n"))
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Phase != errors.PhaseLoad {
		t.Fatalf("expected load error, got %v", err)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	vec := schema.MustNew("Vec2", schema.Fields{
		"x": schema.Float32(0),
		"y": schema.Float32(1),
	})
	node := schema.MustNew("Node", schema.Fields{
		"pos":  schema.Inline(0, vec),
		"tag":  schema.EnumOf(1, schema.U16),
		"next": schema.SelfRef(2),
		"data": schema.Slice(3, schema.U8),
	})

	data, err := Marshal(vec, node)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	schemas, err := doc.Schemas()
	if err != nil {
		t.Fatalf("Schemas: %v", err)
	}
	got := schemas[1]
	for _, f := range node.Fields() {
		g, ok := got.Field(f.Name)
		if !ok {
			t.Fatalf("field %s missing", f.Name)
		}
		if g.Order != f.Order || g.TypeString() != f.TypeString() {
			t.Errorf("%s: got %d %s, want %d %s", f.Name, g.Order, g.TypeString(), f.Order, f.TypeString())
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sprite.yaml")
	if err := os.WriteFile(path, []byte(spriteDoc), 0o600); err != nil {
		t.Fatal(err)
	}
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if names := doc.Names(); len(names) != 2 || names[0] != "Sprite" {
		t.Errorf("names: %v", names)
	}

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if !stderrors.Is(err, &errors.Error{Kind: errors.KindNotFound}) {
		t.Errorf("missing file: got %v", err)
	}
}
