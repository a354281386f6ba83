package schemafile

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/cstruct"
	"github.com/wippyai/cstruct/errors"
	"github.com/wippyai/cstruct/schema"
)

// Document is a set of struct definitions.
type Document struct {
	Structs []StructDef `yaml:"structs"`
}

// StructDef defines one struct or union.
type StructDef struct {
	Name   string     `yaml:"name"`
	Union  bool       `yaml:"union,omitempty"`
	Fields []FieldDef `yaml:"fields"`
}

// FieldDef defines one member. Order defaults to the list position.
// Default is the initial value of a scalar or enum member.
type FieldDef struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Order   *int   `yaml:"order,omitempty"`
	Default any    `yaml:"default,omitempty"`
}

// Parse decodes a YAML document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.ParseFailed("schema document", err)
	}
	return &doc, nil
}

// Load reads and decodes a YAML document from path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindNotFound, err, "read "+path)
	}
	return Parse(data)
}

// Register builds every struct in the document and registers it with lib,
// in dependency order.
func (d *Document) Register(lib *cstruct.Library) ([]*cstruct.Type, error) {
	schemas, err := d.Schemas()
	if err != nil {
		return nil, err
	}
	types := make([]*cstruct.Type, 0, len(schemas))
	for _, s := range schemas {
		t, err := lib.RegisterSchema(s)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

// Marshal encodes schemas as a YAML document. Nested struct targets must be
// included for the result to load again.
func Marshal(schemas ...*schema.Schema) ([]byte, error) {
	doc := Document{Structs: make([]StructDef, 0, len(schemas))}
	for _, s := range schemas {
		def := StructDef{Name: s.Name(), Union: s.Union()}
		for _, f := range s.Fields() {
			def.Fields = append(def.Fields, FieldDef{Name: f.Name, Type: f.TypeString(), Default: f.Default})
		}
		doc.Structs = append(doc.Structs, def)
	}
	return yaml.Marshal(&doc)
}
