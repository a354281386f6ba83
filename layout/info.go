package layout

import "github.com/wippyai/cstruct/schema"

// FieldInfo is the placement of one member.
type FieldInfo struct {
	Nested *Info // layout of an inline struct member
	Name   string
	Field  schema.Field
	Index  int
	Offset uint32
	Size   uint32
	Align  uint32
	Elem   uint32 // element width for arrays
}

// End returns the first byte past the member.
func (f *FieldInfo) End() uint32 {
	return f.Offset + f.Size
}

// Info is the computed, immutable layout of a schema.
type Info struct {
	Schema *schema.Schema
	index  map[string]int
	Model  DataModel
	Fields []FieldInfo
	Size   uint32
	Align  uint32
}

// Field looks up a member by name.
func (i *Info) Field(name string) (*FieldInfo, bool) {
	idx, ok := i.index[name]
	if !ok {
		return nil, false
	}
	return &i.Fields[idx], true
}

// Padding returns the number of padding bytes inserted before member idx,
// or after the last member when idx == len(Fields).
func (i *Info) Padding(idx int) uint32 {
	if i.Schema != nil && i.Schema.Union() {
		if idx == len(i.Fields) {
			var max uint32
			for _, f := range i.Fields {
				if f.Size > max {
					max = f.Size
				}
			}
			return i.Size - max
		}
		return 0
	}
	var prev uint32
	if idx > 0 {
		prev = i.Fields[idx-1].End()
	}
	if idx == len(i.Fields) {
		return i.Size - prev
	}
	return i.Fields[idx].Offset - prev
}
