package cstruct

import (
	"github.com/wippyai/cstruct/layout"
	"github.com/wippyai/cstruct/schema"
)

// Type is a schema bound to its computed layout.
type Type struct {
	lib    *Library
	schema *schema.Schema
	info   *layout.Info
}

func (t *Type) Name() string {
	return t.schema.Name()
}

func (t *Type) Schema() *schema.Schema {
	return t.schema
}

// Layout returns the computed layout. It must not be modified.
func (t *Type) Layout() *layout.Info {
	return t.info
}

func (t *Type) Size() uint32 {
	return t.info.Size
}

func (t *Type) Align() uint32 {
	return t.info.Align
}

// Offset returns the byte offset of a member.
func (t *Type) Offset(name string) (uint32, bool) {
	f, ok := t.info.Field(name)
	if !ok {
		return 0, false
	}
	return f.Offset, true
}

func (t *Type) Library() *Library {
	return t.lib
}
