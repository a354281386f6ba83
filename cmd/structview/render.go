package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/cstruct/layout"
	"github.com/wippyai/cstruct/schema"
)

var (
	keywordStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	declStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	offsetStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	holeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	summaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type layoutJSON struct {
	Name   string      `json:"name"`
	Model  string      `json:"model"`
	Fields []fieldJSON `json:"fields"`
	Size   uint32      `json:"size"`
	Align  uint32      `json:"align"`
	Tail   uint32      `json:"tail_padding,omitempty"`
	Union  bool        `json:"union,omitempty"`
}

type fieldJSON struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Decl    string `json:"decl"`
	Offset  uint32 `json:"offset"`
	Size    uint32 `json:"size"`
	Align   uint32 `json:"align"`
	Padding uint32 `json:"padding_before,omitempty"`
}

func toJSON(info *layout.Info) layoutJSON {
	out := layoutJSON{
		Name:   info.Schema.Name(),
		Model:  info.Model.String(),
		Union:  info.Schema.Union(),
		Size:   info.Size,
		Align:  info.Align,
		Tail:   info.Padding(len(info.Fields)),
		Fields: make([]fieldJSON, len(info.Fields)),
	}
	for i := range info.Fields {
		f := &info.Fields[i]
		out.Fields[i] = fieldJSON{
			Name:    f.Name,
			Type:    f.Field.TypeString(),
			Decl:    declaration(info.Schema, f),
			Offset:  f.Offset,
			Size:    f.Size,
			Align:   f.Align,
			Padding: info.Padding(i),
		}
	}
	return out
}

// declaration renders a member the way a C header declares it.
func declaration(owner *schema.Schema, f *layout.FieldInfo) string {
	spec := f.Field
	switch spec.Kind {
	case schema.KindArray:
		if spec.Length == 0 {
			return fmt.Sprintf("%s *%s", spec.Type.CName(), f.Name)
		}
		return fmt.Sprintf("%s %s[%d]", spec.Type.CName(), f.Name, spec.Length)
	case schema.KindStruct:
		target := owner.Target(spec).Name()
		if spec.Inline {
			return fmt.Sprintf("struct %s %s", target, f.Name)
		}
		return fmt.Sprintf("struct %s *%s", target, f.Name)
	case schema.KindEnum:
		return fmt.Sprintf("%s %s /* enum */", spec.Type.CName(), f.Name)
	case schema.KindFunc:
		return fmt.Sprintf("void (*%s)()", f.Name)
	}
	return spec.Type.CName() + " " + f.Name
}

// renderStruct prints a layout in pahole style: one line per member with its
// offset and size, plus the padding holes between members.
func renderStruct(info *layout.Info, styled bool) string {
	paint := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	keyword := "struct"
	if info.Schema.Union() {
		keyword = "union"
	}

	decls := make([]string, len(info.Fields))
	width := 0
	for i := range info.Fields {
		decls[i] = declaration(info.Schema, &info.Fields[i]) + ";"
		if len(decls[i]) > width {
			width = len(decls[i])
		}
	}

	var b strings.Builder
	b.WriteString(paint(keywordStyle, keyword))
	b.WriteString(" " + info.Schema.Name() + " {\n")

	holes, holeBytes := 0, uint32(0)
	for i := range info.Fields {
		f := &info.Fields[i]
		if pad := info.Padding(i); pad > 0 {
			holes++
			holeBytes += pad
			b.WriteString("\t" + paint(holeStyle, fmt.Sprintf("/* XXX %d byte%s hole */", pad, plural(pad))) + "\n")
		}
		b.WriteString("\t")
		b.WriteString(paint(declStyle, fmt.Sprintf("%-*s", width, decls[i])))
		b.WriteString(" ")
		b.WriteString(paint(offsetStyle, fmt.Sprintf("/* %5d %5d */", f.Offset, f.Size)))
		b.WriteString("\n")
	}

	tail := info.Padding(len(info.Fields))
	if tail > 0 {
		b.WriteString("\t" + paint(holeStyle, fmt.Sprintf("/* XXX %d byte%s tail padding */", tail, plural(tail))) + "\n")
	}

	b.WriteString("\n\t")
	b.WriteString(paint(summaryStyle, fmt.Sprintf("/* size: %d, align: %d, members: %d, model: %s */",
		info.Size, info.Align, len(info.Fields), info.Model)))
	b.WriteString("\n")
	if holes > 0 {
		b.WriteString("\t")
		b.WriteString(paint(summaryStyle, fmt.Sprintf("/* sum holes: %d bytes in %d hole%s */", holeBytes, holes, plural(uint32(holes)))))
		b.WriteString("\n")
	}
	b.WriteString("};\n")
	return b.String()
}

func plural(n uint32) string {
	if n == 1 {
		return ""
	}
	return "s"
}
