package layout

import (
	"sync"

	"github.com/wippyai/cstruct/errors"
	"github.com/wippyai/cstruct/internal/abi"
	"github.com/wippyai/cstruct/schema"
)

// Calculator computes and caches layouts for one data model.
type Calculator struct {
	cache map[*schema.Schema]*Info
	model DataModel
	mu    sync.Mutex
}

func NewCalculator(model DataModel) *Calculator {
	if model.PointerSize == 0 {
		model = LP64
	}
	return &Calculator{
		cache: make(map[*schema.Schema]*Info),
		model: model,
	}
}

func (c *Calculator) Model() DataModel {
	return c.model
}

// Calculate returns the layout of s. The result is cached; repeated calls
// return the same *Info.
func (c *Calculator) Calculate(s *schema.Schema) (*Info, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calculate(s)
}

func (c *Calculator) calculate(s *schema.Schema) (*Info, error) {
	if s == nil {
		return nil, errors.New(errors.PhaseLayout, errors.KindSchema).Detail("nil schema").Build()
	}
	if cached, ok := c.cache[s]; ok {
		return cached, nil
	}

	fields := s.Fields()
	info := &Info{
		Schema: s,
		Model:  c.model,
		Fields: make([]FieldInfo, len(fields)),
		index:  make(map[string]int, len(fields)),
	}

	maxAlign := uint32(1)
	offset := uint32(0)
	maxSize := uint32(0)

	for i, f := range fields {
		fi, err := c.member(s, f)
		if err != nil {
			return nil, err
		}
		fi.Index = i

		if s.Union() {
			fi.Offset = 0
			if fi.Size > maxSize {
				maxSize = fi.Size
			}
		} else {
			offset = abi.AlignTo(offset, fi.Align)
			fi.Offset = offset
			next, ok := abi.SafeAddU32(offset, fi.Size)
			if !ok {
				return nil, overflow(s, f)
			}
			offset = next
		}

		if fi.Align > maxAlign {
			maxAlign = fi.Align
		}
		info.Fields[i] = fi
		info.index[f.Name] = i
	}

	raw := offset
	if s.Union() {
		raw = maxSize
	}
	if raw > ^uint32(0)-maxAlign {
		return nil, overflow(s, fields[len(fields)-1])
	}

	info.Size = abi.AlignTo(raw, maxAlign)
	info.Align = maxAlign

	c.cache[s] = info
	return info, nil
}

func (c *Calculator) member(parent *schema.Schema, f schema.Field) (FieldInfo, error) {
	ptr := c.model.PointerSize
	fi := FieldInfo{Name: f.Name, Field: f}

	switch f.Kind {
	case schema.KindPrimitive:
		fi.Size = f.Type.Width(ptr)
		fi.Align = fi.Size

	case schema.KindEnum:
		fi.Size = f.Type.Width(ptr)
		fi.Align = fi.Size

	case schema.KindFunc:
		fi.Size = ptr
		fi.Align = ptr

	case schema.KindArray:
		fi.Elem = f.Type.Width(ptr)
		if f.Length == 0 {
			fi.Size = ptr
			fi.Align = ptr
			break
		}
		size, ok := abi.SafeMulU32(uint32(f.Length), fi.Elem)
		if !ok || f.Length < 0 {
			return fi, overflow(parent, f)
		}
		fi.Size = size
		fi.Align = fi.Elem

	case schema.KindStruct:
		if !f.Inline {
			fi.Size = ptr
			fi.Align = ptr
			break
		}
		target := parent.Target(f)
		if target == parent {
			return fi, errors.Schema([]string{parent.Name(), f.Name}, "struct cannot embed itself inline")
		}
		nested, err := c.calculate(target)
		if err != nil {
			return fi, err
		}
		fi.Nested = nested
		fi.Size = nested.Size
		fi.Align = nested.Align

	default:
		return fi, errors.Unsupported(errors.PhaseLayout, []string{parent.Name(), f.Name}, "field kind "+f.Kind.String())
	}

	if fi.Size == 0 {
		return fi, errors.Unsupported(errors.PhaseLayout, []string{parent.Name(), f.Name}, "type "+f.TypeString())
	}
	return fi, nil
}

func overflow(s *schema.Schema, f schema.Field) error {
	return errors.New(errors.PhaseLayout, errors.KindSchema).
		Path(s.Name(), f.Name).
		Detail("struct size overflows 32 bits").
		Build()
}
