package cstruct

// retainer keeps Go values whose memory is referenced from pointer slots
// reachable until the slot is overwritten. Slots are keyed by native
// address, which stays the same when a growable memory moves.
//
// Held values are byte buffers (strings, slices) or instances stored by
// reference, whose own retainers come along with them.
type retainer struct {
	held  map[uintptr]any
	links []*retainer
}

func newRetainer() *retainer {
	return &retainer{held: make(map[uintptr]any)}
}

// hold records v for slot. A nil value releases the slot.
func (r *retainer) hold(slot uintptr, v any) {
	switch x := v.(type) {
	case nil:
		delete(r.held, slot)
		return
	case []byte:
		if x == nil {
			delete(r.held, slot)
			return
		}
	case *Instance:
		if x == nil {
			delete(r.held, slot)
			return
		}
	}
	r.held[slot] = v
}

func (r *retainer) release(slot uintptr) {
	delete(r.held, slot)
}

// adopt replaces the entries in [to, to+n) with the entries src holds in
// [from, from+n), at the same relative slots. Retainers linked to src are
// linked to r.
func (r *retainer) adopt(src *retainer, from, to uintptr, n uint32) {
	end := uintptr(n)
	moved := make(map[uintptr]any)
	for k, v := range src.held {
		if k >= from && k-from < end {
			moved[to+(k-from)] = v
		}
	}
	for k := range r.held {
		if k >= to && k-to < end {
			delete(r.held, k)
		}
	}
	for k, v := range moved {
		r.held[k] = v
	}
	for _, l := range src.links {
		r.link(l)
	}
}

// link keeps everything other holds reachable for as long as r is.
func (r *retainer) link(other *retainer) {
	if other == nil || other == r {
		return
	}
	for _, l := range r.links {
		if l == other {
			return
		}
	}
	r.links = append(r.links, other)
}

func (r *retainer) len() int {
	return len(r.held)
}
