package wasm

import (
	"context"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/cstruct/internal/abi"
)

// Allocator reserves guest memory and returns its offset.
type Allocator interface {
	Alloc(size, align uint32) (uint32, error)
}

// WrapAllocator wraps a guest cabi_realloc-style export
// (old_ptr, old_size, align, new_size) -> ptr.
func WrapAllocator(ctx context.Context, fn api.Function) Allocator {
	if fn == nil {
		return nil
	}
	return &AllocatorWrapper{Ctx: ctx, Fn: fn}
}

// AllocatorWrapper adapts a guest realloc export to Allocator.
type AllocatorWrapper struct {
	Ctx context.Context
	Fn  api.Function
}

// Alloc allocates memory using the realloc export.
func (a *AllocatorWrapper) Alloc(size, align uint32) (uint32, error) {
	results, err := a.Fn.Call(a.Ctx, 0, 0, uint64(align), uint64(size))
	if err != nil {
		return 0, fmt.Errorf("allocation failed: %w", err)
	}
	if len(results) == 0 {
		return 0, fmt.Errorf("allocation returned no result")
	}
	return uint32(results[0]), nil
}

// Free deallocates memory using the realloc export.
func (a *AllocatorWrapper) Free(ptr, size, align uint32) {
	_, _ = a.Fn.Call(a.Ctx, uint64(ptr), uint64(size), uint64(align), 0)
}

// BumpAllocator hands out a fixed region of guest memory and never frees.
type BumpAllocator struct {
	mu    sync.Mutex
	next  uint32
	limit uint32
}

// NewBumpAllocator serves [start, limit). start must be non-zero so no
// allocation is mistaken for NULL.
func NewBumpAllocator(start, limit uint32) *BumpAllocator {
	if start == 0 {
		start = 8
	}
	return &BumpAllocator{next: start, limit: limit}
}

func (a *BumpAllocator) Alloc(size, align uint32) (uint32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ptr := abi.AlignTo(a.next, align)
	end, ok := abi.SafeAddU32(ptr, size)
	if !ok || end > a.limit || ptr < a.next {
		return 0, fmt.Errorf("bump allocator exhausted: need %d bytes at %d, limit %d", size, ptr, a.limit)
	}
	a.next = end
	return ptr, nil
}

// Used returns the next free offset.
func (a *BumpAllocator) Used() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.next
}
