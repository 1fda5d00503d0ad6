// Package heapalloc is the public front door of a single-threaded,
// boundary-tag dynamic storage allocator: a C-malloc-library-shaped API
// (Init, Alloc, Free, Realloc, CheckHeap) over one process-wide heap.
//
// The actual block manager — layout, free-index strategies, coalescing,
// placement — lives in internal/blockmgr and is fully usable on its own
// as an instantiable type; this package exists only to mirror the
// original global-state C API at the library's entry point.
package heapalloc

import (
	"fmt"
	"unsafe"

	"github.com/orizon-lang/heapalloc/internal/blockmgr"
)

// Strategy selects the free-index implementation. See blockmgr.Strategy.
type Strategy = blockmgr.Strategy

const (
	StrategyNextFit    = blockmgr.StrategyNextFit
	StrategySegregated = blockmgr.StrategySegregated
)

// CheckResult is the outcome of CheckHeap. See blockmgr.CheckResult.
type CheckResult = blockmgr.CheckResult

// Stats is a snapshot of the allocator's running counters.
type Stats = blockmgr.Stats

// Config configures the process-wide heap created by Init.
type Config struct {
	// Strategy selects next-fit (single circular list) or segregated
	// (ten size-class buckets). Zero value is StrategyNextFit.
	Strategy Strategy

	// MaxBytes bounds the default MemProvider's backing reservation.
	// Zero selects a 16MiB reservation.
	MaxBytes uintptr

	// ChunkSize is the minimum number of bytes requested from the
	// provider on each heap extension. Zero selects 4096.
	ChunkSize uintptr

	// LargeCutoff is the Placer's large-allocation tail-placement
	// threshold. Zero selects 100.
	LargeCutoff uintptr

	// Provider overrides the default MemProvider, e.g. with an
	// MmapProvider for a larger lazily-committed reservation.
	Provider blockmgr.Provider
}

var mgr *blockmgr.Manager

// Init (re)creates the process-wide heap. It is not safe to call
// concurrently with any other package function, matching the
// single-threaded, non-reentrant concurrency model of the system this
// package implements (spec §5): there is exactly one logical caller, and
// no operation here takes a lock.
func Init(cfg Config) error {
	provider := cfg.Provider
	if provider == nil {
		maxBytes := cfg.MaxBytes
		if maxBytes == 0 {
			maxBytes = 16 << 20
		}
		provider = blockmgr.NewMemProvider(maxBytes)
	}

	m, err := blockmgr.NewManager(blockmgr.Params{
		Strategy:    cfg.Strategy,
		ChunkSize:   cfg.ChunkSize,
		LargeCutoff: cfg.LargeCutoff,
		Provider:    provider,
	})
	if err != nil {
		return fmt.Errorf("heapalloc: init failed: %w", err)
	}
	mgr = m
	return nil
}

// Alloc returns a pointer to at least size bytes of uninitialized,
// 8-byte-aligned payload, or nil if size is zero or the heap cannot grow
// far enough. Panics if Init has not been called.
func Alloc(size uintptr) unsafe.Pointer {
	return mgr.Alloc(size)
}

// Free releases a pointer previously returned by Alloc or Realloc.
// Freeing nil is a no-op. Panics if Init has not been called.
func Free(p unsafe.Pointer) {
	mgr.Free(p)
}

// Realloc resizes the allocation at p to at least size bytes, preserving
// min(old, new) bytes of content. Realloc(nil, size) behaves like
// Alloc(size); Realloc(p, 0) frees p and returns nil. Panics if Init has
// not been called.
func Realloc(p unsafe.Pointer, size uintptr) unsafe.Pointer {
	return mgr.Realloc(p, size)
}

// CheckHeap walks the heap checking the sentinels, header/footer agreement,
// block-size alignment, the no-adjacent-free-blocks rule, and that every
// free block is in the free index, and reports every violation found; it
// never mutates observable state.
// Panics if Init has not been called.
func CheckHeap(verbose bool) CheckResult {
	return mgr.CheckHeap(verbose)
}

// ManagerStats returns a snapshot of the running allocation counters.
// Panics if Init has not been called.
func ManagerStats() Stats {
	return mgr.Stats()
}
