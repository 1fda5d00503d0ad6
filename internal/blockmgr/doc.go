// Package blockmgr implements the block-level machinery of a single-threaded,
// boundary-tag heap allocator: header/footer accounting, a pluggable free
// index (next-fit explicit list or segregated size-class buckets), boundary
// coalescing, split placement, and the heap consistency checker.
//
// The package never talks to the operating system directly; it grows and
// reads the heap exclusively through a Provider, so the same block logic
// runs unmodified over an in-process buffer or a real mmap'd region.
package blockmgr
