package blockmgr

import "unsafe"

const (
	wordSize     = 4
	dwordSize    = 8
	minBlockSize = 2 * dwordSize
)

// ptr is a byte offset from the heap's origin (Provider.HeapLo()). Using an
// offset rather than a raw unsafe.Pointer keeps every link field, header,
// and footer a plain 4-byte word, matching the block layout's word size
// regardless of host pointer width, and keeps Go's garbage collector out of
// memory we manage entirely by hand.
type ptr uint32

// nilPtr denotes "no block". Offset 0 is never a valid block pointer: the
// heap always begins with at least an alignment pad word before the
// prologue, so no header, footer, or payload address ever lands on zero.
const nilPtr ptr = 0

// heap binds a Provider to the word-level operations the block manager
// needs: translating offsets to addresses and reading/writing the raw
// 4-byte words that carry header, footer, and free-list link information.
type heap struct {
	provider Provider
	origin   unsafe.Pointer
	mapped   uintptr
}

func newHeap(p Provider) *heap {
	return &heap{provider: p, origin: p.HeapLo()}
}

// extend grows the underlying provider and keeps the local mapped-bytes
// bookkeeping in sync. It never fails silently: on refusal the heap's state
// is unchanged and mapped is not advanced.
func (h *heap) extend(nbytes uintptr) bool {
	if !h.provider.Extend(nbytes) {
		return false
	}
	h.mapped += nbytes
	return true
}

func (h *heap) at(p ptr) unsafe.Pointer { return unsafe.Add(h.origin, int(p)) }

func (h *heap) addr(up unsafe.Pointer) ptr { return ptr(uintptr(up) - uintptr(h.origin)) }

func (h *heap) readWord(p ptr) uint32 { return *(*uint32)(h.at(p)) }

func (h *heap) writeWord(p ptr, w uint32) { *(*uint32)(h.at(p)) = w }
