package blockmgr

import "unsafe"

// Block header/footer word layout:
//
//	31                                  3   2   1   0
//	-----------------------------------------------------
//	|            size (multiple of 8)      | m | - | a |
//	-----------------------------------------------------
//
// a (bit 0) is the allocated flag, m (bit 2) is the checker's mark bit
// (toggleMark), bit 1 is unused and always zero since every block size is a
// multiple of 8.
const (
	allocBit uint32 = 0x1
	markBit  uint32 = 0x4
	sizeMask uint32 = ^uint32(0x7)
)

func pack(size uintptr, alloc bool) uint32 {
	w := uint32(size)
	if alloc {
		w |= allocBit
	}
	return w
}

func (h *heap) headerOf(bp ptr) ptr { return bp - wordSize }

func (h *heap) sizeOf(bp ptr) uintptr { return uintptr(h.readWord(h.headerOf(bp)) & sizeMask) }

func (h *heap) footerOf(bp ptr) ptr { return bp + ptr(h.sizeOf(bp)) - dwordSize }

func (h *heap) isAllocated(bp ptr) bool { return h.readWord(h.headerOf(bp))&allocBit != 0 }

func (h *heap) isMarked(bp ptr) bool { return h.readWord(h.headerOf(bp))&markBit != 0 }

func (h *heap) toggleMark(bp ptr) {
	hdr := h.headerOf(bp)
	h.writeWord(hdr, h.readWord(hdr)^markBit)
}

// nextBlock returns the block immediately following bp in address order.
// When bp is the last real block this yields the epilogue sentinel.
func (h *heap) nextBlock(bp ptr) ptr { return bp + ptr(h.sizeOf(bp)) }

// prevBlock returns the block immediately preceding bp, read from that
// block's footer. Safe to call on any real block because the prologue
// sentinel always precedes it.
func (h *heap) prevBlock(bp ptr) ptr {
	prevSize := uintptr(h.readWord(bp-dwordSize) & sizeMask)
	return bp - ptr(prevSize)
}

func (h *heap) writeHeader(bp ptr, size uintptr, alloc bool) {
	h.writeWord(h.headerOf(bp), pack(size, alloc))
}

func (h *heap) writeFooter(bp ptr, size uintptr, alloc bool) {
	h.writeWord(h.footerOf(bp), pack(size, alloc))
}

// Free-block link fields occupy the first two payload words: next at
// offset 0, prev at offset 4. They are only meaningful while the block is
// free and sit inside space that belongs to the caller once allocated.
func (h *heap) linkNext(bp ptr) ptr { return ptr(h.readWord(bp)) }

func (h *heap) setLinkNext(bp ptr, q ptr) { h.writeWord(bp, uint32(q)) }

func (h *heap) linkPrev(bp ptr) ptr { return ptr(h.readWord(bp + wordSize)) }

func (h *heap) setLinkPrev(bp ptr, q ptr) { h.writeWord(bp+wordSize, uint32(q)) }

// blockSizeFor converts a requested payload size into the 8-byte-aligned
// block size that must be carved out of the heap, reserving room for the
// header, footer, and (while free) the two link words.
func blockSizeFor(n uintptr) uintptr {
	if n <= dwordSize {
		return minBlockSize
	}
	return dwordSize * ((n + minBlockSize - 1) / dwordSize)
}

func overlapMove(dst, src unsafe.Pointer, n uintptr) {
	if n == 0 {
		return
	}
	d := unsafe.Slice((*byte)(dst), n)
	s := unsafe.Slice((*byte)(src), n)
	copy(d, s)
}
