package blockmgr

// coalesce merges bp with any free neighbor, registers the resulting block
// in idx, and returns its (possibly relocated) block pointer. It is the one
// place that mutates neighbor headers/footers on a free, so every caller
// that frees or extends goes through it rather than re-deriving the four
// prev/next-allocated cases itself.
func (h *heap) coalesce(idx freeIndex, bp ptr) ptr {
	prevBp := h.prevBlock(bp)
	nextBp := h.nextBlock(bp)
	prevFree := !h.isAllocated(prevBp)
	nextFree := !h.isAllocated(nextBp)
	size := h.sizeOf(bp)

	switch {
	case !prevFree && !nextFree:
		// Nothing to merge.
	case !prevFree && nextFree:
		idx.remove(nextBp)
		size += h.sizeOf(nextBp)
		h.writeHeader(bp, size, false)
		h.writeFooter(bp, size, false)
	case prevFree && !nextFree:
		idx.remove(prevBp)
		size += h.sizeOf(prevBp)
		h.writeHeader(prevBp, size, false)
		h.writeFooter(prevBp, size, false)
		bp = prevBp
	default:
		idx.remove(prevBp)
		idx.remove(nextBp)
		size += h.sizeOf(prevBp) + h.sizeOf(nextBp)
		h.writeHeader(prevBp, size, false)
		h.writeFooter(prevBp, size, false)
		bp = prevBp
	}

	idx.insert(bp)
	if rs, ok := idx.(roverSnapper); ok {
		rs.snapRover(bp, bp+ptr(size))
	}
	return bp
}
