package blockmgr

// place carves asize bytes of allocated space out of the free block at bp,
// which must already have been found by the index but not yet removed.
// Blocks too small to split after carving (remainder <= 16 bytes) are
// handed over whole. Large requests (asize >= largeCutoff) are placed at
// the tail of the free block, leaving the residual free region at the
// front where a subsequent next-fit search finds it immediately; small
// requests are placed at the front, matching the teacher-grounded
// reference placement heuristic. Callers must advance past bp to
// nextBlock(bp) when the returned pointer is still marked free.
func (h *heap) place(idx freeIndex, bp ptr, asize uintptr, largeCutoff uintptr) ptr {
	idx.remove(bp)
	csize := h.sizeOf(bp)
	remainder := csize - asize

	switch {
	case remainder <= minBlockSize:
		h.writeHeader(bp, csize, true)
		h.writeFooter(bp, csize, true)
	case asize >= largeCutoff:
		h.writeHeader(bp, remainder, false)
		h.writeFooter(bp, remainder, false)
		tail := bp + ptr(remainder)
		h.writeHeader(tail, asize, true)
		h.writeFooter(tail, asize, true)
		idx.insert(bp)
	default:
		h.writeHeader(bp, asize, true)
		h.writeFooter(bp, asize, true)
		tail := bp + ptr(asize)
		h.writeHeader(tail, remainder, false)
		h.writeFooter(tail, remainder, false)
		idx.insert(tail)
	}
	return bp
}
