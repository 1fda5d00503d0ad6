package blockmgr

import "fmt"

// CheckResult reports every consistency violation CheckHeap found. A nil or
// empty Errors slice means the heap is consistent.
type CheckResult struct {
	Errors []string
}

// OK reports whether the heap passed every check.
func (r CheckResult) OK() bool { return len(r.Errors) == 0 }

// CheckHeap walks the entire heap from the prologue to the epilogue,
// validating header/footer agreement, double-word alignment, the "no two
// free blocks are ever adjacent" invariant, and free-index faithfulness.
// Free-index faithfulness is checked the same way for both strategies:
// toggle a reserved mark bit on every block the index currently holds,
// walk the heap, flag any free block whose mark was not set, then toggle
// the bits back so the heap's observable state is unchanged. If verbose is
// true, each visited block is also printed.
func (m *Manager) CheckHeap(verbose bool) CheckResult {
	var res CheckResult
	h := m.h

	if !h.isAllocated(m.first) {
		res.Errors = append(res.Errors, "prologue block is not marked allocated")
	}

	m.idx.forEach(func(bp ptr) { h.toggleMark(bp) })

	bp := m.first
	prevFree := false
	for {
		size := h.sizeOf(bp)
		alloc := h.isAllocated(bp)
		if verbose {
			fmt.Printf("%#06x: header=[%d:%v]\n", uint32(bp), size, alloc)
		}
		if size == 0 {
			if !alloc {
				res.Errors = append(res.Errors, "epilogue block is not marked allocated")
			}
			break
		}
		if size%dwordSize != 0 {
			res.Errors = append(res.Errors, fmt.Sprintf("block %#x size %d is not a multiple of %d", uint32(bp), size, dwordSize))
		}
		// Mask out the mark bit: the mark/sweep pass above toggles it on
		// the header of every indexed free block, but never on its
		// footer, so comparing the raw words would flag every marked
		// free block as a false header/footer mismatch.
		headerWord := h.readWord(h.headerOf(bp)) &^ markBit
		footerWord := h.readWord(h.footerOf(bp)) &^ markBit
		if headerWord != footerWord {
			res.Errors = append(res.Errors, fmt.Sprintf("block %#x header/footer mismatch", uint32(bp)))
		}
		free := !alloc
		if free && prevFree {
			res.Errors = append(res.Errors, fmt.Sprintf("adjacent free blocks ending at %#x", uint32(bp)))
		}
		if free && !h.isMarked(bp) {
			res.Errors = append(res.Errors, fmt.Sprintf("free block %#x is missing from the free index", uint32(bp)))
		}
		prevFree = free
		bp = h.nextBlock(bp)
	}

	m.idx.forEach(func(bp ptr) { h.toggleMark(bp) })

	return res
}
