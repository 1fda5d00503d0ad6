package blockmgr

import (
	"fmt"
	"unsafe"
)

// Params configures a Manager. Provider is required; the remaining fields
// fall back to the same defaults the reference implementation uses.
type Params struct {
	Strategy    Strategy
	ChunkSize   uintptr
	LargeCutoff uintptr
	Provider    Provider
}

// Manager is the block-level allocator: it owns the heap's layout, the
// chosen free index, and the public alloc/free/realloc/check operations.
// A Manager is not safe for concurrent use; it assumes a single logical
// thread of control and is never reentered mid-operation, matching the
// concurrency model of the system it implements.
type Manager struct {
	h           *heap
	idx         freeIndex
	strategy    Strategy
	chunkSize   uintptr
	largeCutoff uintptr
	first       ptr
	stats       Stats
}

// NewManager lays out a fresh heap on top of p and seeds it with one
// initial chunk-sized free block, ready for allocation.
func NewManager(p Params) (*Manager, error) {
	if p.Provider == nil {
		return nil, fmt.Errorf("blockmgr: a Provider is required")
	}
	if p.ChunkSize == 0 {
		p.ChunkSize = 4096
	}
	if p.LargeCutoff == 0 {
		p.LargeCutoff = 100
	}
	m := &Manager{
		strategy:    p.Strategy,
		chunkSize:   p.ChunkSize,
		largeCutoff: p.LargeCutoff,
		h:           newHeap(p.Provider),
	}
	if err := m.layout(); err != nil {
		return nil, err
	}
	if _, ok := m.extendHeap(m.chunkSize); !ok {
		return nil, fmt.Errorf("blockmgr: failed to grow initial heap by %d bytes", m.chunkSize)
	}
	return m, nil
}

// layout writes the prologue and epilogue sentinels for the chosen
// strategy. It reserves (RANKSIZE+2)*4 = 48 bytes of prologue for the
// segregated variant (to hold the ten bucket roots) and a minimal 8-byte
// prologue for the explicit variant, since that variant carries no
// embedded free-list anchor.
func (m *Manager) layout() error {
	switch m.strategy {
	case StrategySegregated:
		return m.layoutSegregated()
	default:
		return m.layoutExplicit()
	}
}

// layoutExplicit reserves 16 bytes: a pad word, a minimal (size-8,
// zero-payload) prologue whose block pointer doubles as its own footer
// address, and an epilogue header.
func (m *Manager) layoutExplicit() error {
	if !m.h.extend(4 * wordSize) {
		return fmt.Errorf("blockmgr: failed to reserve initial heap space")
	}
	m.h.writeWord(ptr(0), 0) // alignment pad
	bp := ptr(dwordSize)
	m.h.writeHeader(bp, dwordSize, true)
	m.h.writeFooter(bp, dwordSize, true)
	epilogue := m.h.nextBlock(bp)
	m.h.writeHeader(epilogue, 0, true)
	m.first = bp
	m.idx = newExplicitList(m.h)
	return nil
}

const segClassCount = len(classBounds)

// layoutSegregated reserves (RANKSIZE+4)*4 = 56 bytes: a pad word, a
// (RANKSIZE+2)*4 = 48-byte prologue whose payload holds the ten bucket
// roots, and an epilogue header.
func (m *Manager) layoutSegregated() error {
	total := uintptr(segClassCount+4) * wordSize
	if !m.h.extend(total) {
		return fmt.Errorf("blockmgr: failed to reserve initial heap space")
	}
	m.h.writeWord(ptr(0), 0) // alignment pad
	bp := ptr(dwordSize)
	prologueSize := uintptr(segClassCount+2) * wordSize
	m.h.writeHeader(bp, prologueSize, true)
	m.h.writeFooter(bp, prologueSize, true)
	for k := 0; k < segClassCount; k++ {
		m.h.writeWord(bp+ptr(k*wordSize), uint32(nilPtr))
	}
	epilogue := m.h.nextBlock(bp)
	m.h.writeHeader(epilogue, 0, true)
	m.first = bp
	m.idx = &segregatedList{h: m.h, bucketsBase: bp}
	return nil
}

func (m *Manager) asizeFor(size uintptr) uintptr { return blockSizeFor(size) }

// Alloc returns a pointer to at least size bytes of uninitialized payload,
// or nil if size is zero or the heap cannot grow far enough to satisfy the
// request. Memory is never mutated on failure.
func (m *Manager) Alloc(size uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}
	asize := m.asizeFor(size)

	if bp, ok := m.idx.find(asize); ok {
		bp = m.h.place(m.idx, bp, asize, m.largeCutoff)
		if !m.h.isAllocated(bp) {
			bp = m.h.nextBlock(bp)
		}
		m.stats.recordAlloc(m.h.sizeOf(bp))
		return m.h.at(bp)
	}

	extendBytes := asize
	if m.chunkSize > extendBytes {
		extendBytes = m.chunkSize
	}
	bp, ok := m.extendHeap(extendBytes)
	if !ok {
		return nil
	}
	bp = m.h.place(m.idx, bp, asize, m.largeCutoff)
	if !m.h.isAllocated(bp) {
		bp = m.h.nextBlock(bp)
	}
	m.stats.recordAlloc(m.h.sizeOf(bp))
	return m.h.at(bp)
}

// Free releases a pointer previously returned by Alloc or Realloc. Freeing
// nil is a no-op.
func (m *Manager) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	bp := m.h.addr(p)
	size := m.h.sizeOf(bp)
	m.h.writeHeader(bp, size, false)
	m.h.writeFooter(bp, size, false)
	m.h.coalesce(m.idx, bp)
	m.stats.recordFree(size)
}

// Realloc resizes the allocation at p to at least size bytes, preserving
// min(old, new) bytes of content, and returns the (possibly relocated)
// pointer. Realloc(nil, size) behaves like Alloc(size); Realloc(p, 0)
// frees p and returns nil.
func (m *Manager) Realloc(p unsafe.Pointer, size uintptr) unsafe.Pointer {
	if p == nil {
		return m.Alloc(size)
	}
	if size == 0 {
		m.Free(p)
		return nil
	}

	bp := m.h.addr(p)
	csize := m.h.sizeOf(bp)
	asize := m.asizeFor(size)

	if asize == csize {
		return p
	}

	prevBp := m.h.prevBlock(bp)
	nextBp := m.h.nextBlock(bp)
	prevFree := !m.h.isAllocated(prevBp)
	nextFree := !m.h.isAllocated(nextBp)

	switch {
	case !prevFree && !nextFree:
		if asize < csize {
			if shrink := csize - asize; shrink >= minBlockSize {
				m.stats.BytesInUse -= shrink
				m.h.writeHeader(bp, asize, true)
				m.h.writeFooter(bp, asize, true)
				tail := bp + ptr(asize)
				m.h.writeHeader(tail, shrink, false)
				m.h.writeFooter(tail, shrink, false)
				m.idx.insert(tail)
			}
			return m.h.at(bp)
		}

	case !prevFree && nextFree:
		nextSize := m.h.sizeOf(nextBp)
		if asize < csize {
			shrink := csize - asize
			m.stats.BytesInUse -= shrink
			m.h.writeHeader(bp, asize, true)
			m.h.writeFooter(bp, asize, true)
			tail := bp + ptr(asize)
			m.h.writeHeader(tail, shrink, false)
			m.h.writeFooter(tail, shrink, false)
			m.h.coalesce(m.idx, tail)
			return m.h.at(bp)
		}
		need := asize - csize
		if nextSize >= need && nextSize-need >= minBlockSize {
			m.stats.BytesInUse += need
			m.idx.remove(nextBp)
			m.h.writeHeader(bp, asize, true)
			m.h.writeFooter(bp, asize, true)
			tail := bp + ptr(asize)
			m.h.writeHeader(tail, nextSize-need, false)
			m.h.writeFooter(tail, nextSize-need, false)
			m.idx.insert(tail)
			return m.h.at(bp)
		}

	case prevFree && !nextFree:
		prevSize := m.h.sizeOf(prevBp)
		if asize < csize {
			shrink := csize - asize
			m.stats.BytesInUse -= shrink
			m.h.writeHeader(bp, shrink, false)
			newPayload := bp + ptr(shrink)
			overlapMove(m.h.at(newPayload), m.h.at(bp), asize-dwordSize)
			m.h.writeFooter(bp, shrink, false)
			m.h.writeHeader(newPayload, asize, true)
			m.h.writeFooter(newPayload, asize, true)
			m.h.coalesce(m.idx, bp)
			return m.h.at(newPayload)
		}
		need := asize - csize
		if prevSize >= need && prevSize-need >= minBlockSize {
			m.stats.BytesInUse += need
			m.idx.remove(prevBp)
			newPrevSize := prevSize - need
			m.h.writeHeader(prevBp, newPrevSize, false)
			m.h.writeFooter(prevBp, newPrevSize, false)
			newPayload := prevBp + ptr(newPrevSize)
			overlapMove(m.h.at(newPayload), m.h.at(bp), csize-dwordSize)
			m.h.writeHeader(newPayload, asize, true)
			m.h.writeFooter(newPayload, asize, true)
			m.idx.insert(prevBp)
			return m.h.at(newPayload)
		}

	default:
		prevSize := m.h.sizeOf(prevBp)
		nextSize := m.h.sizeOf(nextBp)
		combined := prevSize + csize + nextSize
		if combined >= asize && combined-asize >= minBlockSize {
			leftover := combined - asize
			m.stats.BytesInUse = m.stats.BytesInUse - csize + asize
			m.idx.remove(prevBp)
			m.idx.remove(nextBp)
			if asize >= m.largeCutoff {
				m.h.writeHeader(prevBp, leftover, false)
				newPayload := prevBp + ptr(leftover)
				overlapMove(m.h.at(newPayload), m.h.at(bp), asize-dwordSize)
				m.h.writeFooter(prevBp, leftover, false)
				m.h.writeHeader(newPayload, asize, true)
				m.h.writeFooter(newPayload, asize, true)
				m.idx.insert(prevBp)
				return m.h.at(newPayload)
			}
			overlapMove(m.h.at(prevBp), m.h.at(bp), asize-dwordSize)
			m.h.writeHeader(prevBp, asize, true)
			m.h.writeFooter(prevBp, asize, true)
			tail := prevBp + ptr(asize)
			m.h.writeHeader(tail, leftover, false)
			m.h.writeFooter(tail, leftover, false)
			m.idx.insert(tail)
			return m.h.at(prevBp)
		}
	}

	newPtr := m.Alloc(size)
	if newPtr == nil {
		return nil
	}
	copyLen := asize
	if csize < copyLen {
		copyLen = csize
	}
	overlapMove(newPtr, p, copyLen-dwordSize)
	m.Free(p)
	return newPtr
}

// extendHeap grows the heap by nbytes (rounded up to a double-word
// multiple), installs a fresh free block and epilogue, and coalesces the
// new block with whatever free block preceded it.
func (m *Manager) extendHeap(nbytes uintptr) (ptr, bool) {
	nbytes = dwordSize * ((nbytes + dwordSize - 1) / dwordSize)
	newBp := ptr(m.h.mapped)
	if !m.h.extend(nbytes) {
		return nilPtr, false
	}
	m.h.writeHeader(newBp, nbytes, false)
	m.h.writeFooter(newBp, nbytes, false)
	epilogue := newBp + ptr(nbytes)
	m.h.writeHeader(epilogue, 0, true)
	return m.h.coalesce(m.idx, newBp), true
}

// Stats returns a snapshot of the manager's running allocation counters.
func (m *Manager) Stats() Stats {
	s := m.stats
	s.HeapSize = m.h.mapped
	return s
}
