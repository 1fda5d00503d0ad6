package blockmgr

import "unsafe"

// MemProvider is the default Provider. It reserves a fixed-capacity buffer
// up front and treats growth as simple bookkeeping over that reservation,
// the same bump-pointer discipline the teacher's arena allocator uses over
// its backing buffer, just scoped to tracking a logical brk instead of
// handing out allocations itself.
type MemProvider struct {
	region   []byte
	base     unsafe.Pointer
	size     uintptr
	pageSize uintptr
}

// NewMemProvider reserves maxBytes of address space. The reservation is
// committed eagerly (it is a plain Go slice), so maxBytes should stay modest;
// callers who need a large virtual reservation without committing physical
// pages should use MmapProvider instead.
func NewMemProvider(maxBytes uintptr) *MemProvider {
	if maxBytes == 0 {
		maxBytes = 16 << 20
	}
	region := make([]byte, maxBytes)
	return &MemProvider{
		region:   region,
		base:     unsafe.Pointer(&region[0]),
		pageSize: 4096,
	}
}

func (p *MemProvider) Extend(nbytes uintptr) bool {
	newSize := p.size + nbytes
	if newSize > uintptr(len(p.region)) {
		return false
	}
	p.size = newSize
	return true
}

func (p *MemProvider) HeapLo() unsafe.Pointer { return p.base }

func (p *MemProvider) HeapHi() unsafe.Pointer {
	if p.size == 0 {
		return p.base
	}
	return unsafe.Add(p.base, int(p.size-1))
}

func (p *MemProvider) HeapSize() uintptr { return p.size }

func (p *MemProvider) PageSize() uintptr { return p.pageSize }
