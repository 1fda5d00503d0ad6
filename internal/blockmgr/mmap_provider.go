//go:build unix

package blockmgr

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// MmapProvider reserves a large span of address space with a single
// anonymous mmap and treats growth as a logical brk moving within that
// reservation. Anonymous pages are backed lazily by the kernel, so
// reserving far more than will ever be used costs address space, not
// physical memory, unlike MemProvider's eager []byte allocation.
type MmapProvider struct {
	region   []byte
	base     unsafe.Pointer
	size     uintptr
	pageSize uintptr
}

// NewMmapProvider reserves maxBytes of anonymous, private memory.
func NewMmapProvider(maxBytes uintptr) (*MmapProvider, error) {
	if maxBytes == 0 {
		maxBytes = 256 << 20
	}
	region, err := unix.Mmap(-1, 0, int(maxBytes), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("blockmgr: mmap reservation of %d bytes failed: %w", maxBytes, err)
	}
	return &MmapProvider{
		region:   region,
		base:     unsafe.Pointer(&region[0]),
		pageSize: uintptr(unix.Getpagesize()),
	}, nil
}

func (p *MmapProvider) Extend(nbytes uintptr) bool {
	newSize := p.size + nbytes
	if newSize > uintptr(len(p.region)) {
		return false
	}
	p.size = newSize
	return true
}

func (p *MmapProvider) HeapLo() unsafe.Pointer { return p.base }

func (p *MmapProvider) HeapHi() unsafe.Pointer {
	if p.size == 0 {
		return p.base
	}
	return unsafe.Add(p.base, int(p.size-1))
}

func (p *MmapProvider) HeapSize() uintptr { return p.size }

func (p *MmapProvider) PageSize() uintptr { return p.pageSize }

// Close releases the reservation back to the host. The allocator built on
// top of a closed provider must not be used again.
func (p *MmapProvider) Close() error {
	return unix.Munmap(p.region)
}
