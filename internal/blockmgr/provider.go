package blockmgr

import "unsafe"

//go:generate go run go.uber.org/mock/mockgen -destination=providermock/provider_mock.go -package=providermock github.com/orizon-lang/heapalloc/internal/blockmgr Provider

// Provider is the heap's external collaborator: it owns a single contiguous
// region of memory and grows it on request, mirroring the classic brk/sbrk
// contract. A Provider never relocates memory it has already handed out;
// HeapLo never changes for the lifetime of a Provider.
type Provider interface {
	// Extend grows the managed region by nbytes, appending at the current
	// end. It reports false if the host refuses the request (OOM); on
	// false the region is left completely unchanged.
	Extend(nbytes uintptr) bool

	// HeapLo returns the fixed starting address of the managed region.
	HeapLo() unsafe.Pointer

	// HeapHi returns the address of the last valid byte currently mapped,
	// or HeapLo itself if nothing has been mapped yet.
	HeapHi() unsafe.Pointer

	// HeapSize returns the number of bytes currently mapped from HeapLo.
	HeapSize() uintptr

	// PageSize reports the host's page granularity. It is advisory only;
	// the block manager never rounds requests to it.
	PageSize() uintptr
}
