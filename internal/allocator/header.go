// Package allocator implements a header-prefixed, sbrk-and-mmap backed
// general purpose memory allocator for the Orizon runtime's native targets.
//
// The allocator exposes four operations — Allocate, Free, ZeroAllocate and
// Resize — backed by a block manager: a chain of headers threaded through
// the heap in address order, a LIFO free chain, first-fit search, and
// split/coalesce to bound fragmentation. Allocations at or above
// MMAPThreshold bypass the heap entirely and are mapped as standalone
// anonymous regions, released individually on Free.
package allocator

import "unsafe"

// Configuration constants, fixed at build time per the allocator's contract.
const (
	// Alignment is the byte boundary every payload and block size is rounded
	// up to.
	Alignment = 16

	// MMAPThreshold is the aligned request size at or above which an
	// allocation bypasses the heap and is mapped as its own region.
	MMAPThreshold = 128 * 1024

	// MinSplitSize is the minimum payload size of a free leftover block
	// produced by split. Below this, the whole block is handed to the
	// caller instead of being split.
	MinSplitSize = 32
)

// header is the fixed metadata prefix of every block, live or free, mapped
// or heap-resident. It is never copied or passed by value across a block
// boundary — the header IS the block, reached only via unsafe.Pointer
// arithmetic from a user payload pointer.
type header struct {
	size uintptr

	isFree bool
	isMmap bool

	spatialNext *header
	spatialPrev *header

	freeNext *header
	freePrev *header
}

const (
	rawHeaderSize     = unsafe.Sizeof(header{})
	alignedHeaderSize = (rawHeaderSize + Alignment - 1) &^ (Alignment - 1)
)

// alignUp rounds n up to the nearest multiple of alignment. alignment must
// be a power of two.
func alignUp(n, alignment uintptr) uintptr {
	return (n + alignment - 1) &^ (alignment - 1)
}

// headerFromPointer reconstructs the header for a user payload pointer by
// subtracting the aligned header size. Callers must only pass pointers
// previously returned by Allocate/ZeroAllocate/Resize.
func headerFromPointer(p unsafe.Pointer) *header {
	return (*header)(unsafe.Pointer(uintptr(p) - alignedHeaderSize))
}

// payload returns the user-facing pointer for a block: exactly one
// aligned-header-size offset past the header itself.
func (h *header) payload() unsafe.Pointer {
	return unsafe.Pointer(uintptr(unsafe.Pointer(h)) + alignedHeaderSize)
}

// end returns the address one past the end of h's payload — where the next
// spatially-adjacent header would begin.
func (h *header) end() uintptr {
	return uintptr(unsafe.Pointer(h)) + alignedHeaderSize + h.size
}
