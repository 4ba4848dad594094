//go:build linux || darwin || freebsd || netbsd || openbsd

package allocator

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// reservationSize bounds the virtual address range the emulated program
// break can grow into. It is pure address space: anonymous pages are
// zero-fill-on-demand and never backed by physical memory until touched, so
// reserving generously costs nothing up front.
const reservationSize = 1 << 30 // 1 GiB of address space

// osHeap emulates sbrk(2)/brk(2) — which Go exposes no portable wrapper for
// — over a single large anonymous mapping obtained once at first use.
type osHeap struct {
	base  uintptr
	limit uintptr
	brk   uintptr
}

func newOSHeap() (*osHeap, error) {
	data, err := unix.Mmap(-1, 0, reservationSize,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, err
	}

	base := uintptr(unsafe.Pointer(&data[0]))

	return &osHeap{base: base, limit: base + reservationSize, brk: base}, nil
}

// extendBreak advances the break by delta bytes and returns its previous
// value. Fails if the reservation would be exceeded.
func (h *osHeap) extendBreak(delta uintptr) (old uintptr, ok bool) {
	next := h.brk + delta
	if next > h.limit || next < h.brk {
		return 0, false
	}

	old = h.brk
	h.brk = next

	return old, true
}

// setBreak moves the break to addr directly, used to lower it during tail
// release. Pages between the new and old break are released back to the OS
// via MADV_DONTNEED — they keep their mapping (so the reservation stays
// intact for future growth) but stop consuming physical memory.
func (h *osHeap) setBreak(addr uintptr) bool {
	if addr < h.base || addr > h.brk {
		return false
	}

	if addr < h.brk {
		region := unsafe.Slice((*byte)(unsafe.Pointer(addr)), h.brk-addr)
		_ = unix.Madvise(region, unix.MADV_DONTNEED)
	}

	h.brk = addr

	return true
}

func (h *osHeap) programBreak() uintptr {
	return h.brk
}

// mapAnonymous obtains a standalone anonymous mapping for a large
// allocation, outside the reservation entirely.
func mapAnonymous(length uintptr) (unsafe.Pointer, bool) {
	data, err := unix.Mmap(-1, 0, int(length),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, false
	}

	return unsafe.Pointer(&data[0]), true
}

// unmapAnonymous releases a mapping obtained from mapAnonymous.
func unmapAnonymous(p unsafe.Pointer, length uintptr) {
	region := unsafe.Slice((*byte)(p), length)
	_ = unix.Munmap(region)
}
