//go:build windows

package allocator

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

const reservationSize = 1 << 30 // 1 GiB of address space

// osHeap emulates sbrk(2)/brk(2) over a single large VirtualAlloc
// reservation, committing and decommitting pages as the break moves.
type osHeap struct {
	base  uintptr
	limit uintptr
	brk   uintptr
}

func newOSHeap() (*osHeap, error) {
	base, err := windows.VirtualAlloc(0, reservationSize, windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, err
	}

	return &osHeap{base: base, limit: base + reservationSize, brk: base}, nil
}

func (h *osHeap) extendBreak(delta uintptr) (old uintptr, ok bool) {
	next := h.brk + delta
	if next > h.limit || next < h.brk {
		return 0, false
	}

	if _, err := windows.VirtualAlloc(h.brk, delta, windows.MEM_COMMIT, windows.PAGE_READWRITE); err != nil {
		return 0, false
	}

	old = h.brk
	h.brk = next

	return old, true
}

func (h *osHeap) setBreak(addr uintptr) bool {
	if addr < h.base || addr > h.brk {
		return false
	}

	if addr < h.brk {
		_ = windows.VirtualFree(addr, h.brk-addr, windows.MEM_DECOMMIT)
	}

	h.brk = addr

	return true
}

func (h *osHeap) programBreak() uintptr {
	return h.brk
}

// mapAnonymous obtains a standalone committed mapping for a large
// allocation, outside the reservation entirely.
func mapAnonymous(length uintptr) (unsafe.Pointer, bool) {
	addr, err := windows.VirtualAlloc(0, length, windows.MEM_RESERVE|windows.MEM_COMMIT, windows.PAGE_READWRITE)
	if err != nil {
		return nil, false
	}

	return unsafe.Pointer(addr), true
}

// unmapAnonymous releases a mapping obtained from mapAnonymous.
func unmapAnonymous(p unsafe.Pointer, length uintptr) {
	_ = windows.VirtualFree(uintptr(p), 0, windows.MEM_RELEASE)
}
