package allocator

import "unsafe"

// Allocate returns a pointer to n bytes of zero-or-garbage memory aligned to
// Alignment, or nil if n is zero or the request cannot be satisfied.
//
// Requests at or above MMAPThreshold are satisfied by mapping a standalone
// anonymous region; smaller requests are served from the heap via
// first-fit, splitting the match when the leftover would be usefully sized,
// or by extending the heap when no free block fits.
func Allocate(n uintptr) unsafe.Pointer {
	if n == 0 {
		return nil
	}

	aligned := alignUp(n, Alignment)

	s := getState()
	s.mu.Lock()
	defer s.mu.Unlock()

	if aligned >= MMAPThreshold {
		h := s.allocMmap(aligned)
		if h == nil {
			return nil
		}

		return h.payload()
	}

	if b := s.findFreeBlock(aligned); b != nil {
		s.removeFree(b)
		s.split(b, aligned)

		return b.payload()
	}

	h := s.requestSpaceSbrk(aligned)
	if h == nil {
		return nil
	}

	return h.payload()
}

// Free releases a pointer previously returned by Allocate, ZeroAllocate, or
// Resize. Freeing nil is a no-op. Mapped blocks are unmapped immediately;
// heap blocks are pushed onto the free chain, coalesced with both spatial
// neighbors, and the heap's tail is released to the OS if it ends up free.
//
// Freeing a pointer twice, or one not produced by this allocator, is
// undefined behavior and is not detected.
func Free(p unsafe.Pointer) {
	if p == nil {
		return
	}

	s := getState()
	s.mu.Lock()
	defer s.mu.Unlock()

	h := headerFromPointer(p)

	if h.isMmap {
		s.freeMmap(h)

		return
	}

	s.insertFree(h)
	s.coalesceWithNext(h)
	s.coalesceWithPrev(h)

	s.tailRelease()
}

const maxUintptr = ^uintptr(0)

// ZeroAllocate allocates space for count objects of size bytes each,
// zeroing the result, in the manner of calloc. Returns nil if either
// argument is zero or if count*size would overflow uintptr.
func ZeroAllocate(count, size uintptr) unsafe.Pointer {
	if count == 0 || size == 0 {
		return nil
	}

	if count > maxUintptr/size {
		return nil
	}

	total := count * size

	p := Allocate(total)
	if p == nil {
		return nil
	}

	zeroMemory(p, total)

	return p
}

// Resize changes the size of the allocation at p to n bytes, in the manner
// of realloc. A nil p behaves as Allocate(n). An n of zero behaves as
// Free(p), returning nil. Otherwise the first min(n, old size) bytes of the
// returned region are preserved, possibly at a new address.
func Resize(p unsafe.Pointer, n uintptr) unsafe.Pointer {
	if p == nil {
		return Allocate(n)
	}

	if n == 0 {
		Free(p)

		return nil
	}

	aligned := alignUp(n, Alignment)

	s := getState()
	s.mu.Lock()

	h := headerFromPointer(p)

	if h.isMmap {
		if aligned <= h.size {
			s.mu.Unlock()

			return p
		}

		oldSize := h.size
		// Drop the lock before the nested Allocate/Free so those calls can
		// reacquire it; h is still live and on no chain, so no other
		// caller can claim its bytes in the meantime.
		s.mu.Unlock()

		newPtr := Allocate(n)
		if newPtr == nil {
			return nil
		}

		copyMemory(newPtr, p, oldSize)
		Free(p)

		return newPtr
	}

	if aligned <= h.size {
		s.split(h, aligned)
		s.mu.Unlock()

		return p
	}

	if next := h.spatialNext; next != nil && next.isFree && !next.isMmap &&
		h.size+alignedHeaderSize+next.size >= aligned {
		s.removeFree(next)
		h.size += alignedHeaderSize + next.size
		s.spatialRemove(next)
		s.split(h, aligned)
		s.mu.Unlock()

		return p
	}

	oldSize := h.size
	s.mu.Unlock()

	newPtr := Allocate(n)
	if newPtr == nil {
		return nil
	}

	copyMemory(newPtr, p, oldSize)
	Free(p)

	return newPtr
}

// PrintState dumps the spatial chain and then the free chain, one line per
// block, for debugging. Not part of the allocation fast path.
func PrintState() {
	s := getState()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Dump("spatial chain:")

	for h := s.spatialHead; h != nil; h = h.spatialNext {
		s.logger.Dump("  %p size=%d free=%t mmap=%t", h, h.size, h.isFree, h.isMmap)
	}

	s.logger.Dump("free chain:")

	for h := s.freeHead; h != nil; h = h.freeNext {
		s.logger.Dump("  %p size=%d", h, h.size)
	}
}

func copyMemory(dst, src unsafe.Pointer, size uintptr) {
	dstSlice := unsafe.Slice((*byte)(dst), size)
	srcSlice := unsafe.Slice((*byte)(src), size)
	copy(dstSlice, srcSlice)
}

func zeroMemory(p unsafe.Pointer, size uintptr) {
	slice := unsafe.Slice((*byte)(p), size)
	for i := range slice {
		slice[i] = 0
	}
}
