package allocator

import (
	"unsafe"

	"github.com/cairnalloc/cairnalloc/internal/errors"
)

// requestSpaceSbrk extends the emulated program break by
// alignedHeaderSize+n bytes, writes a fresh header at the old break, and
// appends it to the spatial chain. Returns nil on OS failure.
func (s *allocatorState) requestSpaceSbrk(n uintptr) *header {
	old, ok := s.heap.extendBreak(alignedHeaderSize + n)
	if !ok {
		s.logger.Warn("%s", errors.OutOfMemory("heap extension", n))

		return nil
	}

	h := (*header)(unsafe.Pointer(old))
	*h = header{size: n}

	s.spatialAppend(h)

	return h
}

// split divides b, already removed from the free chain and claimed for a
// request of size n (n <= b.size), into a claimed prefix of size n and a
// free suffix — but only when the suffix would itself satisfy MinSplitSize.
// Otherwise b is handed over whole and the remainder is accepted as internal
// fragmentation.
func (s *allocatorState) split(b *header, n uintptr) {
	if b.size < n+alignedHeaderSize+MinSplitSize {
		return
	}

	newHeader := (*header)(unsafe.Pointer(uintptr(b.payload()) + n))
	*newHeader = header{size: b.size - n - alignedHeaderSize}

	s.spatialInsertAfter(b, newHeader)
	s.insertFree(newHeader)

	b.size = n
}

// coalesceWithNext absorbs b's spatial successor into b if it exists, is
// free, and is not mapped. b keeps its position on the free chain.
func (s *allocatorState) coalesceWithNext(b *header) {
	next := b.spatialNext
	if next == nil || !next.isFree || next.isMmap {
		return
	}

	s.removeFree(next)
	b.size += alignedHeaderSize + next.size
	s.spatialRemove(next)
}

// coalesceWithPrev absorbs b into its spatial predecessor if one exists, is
// free, and is not mapped. Both b and the predecessor leave the free chain;
// the predecessor is reinserted at the free-chain head. Returns the
// surviving block (the predecessor), or b unchanged if no coalesce
// happened.
func (s *allocatorState) coalesceWithPrev(b *header) *header {
	prev := b.spatialPrev
	if prev == nil || !prev.isFree || prev.isMmap {
		return b
	}

	s.removeFree(prev)
	s.removeFree(b)
	prev.size += alignedHeaderSize + b.size
	s.spatialRemove(b)
	s.insertFree(prev)

	return prev
}

// tailRelease returns heap memory to the OS by lowering the program break
// past a free, non-mapped spatial tail. The block is unlinked from both
// chains only after the OS primitive actually succeeds, in favor of never
// leaking the allocator's own model of the heap. In practice this loop runs
// at most once per Free, since coalescing has already merged any free run
// into the tail.
func (s *allocatorState) tailRelease() {
	for {
		tail := s.spatialTail
		if tail == nil || !tail.isFree || tail.isMmap {
			return
		}

		addr := uintptr(unsafe.Pointer(tail))
		if !s.heap.setBreak(addr) {
			s.logger.Warn("%s", errors.OutOfMemory("tail release", tail.size))

			return
		}

		s.removeFree(tail)
		s.spatialRemove(tail)
	}
}

// allocMmap obtains a standalone mapped region for a large allocation. The
// resulting block is never linked into either chain.
func (s *allocatorState) allocMmap(n uintptr) *header {
	p, ok := mapAnonymous(alignedHeaderSize + n)
	if !ok {
		s.logger.Warn("%s", errors.OutOfMemory("mmap allocation", n))

		return nil
	}

	h := (*header)(p)
	*h = header{size: n, isMmap: true}

	return h
}

// freeMmap releases a mapped region obtained from allocMmap.
func (s *allocatorState) freeMmap(h *header) {
	unmapAnonymous(unsafe.Pointer(h), alignedHeaderSize+h.size)
}
