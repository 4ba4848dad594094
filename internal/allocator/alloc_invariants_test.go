package allocator

import (
	"testing"
	"unsafe"
)

// checkInvariants walks both chains and verifies the block manager's
// structural invariants relative to whatever state the shared global
// allocator is in — tests never assume they run against an empty heap,
// since the allocator's global state is process-wide by design.
func checkInvariants(t *testing.T, s *allocatorState) {
	t.Helper()

	inSpatial := make(map[*header]bool)

	var prev *header

	for h := s.spatialHead; h != nil; h = h.spatialNext {
		if h.size == 0 || h.size%Alignment != 0 {
			t.Fatalf("block size %d is not a positive multiple of %d", h.size, Alignment)
		}

		if h.isMmap {
			t.Fatalf("mapped block present on spatial chain")
		}

		if prev != nil {
			if prev.isFree && h.isFree {
				t.Fatalf("adjacent free blocks at %p and %p were not coalesced", prev, h)
			}

			if prev.end() != uintptr(unsafe.Pointer(h)) {
				t.Fatalf("block at %p ends at %#x, next block at %p: spatial chain has a gap", prev, prev.end(), h)
			}
		}

		inSpatial[h] = true
		prev = h
	}

	if s.spatialTail != nil && s.spatialTail.end() != s.heap.programBreak() {
		t.Fatalf("tail ends at %#x, program break at %#x: spatial chain does not reach the break", s.spatialTail.end(), s.heap.programBreak())
	}

	inFree := make(map[*header]bool)

	for h := s.freeHead; h != nil; h = h.freeNext {
		if !h.isFree {
			t.Fatalf("free-chain member %p has isFree=false", h)
		}

		if h.isMmap {
			t.Fatalf("mapped block present on free chain")
		}

		inFree[h] = true
	}

	for h := range inSpatial {
		if h.isFree != inFree[h] {
			t.Fatalf("header %p isFree=%t, free-chain membership=%t: out of sync", h, h.isFree, inFree[h])
		}
	}
}
