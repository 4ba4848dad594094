package allocator

// heapAdapter is the emulated-sbrk half of the OS adapter: advancing and
// retracting the program break within a reservation. Implemented by
// osHeap (see osmem_unix.go / osmem_windows.go) and substituted with a
// fault-injecting stub in tests that exercise tail-release's OS-failure
// path.
type heapAdapter interface {
	extendBreak(delta uintptr) (old uintptr, ok bool)
	setBreak(addr uintptr) bool
	programBreak() uintptr
}

var _ heapAdapter = (*osHeap)(nil)
