package allocator

import (
	"sync"

	"github.com/cairnalloc/cairnalloc/internal/cli"
	"github.com/cairnalloc/cairnalloc/internal/errors"
)

// allocatorState is the single process-wide allocator lifecycle: three head
// pointers, a reservation-backed emulated heap, and one global mutex. It is
// constructed on first use and never torn down.
type allocatorState struct {
	mu sync.Mutex

	heap heapAdapter

	spatialHead *header
	spatialTail *header
	freeHead    *header

	logger *cli.Logger
}

var (
	globalOnce  sync.Once
	global      *allocatorState
	globalInitE error
)

// getState returns the singleton allocator state, constructing it (and the
// underlying OS heap reservation) on first call.
func getState() *allocatorState {
	globalOnce.Do(func() {
		heap, err := newOSHeap()
		if err != nil {
			globalInitE = err

			return
		}

		global = &allocatorState{
			heap:   heap,
			logger: cli.NewLogger(false, false),
		}
	})

	if global == nil {
		// The reservation mmap/VirtualAlloc failed at process startup — an
		// environment the allocator cannot operate in at all. There is no
		// payload pointer to return none from here; this mirrors a fatal
		// init failure rather than surfacing through the four-operation API.
		panic(errors.OutOfMemory("allocator init", reservationSize).Error() + ": " + globalInitE.Error())
	}

	return global
}

// SetLogger replaces the logger used for diagnostic output (PrintState and
// OS-adapter failure reporting). Intended for host programs such as
// cmd/cairnalloc-bench; the default logger suppresses Info and Debug but
// still prints Warn, Error and Dump output.
func SetLogger(l *cli.Logger) {
	s := getState()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger = l
}
