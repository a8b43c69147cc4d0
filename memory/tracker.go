package memory

import (
	"fmt"
	"unsafe"

	"github.com/puzpuzpuz/xsync/v3"
)

// Tracker - Allocator that records every live buffer so that leaks and double frees can be detected.
// It wraps another allocator (Heap if nil) and can be shared by maps owned by different goroutines.
type Tracker struct {
	allocator Allocator
	live      *xsync.MapOf[*byte, int]
	allocs    *xsync.Counter
	frees     *xsync.Counter
	bytes     *xsync.Counter
	invalid   *xsync.Counter
}

// NewTracker - Returns a Tracker on top of allocator
func NewTracker(allocator Allocator) *Tracker {
	if allocator == nil {
		allocator = Heap{}
	}
	return &Tracker{
		allocator: allocator,
		live:      xsync.NewMapOf[*byte, int](),
		allocs:    xsync.NewCounter(),
		frees:     xsync.NewCounter(),
		bytes:     xsync.NewCounter(),
		invalid:   xsync.NewCounter(),
	}
}

// Allocate - Allocates from the wrapped allocator and records the buffer
func (T *Tracker) Allocate(size int) (buf []byte, err error) {
	buf, err = T.allocator.Allocate(size)
	if err != nil {
		return
	}
	if size == 0 {
		return
	}

	T.live.Store(unsafe.SliceData(buf), size)
	T.allocs.Inc()
	T.bytes.Add(int64(size))

	return
}

// Free - Forgets the buffer and frees it in the wrapped allocator. Buffers that are not live (never allocated
// through T or already freed) are counted as invalid frees and not passed on.
func (T *Tracker) Free(buf []byte) {
	if len(buf) == 0 {
		return
	}

	size, ok := T.live.LoadAndDelete(unsafe.SliceData(buf))
	if !ok {
		T.invalid.Inc()
		return
	}

	T.frees.Inc()
	T.bytes.Add(-int64(size))
	T.allocator.Free(buf)
}

// TrackerStat - Snapshot of a Tracker
//   - Allocations is the total number of buffers allocated
//   - Frees is the total number of buffers freed
//   - LiveBuffers is the number of buffers allocated but not yet freed
//   - LiveBytes is the total size of the live buffers
//   - InvalidFrees is the number of Free calls for buffers that were not live
type TrackerStat struct {
	Allocations  int64
	Frees        int64
	LiveBuffers  int
	LiveBytes    int64
	InvalidFrees int64
}

// String - Returns a one line summary
func (S TrackerStat) String() string {
	return fmt.Sprintf("allocations=%d frees=%d live=%d (%d bytes) invalid_frees=%d",
		S.Allocations, S.Frees, S.LiveBuffers, S.LiveBytes, S.InvalidFrees)
}

// Stat - Returns the current counters
func (T *Tracker) Stat() TrackerStat {
	return TrackerStat{
		Allocations:  T.allocs.Value(),
		Frees:        T.frees.Value(),
		LiveBuffers:  T.live.Size(),
		LiveBytes:    T.bytes.Value(),
		InvalidFrees: T.invalid.Value(),
	}
}
