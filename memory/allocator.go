// Package memory holds the allocation capability a map gets its bucket memory from.
//
// The map allocates one buffer per bucket array and one per overflow bucket, and frees every one of them exactly
// once: when an evacuated overflow chain is dropped, when a migration completes and the old array is released, and
// on Destroy. Allocators can therefore impose budgets (Limited) or account for every live buffer (Tracker).
package memory

import (
	"fmt"
	"math"
)

// Allocator - Source of bucket memory.
//   - Allocate returns a buffer of exactly size bytes, all zero, or an error if the memory can't be provided.
//   - Free gives a buffer obtained from Allocate back. It is called exactly once per buffer.
type Allocator interface {
	Allocate(size int) (buf []byte, err error)
	Free(buf []byte)
}

// OutOfMemory - Custom error returned by allocators that refuse an allocation
type OutOfMemory struct {
	Requested int
	Available int
}

// Error - Used to notify that the allocator can't provide the requested memory
func (E OutOfMemory) Error() string {
	return fmt.Sprintf("out of memory: requested %d bytes, %d available", E.Requested, E.Available)
}

// Is - Matches any OutOfMemory regardless of sizes
func (E OutOfMemory) Is(target error) bool {
	_, ok := target.(OutOfMemory)
	return ok
}

// HeapMaxAllocation - Largest buffer Heap hands out, bigger requests get OutOfMemory instead of a runtime panic
const HeapMaxAllocation = min(1<<47, math.MaxInt)

// Heap - Allocator backed by the Go heap. Free is a no-op, the garbage collector reclaims the buffer.
type Heap struct{}

// Allocate - Returns a zeroed buffer from the Go heap
func (H Heap) Allocate(size int) (buf []byte, err error) {
	if size < 0 {
		err = fmt.Errorf("negative allocation size %d", size)
		return
	}
	if size > HeapMaxAllocation {
		err = OutOfMemory{Requested: size, Available: HeapMaxAllocation}
		return
	}
	buf = make([]byte, size)
	return
}

// Free - Does nothing
func (H Heap) Free(_ []byte) {}
