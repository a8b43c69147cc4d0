package memory

import (
	"sync"

	"github.com/gostonefire/bucketmap/internal/logging"
)

// Limited - Allocator that refuses allocations once a byte budget is used up. Freed buffers give their size back
// to the budget. It is safe for use by several maps at once.
type Limited struct {
	mu        sync.Mutex
	allocator Allocator
	limit     int
	inUse     int
}

// NewLimited - Returns a Limited allocator with the given budget in bytes on top of allocator (Heap if nil)
func NewLimited(allocator Allocator, limit int) *Limited {
	if allocator == nil {
		allocator = Heap{}
	}
	return &Limited{allocator: allocator, limit: limit}
}

// Allocate - Returns a buffer if it fits in the remaining budget, otherwise an OutOfMemory error
func (L *Limited) Allocate(size int) (buf []byte, err error) {
	L.mu.Lock()
	defer L.mu.Unlock()

	if L.inUse+size > L.limit {
		err = OutOfMemory{Requested: size, Available: L.limit - L.inUse}
		logging.GetLogger(logging.MemoryLogger).Debugf("refused allocation of %d bytes, %d of %d in use", size, L.inUse, L.limit)
		return
	}

	buf, err = L.allocator.Allocate(size)
	if err != nil {
		return
	}
	L.inUse += size

	return
}

// Free - Returns the buffer to the underlying allocator and its size to the budget
func (L *Limited) Free(buf []byte) {
	L.mu.Lock()
	defer L.mu.Unlock()

	L.inUse -= len(buf)
	L.allocator.Free(buf)
}

// SetLimit - Changes the budget, allocations already made are not affected
func (L *Limited) SetLimit(limit int) {
	L.mu.Lock()
	defer L.mu.Unlock()

	L.limit = limit
}

// InUse - Returns the number of bytes currently allocated through L
func (L *Limited) InUse() int {
	L.mu.Lock()
	defer L.mu.Unlock()

	return L.inUse
}
