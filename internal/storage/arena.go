package storage

import (
	"fmt"

	"github.com/gostonefire/bucketmap/internal/conf"
	"github.com/gostonefire/bucketmap/internal/layout"
	"github.com/gostonefire/bucketmap/memory"
)

// Arena - Owns every overflow bucket of a map. Overflow buckets are addressed by index rather than by pointer and
// the overflow link in a bucket holds that index (conf.NoOverflow for none). Each overflow bucket is its own
// allocation so it can be returned to the allocator as soon as its chain is dropped.
// Index 0 is never handed out, released indexes are reused.
type Arena struct {
	layout    layout.Layout
	allocator memory.Allocator
	buckets   [][]byte
	free      []uint64
	live      int
}

// NewArena - Returns an empty Arena for buckets of the given layout
func NewArena(l layout.Layout, allocator memory.Allocator) *Arena {
	return &Arena{
		layout:    l,
		allocator: allocator,
		buckets:   make([][]byte, 1), // index 0 is conf.NoOverflow
	}
}

// Allocate - Allocates a zeroed overflow bucket and returns its index and memory
func (A *Arena) Allocate() (index uint64, bucket []byte, err error) {
	bucket, err = A.allocator.Allocate(A.layout.BucketLength)
	if err != nil {
		return
	}
	clear(bucket)

	if n := len(A.free); n > 0 {
		index = A.free[n-1]
		A.free = A.free[:n-1]
		A.buckets[index] = bucket
	} else {
		index = uint64(len(A.buckets))
		A.buckets = append(A.buckets, bucket)
	}
	A.live++

	return
}

// Bucket - Returns the memory of the overflow bucket at index. An index that is not live is a corrupt link and
// panics.
func (A *Arena) Bucket(index uint64) []byte {
	if index == conf.NoOverflow || index >= uint64(len(A.buckets)) || A.buckets[index] == nil {
		panic(fmt.Sprintf("overflow link %d does not address a live bucket", index))
	}
	return A.buckets[index]
}

// Release - Frees the overflow bucket at index. Releasing conf.NoOverflow or an index that is not live does nothing.
func (A *Arena) Release(index uint64) {
	if index == conf.NoOverflow || index >= uint64(len(A.buckets)) || A.buckets[index] == nil {
		return
	}

	A.allocator.Free(A.buckets[index])
	A.buckets[index] = nil
	A.free = append(A.free, index)
	A.live--
}

// ReleaseChain - Frees the overflow chain starting at index, following the links, and returns the number of
// buckets freed
func (A *Arena) ReleaseChain(index uint64) (released int) {
	for index != conf.NoOverflow && index != conf.EvacuatedLink {
		next := A.layout.Overflow(A.Bucket(index))
		A.Release(index)
		released++
		index = next
	}

	return
}

// Live - Returns the number of overflow buckets currently allocated
func (A *Arena) Live() int {
	return A.live
}

// Reset - Frees every live overflow bucket and forgets all indexes
func (A *Arena) Reset() {
	for i := 1; i < len(A.buckets); i++ {
		if A.buckets[i] != nil {
			A.allocator.Free(A.buckets[i])
		}
	}
	A.buckets = make([][]byte, 1)
	A.free = nil
	A.live = 0
}
