package storage

import (
	"fmt"
	"math"

	"github.com/gostonefire/bucketmap/internal/layout"
	"github.com/gostonefire/bucketmap/internal/utils"
	"github.com/gostonefire/bucketmap/memory"
)

// Array - A contiguous array of primary buckets, bucket i is at i * BucketLength
type Array struct {
	Data  []byte
	Count int
}

// NewArray - Allocates a zeroed array of count buckets. count must be a power of two and the array must fit in an
// int number of bytes, otherwise an error is returned without allocating.
func NewArray(l layout.Layout, allocator memory.Allocator, count int) (array Array, err error) {
	if !utils.IsPowerOf2(count) {
		err = fmt.Errorf("bucket count %d is not a power of two", count)
		return
	}
	if count > math.MaxInt/l.BucketLength {
		err = fmt.Errorf("bucket array of %d buckets of %d bytes is too large", count, l.BucketLength)
		return
	}

	data, err := allocator.Allocate(l.ArrayLength(count))
	if err != nil {
		return
	}
	clear(data)

	array = Array{Data: data, Count: count}

	return
}

// IsNil - Returns true if the array holds no memory
func (A Array) IsNil() bool {
	return A.Data == nil
}

// Free - Returns the array memory to the allocator. Overflow chains hanging off its buckets must be released
// before.
func (A *Array) Free(allocator memory.Allocator) {
	if A.Data == nil {
		return
	}
	allocator.Free(A.Data)
	A.Data = nil
	A.Count = 0
}
