package hash

import (
	"github.com/gostonefire/bucketmap/hashfunc"
	"github.com/gostonefire/bucketmap/internal/conf"
)

// Dispatcher - Wraps the caller supplied hash function together with the map seed and derives tags and bucket
// indexes from the 64-bit hash value.
// Bucket selection is index = hash & (bucketCount - 1) which requires bucketCount to be a power of two.
type Dispatcher struct {
	hashFunc hashfunc.HashFunc
	seed     uint64
}

// NewDispatcher - Returns a Dispatcher for the given hash function and seed
func NewDispatcher(hashFunc hashfunc.HashFunc, seed uint64) Dispatcher {
	return Dispatcher{hashFunc: hashFunc, seed: seed}
}

// Seed - Returns the seed the dispatcher hashes with
func (D Dispatcher) Seed() uint64 {
	return D.seed
}

// Hash - Returns the 64-bit hash of key
func (D Dispatcher) Hash(key []byte) uint64 {
	return D.hashFunc(key, D.seed)
}

// Tag - Returns the top 8 bits of the hash value, coerced to at least conf.TagMin since conf.TagEmpty marks an
// empty slot. Hashes with a top byte of 0 therefore share tag 1 with those having top byte 1.
func Tag(hash uint64) uint8 {
	tag := uint8(hash >> 56)
	if tag < conf.TagMin {
		tag = conf.TagMin
	}
	return tag
}

// BucketIndex - Returns the bucket a hash value maps to in an array of bucketCount buckets
func BucketIndex(hash uint64, bucketCount int) int {
	return int(hash & uint64(bucketCount-1))
}

// OldIndex - Returns the bucket in the old (half sized) array that corresponds to a bucket in the current array
func OldIndex(index, oldBucketCount int) int {
	return index & (oldBucketCount - 1)
}
