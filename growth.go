package bucketmap

import (
	"github.com/gostonefire/bucketmap/internal/conf"
	"github.com/gostonefire/bucketmap/internal/hash"
	"github.com/gostonefire/bucketmap/internal/overflow"
	"github.com/gostonefire/bucketmap/internal/storage"
	"github.com/gostonefire/bucketmap/maperr"
)

// evacDst - Insert cursor into the chain of one evacuation destination
//   - bucket is the bucket the cursor is in
//   - slot is the first slot not yet looked at in bucket
//   - spares are reserved overflow buckets to link in when the chain runs out of empty slots
type evacDst struct {
	bucket []byte
	slot   int
	spares []uint64
}

// overLoadFactor - Returns true if the average number of entries per bucket is above 6.5
func (B *BucketMap) overLoadFactor() bool {
	return B.count*conf.LoadFactorDenominator > B.buckets.Count*conf.LoadFactorNumerator
}

// hashGrow - Installs a bucket array of twice the size and makes the current one the old array.
// No entries are moved here. If the new array can't be allocated the map keeps its size and the next insert tries
// again. A map at conf.MaxBuckets does not grow, its chains get longer instead.
func (B *BucketMap) hashGrow() {
	if B.buckets.Count > conf.MaxBuckets/2 {
		return
	}

	newBuckets, err := storage.NewArray(B.layout, B.allocator, B.buckets.Count*2)
	if err != nil {
		B.metrics.allocationFailure()
		B.log.Warningf("map %s: could not grow to %d buckets: %v", B.name, B.buckets.Count*2, err)
		return
	}

	B.oldBuckets = B.buckets
	B.buckets = newBuckets
	B.nevacuate = 0
	B.nevacuated = 0
	B.metrics.growth()

	B.log.Debugf("map %s: growing from %d to %d buckets at %d entries", B.name, B.oldBuckets.Count, B.buckets.Count, B.count)
}

// growWork - Performs one evacuation step on behalf of a write of a key with hash value h.
// The key's own old bucket is evacuated if it still holds entries, otherwise the first old bucket not yet evacuated.
func (B *BucketMap) growWork(h uint64) (err error) {
	oldIndex := hash.BucketIndex(h, B.oldBuckets.Count)
	if B.isEvacuated(B.oldBucket(oldIndex)) {
		oldIndex = B.nevacuate
	}

	moved, err := B.evacuate(oldIndex)
	if err != nil {
		return
	}
	B.lastMoved = moved
	B.metrics.moves(moved)

	if B.nevacuated == B.oldBuckets.Count {
		B.finishGrow()
	}

	return
}

// evacuate - Moves every entry of old bucket oldIndex and its overflow chain to bucket oldIndex (X) or
// oldIndex + old bucket count (Y) of the current array, depending on the bit of the hash value that the doubled
// array adds. Overflow buckets the destinations need are reserved before anything is moved, so a failing
// allocation leaves the map as it was.
//   - oldIndex is the bucket in the old array to evacuate
//
// It returns:
//   - moved is the number of entries moved
//   - err is of type AllocationFailure if overflow buckets could not be reserved
func (B *BucketMap) evacuate(oldIndex int) (moved int, err error) {
	oldCount := B.oldBuckets.Count
	old := B.oldBucket(oldIndex)

	// Count entries first, destinations must fit all of them in the worst case
	entries := 0
	iter := overflow.NewBuckets(B.layout, B.arena, old)
	for iter.HasNext() {
		bucket, _ := iter.Next()
		for slot := 0; slot < conf.SlotsPerBucket; slot++ {
			if B.layout.Tag(bucket.Data, slot) != conf.TagEmpty {
				entries++
			}
		}
	}

	x := &evacDst{bucket: B.layout.Bucket(B.buckets.Data, oldIndex)}
	y := &evacDst{bucket: B.layout.Bucket(B.buckets.Data, oldIndex+oldCount)}
	for _, d := range []*evacDst{x, y} {
		if err = B.reserve(d, entries); err != nil {
			B.releaseSpares(x)
			B.releaseSpares(y)
			B.metrics.allocationFailure()
			err = maperr.NewAllocationFailure("reserving overflow buckets for evacuation", err)
			return
		}
	}

	iter = overflow.NewBuckets(B.layout, B.arena, old)
	for iter.HasNext() {
		bucket, _ := iter.Next()
		for slot := 0; slot < conf.SlotsPerBucket; slot++ {
			tag := B.layout.Tag(bucket.Data, slot)
			if tag == conf.TagEmpty {
				continue
			}
			key := B.layout.Key(bucket.Data, slot)

			d := x
			if B.dispatcher.Hash(key)&uint64(oldCount) != 0 {
				d = y
			}
			B.place(d, tag, key, B.layout.Value(bucket.Data, slot))
			moved++
		}
	}

	B.releaseSpares(x)
	B.releaseSpares(y)

	// Drop the old chain and leave the primary empty with the evacuated marker
	B.arena.ReleaseChain(B.layout.Overflow(old))
	clear(old)
	B.layout.SetOverflow(old, conf.EvacuatedLink)

	B.nevacuated++
	if oldIndex == B.nevacuate {
		B.advanceEvacuationMark()
	}
	B.metrics.evacuated(moved)

	return
}

// reserve - Positions the cursor at the first empty slot of the destination chain and allocates the overflow
// buckets needed to hold entries more entries
func (B *BucketMap) reserve(d *evacDst, entries int) (err error) {
	free := 0
	first := true
	iter := overflow.NewBuckets(B.layout, B.arena, d.bucket)
	for iter.HasNext() {
		bucket, _ := iter.Next()
		for slot := 0; slot < conf.SlotsPerBucket; slot++ {
			if B.layout.Tag(bucket.Data, slot) != conf.TagEmpty {
				continue
			}
			if first {
				d.bucket = bucket.Data
				d.slot = slot
				first = false
			}
			free++
		}
		if first && !iter.HasNext() {
			// Chain is full, the cursor waits at the last bucket for a spare to be linked in
			d.bucket = bucket.Data
			d.slot = conf.SlotsPerBucket
		}
	}

	missing := entries - free
	for missing > 0 {
		var index uint64
		index, _, err = B.arena.Allocate()
		if err != nil {
			return
		}
		d.spares = append(d.spares, index)
		missing -= conf.SlotsPerBucket
	}

	return
}

// place - Writes an entry into the next empty slot of the destination chain, linking in a reserved overflow bucket
// when the chain has no empty slot left
func (B *BucketMap) place(d *evacDst, tag uint8, key, value []byte) {
	for {
		for ; d.slot < conf.SlotsPerBucket; d.slot++ {
			if B.layout.Tag(d.bucket, d.slot) == conf.TagEmpty {
				B.layout.SetSlot(d.bucket, d.slot, tag, key, value)
				d.slot++
				return
			}
		}

		link := B.layout.Overflow(d.bucket)
		if link == conf.NoOverflow {
			n := len(d.spares)
			link = d.spares[n-1]
			d.spares = d.spares[:n-1]
			B.layout.SetOverflow(d.bucket, link)
			B.metrics.overflowAllocation()
		}
		d.bucket = B.arena.Bucket(link)
		d.slot = 0
	}
}

// releaseSpares - Returns reserved overflow buckets that were not linked into a chain
func (B *BucketMap) releaseSpares(d *evacDst) {
	for _, index := range d.spares {
		B.arena.Release(index)
	}
	d.spares = nil
}

// advanceEvacuationMark - Moves the low-water mark past every evacuated old bucket
func (B *BucketMap) advanceEvacuationMark() {
	for B.nevacuate < B.oldBuckets.Count && B.isEvacuated(B.oldBucket(B.nevacuate)) {
		B.nevacuate++
	}
}

// finishGrow - Releases the old bucket array once every old bucket has been evacuated
func (B *BucketMap) finishGrow() {
	oldCount := B.oldBuckets.Count
	B.oldBuckets.Free(B.allocator)
	B.nevacuate = 0
	B.nevacuated = 0

	B.log.Debugf("map %s: growth from %d to %d buckets done", B.name, oldCount, B.buckets.Count)
}

// isEvacuated - Returns true if the old primary bucket has had its entries moved to the current array
func (B *BucketMap) isEvacuated(primary []byte) bool {
	return B.layout.Overflow(primary) == conf.EvacuatedLink
}

// oldBucket - Returns the primary bucket at index i of the old array
func (B *BucketMap) oldBucket(i int) []byte {
	return B.layout.Bucket(B.oldBuckets.Data, i)
}
