package bucketmap

import (
	"fmt"

	"github.com/gostonefire/bucketmap/internal/conf"
	"github.com/gostonefire/bucketmap/internal/hash"
	"github.com/gostonefire/bucketmap/internal/overflow"
	"github.com/gostonefire/bucketmap/maperr"
)

// Get - Copies the value stored for key into valueOut.
//   - key is the identifier of a record, it has to be of same length as given in call to NewBucketMap
//   - valueOut receives the value, it has to be of the value length given in call to NewBucketMap
//
// It returns:
//   - found is true if the key was in the map, valueOut is left untouched otherwise
//   - err is of type InvalidArgument or Destroyed if the call could not be made
//
// Get never changes the map, in particular it never moves entries of a migration in progress. During a migration
// a key is read from its old bucket until that bucket carries the evacuated marker.
func (B *BucketMap) Get(key, valueOut []byte) (found bool, err error) {
	if err = B.check(); err != nil {
		return
	}
	if err = B.checkKey(key); err != nil {
		return
	}
	if len(valueOut) != B.valueLength {
		err = maperr.NewInvalidArgument(fmt.Sprintf("wrong length of value buffer, should be %d", B.valueLength))
		return
	}

	bucket, slot, found := B.find(key, B.dispatcher.Hash(key))
	B.metrics.get(found)
	if !found {
		return
	}

	_ = copy(valueOut, B.layout.Value(bucket, slot))

	return
}

// Lookup - Returns a copy of the value stored for key.
//   - key is the identifier of a record, it has to be of same length as given in call to NewBucketMap
//
// It returns:
//   - value is the value of the matching record if found, if not found an error of type NoRecordFound is returned.
//   - err is either of type NoRecordFound or an error of type InvalidArgument or Destroyed
func (B *BucketMap) Lookup(key []byte) (value []byte, err error) {
	if err = B.check(); err != nil {
		return
	}

	buf := make([]byte, B.valueLength)
	found, err := B.Get(key, buf)
	if err != nil {
		return
	}
	if !found {
		err = maperr.NoRecordFound{}
		return
	}

	value = buf

	return
}

// Has - Returns true if key is in the map
func (B *BucketMap) Has(key []byte) (found bool, err error) {
	if err = B.check(); err != nil {
		return
	}
	if err = B.checkKey(key); err != nil {
		return
	}

	_, _, found = B.find(key, B.dispatcher.Hash(key))

	return
}

// Put - Updates an existing record with a new value or adds it if no existing is found with same key.
//   - key is the identifier of a record, it has to be of same length as given in call to NewBucketMap
//   - value is the bytes to store along with the key, it has to be of same length as given in call to NewBucketMap
//
// While a migration is in progress every Put first moves one old bucket to the current bucket array.
//
// It returns:
//   - err is of type InvalidArgument, Destroyed or AllocationFailure. On AllocationFailure no record was added.
func (B *BucketMap) Put(key, value []byte) (err error) {
	if err = B.check(); err != nil {
		return
	}
	if err = B.checkKey(key); err != nil {
		return
	}
	if len(value) != B.valueLength {
		err = maperr.NewInvalidArgument(fmt.Sprintf("wrong length of value, should be %d", B.valueLength))
		return
	}

	h := B.dispatcher.Hash(key)
	B.lastMoved = 0
	if B.Growing() {
		err = B.growWork(h)
		if err != nil {
			return
		}
	}

	B.metrics.put()

	tag := hash.Tag(h)
	primary := B.layout.Bucket(B.buckets.Data, hash.BucketIndex(h, B.buckets.Count))

	// Walk the chain once, remember the first empty slot while looking for the key
	var insertBucket, lastBucket []byte
	insertSlot := -1
	iter := overflow.NewBuckets(B.layout, B.arena, primary)
	for iter.HasNext() {
		bucket, _ := iter.Next()
		tags := B.layout.Tags(bucket.Data)
		for slot, t := range tags {
			if t == conf.TagEmpty {
				if insertSlot == -1 {
					insertBucket = bucket.Data
					insertSlot = slot
				}
				continue
			}
			if t == tag && B.equalFunc(B.layout.Key(bucket.Data, slot), key) {
				_ = copy(B.layout.Value(bucket.Data, slot), value)
				B.metrics.update()
				return
			}
		}
		lastBucket = bucket.Data
	}

	// Chain is full, link a new overflow bucket at its end
	if insertSlot == -1 {
		var link uint64
		link, insertBucket, err = B.arena.Allocate()
		if err != nil {
			B.metrics.allocationFailure()
			err = maperr.NewAllocationFailure("allocating overflow bucket", err)
			return
		}
		B.layout.SetOverflow(lastBucket, link)
		B.metrics.overflowAllocation()
		insertSlot = 0
	}

	B.layout.SetSlot(insertBucket, insertSlot, tag, key, value)
	B.count++

	if !B.Growing() && B.overLoadFactor() {
		B.hashGrow()
	}

	return
}

// Delete - Removes the record for key.
//   - key is the identifier of a record, it has to be of same length as given in call to NewBucketMap
//
// The slot is marked empty in place, it is reused by later inserts into the same chain and its bucket is only
// reclaimed when it is dropped by a migration or by Destroy.
//
// It returns:
//   - err is either of type NoRecordFound or an error of type InvalidArgument, Destroyed or AllocationFailure
func (B *BucketMap) Delete(key []byte) (err error) {
	return B.remove(key, nil)
}

// Pop - Returns the value stored for key and removes the record from the map.
//   - key is the identifier of a record, it has to be of same length as given in call to NewBucketMap
//
// It returns:
//   - value is the value of the matching record if found, if not found an error of type NoRecordFound is returned.
//   - err is either of type NoRecordFound or an error of type InvalidArgument, Destroyed or AllocationFailure
func (B *BucketMap) Pop(key []byte) (value []byte, err error) {
	if err = B.check(); err != nil {
		return
	}

	buf := make([]byte, B.valueLength)
	err = B.remove(key, buf)
	if err != nil {
		return
	}

	value = buf

	return
}

// remove - Removes the record for key, copying its value to valueOut first if valueOut is not nil
func (B *BucketMap) remove(key, valueOut []byte) (err error) {
	if err = B.check(); err != nil {
		return
	}
	if err = B.checkKey(key); err != nil {
		return
	}

	h := B.dispatcher.Hash(key)
	B.lastMoved = 0
	if B.Growing() {
		err = B.growWork(h)
		if err != nil {
			return
		}
	}

	bucket, slot, found := B.find(key, h)
	if !found {
		err = maperr.NoRecordFound{}
		return
	}

	if valueOut != nil {
		_ = copy(valueOut, B.layout.Value(bucket, slot))
	}
	B.layout.ClearSlot(bucket, slot)
	B.count--
	B.metrics.delete()

	return
}

// find - Returns the bucket and slot holding key, searching the old bucket array if the key's old bucket has not
// been evacuated yet and the current array otherwise
func (B *BucketMap) find(key []byte, h uint64) (bucket []byte, slot int, found bool) {
	tag := hash.Tag(h)

	iter := overflow.NewBuckets(B.layout, B.arena, B.primaryFor(h))
	for iter.HasNext() {
		b, _ := iter.Next()
		for s, t := range B.layout.Tags(b.Data) {
			if t != tag {
				continue
			}
			if B.equalFunc(B.layout.Key(b.Data, s), key) {
				bucket = b.Data
				slot = s
				found = true
				return
			}
		}
	}

	return
}

// primaryFor - Returns the primary bucket a hash value is found in.
// While growing, the evacuated marker on the key's old bucket decides the route, not the low-water mark: old
// buckets are evacuated out of order when a write hits them before the mark gets there.
func (B *BucketMap) primaryFor(h uint64) []byte {
	index := hash.BucketIndex(h, B.buckets.Count)
	if B.Growing() {
		old := B.oldBucket(hash.OldIndex(index, B.oldBuckets.Count))
		if !B.isEvacuated(old) {
			return old
		}
	}

	return B.layout.Bucket(B.buckets.Data, index)
}

// checkKey - Returns an error of type InvalidArgument if key has the wrong length
func (B *BucketMap) checkKey(key []byte) error {
	if len(key) != B.keyLength {
		return maperr.NewInvalidArgument(fmt.Sprintf("wrong length of key, should be %d", B.keyLength))
	}
	return nil
}
