package bucketmap

import (
	"github.com/gostonefire/bucketmap/internal/conf"
	"github.com/gostonefire/bucketmap/internal/model"
	"github.com/gostonefire/bucketmap/internal/overflow"
	"github.com/gostonefire/bucketmap/maperr"
)

// Records - Iterates over every record in a map, first those still in old buckets and then the current bucket
// array. The map must not be changed while iterating, Key and Value of a returned record alias bucket memory.
type Records struct {
	bucketMap *BucketMap
	old       bool
	bucket    int
	chain     overflow.Buckets
	current   model.Chain
	inChain   bool
	slot      int
	next      *model.Record
}

// Records - Returns an iterator over all records in the map
func (B *BucketMap) Records() (records *Records, err error) {
	if err = B.check(); err != nil {
		return
	}

	records = &Records{
		bucketMap: B,
		old:       B.Growing(),
		bucket:    -1,
	}
	records.advance()

	return
}

// HasNext - Returns true if there are more records to be fetched from a call to Next
func (R *Records) HasNext() bool {
	return R.next != nil
}

// Next - Returns the next record.
// It returns:
//   - record is the next record
//   - err is an error of type maperr.ChainExhausted if there are no more records when calling this function
func (R *Records) Next() (record model.Record, err error) {
	if R.next == nil {
		err = maperr.ChainExhausted{}
		return
	}

	record = *R.next
	R.advance()

	return
}

// advance - Looks ahead for the next occupied slot and stores it in next, or nil if there is none
func (R *Records) advance() {
	B := R.bucketMap
	R.next = nil

	for {
		if R.inChain {
			for ; R.slot < conf.SlotsPerBucket; R.slot++ {
				tag := B.layout.Tag(R.current.Data, R.slot)
				if tag == conf.TagEmpty {
					continue
				}
				R.next = &model.Record{
					Tag:        tag,
					Slot:       R.slot,
					Bucket:     R.bucket,
					IsOverflow: R.current.Depth > 0,
					IsOld:      R.old,
					Key:        B.layout.Key(R.current.Data, R.slot),
					Value:      B.layout.Value(R.current.Data, R.slot),
				}
				R.slot++
				return
			}
			if R.chain.HasNext() {
				R.current, _ = R.chain.Next()
				R.slot = 0
				continue
			}
			R.inChain = false
		}

		if !R.nextChain() {
			return
		}
	}
}

// nextChain - Moves to the next primary bucket holding records, switching from the old to the current array when
// the old one is done. Returns false when there are no more buckets.
func (R *Records) nextChain() bool {
	B := R.bucketMap

	for {
		R.bucket++
		if R.old {
			if R.bucket >= B.oldBuckets.Count {
				R.old = false
				R.bucket = -1
				continue
			}
			primary := B.oldBucket(R.bucket)
			if B.isEvacuated(primary) {
				continue
			}
			R.startChain(primary)
			return true
		}

		if R.bucket >= B.buckets.Count {
			return false
		}
		R.startChain(B.layout.Bucket(B.buckets.Data, R.bucket))
		return true
	}
}

// startChain - Positions the iterator at slot 0 of a primary bucket
func (R *Records) startChain(primary []byte) {
	R.chain = overflow.NewBuckets(R.bucketMap.layout, R.bucketMap.arena, primary)
	R.current, _ = R.chain.Next()
	R.slot = 0
	R.inChain = true
}

// Range - Calls fn for every record in the map until fn returns false.
// key and value alias bucket memory and must be copied if kept after fn returns. fn must not change the map.
func (B *BucketMap) Range(fn func(key, value []byte) bool) (err error) {
	records, err := B.Records()
	if err != nil {
		return
	}

	for records.HasNext() {
		record, _ := records.Next()
		if !fn(record.Key, record.Value) {
			return
		}
	}

	return
}
