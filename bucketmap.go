package bucketmap

import (
	"fmt"

	"github.com/gostonefire/bucketmap/hashfunc"
	"github.com/gostonefire/bucketmap/internal/conf"
	"github.com/gostonefire/bucketmap/internal/hash"
	"github.com/gostonefire/bucketmap/internal/layout"
	"github.com/gostonefire/bucketmap/internal/logging"
	"github.com/gostonefire/bucketmap/internal/overflow"
	"github.com/gostonefire/bucketmap/internal/storage"
	"github.com/gostonefire/bucketmap/internal/utils"
	"github.com/gostonefire/bucketmap/maperr"
	"github.com/gostonefire/bucketmap/memory"
	"github.com/lni/dragonboat/v4/logger"
)

// Options - Configuration for NewBucketMap
//   - Name identifies the map in log lines and as the "map" label of its metrics
//   - Seed is passed to the hash function on every call, DefaultOptions draws a random one
//   - InitialBuckets is rounded up to a power of two, anything below 8 gives 8 and anything above 1 << 30 is
//     rejected
//   - Allocator provides bucket memory, memory.Heap if nil
//   - Metrics enables counters, gauges and the moves per write histogram
type Options struct {
	Name           string
	Seed           uint64
	InitialBuckets int
	Allocator      memory.Allocator
	Metrics        bool
}

// DefaultOptions - Returns options with a random seed and the minimum number of buckets
func DefaultOptions() *Options {
	return &Options{
		Name:           "default",
		Seed:           GenerateSeed(),
		InitialBuckets: conf.InitialBuckets,
		Allocator:      memory.Heap{},
	}
}

// HashMapStat - Statistics on the overall usage and distribution over buckets
//   - Records is the total number of records stored
//   - PrimaryRecords is the number of records stored in primary buckets (current and old array)
//   - OverflowRecords is the number of records stored in overflow buckets
//   - OldRecords is the number of records still waiting in the old bucket array
//   - Buckets is the number of buckets in the current array
//   - OldBuckets is the number of buckets in the old array, 0 when not growing
//   - EvacuatedBuckets is the number of old buckets already moved to the current array
//   - OverflowBuckets is the number of overflow buckets in use
//   - MaxChainLength is the longest chain seen, counting the primary bucket
//   - Growing is true while a migration is in progress
//   - BucketDistribution is the number of records per current bucket, records still in the old array are
//     counted at the bucket their old bucket splits to first
type HashMapStat struct {
	Records            int
	PrimaryRecords     int
	OverflowRecords    int
	OldRecords         int
	Buckets            int
	OldBuckets         int
	EvacuatedBuckets   int
	OverflowBuckets    int
	MaxChainLength     int
	Growing            bool
	BucketDistribution []int
}

// BucketMap - Hash table for fixed length keys and values.
// Entries live in buckets of 8 slots with singly linked overflow buckets. When the average number of entries per
// bucket exceeds 6.5 a bucket array of twice the size is installed and the old buckets are moved over one at a time
// by subsequent writes.
//
// A BucketMap is not safe for concurrent use. Callers sharing a map between goroutines must serialize every call,
// including iteration.
type BucketMap struct {
	name        string
	keyLength   int
	valueLength int
	count       int
	equalFunc   hashfunc.EqualFunc
	dispatcher  hash.Dispatcher
	allocator   memory.Allocator
	layout      layout.Layout
	arena       *storage.Arena
	buckets     storage.Array
	oldBuckets  storage.Array
	nevacuate   int
	nevacuated  int
	lastMoved   int
	destroyed   bool
	metrics     *mapMetrics
	log         logger.ILogger
}

// NewBucketMap - Returns a new empty map.
//   - keyLength is the fixed length of every key
//   - valueLength is the fixed length of every value
//   - hashFunc hashes keys, see hashfunc.XXHash for a general purpose one
//   - equalFunc compares keys, see hashfunc.Equal
//   - opts is optional configuration, DefaultOptions is used if nil
//
// It returns:
//   - bucketMap is a pointer to the new map
//   - err is of type InvalidArgument for bad lengths or missing functions, AllocationFailure if the initial bucket
//     array could not be allocated
func NewBucketMap(
	keyLength int,
	valueLength int,
	hashFunc hashfunc.HashFunc,
	equalFunc hashfunc.EqualFunc,
	opts *Options,
) (
	bucketMap *BucketMap,
	err error,
) {
	// Check if the key length is valid
	if keyLength <= 0 {
		err = maperr.NewInvalidArgument("key length must be a positive value higher than 0 (zero)")
		return
	}

	// Check if the value length is valid
	if valueLength <= 0 {
		err = maperr.NewInvalidArgument("value length must be a positive value higher than 0 (zero)")
		return
	}

	// Check that both capabilities are given
	if hashFunc == nil {
		err = maperr.NewInvalidArgument("hash function must be given")
		return
	}
	if equalFunc == nil {
		err = maperr.NewInvalidArgument("equal function must be given")
		return
	}

	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.InitialBuckets > conf.MaxBuckets {
		err = maperr.NewInvalidArgument(fmt.Sprintf("initial buckets must not exceed %d", conf.MaxBuckets))
		return
	}
	allocator := opts.Allocator
	if allocator == nil {
		allocator = memory.Heap{}
	}
	initialBuckets := utils.RoundUp2(max(opts.InitialBuckets, conf.InitialBuckets))

	l := layout.New(keyLength, valueLength)
	buckets, err := storage.NewArray(l, allocator, initialBuckets)
	if err != nil {
		err = maperr.NewAllocationFailure("allocating initial bucket array", err)
		return
	}

	bucketMap = &BucketMap{
		name:        opts.Name,
		keyLength:   keyLength,
		valueLength: valueLength,
		equalFunc:   equalFunc,
		dispatcher:  hash.NewDispatcher(hashFunc, opts.Seed),
		allocator:   allocator,
		layout:      l,
		arena:       storage.NewArena(l, allocator),
		buckets:     buckets,
		log:         logging.GetLogger(logging.MapLogger),
	}
	if opts.Metrics {
		bucketMap.metrics = newMapMetrics(opts.Name, bucketMap)
	}

	return
}

// Destroy - Releases every overflow bucket and both bucket arrays back to the allocator.
// Calling Destroy on a nil or already destroyed map does nothing. Any other call on a destroyed map returns an
// error of type Destroyed.
func (B *BucketMap) Destroy() {
	if B == nil || B.destroyed {
		return
	}

	released := B.releaseChains(B.buckets)
	released += B.releaseChains(B.oldBuckets)
	if B.arena.Live() > 0 {
		B.log.Warningf("map %s: %d overflow buckets not reachable from any chain at destroy", B.name, B.arena.Live())
		B.arena.Reset()
	}
	B.buckets.Free(B.allocator)
	B.oldBuckets.Free(B.allocator)

	B.log.Debugf("map %s destroyed, %d overflow buckets released", B.name, released)

	B.count = 0
	B.nevacuate = 0
	B.nevacuated = 0
	B.destroyed = true
}

// Len - Returns the number of entries in the map
func (B *BucketMap) Len() int {
	if B == nil {
		return 0
	}
	return B.count
}

// KeyLength - Returns the key length given at creation
func (B *BucketMap) KeyLength() int {
	if B == nil {
		return 0
	}
	return B.keyLength
}

// ValueLength - Returns the value length given at creation
func (B *BucketMap) ValueLength() int {
	if B == nil {
		return 0
	}
	return B.valueLength
}

// Seed - Returns the seed the map hashes with
func (B *BucketMap) Seed() uint64 {
	if B == nil {
		return 0
	}
	return B.dispatcher.Seed()
}

// Name - Returns the name given in Options
func (B *BucketMap) Name() string {
	if B == nil {
		return ""
	}
	return B.name
}

// Growing - Returns true while old buckets are still being moved to the current bucket array
func (B *BucketMap) Growing() bool {
	return B != nil && !B.oldBuckets.IsNil()
}

// Stat - Walks through all buckets and produces a HashMapStat.
// The walk is read only and does not move any entries.
//   - includeDistribution set to true will include a slice with number of records per bucket
func (B *BucketMap) Stat(includeDistribution bool) (hashMapStat *HashMapStat, err error) {
	if err = B.check(); err != nil {
		return
	}

	hms := HashMapStat{
		Buckets:          B.buckets.Count,
		OldBuckets:       B.oldBuckets.Count,
		EvacuatedBuckets: B.nevacuated,
		OverflowBuckets:  B.arena.Live(),
		Growing:          B.Growing(),
	}
	if includeDistribution {
		hms.BucketDistribution = make([]int, B.buckets.Count)
	}

	// Old buckets not yet evacuated
	for i := 0; i < B.oldBuckets.Count; i++ {
		primary := B.layout.Bucket(B.oldBuckets.Data, i)
		if B.isEvacuated(primary) {
			continue
		}
		n := B.statChain(primary, &hms)
		hms.OldRecords += n
		if includeDistribution {
			hms.BucketDistribution[i] += n
		}
	}

	// Current buckets
	for i := 0; i < B.buckets.Count; i++ {
		n := B.statChain(B.layout.Bucket(B.buckets.Data, i), &hms)
		if includeDistribution {
			hms.BucketDistribution[i] += n
		}
	}

	hashMapStat = &hms
	return
}

// statChain - Adds the records of one chain to hms and returns the number of records in it
func (B *BucketMap) statChain(primary []byte, hms *HashMapStat) (records int) {
	iter := overflow.NewBuckets(B.layout, B.arena, primary)
	length := 0
	for iter.HasNext() {
		bucket, _ := iter.Next()
		length++
		for slot := 0; slot < conf.SlotsPerBucket; slot++ {
			if B.layout.Tag(bucket.Data, slot) == conf.TagEmpty {
				continue
			}
			records++
			hms.Records++
			if bucket.Depth == 0 {
				hms.PrimaryRecords++
			} else {
				hms.OverflowRecords++
			}
		}
	}
	hms.MaxChainLength = max(hms.MaxChainLength, length)

	return
}

// check - Returns an error of type Destroyed if the map can't be used
func (B *BucketMap) check() error {
	if B == nil || B.destroyed {
		return maperr.Destroyed{}
	}
	return nil
}

// releaseChains - Frees the overflow chains of every bucket in array and returns the number of buckets freed
func (B *BucketMap) releaseChains(array storage.Array) (released int) {
	for i := 0; i < array.Count; i++ {
		primary := B.layout.Bucket(array.Data, i)
		link := B.layout.Overflow(primary)
		if link == conf.NoOverflow || link == conf.EvacuatedLink {
			continue
		}
		released += B.arena.ReleaseChain(link)
		B.layout.SetOverflow(primary, conf.NoOverflow)
	}

	return
}
