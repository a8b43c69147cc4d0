package overflow

import (
	"github.com/gostonefire/bucketmap/internal/conf"
	"github.com/gostonefire/bucketmap/internal/layout"
	"github.com/gostonefire/bucketmap/internal/model"
	"github.com/gostonefire/bucketmap/internal/storage"
	"github.com/gostonefire/bucketmap/maperr"
)

// Buckets - Is used to iterate over a primary bucket and its overflow chain one bucket at a time.
type Buckets struct {
	layout layout.Layout
	arena  *storage.Arena
	next   []byte
	index  uint64
	depth  int
}

// NewBuckets - Returns an iterator starting at the primary bucket
func NewBuckets(l layout.Layout, arena *storage.Arena, primary []byte) Buckets {
	return Buckets{
		layout: l,
		arena:  arena,
		next:   primary,
	}
}

// HasNext - Returns true if there are more buckets to be fetched from a call to Next.
func (O *Buckets) HasNext() bool {
	return O.next != nil
}

// Next - Returns the next bucket in the chain.
// It returns:
//   - bucket is the next bucket in the chain.
//   - err is an error of type maperr.ChainExhausted if there are no more buckets when calling this function.
func (O *Buckets) Next() (bucket model.Chain, err error) {
	if O.next == nil {
		err = maperr.ChainExhausted{}
		return
	}

	bucket = model.Chain{Data: O.next, Index: O.index, Depth: O.depth}

	link := O.layout.Overflow(O.next)
	if link == conf.NoOverflow || link == conf.EvacuatedLink {
		O.next = nil
		O.index = conf.NoOverflow
	} else {
		O.next = O.arena.Bucket(link)
		O.index = link
	}
	O.depth++

	return
}
