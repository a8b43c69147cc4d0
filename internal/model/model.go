package model

// Record - Represents one occupied slot in a bucket.
// Key and Value alias bucket memory and are only valid until the next mutating call on the map.
type Record struct {
	Tag        uint8
	Slot       int
	Bucket     int
	IsOverflow bool
	IsOld      bool
	Key        []byte
	Value      []byte
}

// Chain - Represents one bucket of a chain as seen by the overflow iterator
//   - Data is the bucket memory
//   - Index is the arena index of an overflow bucket, 0 for the primary bucket
//   - Depth is the position in the chain, 0 for the primary bucket
type Chain struct {
	Data  []byte
	Index uint64
	Depth int
}
