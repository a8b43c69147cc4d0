package layout

import (
	"encoding/binary"
	"github.com/gostonefire/bucketmap/internal/conf"
)

// Layout - Addressing arithmetic for the packed bucket format.
// A bucket is laid out as
//
//	[tags: 8][keys: 8 * KeyLength][values: 8 * ValueLength][overflow link: 8]
//
// and a bucket array is BucketLength * n contiguous bytes.
type Layout struct {
	KeyLength      int
	ValueLength    int
	BucketLength   int
	valuesOffset   int
	overflowOffset int
}

// New - Returns the Layout for the given key and value lengths
func New(keyLength, valueLength int) Layout {
	valuesOffset := conf.TagsLength + conf.SlotsPerBucket*keyLength
	overflowOffset := valuesOffset + conf.SlotsPerBucket*valueLength

	return Layout{
		KeyLength:      keyLength,
		ValueLength:    valueLength,
		BucketLength:   overflowOffset + conf.OverflowLinkLength,
		valuesOffset:   valuesOffset,
		overflowOffset: overflowOffset,
	}
}

// ArrayLength - Returns the number of bytes needed for an array of n buckets
func (L Layout) ArrayLength(n int) int {
	return L.BucketLength * n
}

// Bucket - Returns the i-th bucket of a bucket array, capped so that writes can't spill into the next bucket
func (L Layout) Bucket(array []byte, i int) []byte {
	start := i * L.BucketLength
	end := start + L.BucketLength
	return array[start:end:end]
}

// KeyOffset - Returns the offset of a slot's key within a bucket
func (L Layout) KeyOffset(slot int) int {
	return conf.TagsLength + slot*L.KeyLength
}

// ValueOffset - Returns the offset of a slot's value within a bucket
func (L Layout) ValueOffset(slot int) int {
	return L.valuesOffset + slot*L.ValueLength
}

// OverflowOffset - Returns the offset of the overflow link within a bucket
func (L Layout) OverflowOffset() int {
	return L.overflowOffset
}

// Tag - Returns the tag of a slot
func (L Layout) Tag(bucket []byte, slot int) uint8 {
	return bucket[slot]
}

// SetTag - Sets the tag of a slot
func (L Layout) SetTag(bucket []byte, slot int, tag uint8) {
	bucket[slot] = tag
}

// Tags - Returns the tag array of a bucket
func (L Layout) Tags(bucket []byte) []byte {
	return bucket[:conf.TagsLength:conf.TagsLength]
}

// Key - Returns the key bytes of a slot, the slice aliases bucket memory
func (L Layout) Key(bucket []byte, slot int) []byte {
	start := L.KeyOffset(slot)
	end := start + L.KeyLength
	return bucket[start:end:end]
}

// Value - Returns the value bytes of a slot, the slice aliases bucket memory
func (L Layout) Value(bucket []byte, slot int) []byte {
	start := L.ValueOffset(slot)
	end := start + L.ValueLength
	return bucket[start:end:end]
}

// Overflow - Returns the overflow link of a bucket
func (L Layout) Overflow(bucket []byte) uint64 {
	return binary.LittleEndian.Uint64(bucket[L.overflowOffset:])
}

// SetOverflow - Sets the overflow link of a bucket
func (L Layout) SetOverflow(bucket []byte, link uint64) {
	binary.LittleEndian.PutUint64(bucket[L.overflowOffset:], link)
}

// SetSlot - Writes tag, key and value into a slot
func (L Layout) SetSlot(bucket []byte, slot int, tag uint8, key, value []byte) {
	L.SetTag(bucket, slot, tag)
	_ = copy(L.Key(bucket, slot), key)
	_ = copy(L.Value(bucket, slot), value)
}

// ClearSlot - Marks a slot empty and zeroes its key and value
func (L Layout) ClearSlot(bucket []byte, slot int) {
	L.SetTag(bucket, slot, conf.TagEmpty)
	clear(L.Key(bucket, slot))
	clear(L.Value(bucket, slot))
}
