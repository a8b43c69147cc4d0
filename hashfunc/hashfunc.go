package hashfunc

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"

	"github.com/cespare/xxhash/v2"
)

// HashFunc - Capability supplied when creating a map. Given a key (always exactly the key length given at creation)
// and the seed of the map it returns a 64-bit hash value.
// The map uses the top 8 bits as a tag and the low bits to select a bucket, so both ends of the value should be
// well distributed. The same key and seed must always give the same value.
type HashFunc func(key []byte, seed uint64) uint64

// EqualFunc - Capability supplied when creating a map. Returns true if the two keys are equal.
// Both slices always have the key length given at creation.
type EqualFunc func(a, b []byte) bool

// XXHash - Seeded xxHash64 of the key. This is the recommended general purpose HashFunc.
func XXHash(key []byte, seed uint64) uint64 {
	var d xxhash.Digest
	d.ResetWithSeed(seed)
	_, _ = d.Write(key)
	return d.Sum64()
}

// FNV1a - Seeded 64-bit FNV-1a of the key. The seed is folded into the offset basis.
// FNV-1a has weak high bits for short keys, so the result is finalized with a 64-bit mix to spread entropy to the
// tag bits.
func FNV1a(key []byte, seed uint64) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)

	h := uint64(offset64) ^ seed
	for _, b := range key {
		h ^= uint64(b)
		h *= prime64
	}

	return mix64(h)
}

// CRC32 - CRC-32 (IEEE) of the key spread over 64 bits together with the seed.
func CRC32(key []byte, seed uint64) uint64 {
	h := uint64(crc32.ChecksumIEEE(key))
	return mix64(h ^ seed)
}

// Uint64 - Treats the first (up to) 8 bytes of the key as a little endian integer and mixes it with the seed.
// Cheap and suitable for integer keys of up to 8 bytes.
func Uint64(key []byte, seed uint64) uint64 {
	var buf [8]byte
	_ = copy(buf[:], key)
	return mix64(binary.LittleEndian.Uint64(buf[:]) ^ seed)
}

// Equal - Byte-wise equality, the default EqualFunc
func Equal(a, b []byte) bool {
	return bytes.Equal(a, b)
}

// mix64 - 64-bit finalizer (splitmix64)
func mix64(h uint64) uint64 {
	h ^= h >> 30
	h *= 0xbf58476d1ce4e5b9
	h ^= h >> 27
	h *= 0x94d049bb133111eb
	h ^= h >> 31
	return h
}
