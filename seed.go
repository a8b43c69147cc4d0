package bucketmap

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// GenerateSeed - Returns a random seed for a map, from crypto/rand or, if that fails, the wall clock
func GenerateSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}
