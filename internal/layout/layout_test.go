//go:build unit

package layout

import (
	"github.com/gostonefire/bucketmap/internal/conf"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("calculates bucket length", func(t *testing.T) {
		// Execute
		l := New(4, 10)

		// Check
		assert.Equal(t, 8+8*4+8*10+8, l.BucketLength, "bucket length")
		assert.Equal(t, 8+8*4+8*10, l.OverflowOffset(), "overflow offset")
		assert.Equal(t, 3*l.BucketLength, l.ArrayLength(3), "array length")
	})
}

func TestLayout_Offsets(t *testing.T) {
	t.Run("keys and values are parallel arrays", func(t *testing.T) {
		// Prepare
		l := New(3, 5)

		// Check
		assert.Equal(t, 8, l.KeyOffset(0), "first key after tags")
		assert.Equal(t, 8+7*3, l.KeyOffset(7), "last key")
		assert.Equal(t, 8+8*3, l.ValueOffset(0), "first value after keys")
		assert.Equal(t, 8+8*3+7*5, l.ValueOffset(7), "last value")
	})
}

func TestLayout_Bucket(t *testing.T) {
	t.Run("addresses the i-th bucket", func(t *testing.T) {
		// Prepare
		l := New(2, 2)
		array := make([]byte, l.ArrayLength(4))
		array[2*l.BucketLength] = 42

		// Execute
		b := l.Bucket(array, 2)

		// Check
		assert.Equal(t, l.BucketLength, len(b), "bucket length")
		assert.Equal(t, l.BucketLength, cap(b), "bucket capacity is capped")
		assert.Equal(t, uint8(42), l.Tag(b, 0), "reads first tag of bucket")
	})
}

func TestLayout_Slots(t *testing.T) {
	t.Run("sets and clears a slot", func(t *testing.T) {
		// Prepare
		l := New(4, 2)
		b := make([]byte, l.BucketLength)

		// Execute
		l.SetSlot(b, 3, 200, []byte{1, 2, 3, 4}, []byte{9, 8})

		// Check
		assert.Equal(t, uint8(200), l.Tag(b, 3), "tag written")
		assert.Equal(t, []byte{1, 2, 3, 4}, l.Key(b, 3), "key written")
		assert.Equal(t, []byte{9, 8}, l.Value(b, 3), "value written")
		assert.Equal(t, []byte{0, 0, 0, 200, 0, 0, 0, 0}, l.Tags(b), "only slot 3 occupied")

		// Execute
		l.ClearSlot(b, 3)

		// Check
		assert.Equal(t, conf.TagEmpty, l.Tag(b, 3), "tag cleared")
		assert.Equal(t, []byte{0, 0, 0, 0}, l.Key(b, 3), "key zeroed")
		assert.Equal(t, []byte{0, 0}, l.Value(b, 3), "value zeroed")
	})

	t.Run("writes overflow link at the end of the bucket", func(t *testing.T) {
		// Prepare
		l := New(1, 1)
		b := make([]byte, l.BucketLength)

		// Execute
		l.SetOverflow(b, 0x0102030405060708)

		// Check
		assert.Equal(t, uint64(0x0102030405060708), l.Overflow(b), "link read back")
		assert.Equal(t, uint8(0x08), b[l.OverflowOffset()], "little endian")
		assert.Equal(t, uint8(0x01), b[l.BucketLength-1], "last byte of bucket")
	})
}
