//go:build unit

package bucketmap

import (
	"encoding/binary"
	"testing"

	"github.com/gostonefire/bucketmap/hashfunc"
	"github.com/gostonefire/bucketmap/internal/layout"
	"github.com/gostonefire/bucketmap/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketMap_Put(t *testing.T) {
	t.Run("puts and gets records", func(t *testing.T) {
		// Prepare
		bm := newTestMap(t, hashfunc.XXHash, nil)
		key := u64(7)
		value := u64(77)

		// Execute
		err := bm.Put(key, value)

		// Check
		assert.NoError(t, err, "put")
		out := make([]byte, 8)
		found, err := bm.Get(key, out)
		assert.NoError(t, err, "get")
		assert.True(t, found, "found")
		assert.Equal(t, value, out, "value")
		assert.Equal(t, 1, bm.Len(), "one record")
	})

	t.Run("updates existing record without adding", func(t *testing.T) {
		// Prepare
		bm := newTestMap(t, hashfunc.XXHash, nil)
		require.NoError(t, bm.Put(u64(1), u64(10)), "put")

		// Execute
		err := bm.Put(u64(1), u64(20))

		// Check
		assert.NoError(t, err, "update")
		value, err := bm.Lookup(u64(1))
		assert.NoError(t, err, "lookup")
		assert.Equal(t, u64(20), value, "updated value")
		assert.Equal(t, 1, bm.Len(), "still one record")
	})

	t.Run("stores keys 0 to 99", func(t *testing.T) {
		// Prepare
		bm := newTestMap(t, hashfunc.XXHash, nil)

		// Execute
		for k := uint64(0); k < 100; k++ {
			require.NoError(t, bm.Put(u64(k), u64(k*2)), "put %d", k)
		}

		// Check
		out := make([]byte, 8)
		found, err := bm.Get(u64(42), out)
		assert.NoError(t, err, "get")
		assert.True(t, found, "found")
		assert.Equal(t, u64(84), out, "value of 42")
		assert.Equal(t, 100, bm.Len(), "100 records")
		assert.GreaterOrEqual(t, bm.buckets.Count, 16, "grown at least once")

		for k := uint64(0); k < 100; k++ {
			value, err := bm.Lookup(u64(k))
			assert.NoError(t, err, "lookup %d", k)
			assert.Equal(t, u64(k*2), value, "value of %d", k)
		}
	})

	t.Run("stores 4 byte keys 0 to 99", func(t *testing.T) {
		// Prepare
		bm, err := NewBucketMap(4, 4, hashfunc.XXHash, hashfunc.Equal, nil)
		require.NoError(t, err, "create map")
		u32 := func(v uint32) []byte {
			b := make([]byte, 4)
			binary.LittleEndian.PutUint32(b, v)
			return b
		}

		// Execute
		for k := uint32(0); k < 100; k++ {
			require.NoError(t, bm.Put(u32(k), u32(k*2)), "put %d", k)
		}

		// Check
		out := make([]byte, 4)
		found, err := bm.Get(u32(42), out)
		assert.NoError(t, err, "get")
		assert.True(t, found, "found")
		assert.Equal(t, u32(84), out, "value of 42")
		assert.Equal(t, 100, bm.Len(), "100 records")
		assert.GreaterOrEqual(t, bm.buckets.Count, 16, "grown at least once")

		// Clean up
		bm.Destroy()
	})

	t.Run("chains colliding keys through overflow buckets", func(t *testing.T) {
		// Prepare
		bm := newTestMap(t, constantHash(0xab00000000000000), nil)

		// Execute
		for k := uint64(0); k < 40; k++ {
			require.NoError(t, bm.Put(u64(k), u64(k)), "put %d", k)
		}
		for k := uint64(0); k < 40; k++ {
			require.NoError(t, bm.Put(u64(k), u64(k+100)), "update %d", k)
		}

		// Check
		assert.Equal(t, 40, bm.Len(), "no duplicates")
		assert.Equal(t, 4, bm.arena.Live(), "overflow buckets")
		for k := uint64(0); k < 40; k++ {
			value, err := bm.Lookup(u64(k))
			assert.NoError(t, err, "lookup %d", k)
			assert.Equal(t, u64(k+100), value, "value of %d", k)
		}
	})

	t.Run("rejects wrong lengths", func(t *testing.T) {
		// Prepare
		bm := newTestMap(t, hashfunc.XXHash, nil)

		// Execute
		errKey := bm.Put([]byte{1, 2, 3}, u64(1))
		errValue := bm.Put(u64(1), []byte{1, 2, 3})
		errNil := bm.Put(nil, u64(1))

		// Check
		assert.ErrorIs(t, errKey, InvalidArgument{}, "wrong key length")
		assert.ErrorIs(t, errValue, InvalidArgument{}, "wrong value length")
		assert.ErrorIs(t, errNil, InvalidArgument{}, "nil key")
		assert.Equal(t, 0, bm.Len(), "nothing added")
	})

	t.Run("overflow allocation failure leaves map unchanged", func(t *testing.T) {
		// Prepare
		l := layout.New(8, 8)
		limited := memory.NewLimited(nil, l.ArrayLength(8))
		bm := newTestMap(t, constantHash(0xab00000000000000), limited)
		for k := uint64(0); k < 8; k++ {
			require.NoError(t, bm.Put(u64(k), u64(k)), "fill primary bucket")
		}
		before, err := bm.Stat(true)
		require.NoError(t, err, "stat")

		// Execute
		err = bm.Put(u64(8), u64(8))

		// Check
		assert.ErrorIs(t, err, AllocationFailure{}, "allocation failure")
		assert.ErrorIs(t, err, memory.OutOfMemory{}, "wraps allocator error")
		assert.Equal(t, 8, bm.Len(), "nothing added")
		found, err := bm.Has(u64(8))
		assert.NoError(t, err, "has")
		assert.False(t, found, "failed key not stored")
		after, err := bm.Stat(true)
		require.NoError(t, err, "stat")
		assert.Equal(t, before, after, "stat unchanged")

		// Execute
		limited.SetLimit(l.ArrayLength(9))
		err = bm.Put(u64(8), u64(8))

		// Check
		assert.NoError(t, err, "put succeeds when memory is available")
		assert.Equal(t, 9, bm.Len(), "added")
	})

	t.Run("evacuation allocation failure leaves map unchanged", func(t *testing.T) {
		// Prepare
		limited := memory.NewLimited(nil, 1<<20)
		bm := newTestMap(t, constantHash(0xab00000000000000), limited)
		next := putUntilGrowing(t, bm, 0)
		limited.SetLimit(limited.InUse())
		before, err := bm.Stat(true)
		require.NoError(t, err, "stat")

		// Execute
		err = bm.Put(u64(next), u64(next))

		// Check
		assert.ErrorIs(t, err, AllocationFailure{}, "allocation failure")
		assert.Equal(t, int(next), bm.Len(), "nothing added")
		after, err := bm.Stat(true)
		require.NoError(t, err, "stat")
		assert.Equal(t, before, after, "stat unchanged")
		assert.Equal(t, 0, bm.nevacuated, "nothing evacuated")
		for k := uint64(0); k < next; k++ {
			value, err := bm.Lookup(u64(k))
			assert.NoError(t, err, "lookup %d", k)
			assert.Equal(t, u64(k*2), value, "value of %d", k)
		}

		// Execute
		limited.SetLimit(1 << 20)
		err = bm.Put(u64(next), u64(next))

		// Check
		assert.NoError(t, err, "put succeeds when memory is available")
		assert.Equal(t, int(next)+1, bm.Len(), "added")
		assert.Equal(t, 1, bm.nevacuated, "old bucket evacuated")
	})

	t.Run("failed growth does not fail put", func(t *testing.T) {
		// Prepare
		l := layout.New(8, 8)
		limited := memory.NewLimited(nil, l.ArrayLength(8))
		bm := newTestMap(t, identityHash, limited)
		for k := uint64(0); k < 52; k++ {
			require.NoError(t, bm.Put(u64(k), u64(k)), "put %d", k)
		}

		// Execute
		err := bm.Put(u64(52), u64(52))

		// Check
		assert.NoError(t, err, "put")
		assert.False(t, bm.Growing(), "growth not started")
		assert.Equal(t, 53, bm.Len(), "added")

		// Execute
		limited.SetLimit(l.ArrayLength(8 + 16))
		err = bm.Put(u64(53), u64(53))

		// Check
		assert.NoError(t, err, "put")
		assert.True(t, bm.Growing(), "growth retried on next insert")
		assert.Equal(t, 16, bm.buckets.Count, "doubled")
	})
}

func TestBucketMap_Get(t *testing.T) {
	t.Run("get on empty map finds nothing and changes nothing", func(t *testing.T) {
		// Prepare
		bm := newTestMap(t, hashfunc.XXHash, nil)
		before, err := bm.Stat(true)
		require.NoError(t, err, "stat")
		out := []byte{9, 9, 9, 9, 9, 9, 9, 9}

		// Execute
		found, err := bm.Get(u64(1), out)

		// Check
		assert.NoError(t, err, "get")
		assert.False(t, found, "not found")
		assert.Equal(t, []byte{9, 9, 9, 9, 9, 9, 9, 9}, out, "buffer untouched")
		after, err := bm.Stat(true)
		require.NoError(t, err, "stat")
		assert.Equal(t, before, after, "stat unchanged")
	})

	t.Run("rejects wrong buffer lengths", func(t *testing.T) {
		// Prepare
		bm := newTestMap(t, hashfunc.XXHash, nil)

		// Execute
		_, errKey := bm.Get([]byte{1}, make([]byte, 8))
		_, errValue := bm.Get(u64(1), make([]byte, 4))

		// Check
		assert.ErrorIs(t, errKey, InvalidArgument{}, "wrong key length")
		assert.ErrorIs(t, errValue, InvalidArgument{}, "wrong value buffer length")
	})

	t.Run("lookup and has report missing keys", func(t *testing.T) {
		// Prepare
		bm := newTestMap(t, hashfunc.XXHash, nil)
		require.NoError(t, bm.Put(u64(1), u64(2)), "put")

		// Execute
		_, errLookup := bm.Lookup(u64(3))
		has1, errHas1 := bm.Has(u64(1))
		has3, errHas3 := bm.Has(u64(3))

		// Check
		assert.ErrorIs(t, errLookup, NoRecordFound{}, "lookup of missing key")
		assert.NoError(t, errHas1, "has")
		assert.True(t, has1, "has existing key")
		assert.NoError(t, errHas3, "has")
		assert.False(t, has3, "does not have missing key")
	})
}

func TestBucketMap_Delete(t *testing.T) {
	t.Run("deletes record", func(t *testing.T) {
		// Prepare
		bm := newTestMap(t, hashfunc.XXHash, nil)
		require.NoError(t, bm.Put(u64(1), u64(2)), "put")
		require.NoError(t, bm.Put(u64(3), u64(4)), "put")

		// Execute
		err := bm.Delete(u64(1))

		// Check
		assert.NoError(t, err, "delete")
		assert.Equal(t, 1, bm.Len(), "count decremented")
		found, err := bm.Get(u64(1), make([]byte, 8))
		assert.NoError(t, err, "get")
		assert.False(t, found, "deleted key not found")
		value, err := bm.Lookup(u64(3))
		assert.NoError(t, err, "other key")
		assert.Equal(t, u64(4), value, "other key untouched")
	})

	t.Run("returns no record found for missing key", func(t *testing.T) {
		// Prepare
		bm := newTestMap(t, hashfunc.XXHash, nil)

		// Execute
		err := bm.Delete(u64(1))

		// Check
		assert.ErrorIs(t, err, NoRecordFound{}, "missing key")
		assert.Equal(t, 0, bm.Len(), "count unchanged")
	})

	t.Run("reuses emptied slot", func(t *testing.T) {
		// Prepare
		bm := newTestMap(t, constantHash(0xab00000000000000), nil)
		for k := uint64(0); k < 9; k++ {
			require.NoError(t, bm.Put(u64(k), u64(k)), "put %d", k)
		}
		require.Equal(t, 1, bm.arena.Live(), "one overflow bucket")

		// Execute
		require.NoError(t, bm.Delete(u64(0)), "delete from primary bucket")
		err := bm.Put(u64(100), u64(100))

		// Check
		assert.NoError(t, err, "put")
		assert.Equal(t, 1, bm.arena.Live(), "no new overflow bucket")
		primary := bm.layout.Bucket(bm.buckets.Data, 0)
		assert.Equal(t, u64(100), bm.layout.Key(primary, 0), "emptied slot reused")
		assert.Equal(t, 9, bm.Len(), "count")
	})

	t.Run("pops record", func(t *testing.T) {
		// Prepare
		bm := newTestMap(t, hashfunc.XXHash, nil)
		require.NoError(t, bm.Put(u64(5), u64(50)), "put")

		// Execute
		value, err := bm.Pop(u64(5))

		// Check
		assert.NoError(t, err, "pop")
		assert.Equal(t, u64(50), value, "popped value")
		assert.Equal(t, 0, bm.Len(), "removed")

		// Execute
		_, err = bm.Pop(u64(5))

		// Check
		assert.ErrorIs(t, err, NoRecordFound{}, "already popped")
	})

	t.Run("delete all after growth", func(t *testing.T) {
		// Prepare
		bm := newTestMap(t, hashfunc.XXHash, nil)
		for k := uint64(0); k < 500; k++ {
			require.NoError(t, bm.Put(u64(k), u64(k)), "put %d", k)
		}

		// Execute
		for k := uint64(0); k < 500; k++ {
			require.NoError(t, bm.Delete(u64(k)), "delete %d", k)
		}

		// Check
		assert.Equal(t, 0, bm.Len(), "empty")
		stat, err := bm.Stat(false)
		require.NoError(t, err, "stat")
		assert.Equal(t, 0, stat.Records, "no records")
		for k := uint64(0); k < 500; k++ {
			found, err := bm.Has(u64(k))
			assert.NoError(t, err, "has")
			assert.False(t, found, "deleted %d", k)
		}
	})
}
