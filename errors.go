package bucketmap

import "github.com/gostonefire/bucketmap/maperr"

// NoRecordFound - Returned by Lookup, Delete and Pop when the key is not in the map
type NoRecordFound = maperr.NoRecordFound

// InvalidArgument - Returned when a call is made with lengths, functions or buffers the map can't accept
type InvalidArgument = maperr.InvalidArgument

// AllocationFailure - Returned when the allocator refused memory for a bucket array or an overflow bucket
type AllocationFailure = maperr.AllocationFailure

// Destroyed - Returned by any operation on a map after Destroy
type Destroyed = maperr.Destroyed
