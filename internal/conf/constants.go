package conf

// SlotsPerBucket - Number of key/value slots in every bucket
const SlotsPerBucket int = 8

// TagsLength - Length of the tag array at the start of each bucket, one byte per slot
const TagsLength int = SlotsPerBucket

// OverflowLinkLength - Length of the overflow link at the end of each bucket
const OverflowLinkLength int = 8

// InitialBuckets - Number of buckets in a new map, also the minimum bucket count
const InitialBuckets int = 8

// MaxBuckets - Largest bucket count a map is created with or grows to
const MaxBuckets int = 1 << 30

// LoadFactorNumerator - Together with LoadFactorDenominator gives the average number of entries per bucket (6.5)
// that triggers growth
const LoadFactorNumerator int = 13

// LoadFactorDenominator - See LoadFactorNumerator
const LoadFactorDenominator int = 2

// TagEmpty - Tag of a slot that holds no entry
const TagEmpty uint8 = 0

// TagMin - Lowest tag an occupied slot can have
const TagMin uint8 = 1

// NoOverflow - Overflow link value meaning the bucket has no overflow bucket
const NoOverflow uint64 = 0

// EvacuatedLink - Overflow link value set on an old primary bucket once its entries have been moved to the new
// bucket array. It is never a valid arena index.
const EvacuatedLink uint64 = ^uint64(0)
