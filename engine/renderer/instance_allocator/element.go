package instance_allocator

// Element is one instanced drawable occupying a single slot in the shared
// per-instance arrays. Elements are owned by their panel component; the
// allocator only keeps the back-reference it needs to tell an element where
// its slot currently is.
//
// Callers must treat the index passed to Activate and SetIndexInBucket as the
// single source of truth. Any element may observe its index change across
// rearrangements, so the value must never be cached across frames.
type Element interface {
	// Activate notifies the element that it occupies a slot and must write its
	// full instance data. The slot is bucket.Offset() + indexInBucket.
	//
	// Parameters:
	//   - bucket: the bucket the element belongs to
	//   - indexInBucket: the element's position within the bucket
	Activate(bucket *Bucket, indexInBucket int)

	// SetIndexInBucket updates the element's recorded position. It fires when
	// a removal shifts the element within its bucket and again after every
	// rearrangement, possibly with an unchanged value. Any instance data
	// movement has already happened in bulk; the element must not rewrite it.
	//
	// Parameters:
	//   - indexInBucket: the element's current position within the bucket
	SetIndexInBucket(indexInBucket int)
}
