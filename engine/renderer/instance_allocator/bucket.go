package instance_allocator

// Bucket is an ordered group of elements sharing one render-order bucket
// index. Buckets partition a contiguous prefix of the instance arrays: the
// bucket's offset is the slot of its first element and its elements occupy
// offset..offset+Count()-1 once the allocator is clean.
type Bucket struct {
	// index is the render-order key. Unique across the allocator, immutable.
	index int

	// offset is the slot of the bucket's first element in the shared arrays.
	// Stale while a rearrangement is pending.
	offset int

	elements []Element

	// slots holds each element's current slot, parallel to elements.
	// pendingSlot marks elements inserted on the slow path that have no slot
	// until the next rearrangement.
	slots []int
}

// pendingSlot marks an element that has been logically appended but not yet
// placed in the arrays.
const pendingSlot = -1

// Index returns the bucket's render-order index.
//
// Returns:
//   - int: the bucket index
func (b *Bucket) Index() int {
	return b.index
}

// Offset returns the slot of the bucket's first element.
//
// Returns:
//   - int: the first slot index
func (b *Bucket) Offset() int {
	return b.offset
}

// Count returns the number of elements in the bucket, including elements
// still pending placement.
//
// Returns:
//   - int: the element count
func (b *Bucket) Count() int {
	return len(b.elements)
}

// Slot returns the current slot of the element at the given position, or
// pendingSlot (-1) if the element has not been placed yet.
//
// Parameters:
//   - indexInBucket: the element's position within the bucket
//
// Returns:
//   - int: the element's slot, or -1 if pending
func (b *Bucket) Slot(indexInBucket int) int {
	return b.slots[indexInBucket]
}

// indexOf locates an element within the bucket. The known index is used as a
// fast path when valid; otherwise a linear scan runs (buckets are expected to
// stay small). Returns -1 if the element is not present.
func (b *Bucket) indexOf(e Element, knownIndexInBucket int) int {
	if knownIndexInBucket >= 0 && knownIndexInBucket < len(b.elements) && b.elements[knownIndexInBucket] == e {
		return knownIndexInBucket
	}
	for i, el := range b.elements {
		if el == e {
			return i
		}
	}
	return -1
}

// removeAt deletes the element at the given position, preserving the order of
// the remaining elements.
func (b *Bucket) removeAt(i int) {
	b.elements = append(b.elements[:i], b.elements[i+1:]...)
	b.slots = append(b.slots[:i], b.slots[i+1:]...)
}
