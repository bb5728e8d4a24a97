// Package instance_allocator assigns instanced UI elements to slots in shared
// per-instance GPU arrays, grouped into buckets ordered by a render-order
// index so that instances drawn together stay contiguous.
//
// Most churn resolves on a fast path that touches no other element's slot:
// appending to the trailing free region, or removing the very last element.
// Everything else defers cross-element movement to a single amortized
// Rearrange pass, which restores the contiguous-partition invariant with bulk
// range copies instead of per-element shifts. A slot move costs a GPU buffer
// update-range write, so avoiding moves is the whole point of this design.
package instance_allocator

import (
	"fmt"
	"sort"
)

// allocator is the implementation of the Allocator interface.
type allocator struct {
	// buckets is kept sorted ascending by bucket index.
	buckets []*Bucket

	capacity int
	count    int

	// dirty is set whenever an insert or remove could not resolve in place.
	// While dirty, bucket offsets and element slots are stale and the fast
	// paths are disabled until Rearrange runs.
	dirty bool
}

// Allocator places elements into slots of capacity-bounded shared arrays,
// keeping them grouped and ordered by bucket index. It owns only the
// placement bookkeeping; the backing arrays belong to the caller, which
// performs the actual data movement through the Rearrange copy callback.
//
// All methods must be called from a single goroutine.
type Allocator interface {
	// Insert adds an element to the bucket with the given index, creating the
	// bucket if needed. If the element lands on the first free slot past the
	// last bucket while the allocator is clean, it is activated immediately
	// and false is returned. Otherwise the element stays pending and true is
	// returned: the caller must run Rearrange before the element is visible.
	//
	// Parameters:
	//   - bucketIndex: the render-order bucket key
	//   - e: the element to place (must not be nil)
	//
	// Returns:
	//   - bool: true if a rearrangement pass is required
	Insert(bucketIndex int, e Element) bool

	// Remove deletes an element from its bucket. Removing the last element of
	// the last bucket while the allocator is clean frees the trailing slot
	// without disturbing any other element and returns false. Any other
	// removal leaves a hole and returns true to defer compaction; elements
	// shifted down by the removal are told their new index immediately so
	// their slot lookups stay valid until the compaction runs. Buckets whose
	// element count reaches zero are dropped.
	//
	// Panics if the bucket or element does not exist: that is a caller bug on
	// a hot rendering path, and silent corruption is worse than a hard stop.
	//
	// Parameters:
	//   - bucketIndex: the bucket key the element was inserted under
	//   - e: the element to remove
	//   - knownIndexInBucket: the element's last known index, or -1; used as a
	//     lookup fast path and verified before use
	//
	// Returns:
	//   - bool: true if a rearrangement pass is required
	Remove(bucketIndex int, e Element, knownIndexInBucket int) bool

	// Rearrange recomputes every bucket's offset as the running sum of prior
	// bucket sizes and moves element data into place. Contiguous, correctly
	// ordered runs are relocated with a single copyRange call each; runs are
	// ordered so no copy reads a range another pending copy has overwritten.
	// Pending elements are activated, and every placed element is told its
	// current index. Clears the dirty state.
	//
	// Parameters:
	//   - copyRange: bulk copier over the caller's backing arrays; must handle
	//     overlapping ranges like memmove
	Rearrange(copyRange func(srcSlot, dstSlot, count int))

	// Resize records a new capacity. The caller reallocates the backing
	// arrays and copies the overlapping prefix itself; on grow, Rearrange
	// must run after Resize so placement has room for every element.
	//
	// Parameters:
	//   - oldCapacity: the capacity being replaced (contract check)
	//   - newCapacity: the new capacity; must hold every live element
	Resize(oldCapacity, newCapacity int)

	// NeedsRearrange reports whether a slow-path insert or remove is awaiting
	// a Rearrange pass.
	//
	// Returns:
	//   - bool: true if placement state is stale
	NeedsRearrange() bool

	// Count returns the number of live elements, including pending ones.
	//
	// Returns:
	//   - int: the element count
	Count() int

	// Capacity returns the current slot capacity.
	//
	// Returns:
	//   - int: the capacity
	Capacity() int

	// Buckets returns the buckets in ascending index order. The slice is
	// owned by the allocator and must not be mutated.
	//
	// Returns:
	//   - []*Bucket: the live buckets
	Buckets() []*Bucket

	// Bucket returns the bucket with the given index, or nil if none exists.
	//
	// Parameters:
	//   - bucketIndex: the bucket key
	//
	// Returns:
	//   - *Bucket: the bucket, or nil
	Bucket(bucketIndex int) *Bucket
}

var _ Allocator = &allocator{}

// NewAllocator creates an empty Allocator with the given initial capacity.
//
// Parameters:
//   - capacity: the initial slot capacity (may be zero)
//
// Returns:
//   - Allocator: the newly created allocator
func NewAllocator(capacity int) Allocator {
	if capacity < 0 {
		panic(fmt.Sprintf("instance_allocator: negative capacity %d", capacity))
	}
	return &allocator{capacity: capacity}
}

func (a *allocator) Insert(bucketIndex int, e Element) bool {
	if e == nil {
		panic("instance_allocator: Insert requires a non-nil Element")
	}

	pos := sort.Search(len(a.buckets), func(i int) bool {
		return a.buckets[i].index >= bucketIndex
	})

	var b *Bucket
	if pos < len(a.buckets) && a.buckets[pos].index == bucketIndex {
		b = a.buckets[pos]
	} else {
		// Lazy bucket creation at the sorted insertion point. The offset is
		// seeded from the clean-state invariant; it is recomputed anyway if a
		// rearrangement is pending.
		b = &Bucket{index: bucketIndex}
		if pos < len(a.buckets) {
			b.offset = a.buckets[pos].offset
		} else {
			b.offset = a.count
		}
		a.buckets = append(a.buckets, nil)
		copy(a.buckets[pos+1:], a.buckets[pos:])
		a.buckets[pos] = b
	}

	isLast := b == a.buckets[len(a.buckets)-1]
	if !a.dirty && isLast && a.count < a.capacity {
		// Fast path: the next free slot is exactly the end of the last
		// bucket, so the element activates in place.
		idx := len(b.elements)
		b.elements = append(b.elements, e)
		b.slots = append(b.slots, a.count)
		a.count++
		e.Activate(b, idx)
		return false
	}

	b.elements = append(b.elements, e)
	b.slots = append(b.slots, pendingSlot)
	a.count++
	a.dirty = true
	return true
}

func (a *allocator) Remove(bucketIndex int, e Element, knownIndexInBucket int) bool {
	if e == nil {
		panic("instance_allocator: Remove requires a non-nil Element")
	}

	pos := sort.Search(len(a.buckets), func(i int) bool {
		return a.buckets[i].index >= bucketIndex
	})
	if pos >= len(a.buckets) || a.buckets[pos].index != bucketIndex {
		panic(fmt.Sprintf("instance_allocator: Remove: no bucket with index %d", bucketIndex))
	}
	b := a.buckets[pos]

	idx := b.indexOf(e, knownIndexInBucket)
	if idx < 0 {
		panic(fmt.Sprintf("instance_allocator: Remove: element not found in bucket %d", bucketIndex))
	}

	fast := !a.dirty && pos == len(a.buckets)-1 && idx == len(b.elements)-1

	b.removeAt(idx)
	a.count--
	if len(b.elements) == 0 {
		a.buckets = append(a.buckets[:pos], a.buckets[pos+1:]...)
	} else {
		// Everything past the removed position shifted down one. The slots
		// slice shifted with the elements, so telling each element its new
		// position keeps Bucket.Slot lookups valid while compaction is
		// deferred. Buckets are small; this loop is cheap.
		for i := idx; i < len(b.elements); i++ {
			if b.slots[i] != pendingSlot {
				b.elements[i].SetIndexInBucket(i)
			}
		}
	}

	if fast {
		return false
	}
	a.dirty = true
	return true
}

// rangeMove is one pending bulk relocation of a contiguous element run.
type rangeMove struct {
	src, dst, count int
}

func (a *allocator) Rearrange(copyRange func(srcSlot, dstSlot, count int)) {
	if copyRange == nil {
		panic("instance_allocator: Rearrange requires a non-nil copyRange")
	}

	// Phase 1: recompute offsets and collect relocations at run granularity.
	// Runs appear in ascending source order (within a bucket slots stay
	// ascending across removals, and buckets are sorted), and destinations
	// ascend with them, which makes the two-phase copy below clobber-safe:
	// down-moves front-to-back never overwrite a later source, and up-moves
	// back-to-front never overwrite an earlier one.
	var down, up []rangeMove
	offset := 0
	for _, b := range a.buckets {
		i := 0
		for i < len(b.elements) {
			if b.slots[i] == pendingSlot {
				i++
				continue
			}
			j := i + 1
			for j < len(b.elements) && b.slots[j] == b.slots[j-1]+1 {
				j++
			}
			src, dst := b.slots[i], offset+i
			if src != dst {
				m := rangeMove{src: src, dst: dst, count: j - i}
				if dst < src {
					down = append(down, m)
				} else {
					up = append(up, m)
				}
			}
			i = j
		}
		b.offset = offset
		offset += len(b.elements)
	}

	if offset > a.capacity {
		panic(fmt.Sprintf("instance_allocator: Rearrange: %d elements exceed capacity %d", offset, a.capacity))
	}

	for _, m := range down {
		copyRange(m.src, m.dst, m.count)
	}
	for i := len(up) - 1; i >= 0; i-- {
		copyRange(up[i].src, up[i].dst, up[i].count)
	}

	// Phase 2: finalize slots and notify elements. Pending elements activate
	// and write their own data. Every placed element is told its position
	// again: a slot number can survive a reshuffle unchanged (an earlier
	// bucket growing by exactly what a later one lost) even though the
	// element's position within its bucket moved, so a slot comparison is
	// not a safe proxy for "nothing to report".
	for _, b := range a.buckets {
		for i := range b.elements {
			slot := b.offset + i
			if b.slots[i] == pendingSlot {
				b.slots[i] = slot
				b.elements[i].Activate(b, i)
				continue
			}
			b.slots[i] = slot
			b.elements[i].SetIndexInBucket(i)
		}
	}

	a.dirty = false
}

func (a *allocator) Resize(oldCapacity, newCapacity int) {
	if oldCapacity != a.capacity {
		panic(fmt.Sprintf("instance_allocator: Resize: stale old capacity %d (current %d)", oldCapacity, a.capacity))
	}
	if newCapacity < a.count {
		panic(fmt.Sprintf("instance_allocator: Resize: capacity %d below element count %d", newCapacity, a.count))
	}
	a.capacity = newCapacity
}

func (a *allocator) NeedsRearrange() bool {
	return a.dirty
}

func (a *allocator) Count() int {
	return a.count
}

func (a *allocator) Capacity() int {
	return a.capacity
}

func (a *allocator) Buckets() []*Bucket {
	return a.buckets
}

func (a *allocator) Bucket(bucketIndex int) *Bucket {
	pos := sort.Search(len(a.buckets), func(i int) bool {
		return a.buckets[i].index >= bucketIndex
	})
	if pos < len(a.buckets) && a.buckets[pos].index == bucketIndex {
		return a.buckets[pos]
	}
	return nil
}
