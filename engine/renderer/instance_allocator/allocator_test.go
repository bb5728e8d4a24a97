package instance_allocator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testElement records the activation callbacks so tests can observe placement.
type testElement struct {
	id     int
	bucket *Bucket
	index  int
	active bool

	activations  int
	indexUpdates int
}

func (e *testElement) Activate(b *Bucket, indexInBucket int) {
	e.bucket = b
	e.index = indexInBucket
	e.active = true
	e.activations++
}

func (e *testElement) SetIndexInBucket(indexInBucket int) {
	e.index = indexInBucket
	e.indexUpdates++
}

func (e *testElement) slot() int {
	return e.bucket.Offset() + e.index
}

// testArrays simulates the caller-owned backing array: one int per slot
// holding the id of the element whose data lives there.
type testArrays struct {
	data []int
}

func newTestArrays(capacity int) *testArrays {
	a := &testArrays{data: make([]int, capacity)}
	for i := range a.data {
		a.data[i] = -1
	}
	return a
}

func (ta *testArrays) copyRange(src, dst, count int) {
	copy(ta.data[dst:dst+count], ta.data[src:src+count])
}

func (ta *testArrays) write(e *testElement) {
	ta.data[e.slot()] = e.id
}

// checkInvariants asserts the contiguous-partition invariant: buckets sorted
// ascending, adjacent offsets gapless, and every element slot consistent.
func checkInvariants(t *testing.T, a Allocator) {
	t.Helper()
	offset := 0
	prevIndex := -1 << 62
	for _, b := range a.Buckets() {
		require.Greater(t, b.Index(), prevIndex, "buckets must be sorted ascending by index")
		require.Equal(t, offset, b.Offset(), "bucket %d offset must equal running sum of prior sizes", b.Index())
		require.Positive(t, b.Count(), "empty buckets must be dropped")
		for i := 0; i < b.Count(); i++ {
			require.Equal(t, b.Offset()+i, b.Slot(i), "slot must be offset+index in bucket %d", b.Index())
		}
		prevIndex = b.Index()
		offset += b.Count()
	}
	require.Equal(t, offset, a.Count(), "bucket sizes must sum to the element count")
	require.LessOrEqual(t, a.Count(), a.Capacity(), "occupied slots must fit the capacity")
}

func TestInsert_FastPathActivatesInPlace(t *testing.T) {
	a := NewAllocator(4)

	e := &testElement{id: 1}
	needs := a.Insert(0, e)

	require.False(t, needs, "appending to the trailing free region must not rearrange")
	require.True(t, e.active)
	assert.Equal(t, 1, e.activations)
	assert.Equal(t, 0, e.slot())
	assert.False(t, a.NeedsRearrange())
	checkInvariants(t, a)
}

func TestInsert_SequentialFastPathStaysContiguous(t *testing.T) {
	a := NewAllocator(8)

	elems := make([]*testElement, 5)
	for i := range elems {
		elems[i] = &testElement{id: i}
		require.False(t, a.Insert(0, elems[i]), "insert %d should take the fast path", i)
	}

	for i, e := range elems {
		assert.Equal(t, i, e.slot())
	}
	checkInvariants(t, a)
}

func TestInsert_BeyondCapacityDefersPlacement(t *testing.T) {
	a := NewAllocator(1)

	require.False(t, a.Insert(0, &testElement{id: 0}))

	late := &testElement{id: 1}
	require.True(t, a.Insert(0, late), "insert past capacity must defer to rearrange")
	require.False(t, late.active, "deferred element must not activate before rearrange")
	require.True(t, a.NeedsRearrange())
}

func TestInsert_IntoEarlierBucketDefersPlacement(t *testing.T) {
	a := NewAllocator(8)

	require.False(t, a.Insert(5, &testElement{id: 0}))

	early := &testElement{id: 1}
	require.True(t, a.Insert(2, early), "insert before the last bucket must defer to rearrange")
	require.False(t, early.active)
}

func TestRemove_FastPathLastOfLast(t *testing.T) {
	a := NewAllocator(4)
	first := &testElement{id: 0}
	last := &testElement{id: 1}
	a.Insert(0, first)
	a.Insert(0, last)

	needs := a.Remove(0, last, last.index)

	require.False(t, needs, "removing the last element of the last bucket is a fast path")
	assert.False(t, a.NeedsRearrange())
	assert.Equal(t, 1, a.Count())
	checkInvariants(t, a)
}

func TestRemove_LastElementDropsBucket(t *testing.T) {
	a := NewAllocator(4)
	e := &testElement{id: 0}
	a.Insert(3, e)

	a.Remove(3, e, e.index)

	assert.Nil(t, a.Bucket(3))
	assert.Empty(t, a.Buckets())
	assert.Zero(t, a.Count())
}

func TestRemove_MiddleDefersCompaction(t *testing.T) {
	a := NewAllocator(4)
	elems := make([]*testElement, 3)
	for i := range elems {
		elems[i] = &testElement{id: i}
		a.Insert(0, elems[i])
	}

	needs := a.Remove(0, elems[1], elems[1].index)

	require.True(t, needs, "removing a middle element must defer compaction")
	require.True(t, a.NeedsRearrange())
}

func TestRemove_StaleKnownIndexFallsBackToScan(t *testing.T) {
	a := NewAllocator(4)
	x := &testElement{id: 0}
	y := &testElement{id: 1}
	a.Insert(0, x)
	a.Insert(0, y)

	// Deliberately wrong hint: the scan must still find the element.
	needs := a.Remove(0, x, 1)
	require.True(t, needs)
	assert.Equal(t, 1, a.Count())
}

func TestRemove_PanicsOnUnknownBucket(t *testing.T) {
	a := NewAllocator(4)
	assert.Panics(t, func() { a.Remove(7, &testElement{}, -1) })
}

func TestRemove_PanicsOnUnknownElement(t *testing.T) {
	a := NewAllocator(4)
	a.Insert(0, &testElement{id: 0})
	assert.Panics(t, func() { a.Remove(0, &testElement{id: 99}, -1) })
}

func TestRearrange_CompactsAfterMiddleRemove(t *testing.T) {
	a := NewAllocator(8)
	ta := newTestArrays(8)
	elems := make([]*testElement, 4)
	for i := range elems {
		elems[i] = &testElement{id: i}
		a.Insert(0, elems[i])
		ta.write(elems[i])
	}

	a.Remove(0, elems[1], elems[1].index)
	a.Rearrange(ta.copyRange)

	checkInvariants(t, a)
	for _, e := range []*testElement{elems[0], elems[2], elems[3]} {
		assert.Equal(t, e.id, ta.data[e.slot()], "element %d data must follow its slot", e.id)
	}
	assert.Equal(t, 3, a.Count())
}

func TestRearrange_OrdersBucketsByIndex(t *testing.T) {
	a := NewAllocator(8)
	ta := newTestArrays(8)

	inBucket5 := &testElement{id: 5}
	inBucket2 := &testElement{id: 2}
	require.False(t, a.Insert(5, inBucket5))
	ta.write(inBucket5)
	require.True(t, a.Insert(2, inBucket2))

	a.Rearrange(ta.copyRange)
	ta.write(inBucket2) // activation writes the pending element's data

	checkInvariants(t, a)
	require.True(t, inBucket2.active)
	assert.Less(t, inBucket2.slot(), inBucket5.slot(),
		"bucket 2 must precede bucket 5 regardless of insertion order")
	assert.Equal(t, 2, ta.data[inBucket2.slot()])
	assert.Equal(t, 5, ta.data[inBucket5.slot()])
}

func TestRearrange_MixedUpAndDownMovesPreserveData(t *testing.T) {
	// Bucket 0 shrinks (later data moves down) while bucket 1 grows (bucket 2
	// data moves up). Exercises both copy phases in one pass.
	a := NewAllocator(16)
	ta := newTestArrays(16)

	var all []*testElement
	id := 0
	for _, bn := range []struct{ bucket, n int }{{0, 3}, {1, 2}, {2, 3}} {
		for i := 0; i < bn.n; i++ {
			e := &testElement{id: id}
			id++
			if !a.Insert(bn.bucket, e) {
				ta.write(e)
			}
			all = append(all, e)
		}
	}
	a.Rearrange(ta.copyRange)
	for _, e := range all {
		ta.write(e)
	}

	// Remove two from bucket 0, grow bucket 1 by three.
	a.Remove(0, all[0], all[0].index)
	a.Remove(0, all[1], all[1].index)
	removed := map[*testElement]bool{all[0]: true, all[1]: true}
	var pending []*testElement
	for i := 0; i < 3; i++ {
		e := &testElement{id: id}
		id++
		if !a.Insert(1, e) {
			ta.write(e)
		} else {
			pending = append(pending, e)
		}
		all = append(all, e)
	}

	a.Rearrange(ta.copyRange)
	for _, e := range pending {
		ta.write(e)
	}

	checkInvariants(t, a)
	for _, e := range all {
		if removed[e] {
			continue
		}
		require.True(t, e.active)
		assert.Equal(t, e.id, ta.data[e.slot()], "element %d data must survive the rearrange", e.id)
	}
}

func TestRemove_SlowPathRenumbersShiftedSiblings(t *testing.T) {
	a := NewAllocator(8)
	elems := make([]*testElement, 4)
	for i := range elems {
		elems[i] = &testElement{id: i}
		a.Insert(0, elems[i])
	}

	require.True(t, a.Remove(0, elems[1], elems[1].index))

	// The elements behind the hole slid down one; their recorded index and
	// the slots slice shifted together, so slot lookups keep working during
	// the deferred-compaction window.
	assert.Equal(t, 1, elems[2].index)
	assert.Equal(t, 2, elems[3].index)
	b := a.Bucket(0)
	assert.Equal(t, 2, b.Slot(elems[2].index))
	assert.Equal(t, 3, b.Slot(elems[3].index))
	assert.Equal(t, 0, elems[0].index, "elements before the hole must not be renumbered")
}

func TestRearrange_CompensatingGrowthKeepsIndexCurrent(t *testing.T) {
	// A deferred removal shifts an element to the front of its bucket while a
	// pending insert grows the preceding bucket by exactly the same amount, so
	// the element's slot number never moves even though its position did.
	a := NewAllocator(8)
	ta := newTestArrays(8)

	solo := &testElement{id: 0}
	gone := &testElement{id: 1}
	survivor := &testElement{id: 2}
	a.Insert(0, solo)
	ta.write(solo)
	a.Insert(1, gone)
	ta.write(gone)
	a.Insert(1, survivor)
	ta.write(survivor)

	require.True(t, a.Remove(1, gone, gone.index))
	assert.Equal(t, 0, survivor.index, "shifted element must learn its position at removal time")
	assert.Equal(t, 2, a.Bucket(1).Slot(survivor.index))

	late := &testElement{id: 3}
	require.True(t, a.Insert(0, late))

	a.Rearrange(ta.copyRange)
	ta.write(late)

	checkInvariants(t, a)
	assert.Equal(t, 0, survivor.index)
	assert.Equal(t, 2, survivor.slot(), "slot must be unchanged by the compensating reshuffle")
	assert.Equal(t, 1, a.Bucket(1).Count())
	assert.NotPanics(t, func() { a.Bucket(1).Slot(survivor.index) })
	assert.Equal(t, survivor.id, ta.data[survivor.slot()])
}

func TestRearrange_ReinsertYieldsValidSlot(t *testing.T) {
	a := NewAllocator(8)
	ta := newTestArrays(8)

	keep := &testElement{id: 0}
	churn := &testElement{id: 1}
	a.Insert(0, keep)
	ta.write(keep)
	a.Insert(3, churn)
	ta.write(churn)

	if a.Remove(3, churn, churn.index) {
		a.Rearrange(ta.copyRange)
	}
	if a.Insert(3, churn) {
		a.Rearrange(ta.copyRange)
	}
	ta.write(churn)

	checkInvariants(t, a)
	assert.Equal(t, 1, ta.data[churn.slot()])
}

func TestResize_RecordsCapacity(t *testing.T) {
	a := NewAllocator(4)
	a.Insert(0, &testElement{id: 0})

	a.Resize(4, 16)
	assert.Equal(t, 16, a.Capacity())

	a.Resize(16, 1)
	assert.Equal(t, 1, a.Capacity())
}

func TestResize_PanicsBelowCount(t *testing.T) {
	a := NewAllocator(4)
	a.Insert(0, &testElement{id: 0})
	a.Insert(0, &testElement{id: 1})

	assert.Panics(t, func() { a.Resize(4, 1) })
}

func TestResize_PanicsOnStaleOldCapacity(t *testing.T) {
	a := NewAllocator(4)
	assert.Panics(t, func() { a.Resize(8, 16) })
}

func TestRearrange_GrowThenRearrangePlacesPending(t *testing.T) {
	a := NewAllocator(0)
	ta := newTestArrays(32)

	elems := make([]*testElement, 10)
	for i := range elems {
		elems[i] = &testElement{id: i}
		require.True(t, a.Insert(0, elems[i]), "capacity 0 forces the slow path")
	}

	a.Resize(0, 15)
	a.Rearrange(ta.copyRange)
	for _, e := range elems {
		ta.write(e)
	}

	checkInvariants(t, a)
	for i, e := range elems {
		require.True(t, e.active)
		assert.Equal(t, i, ta.data[e.slot()])
	}
}
