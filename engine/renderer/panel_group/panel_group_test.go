package panel_group

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/instance_allocator"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-ui/engine/scheduler"
)

// fakeMesh records the GPU-facing effects of group updates.
type fakeMesh struct {
	capacity      int
	instanceCount int
	visible       bool
	reallocations int
	released      bool
}

func (m *fakeMesh) EnsureCapacity(capacity int) error {
	m.capacity = capacity
	m.reallocations++
	return nil
}

func (m *fakeMesh) SetInstanceCount(count int) { m.instanceCount = count }
func (m *fakeMesh) SetVisible(visible bool)    { m.visible = visible }
func (m *fakeMesh) Release()                   { m.released = true }

// testPanel implements the Element contract the way a panel component does:
// activation writes the full 32 floats of instance data through the group.
type testPanel struct {
	group     PanelGroup
	bucket    *instance_allocator.Bucket
	index     int
	active    bool
	transform [16]float32
	style     [16]float32
}

func newTestPanel(g PanelGroup, id float32) *testPanel {
	p := &testPanel{group: g}
	p.transform[0] = id // distinguishable payload
	p.style[0] = id
	return p
}

func (p *testPanel) Activate(b *instance_allocator.Bucket, indexInBucket int) {
	p.bucket = b
	p.index = indexInBucket
	p.active = true
	p.group.WriteInstanceData(b.Offset()+indexInBucket, p.transform[:], p.style[:])
}

func (p *testPanel) SetIndexInBucket(indexInBucket int) {
	p.index = indexInBucket
}

func (p *testPanel) slot() int {
	return p.bucket.Offset() + p.index
}

// groupHarness bundles a group with a synthetic clock and frame driver.
type groupHarness struct {
	group   PanelGroup
	mesh    *fakeMesh
	now     time.Time
	redraws int
}

func newGroupHarness(t *testing.T, options ...PanelGroupBuilderOption) *groupHarness {
	t.Helper()
	h := &groupHarness{
		mesh: &fakeMesh{},
		now:  time.Unix(1000, 0),
	}
	sched := scheduler.NewScheduler(scheduler.WithClock(func() time.Time { return h.now }))
	opts := append([]PanelGroupBuilderOption{
		WithScheduler(sched),
		WithRedrawRequest(func() { h.redraws++ }),
	}, options...)
	h.group = NewPanelGroup(material.NewMaterial(material.WithName("test")), h.mesh, opts...)
	return h
}

// tick advances the synthetic clock and runs one frame.
func (h *groupHarness) tick(d time.Duration) {
	h.now = h.now.Add(d)
	h.group.OnFrame(h.now)
}

func TestGrowCompactShrinkScenario(t *testing.T) {
	h := newGroupHarness(t)
	g := h.group

	// Capacity starts at 0, so all ten inserts defer to the next tick.
	panels := make([]*testPanel, 10)
	for i := range panels {
		panels[i] = newTestPanel(g, float32(i+1))
		g.Insert(0, panels[i])
	}
	require.True(t, g.UpdatePending())
	require.Zero(t, g.InstanceCount())

	h.tick(16 * time.Millisecond)

	assert.Equal(t, 15, g.Capacity(), "capacity must grow to ceil(10*1.5)")
	assert.Equal(t, 10, g.InstanceCount())
	assert.True(t, g.Visible())
	assert.False(t, g.UpdatePending())
	for i, p := range panels {
		require.True(t, p.active)
		assert.Equal(t, i, p.slot(), "ten inserts into one bucket must pack slots 0-9")
	}

	// Delete eight panels. The rearrangement waits out the debounce, so the
	// draw count keeps the stale instances until it fires.
	for _, p := range panels[:8] {
		g.Delete(0, p.index, p)
	}
	require.True(t, g.UpdatePending())
	h.tick(16 * time.Millisecond)
	assert.Equal(t, 15, g.Capacity(), "debounced update must not run early")

	h.tick(DefaultDeleteDebounce)

	assert.Equal(t, 3, g.Capacity(), "capacity must shrink to ceil(2*1.5)")
	assert.Equal(t, 2, g.InstanceCount())
	assert.False(t, g.UpdatePending())
	assert.ElementsMatch(t, []int{0, 1}, []int{panels[8].slot(), panels[9].slot()},
		"survivors must compact into slots 0-1")
}

func TestInsert_FastPathIsImmediatelyVisible(t *testing.T) {
	h := newGroupHarness(t)
	g := h.group

	first := newTestPanel(g, 1)
	g.Insert(0, first)
	h.tick(16 * time.Millisecond) // grow to capacity 2

	second := newTestPanel(g, 2)
	g.Insert(0, second)

	require.False(t, g.UpdatePending(), "a fast-path insert must not schedule an update")
	require.True(t, second.active)
	assert.Equal(t, 2, g.InstanceCount())
	assert.Equal(t, 1, second.slot())
}

func TestDelete_FastPathClearsTrailingSlot(t *testing.T) {
	h := newGroupHarness(t)
	g := h.group

	a := newTestPanel(g, 1)
	b := newTestPanel(g, 2)
	g.Insert(0, a)
	g.Insert(0, b)
	h.tick(16 * time.Millisecond)
	g.StagedWrites(nil) // drain staged state

	g.Delete(0, b.index, b)

	require.False(t, g.UpdatePending(), "removing the trailing element must not schedule an update")
	assert.Equal(t, 1, g.InstanceCount())

	writes := g.StagedWrites(nil)
	require.Len(t, writes, 3, "the cleared slot must be staged for upload on all three arrays")
	for _, w := range writes {
		for _, f := range floatsOf(w.Data) {
			assert.Zero(t, f, "freed slot data must be zeroed")
		}
	}
}

func TestDelete_DebounceCoalescesBurstRemovals(t *testing.T) {
	h := newGroupHarness(t)
	g := h.group

	panels := make([]*testPanel, 9)
	for i := range panels {
		panels[i] = newTestPanel(g, float32(i+1))
		g.Insert(0, panels[i])
	}
	h.tick(16 * time.Millisecond)
	baseline := h.mesh.reallocations

	// Remove a middle element every few frames, all inside one debounce
	// window. Only one compaction (and one shrink) may result.
	for i := 0; i < 6; i++ {
		g.Delete(0, panels[i].index, panels[i])
		h.tick(50 * time.Millisecond)
	}
	require.True(t, g.UpdatePending())

	h.tick(DefaultDeleteDebounce)

	assert.False(t, g.UpdatePending())
	assert.Equal(t, 1, h.mesh.reallocations-baseline,
		"burst deletions must coalesce into a single rearrangement pass")
	assert.Equal(t, 3, g.InstanceCount())
}

func TestInsert_CancelsPendingDelayedCompaction(t *testing.T) {
	h := newGroupHarness(t)
	g := h.group

	panels := make([]*testPanel, 4)
	for i := range panels {
		panels[i] = newTestPanel(g, float32(i+1))
		g.Insert(0, panels[i])
	}
	h.tick(16 * time.Millisecond)

	g.Delete(0, panels[0].index, panels[0]) // schedules behind the debounce
	require.True(t, g.UpdatePending())

	late := newTestPanel(g, 9)
	g.Insert(1, late) // new bucket, slow path: must win the race

	h.tick(16 * time.Millisecond) // well before the debounce deadline

	require.False(t, g.UpdatePending(),
		"the insert must convert the delayed compaction into a next-tick update")
	require.True(t, late.active)
	assert.Equal(t, 4, g.InstanceCount())
}

func TestUpdate_MidUtilizationDoesNotResize(t *testing.T) {
	h := newGroupHarness(t)
	g := h.group

	panels := make([]*testPanel, 6)
	for i := range panels {
		panels[i] = newTestPanel(g, float32(i+1))
		g.Insert(0, panels[i])
	}
	h.tick(16 * time.Millisecond)
	capBefore := g.Capacity()
	reallocs := h.mesh.reallocations

	// Drop to 5/9 utilization: above the 1/3 trigger, below full.
	g.Delete(0, panels[2].index, panels[2])
	h.tick(DefaultDeleteDebounce + time.Millisecond)

	assert.Equal(t, capBefore, g.Capacity(), "mid-utilization updates must rearrange in place")
	assert.Equal(t, reallocs, h.mesh.reallocations)
	assert.Equal(t, 5, g.InstanceCount())
}

func TestUpdate_CapacityHysteresisBounds(t *testing.T) {
	h := newGroupHarness(t)
	g := h.group

	live := map[*testPanel]bool{}
	for i := 0; i < 40; i++ {
		p := newTestPanel(g, float32(i+1))
		g.Insert(i%4, p)
		live[p] = true
		h.tick(16 * time.Millisecond)
	}
	removed := 0
	for p := range live {
		if removed >= 30 {
			break
		}
		g.Delete(p.bucket.Index(), p.index, p)
		delete(live, p)
		removed++
	}
	h.tick(DefaultDeleteDebounce + time.Millisecond)

	n := g.ElementCount()
	require.Equal(t, 10, n)
	assert.GreaterOrEqual(t, g.Capacity(), n)
	assert.LessOrEqual(t, g.Capacity(), int(math.Ceil(float64(n)*DefaultGrowthFactor)),
		"after update, capacity must sit within the hysteresis band")
}

func TestUpdate_EmptyGroupHidesMesh(t *testing.T) {
	h := newGroupHarness(t)
	g := h.group

	p := newTestPanel(g, 1)
	q := newTestPanel(g, 2)
	g.Insert(0, p)
	g.Insert(1, q)
	h.tick(16 * time.Millisecond)
	capBefore := g.Capacity()

	// Removing the bucket-0 panel is a slow path; removing the last panel of
	// the last bucket afterwards is not fast either once dirty.
	g.Delete(0, p.index, p)
	g.Delete(1, q.index, q)
	h.tick(DefaultDeleteDebounce + time.Millisecond)

	assert.Zero(t, g.InstanceCount())
	assert.False(t, g.Visible())
	assert.Equal(t, capBefore, g.Capacity(), "an empty group skips reallocation")
}

func TestStagedWrites_DrainsDirtyRange(t *testing.T) {
	h := newGroupHarness(t)
	g := h.group

	g.Insert(0, newTestPanel(g, 1))
	h.tick(16 * time.Millisecond)

	writes := g.StagedWrites(nil)
	require.Len(t, writes, 3)
	for _, w := range writes {
		assert.Equal(t, uint64(0), w.Offset)
		assert.NotNil(t, w.Provider)
	}
	assert.Empty(t, g.StagedWrites(nil), "a second drain must return nothing")
}

func TestWriteInstanceData_PanicsOutOfRange(t *testing.T) {
	h := newGroupHarness(t)
	var buf [16]float32
	assert.Panics(t, func() { h.group.WriteInstanceData(5, buf[:], buf[:]) })
}

func TestRelease_CancelsPendingWork(t *testing.T) {
	h := newGroupHarness(t)
	g := h.group

	p := newTestPanel(g, 1)
	g.Insert(0, p)
	require.True(t, g.UpdatePending())

	g.Release()

	assert.True(t, h.mesh.released)
	assert.False(t, g.UpdatePending())
}

// floatsOf reinterprets a staged write payload as float32 values.
func floatsOf(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		bits := uint32(data[i*4]) | uint32(data[i*4+1])<<8 | uint32(data[i*4+2])<<16 | uint32(data[i*4+3])<<24
		out[i] = math.Float32frombits(bits)
	}
	return out
}
