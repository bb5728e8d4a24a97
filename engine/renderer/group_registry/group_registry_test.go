package group_registry

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/instance_allocator"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/panel_group"
	"github.com/Carmen-Shannon/oxy-ui/engine/scheduler"
)

type recordingMesh struct {
	instanceCount int
	visible       bool
	released      bool
}

func (m *recordingMesh) EnsureCapacity(capacity int) error { return nil }
func (m *recordingMesh) SetInstanceCount(count int)        { m.instanceCount = count }
func (m *recordingMesh) SetVisible(visible bool)           { m.visible = visible }
func (m *recordingMesh) Release()                          { m.released = true }

type stubElement struct {
	group  panel_group.PanelGroup
	active bool
	data   [16]float32
}

func (e *stubElement) Activate(b *instance_allocator.Bucket, indexInBucket int) {
	e.active = true
	e.group.WriteInstanceData(b.Offset()+indexInBucket, e.data[:], e.data[:])
}

func (e *stubElement) SetIndexInBucket(indexInBucket int) {}

// registryHarness drives a registry with a synthetic clock and records every
// mesh the registry's factory hands out.
type registryHarness struct {
	registry GroupRegistry
	meshes   []*recordingMesh
	now      time.Time
	redraws  atomic.Int64
}

func newRegistryHarness(t *testing.T, options ...GroupRegistryBuilderOption) *registryHarness {
	t.Helper()
	h := &registryHarness{now: time.Unix(1000, 0)}
	opts := append([]GroupRegistryBuilderOption{
		WithSchedulerFactory(func() scheduler.Scheduler {
			return scheduler.NewScheduler(scheduler.WithClock(func() time.Time { return h.now }))
		}),
		WithRedrawRequest(func() { h.redraws.Add(1) }),
		WithTickWorkers(2),
	}, options...)
	h.registry = NewGroupRegistry(func(mat material.Material) panel_group.Mesh {
		m := &recordingMesh{}
		h.meshes = append(h.meshes, m)
		return m
	}, opts...)
	return h
}

func (h *registryHarness) tick(d time.Duration) {
	h.now = h.now.Add(d)
	h.registry.OnFrame(h.now)
}

func TestGroup_CachesByCompositeKey(t *testing.T) {
	h := newRegistryHarness(t)
	r := h.registry

	base := GroupProperties{MaterialClass: material.ClassDefault}
	g1 := r.Group(0, base)
	g2 := r.Group(0, base)
	assert.Same(t, g1, g2, "identical keys must return the cached group")

	assert.NotSame(t, g1, r.Group(1, base), "major index is part of the key")
	assert.NotSame(t, g1, r.Group(0, GroupProperties{MaterialClass: material.ClassDefault, ReceiveShadow: true}))
	assert.NotSame(t, g1, r.Group(0, GroupProperties{MaterialClass: material.ClassDefault, CastShadow: true}))
	assert.NotSame(t, g1, r.Group(0, GroupProperties{MaterialClass: material.ClassTransparent}))

	assert.Equal(t, 5, r.GroupCount())
	assert.Len(t, h.meshes, 5, "each group gets its own mesh")
}

func TestGroup_RecordsShadowFlags(t *testing.T) {
	h := newRegistryHarness(t)
	g := h.registry.Group(0, GroupProperties{MaterialClass: material.ClassDefault, ReceiveShadow: true})
	assert.True(t, g.ReceiveShadow())
	assert.False(t, g.CastShadow())
}

func TestGroup_PanicsOnNegativeMajorIndex(t *testing.T) {
	h := newRegistryHarness(t)
	assert.Panics(t, func() {
		h.registry.Group(-1, GroupProperties{MaterialClass: material.ClassDefault})
	})
}

func TestSetRenderOrder_ReachesExistingAndLaterGroups(t *testing.T) {
	h := newRegistryHarness(t)
	r := h.registry

	early := r.Group(0, GroupProperties{MaterialClass: material.ClassDefault})
	r.SetRenderOrder(4.5)
	late := r.Group(1, GroupProperties{MaterialClass: material.ClassDefault})

	assert.Equal(t, 4.5, early.RenderOrder(), "existing groups must receive the broadcast")
	assert.Equal(t, 4.5, late.RenderOrder(), "new groups must inherit the active setting")
}

func TestSetDepthTest_ReachesExistingAndLaterGroups(t *testing.T) {
	h := newRegistryHarness(t)
	r := h.registry

	early := r.Group(0, GroupProperties{MaterialClass: material.ClassDefault})
	r.SetDepthTest(false)
	late := r.Group(1, GroupProperties{MaterialClass: material.ClassDefault})

	assert.False(t, early.Material().DepthTest())
	assert.False(t, late.Material().DepthTest())
}

func TestOnFrame_TicksEveryGroupWithPendingWork(t *testing.T) {
	h := newRegistryHarness(t)
	r := h.registry

	g1 := r.Group(0, GroupProperties{MaterialClass: material.ClassDefault})
	g2 := r.Group(1, GroupProperties{MaterialClass: material.ClassTransparent})

	// Capacity starts at 0, so both inserts defer to the next tick.
	e1 := &stubElement{group: g1}
	e2 := &stubElement{group: g2}
	g1.Insert(0, e1)
	g2.Insert(3, e2)
	require.True(t, g1.UpdatePending())
	require.True(t, g2.UpdatePending())

	h.tick(16 * time.Millisecond)

	assert.True(t, e1.active)
	assert.True(t, e2.active)
	assert.False(t, g1.UpdatePending())
	assert.False(t, g2.UpdatePending())
	assert.Equal(t, 1, g1.InstanceCount())
	assert.Equal(t, 1, g2.InstanceCount())
}

func TestStagedWrites_CollectsAcrossGroups(t *testing.T) {
	h := newRegistryHarness(t)
	r := h.registry

	g1 := r.Group(0, GroupProperties{MaterialClass: material.ClassDefault})
	g2 := r.Group(0, GroupProperties{MaterialClass: material.ClassTransparent})
	g1.Insert(0, &stubElement{group: g1})
	g2.Insert(0, &stubElement{group: g2})
	h.tick(16 * time.Millisecond)

	writes := r.StagedWrites(nil)
	assert.Len(t, writes, 6, "three staged writes per dirty group")
	assert.Empty(t, r.StagedWrites(nil))
}

func TestRelease_TearsDownEveryGroup(t *testing.T) {
	h := newRegistryHarness(t)
	r := h.registry

	g := r.Group(0, GroupProperties{MaterialClass: material.ClassDefault})
	r.Group(1, GroupProperties{MaterialClass: material.ClassDefault})
	require.Equal(t, 2, r.GroupCount())

	r.Release()

	assert.Zero(t, r.GroupCount())
	for _, m := range h.meshes {
		assert.True(t, m.released)
	}
	assert.NotSame(t, g, r.Group(0, GroupProperties{MaterialClass: material.ClassDefault}),
		"the registry is reusable after release")
}

func TestTraverse_StopsEarly(t *testing.T) {
	h := newRegistryHarness(t)
	r := h.registry

	for i := 0; i < 4; i++ {
		r.Group(i, GroupProperties{MaterialClass: material.ClassDefault})
	}

	visited := 0
	r.Traverse(func(g panel_group.PanelGroup) bool {
		visited++
		return visited < 2
	})
	assert.Equal(t, 2, visited)
}
