package canvas

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-ui/engine/camera"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/group_registry"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/instance_allocator"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/panel_group"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-ui/engine/scheduler"
)

type drawRecord struct {
	pipelineKey   string
	instanceCount uint32
	bindGroups    int
}

// fakeRenderer records the GPU-facing effects of canvas operations without
// touching WebGPU. Groups tick in parallel during Advance, so recording is
// mutex-guarded.
type fakeRenderer struct {
	mu sync.Mutex

	pipelines       map[string]pipeline.Pipeline
	uniformInits    []uint64
	panelInitCaps   []int
	writeBatches    [][]bind_group_provider.BufferWrite
	draws           []drawRecord
	resizedTo       [2]int
	meshBufferInits int
}

var _ renderer.Renderer = &fakeRenderer{}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{pipelines: make(map[string]pipeline.Pipeline)}
}

func (f *fakeRenderer) Pipeline(key string) pipeline.Pipeline {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pipelines[key]
}

func (f *fakeRenderer) Pipelines() map[string]pipeline.Pipeline {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pipelines
}

func (f *fakeRenderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range pipelines {
		f.pipelines[p.PipelineKey()] = p
	}
	return nil
}

func (f *fakeRenderer) SetPipeline(key string, p pipeline.Pipeline) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pipelines[key] = p
}

func (f *fakeRenderer) Resize(width, height int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resizedTo = [2]int{width, height}
}

func (f *fakeRenderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	provider.SetIndexCount(indexCount)
	f.meshBufferInits++
	return nil
}

func (f *fakeRenderer) InitUniformBindGroup(provider bind_group_provider.BindGroupProvider, sizeBytes uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uniformInits = append(f.uniformInits, sizeBytes)
	return nil
}

func (f *fakeRenderer) InitPanelBindGroup(provider bind_group_provider.BindGroupProvider, instanceCapacity int, materialParams []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.panelInitCaps = append(f.panelInitCaps, instanceCapacity)
	return nil
}

func (f *fakeRenderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	f.mu.Lock()
	defer f.mu.Unlock()
	batch := make([]bind_group_provider.BufferWrite, len(writes))
	copy(batch, writes)
	f.writeBatches = append(f.writeBatches, batch)
}

func (f *fakeRenderer) BeginFrame() error { return nil }

func (f *fakeRenderer) DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draws = append(f.draws, drawRecord{
		pipelineKey:   pipelineKey,
		instanceCount: instanceCount,
		bindGroups:    len(bindGroups),
	})
	return nil
}

func (f *fakeRenderer) EndFrame() {}

func (f *fakeRenderer) Present() {}

func (f *fakeRenderer) SetPresentMode(mode renderer.PresentMode) {}

// stubPanel implements the Element contract the way a panel component does:
// on activation it writes its instance data into its assigned slot.
type stubPanel struct {
	group         panel_group.PanelGroup
	bucket        *instance_allocator.Bucket
	indexInBucket int
}

func (p *stubPanel) Activate(bucket *instance_allocator.Bucket, indexInBucket int) {
	p.bucket = bucket
	p.indexInBucket = indexInBucket
	transform := make([]float32, panel_group.ItemSize)
	style := make([]float32, panel_group.ItemSize)
	transform[0] = 1
	style[0] = 1
	p.group.WriteInstanceData(bucket.Offset()+indexInBucket, transform, style)
}

func (p *stubPanel) SetIndexInBucket(indexInBucket int) {
	p.indexInBucket = indexInBucket
}

// canvasHarness drives a canvas against a fake renderer with a synthetic
// clock shared by every group scheduler.
type canvasHarness struct {
	now time.Time
	r   *fakeRenderer
	c   Canvas
}

func newCanvasHarness(t *testing.T) *canvasHarness {
	t.Helper()
	h := &canvasHarness{
		now: time.Unix(0, 0),
		r:   newFakeRenderer(),
	}
	cam := camera.NewCamera(camera.WithViewport(800, 600))
	h.c = NewCanvas("test", cam, h.r, WithRegistryOptions(
		group_registry.WithTickWorkers(2),
		group_registry.WithSchedulerFactory(func() scheduler.Scheduler {
			return scheduler.NewScheduler(scheduler.WithClock(func() time.Time { return h.now }))
		}),
	))
	return h
}

// tick advances the synthetic clock and runs one frame's CPU phase.
func (h *canvasHarness) tick(d time.Duration) {
	h.now = h.now.Add(d)
	h.c.Advance(h.now)
}

// insert places a stub panel into the group and returns it.
func (h *canvasHarness) insert(g panel_group.PanelGroup, bucketIndex int) *stubPanel {
	p := &stubPanel{group: g}
	g.Insert(bucketIndex, p)
	return p
}

func TestNewCanvas_RegistersPanelPipelinesAndCameraUniform(t *testing.T) {
	h := newCanvasHarness(t)

	for _, key := range []string{
		"panel_default", "panel_default_nodepth",
		"panel_transparent", "panel_transparent_nodepth",
	} {
		assert.NotNil(t, h.r.Pipeline(key), "pipeline %q should be registered", key)
	}

	require.Len(t, h.r.uniformInits, 1)
	assert.Equal(t, uint64(64), h.r.uniformInits[0], "camera uniform is one mat4x4")
}

func TestAdvance_RunsScheduledPlacementAndFlushesWrites(t *testing.T) {
	h := newCanvasHarness(t)
	g := h.c.Group(0, group_registry.GroupProperties{MaterialClass: material.ClassDefault})

	h.insert(g, 0)
	assert.True(t, g.UpdatePending(), "zero-capacity insert defers placement to the next tick")
	assert.Equal(t, 0, g.InstanceCount())

	h.tick(time.Millisecond)

	assert.False(t, g.UpdatePending())
	assert.Equal(t, 1, g.InstanceCount())
	assert.True(t, g.Visible())
	require.NotEmpty(t, h.r.panelInitCaps, "placement should size the instance buffers")
	assert.Equal(t, 2, h.r.panelInitCaps[0], "capacity grows to ceil(1 * 1.5)")

	// The tick flushed a camera uniform batch and a staged instance-data
	// batch covering all three bindings.
	require.GreaterOrEqual(t, len(h.r.writeBatches), 2)
	last := h.r.writeBatches[len(h.r.writeBatches)-1]
	assert.Len(t, last, 3, "one coalesced write per instance buffer binding")
}

func TestAdvance_WritesCameraUniformEveryFrame(t *testing.T) {
	h := newCanvasHarness(t)

	h.tick(time.Millisecond)
	h.tick(time.Millisecond)

	require.GreaterOrEqual(t, len(h.r.writeBatches), 2)
	for _, batch := range h.r.writeBatches {
		if len(batch) == 1 {
			assert.Len(t, batch[0].Data, 64)
		}
	}
}

func TestDrawCalls_OrdersByRenderOrderThenClass(t *testing.T) {
	h := newCanvasHarness(t)
	opaque := h.c.Group(0, group_registry.GroupProperties{MaterialClass: material.ClassDefault})
	transparent := h.c.Group(0, group_registry.GroupProperties{MaterialClass: material.ClassTransparent})

	h.insert(opaque, 0)
	h.insert(transparent, 0)
	h.tick(time.Millisecond)

	require.NoError(t, h.c.DrawCalls())
	require.Len(t, h.r.draws, 2)
	assert.Equal(t, "panel_default", h.r.draws[0].pipelineKey, "opaque draws first at equal render order")
	assert.Equal(t, "panel_transparent", h.r.draws[1].pipelineKey)
	assert.Equal(t, 2, h.r.draws[0].bindGroups, "camera group plus panel group")

	// Raising the opaque group's render order flips the sequence.
	opaque.SetRenderOrder(10)
	h.r.draws = h.r.draws[:0]
	require.NoError(t, h.c.DrawCalls())
	require.Len(t, h.r.draws, 2)
	assert.Equal(t, "panel_transparent", h.r.draws[0].pipelineKey)
	assert.Equal(t, "panel_default", h.r.draws[1].pipelineKey)
}

func TestDrawCalls_SkipsEmptyGroups(t *testing.T) {
	h := newCanvasHarness(t)
	g := h.c.Group(0, group_registry.GroupProperties{MaterialClass: material.ClassDefault})

	p := h.insert(g, 0)
	h.tick(time.Millisecond)
	require.NoError(t, h.c.DrawCalls())
	require.Len(t, h.r.draws, 1)

	g.Delete(0, p.indexInBucket, p)
	h.tick(2 * time.Second) // past the delete debounce
	h.r.draws = h.r.draws[:0]

	require.NoError(t, h.c.DrawCalls())
	assert.Empty(t, h.r.draws, "an emptied group stops drawing")
}

func TestDrawCalls_DepthTestSelectsPipelineVariant(t *testing.T) {
	h := newCanvasHarness(t)
	g := h.c.Group(0, group_registry.GroupProperties{MaterialClass: material.ClassDefault})

	h.insert(g, 0)
	h.tick(time.Millisecond)

	h.c.Registry().SetDepthTest(false)
	require.NoError(t, h.c.DrawCalls())
	require.Len(t, h.r.draws, 1)
	assert.Equal(t, "panel_default_nodepth", h.r.draws[0].pipelineKey)
}

func TestResize_PropagatesToRendererAndCamera(t *testing.T) {
	h := newCanvasHarness(t)
	h.c.TakeRedraw()

	h.c.Resize(1024, 768)

	assert.Equal(t, [2]int{1024, 768}, h.r.resizedTo)
	assert.Equal(t, float32(1024), h.c.Camera().Width())
	assert.Equal(t, float32(768), h.c.Camera().Height())
	assert.True(t, h.c.TakeRedraw(), "resize requests a redraw")
}

func TestTakeRedraw_ConsumesFlag(t *testing.T) {
	h := newCanvasHarness(t)

	assert.True(t, h.c.TakeRedraw(), "first frame always draws")
	assert.False(t, h.c.TakeRedraw())

	g := h.c.Group(0, group_registry.GroupProperties{MaterialClass: material.ClassDefault})
	h.insert(g, 0)
	h.tick(time.Millisecond)

	assert.True(t, h.c.TakeRedraw(), "instance data changes request a redraw")
}

func TestPanelCount_SumsAcrossGroups(t *testing.T) {
	h := newCanvasHarness(t)
	a := h.c.Group(0, group_registry.GroupProperties{MaterialClass: material.ClassDefault})
	b := h.c.Group(1, group_registry.GroupProperties{MaterialClass: material.ClassTransparent})

	h.insert(a, 0)
	h.insert(a, 1)
	h.insert(b, 0)

	assert.Equal(t, 3, h.c.PanelCount())
}

func TestRelease_TearsDownGroups(t *testing.T) {
	h := newCanvasHarness(t)
	g := h.c.Group(0, group_registry.GroupProperties{MaterialClass: material.ClassDefault})
	h.insert(g, 0)
	h.tick(time.Millisecond)

	h.c.Release()

	assert.Equal(t, 0, h.c.Registry().GroupCount())
}
