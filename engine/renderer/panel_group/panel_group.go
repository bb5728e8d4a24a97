// Package panel_group owns the shared per-instance arrays behind one
// instanced panel draw call: a 4x4 transform, a 16-float style block, and a
// 16-float clip block per panel. It wraps the sorted-bucket allocator to map
// bucket/element operations onto concrete array slots, stages dirty ranges as
// coalesced GPU buffer writes, and applies grow/shrink hysteresis so churn
// does not thrash buffer reallocation.
//
// Inserts that need a rearrangement become visible on the next frame tick.
// Deletions are visually safe to delay (the stale slot keeps a now-hidden
// instance until compaction), so their rearrangement sits behind a debounce
// that absorbs burst removals into a single pass. An insert arriving before
// the debounce fires cancels the timer and forces a next-frame update.
package panel_group

import (
	"fmt"
	"math"
	"time"

	"github.com/Carmen-Shannon/oxy-ui/common"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/instance_allocator"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-ui/engine/scheduler"
)

const (
	// ItemSize is the number of float32 values per instance in each backing
	// array: a 4x4 transform, and two vec4-aligned 16-float data blocks.
	ItemSize = 16

	// Storage buffer bindings for the three per-instance arrays.
	BindingTransforms = 0
	BindingStyles     = 1
	BindingClipPlanes = 2

	// DefaultGrowthFactor is the capacity target relative to the live count
	// after a resize, leaving 25-50% headroom for further inserts.
	DefaultGrowthFactor = 1.5

	// DefaultShrinkDivisor triggers a shrink once the live count falls to
	// 1/3 of capacity or below.
	DefaultShrinkDivisor = 3

	// DefaultDeleteDebounce is how long a deletion-triggered rearrangement
	// waits for further churn before running.
	DefaultDeleteDebounce = time.Second
)

// panelGroup is the implementation of the PanelGroup interface.
type panelGroup struct {
	alloc instance_allocator.Allocator

	// The three parallel backing arrays, each Capacity()*ItemSize long.
	// Slots at or past the live count are kept zeroed; a zero-scale
	// transform hides stale geometry.
	transforms []float32
	styles     []float32
	clips      []float32

	mat      material.Material
	mesh     Mesh
	provider bind_group_provider.BindGroupProvider
	sched    scheduler.Scheduler

	requestRedraw func()

	growthFactor   float64
	shrinkDivisor  int
	deleteDebounce time.Duration

	// Scheduling tokens. At most one of each is live; new requests merge
	// into the existing one instead of queueing.
	cancelNextTick scheduler.CancelFunc
	cancelDelayed  scheduler.CancelFunc

	renderOrder   float64
	receiveShadow bool
	castShadow    bool

	instanceCount int
	visible       bool

	// dirtyMin/dirtyMax bound the slot range staged for GPU upload.
	// dirtyMin < 0 means clean.
	dirtyMin, dirtyMax int

	// highWater is the first slot known to be zero in all three arrays.
	// Compaction clears [count, highWater) to restore the zeroed-tail
	// invariant without touching slots that were never written.
	highWater int
}

// PanelGroup owns the packed per-instance data for every panel sharing one
// material class and group key, and evolves that packing under churn. All
// methods must be called from the thread driving the frame tick; there is no
// internal locking because every entry point runs to completion before the
// next can start.
type PanelGroup interface {
	// Insert places an element into the bucket with the given render-order
	// index. On the fast path the element activates and writes its instance
	// data immediately; otherwise an update is scheduled for the next frame
	// tick so the insert becomes visible promptly.
	//
	// Parameters:
	//   - bucketIndex: the render-order bucket key
	//   - e: the element to place
	Insert(bucketIndex int, e instance_allocator.Element)

	// Delete removes an element. On the fast path the freed trailing slot is
	// zeroed in place; otherwise compaction is scheduled behind the delete
	// debounce, coalescing burst removals into one rearrangement pass.
	//
	// Parameters:
	//   - bucketIndex: the bucket key the element was inserted under
	//   - indexInBucket: the element's last known index, or -1 if unknown
	//   - e: the element to remove
	Delete(bucketIndex, indexInBucket int, e instance_allocator.Element)

	// OnFrame advances the group's scheduler by one frame tick, running at
	// most one pending update. Multiple update requests collapse into the
	// single next scheduled run.
	//
	// Parameters:
	//   - now: the current frame time
	OnFrame(now time.Time)

	// WriteInstanceData writes an element's transform and style blocks into
	// its slot and stages the range for GPU upload. Elements call this from
	// their activation callback and whenever their data changes.
	//
	// Parameters:
	//   - slot: the element's slot, bucket.Offset() + indexInBucket
	//   - transform: 16 floats, column-major 4x4 transform
	//   - style: 16 floats of style data
	WriteInstanceData(slot int, transform, style []float32)

	// WriteClipPlanes writes an element's clip block into its slot and stages
	// the range for GPU upload.
	//
	// Parameters:
	//   - slot: the element's slot
	//   - planes: 16 floats of clip plane data
	WriteClipPlanes(slot int, planes []float32)

	// StagedWrites appends the group's pending coalesced buffer writes to dst
	// and clears the dirty range. The renderer flushes the returned writes
	// before drawing the frame.
	//
	// Parameters:
	//   - dst: the slice to append to (may be nil)
	//
	// Returns:
	//   - []bind_group_provider.BufferWrite: dst with any staged writes appended
	StagedWrites(dst []bind_group_provider.BufferWrite) []bind_group_provider.BufferWrite

	// Material returns the material shared by every panel in this group.
	//
	// Returns:
	//   - material.Material: the group material
	Material() material.Material

	// Provider returns the bind group provider holding the group's GPU
	// buffers.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the provider
	Provider() bind_group_provider.BindGroupProvider

	// InstanceCount returns the instanced draw count last pushed to the mesh.
	//
	// Returns:
	//   - int: the draw count
	InstanceCount() int

	// ElementCount returns the number of live elements, including ones still
	// awaiting placement.
	//
	// Returns:
	//   - int: the live element count
	ElementCount() int

	// Capacity returns the current instance capacity of the backing arrays.
	//
	// Returns:
	//   - int: the capacity in instances
	Capacity() int

	// Visible reports whether the group currently draws.
	//
	// Returns:
	//   - bool: true if the group's mesh is visible
	Visible() bool

	// UpdatePending reports whether a rearrangement is scheduled, either for
	// the next tick or behind the delete debounce.
	//
	// Returns:
	//   - bool: true if an update has been requested and not yet run
	UpdatePending() bool

	// RenderOrder returns the global render-order value last fanned out by
	// the registry.
	//
	// Returns:
	//   - float64: the render order
	RenderOrder() float64

	// SetRenderOrder records the global render-order value used to sort
	// groups during the draw pass.
	//
	// Parameters:
	//   - order: the render order
	SetRenderOrder(order float64)

	// SetDepthTest forwards the global depth-test setting to the group's
	// material.
	//
	// Parameters:
	//   - enabled: whether depth testing is enabled
	SetDepthTest(enabled bool)

	// ReceiveShadow reports the receive-shadow flag this group was keyed
	// under.
	//
	// Returns:
	//   - bool: the receive-shadow flag
	ReceiveShadow() bool

	// CastShadow reports the cast-shadow flag this group was keyed under.
	//
	// Returns:
	//   - bool: the cast-shadow flag
	CastShadow() bool

	// Release cancels pending work and frees the group's GPU resources.
	// Destruction is explicit; the group must not be used afterwards.
	Release()
}

var _ PanelGroup = &panelGroup{}

// NewPanelGroup creates a PanelGroup for the given material, backed by the
// given mesh. Both are required; NewPanelGroup panics if either is nil.
//
// Parameters:
//   - mat: the material shared by every panel in the group (must not be nil)
//   - mesh: the GPU-facing mesh abstraction (must not be nil)
//   - options: functional options to further configure the group
//
// Returns:
//   - PanelGroup: the newly created group
func NewPanelGroup(mat material.Material, mesh Mesh, options ...PanelGroupBuilderOption) PanelGroup {
	if mat == nil {
		panic("panel_group: NewPanelGroup requires a non-nil Material")
	}
	if mesh == nil {
		panic("panel_group: NewPanelGroup requires a non-nil Mesh")
	}

	g := &panelGroup{
		alloc:          instance_allocator.NewAllocator(0),
		mat:            mat,
		mesh:           mesh,
		growthFactor:   DefaultGrowthFactor,
		shrinkDivisor:  DefaultShrinkDivisor,
		deleteDebounce: DefaultDeleteDebounce,
		dirtyMin:       -1,
	}
	for _, opt := range options {
		opt(g)
	}
	if g.sched == nil {
		g.sched = scheduler.NewScheduler()
	}
	if g.provider == nil {
		g.provider = bind_group_provider.NewBindGroupProvider(fmt.Sprintf("panel_group_%s", mat.Class()))
	}
	return g
}

func (g *panelGroup) Insert(bucketIndex int, e instance_allocator.Element) {
	if g.alloc.Insert(bucketIndex, e) {
		// Inserts must become visible promptly: cancel any delayed
		// deletion compaction and update on the very next tick.
		g.scheduleImmediate()
		return
	}

	// Fast path: the element activated in place and has already written its
	// data through WriteInstanceData.
	g.instanceCount = g.alloc.Count()
	g.mesh.SetInstanceCount(g.instanceCount)
	g.setVisible(true)
	g.redraw()
}

func (g *panelGroup) Delete(bucketIndex, indexInBucket int, e instance_allocator.Element) {
	if g.alloc.Remove(bucketIndex, e, indexInBucket) {
		g.scheduleDebounced()
		return
	}

	// Fast path: the freed slot is the trailing one; clear it in place so no
	// stale geometry survives, and drop the draw count.
	n := g.alloc.Count()
	g.zeroSlot(n)
	g.instanceCount = n
	g.mesh.SetInstanceCount(n)
	if n == 0 {
		g.setVisible(false)
	}
	g.redraw()
}

func (g *panelGroup) OnFrame(now time.Time) {
	g.sched.Tick(now)
}

func (g *panelGroup) WriteInstanceData(slot int, transform, style []float32) {
	g.checkSlot(slot)
	if len(transform) < ItemSize || len(style) < ItemSize {
		panic("panel_group: WriteInstanceData requires 16 floats of transform and style data")
	}
	copy(g.transforms[slot*ItemSize:(slot+1)*ItemSize], transform[:ItemSize])
	copy(g.styles[slot*ItemSize:(slot+1)*ItemSize], style[:ItemSize])
	g.markDirty(slot, slot+1)
	if slot+1 > g.highWater {
		g.highWater = slot + 1
	}
	g.redraw()
}

func (g *panelGroup) WriteClipPlanes(slot int, planes []float32) {
	g.checkSlot(slot)
	if len(planes) < ItemSize {
		panic("panel_group: WriteClipPlanes requires 16 floats of clip data")
	}
	copy(g.clips[slot*ItemSize:(slot+1)*ItemSize], planes[:ItemSize])
	g.markDirty(slot, slot+1)
	if slot+1 > g.highWater {
		g.highWater = slot + 1
	}
	g.redraw()
}

func (g *panelGroup) StagedWrites(dst []bind_group_provider.BufferWrite) []bind_group_provider.BufferWrite {
	if g.dirtyMin < 0 {
		return dst
	}
	lo, hi := g.dirtyMin*ItemSize, g.dirtyMax*ItemSize
	byteOffset := uint64(lo) * 4
	for binding, arr := range [][]float32{g.transforms, g.styles, g.clips} {
		dst = append(dst, bind_group_provider.BufferWrite{
			Provider: g.provider,
			Binding:  binding,
			Offset:   byteOffset,
			Data:     common.SliceToBytes(arr[lo:hi]),
		})
	}
	g.dirtyMin, g.dirtyMax = -1, 0
	return dst
}

// update is the deferred rearrangement pass with resize hysteresis. The
// asymmetric ordering is required correctness, not an optimization: growing
// must resize before rearranging so placement has room for every element, and
// shrinking must rearrange before resizing so elements still living in the
// soon-to-be-truncated tail can be read during the compaction copy.
func (g *panelGroup) update() {
	n := g.alloc.Count()
	capacity := g.alloc.Capacity()

	if n == 0 {
		if g.alloc.NeedsRearrange() {
			g.alloc.Rearrange(g.copyRange)
		}
		g.clearTail(0)
		g.instanceCount = 0
		g.mesh.SetInstanceCount(0)
		g.setVisible(false)
		return
	}

	switch {
	case n > capacity:
		newCap := g.scaledCapacity(n)
		g.reallocate(capacity, newCap)
		g.alloc.Rearrange(g.copyRange)
		g.markDirty(0, n)
	case n <= capacity/g.shrinkDivisor:
		g.alloc.Rearrange(g.copyRange)
		g.clearTail(n)
		if newCap := g.scaledCapacity(n); newCap < capacity {
			g.reallocate(capacity, newCap)
			g.markDirty(0, n)
		}
	default:
		g.alloc.Rearrange(g.copyRange)
	}
	g.clearTail(n)

	g.instanceCount = n
	g.mesh.SetInstanceCount(n)
	g.setVisible(true)
}

// reallocate swaps the three backing arrays for newCap-sized ones, preserving
// existing contents in their old slot positions, and recreates the GPU
// buffers to match. Allocation failure is fatal: a renderer that cannot
// allocate its instance buffers has no degraded mode.
func (g *panelGroup) reallocate(oldCap, newCap int) {
	prefix := min(oldCap, newCap) * ItemSize

	transforms := make([]float32, newCap*ItemSize)
	styles := make([]float32, newCap*ItemSize)
	clips := make([]float32, newCap*ItemSize)
	copy(transforms, g.transforms[:prefix])
	copy(styles, g.styles[:prefix])
	copy(clips, g.clips[:prefix])
	g.transforms, g.styles, g.clips = transforms, styles, clips

	g.alloc.Resize(oldCap, newCap)
	if err := g.mesh.EnsureCapacity(newCap); err != nil {
		panic(fmt.Sprintf("panel_group: failed to allocate instance buffers for capacity %d: %v", newCap, err))
	}

	if g.highWater > newCap {
		g.highWater = newCap
	}
	if g.dirtyMin >= 0 && g.dirtyMax > newCap {
		g.dirtyMax = newCap
		if g.dirtyMin >= g.dirtyMax {
			g.dirtyMin = -1
		}
	}
}

// copyRange is the allocator's bulk copier over the three backing arrays.
// Go's copy has memmove semantics, so overlapping ranges are safe.
func (g *panelGroup) copyRange(src, dst, count int) {
	lo, hi := src*ItemSize, (src+count)*ItemSize
	to := dst * ItemSize
	copy(g.transforms[to:], g.transforms[lo:hi])
	copy(g.styles[to:], g.styles[lo:hi])
	copy(g.clips[to:], g.clips[lo:hi])
	g.markDirty(dst, dst+count)
	if dst+count > g.highWater {
		g.highWater = dst + count
	}
}

// clearTail zeroes slots [n, highWater) left stale by compaction, restoring
// the zeroed-tail invariant.
func (g *panelGroup) clearTail(n int) {
	if g.highWater <= n {
		return
	}
	lo, hi := n*ItemSize, g.highWater*ItemSize
	for _, arr := range [][]float32{g.transforms, g.styles, g.clips} {
		for i := lo; i < hi; i++ {
			arr[i] = 0
		}
	}
	g.markDirty(n, g.highWater)
	g.highWater = n
}

func (g *panelGroup) zeroSlot(slot int) {
	if slot >= g.alloc.Capacity() {
		return
	}
	lo, hi := slot*ItemSize, (slot+1)*ItemSize
	for _, arr := range [][]float32{g.transforms, g.styles, g.clips} {
		for i := lo; i < hi; i++ {
			arr[i] = 0
		}
	}
	g.markDirty(slot, slot+1)
	if g.highWater == slot+1 {
		g.highWater = slot
	}
}

func (g *panelGroup) markDirty(lo, hi int) {
	if capacity := g.alloc.Capacity(); hi > capacity {
		hi = capacity
	}
	if lo >= hi {
		return
	}
	if g.dirtyMin < 0 || lo < g.dirtyMin {
		g.dirtyMin = lo
	}
	if hi > g.dirtyMax {
		g.dirtyMax = hi
	}
}

func (g *panelGroup) scheduleImmediate() {
	if g.cancelDelayed != nil {
		g.cancelDelayed()
		g.cancelDelayed = nil
	}
	if g.cancelNextTick != nil {
		return
	}
	g.cancelNextTick = g.sched.NextTick(g.runUpdate)
}

func (g *panelGroup) scheduleDebounced() {
	if g.cancelNextTick != nil {
		return
	}
	if g.cancelDelayed != nil {
		g.cancelDelayed()
	}
	g.cancelDelayed = g.sched.After(g.deleteDebounce, g.runUpdate)
}

func (g *panelGroup) runUpdate() {
	g.cancelNextTick = nil
	g.cancelDelayed = nil
	g.update()
	g.redraw()
}

func (g *panelGroup) setVisible(visible bool) {
	g.visible = visible
	g.mesh.SetVisible(visible)
}

func (g *panelGroup) redraw() {
	if g.requestRedraw != nil {
		g.requestRedraw()
	}
}

func (g *panelGroup) checkSlot(slot int) {
	if slot < 0 || slot >= g.alloc.Capacity() {
		panic(fmt.Sprintf("panel_group: slot %d out of range for capacity %d", slot, g.alloc.Capacity()))
	}
}

func (g *panelGroup) scaledCapacity(n int) int {
	return int(math.Ceil(float64(n) * g.growthFactor))
}

func (g *panelGroup) Material() material.Material {
	return g.mat
}

func (g *panelGroup) Provider() bind_group_provider.BindGroupProvider {
	return g.provider
}

func (g *panelGroup) InstanceCount() int {
	return g.instanceCount
}

func (g *panelGroup) ElementCount() int {
	return g.alloc.Count()
}

func (g *panelGroup) Capacity() int {
	return g.alloc.Capacity()
}

func (g *panelGroup) Visible() bool {
	return g.visible
}

func (g *panelGroup) UpdatePending() bool {
	return g.cancelNextTick != nil || g.cancelDelayed != nil
}

func (g *panelGroup) RenderOrder() float64 {
	return g.renderOrder
}

func (g *panelGroup) SetRenderOrder(order float64) {
	g.renderOrder = order
}

func (g *panelGroup) SetDepthTest(enabled bool) {
	g.mat.SetDepthTest(enabled)
}

func (g *panelGroup) ReceiveShadow() bool {
	return g.receiveShadow
}

func (g *panelGroup) CastShadow() bool {
	return g.castShadow
}

func (g *panelGroup) Release() {
	if g.cancelNextTick != nil {
		g.cancelNextTick()
		g.cancelNextTick = nil
	}
	if g.cancelDelayed != nil {
		g.cancelDelayed()
		g.cancelDelayed = nil
	}
	g.mesh.Release()
	g.provider.Release()
}
