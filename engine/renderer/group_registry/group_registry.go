// Package group_registry caches panel groups under a two-level key: the
// material class, then a small integer packed from the major render-order
// bucket and the group's shadow flags. Panel components ask the registry for
// the group matching their configuration; the registry constructs groups
// lazily and fans frame ticks and global render settings out to every live
// group.
package group_registry

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/panel_group"
	"github.com/Carmen-Shannon/oxy-ui/engine/scheduler"
)

// GroupProperties selects which panel group a component belongs to, together
// with the major render-order index passed to Group.
type GroupProperties struct {
	// MaterialClass is the material implementation the group draws with.
	MaterialClass material.Class
	// ReceiveShadow keys groups apart so shadow-receiving panels can bind a
	// different pipeline variant.
	ReceiveShadow bool
	// CastShadow keys groups apart so shadow-casting panels draw into the
	// shadow pass.
	CastShadow bool
}

// groupKey packs the major render-order index and the two shadow flags into
// one integer so the inner cache level is a flat map lookup.
type groupKey int

func packKey(majorIndex int, receiveShadow, castShadow bool) groupKey {
	if majorIndex < 0 {
		panic(fmt.Sprintf("group_registry: negative major render index %d", majorIndex))
	}
	key := groupKey(majorIndex) << 2
	if receiveShadow {
		key |= 2
	}
	if castShadow {
		key |= 1
	}
	return key
}

// MeshFactory constructs the GPU-facing mesh for a newly created group. The
// renderer supplies the WebGPU-backed implementation; tests substitute an
// in-memory one.
type MeshFactory func(mat material.Material) panel_group.Mesh

// groupRegistry is the implementation of the GroupRegistry interface.
type groupRegistry struct {
	groups map[material.Class]map[groupKey]panel_group.PanelGroup

	meshFactory      MeshFactory
	schedulerFactory func() scheduler.Scheduler
	requestRedraw    func()
	groupOptions     []panel_group.PanelGroupBuilderOption

	// tickPool manages a bounded set of reusable goroutines for the parallel
	// per-frame fan-out. Groups share no state with each other, so their
	// scheduler ticks are safe to run concurrently.
	tickPool    worker.DynamicWorkerPool
	tickWorkers int

	// Current global render settings, applied to new groups at construction
	// so late-created groups match the ones that saw the original change.
	renderOrder float64
	depthTest   bool
}

// GroupRegistry hands out the panel group matching a material and shadow
// configuration, creating groups lazily, and broadcasts frame ticks and
// global render settings to every group it owns.
type GroupRegistry interface {
	// Group returns the existing group for the composite key or lazily
	// constructs one. New groups inherit the currently active render order
	// and depth-test setting.
	//
	// Parameters:
	//   - majorIndex: the major render-order bucket (must be >= 0)
	//   - props: the material class and shadow flags keying the group
	//
	// Returns:
	//   - panel_group.PanelGroup: the cached or newly created group
	Group(majorIndex int, props GroupProperties) panel_group.PanelGroup

	// OnFrame ticks every live group once, running any rearrangement work
	// they have scheduled. Groups tick in parallel on the registry's worker
	// pool; OnFrame returns only after every group has finished.
	//
	// Parameters:
	//   - now: the current frame time
	OnFrame(now time.Time)

	// StagedWrites appends every group's pending coalesced buffer writes to
	// dst. The renderer flushes the returned writes before drawing.
	//
	// Parameters:
	//   - dst: the slice to append to (may be nil)
	//
	// Returns:
	//   - []bind_group_provider.BufferWrite: dst with all staged writes appended
	StagedWrites(dst []bind_group_provider.BufferWrite) []bind_group_provider.BufferWrite

	// SetRenderOrder broadcasts a new global render order to every live
	// group and records it for groups created later.
	//
	// Parameters:
	//   - order: the render order
	SetRenderOrder(order float64)

	// SetDepthTest broadcasts the global depth-test setting to every live
	// group and records it for groups created later.
	//
	// Parameters:
	//   - enabled: whether depth testing is enabled
	SetDepthTest(enabled bool)

	// Traverse visits every live group until fn returns false.
	//
	// Parameters:
	//   - fn: the visitor; return false to stop early
	Traverse(fn func(group panel_group.PanelGroup) bool)

	// GroupCount returns the number of live groups across all material
	// classes.
	//
	// Returns:
	//   - int: the live group count
	GroupCount() int

	// Release tears down every owned group, freeing their GPU resources, and
	// empties the cache. The registry may be reused afterwards.
	Release()
}

var _ GroupRegistry = &groupRegistry{}

// NewGroupRegistry creates a GroupRegistry. A mesh factory is required so the
// registry can construct groups on demand; NewGroupRegistry panics without
// one.
//
// Parameters:
//   - meshFactory: constructs the GPU-facing mesh for each new group (must not be nil)
//   - options: functional options to further configure the registry
//
// Returns:
//   - GroupRegistry: the newly created registry
func NewGroupRegistry(meshFactory MeshFactory, options ...GroupRegistryBuilderOption) GroupRegistry {
	if meshFactory == nil {
		panic("group_registry: NewGroupRegistry requires a non-nil MeshFactory")
	}

	r := &groupRegistry{
		groups:      make(map[material.Class]map[groupKey]panel_group.PanelGroup),
		meshFactory: meshFactory,
		tickWorkers: max(runtime.NumCPU()-1, 1),
		depthTest:   true,
	}
	for _, opt := range options {
		opt(r)
	}
	if r.schedulerFactory == nil {
		r.schedulerFactory = func() scheduler.Scheduler { return scheduler.NewScheduler() }
	}

	// Initialize the tick pool after options so WithTickWorkers can override
	// the default. Queue size of 256 accommodates typical group counts with
	// headroom.
	r.tickPool = worker.NewDynamicWorkerPool(r.tickWorkers, 256, 1*time.Second)
	return r
}

func (r *groupRegistry) Group(majorIndex int, props GroupProperties) panel_group.PanelGroup {
	key := packKey(majorIndex, props.ReceiveShadow, props.CastShadow)

	inner, ok := r.groups[props.MaterialClass]
	if !ok {
		inner = make(map[groupKey]panel_group.PanelGroup)
		r.groups[props.MaterialClass] = inner
	}
	if g, ok := inner[key]; ok {
		return g
	}

	mat := material.NewMaterial(
		material.WithName(fmt.Sprintf("%s_%d", props.MaterialClass, majorIndex)),
		material.WithClass(props.MaterialClass),
		material.WithDepthTest(r.depthTest),
	)
	mesh := r.meshFactory(mat)
	opts := append([]panel_group.PanelGroupBuilderOption{
		panel_group.WithScheduler(r.schedulerFactory()),
		panel_group.WithRedrawRequest(r.requestRedraw),
		panel_group.WithShadowFlags(props.ReceiveShadow, props.CastShadow),
	}, r.groupOptions...)
	// The mesh factory may bind GPU resources to the material's provider; the
	// group must stage its buffer writes against that same provider.
	if provider := mat.BindGroupProvider(); provider != nil {
		opts = append(opts, panel_group.WithProvider(provider))
	}
	g := panel_group.NewPanelGroup(mat, mesh, opts...)
	g.SetRenderOrder(r.renderOrder)

	inner[key] = g
	return g
}

func (r *groupRegistry) OnFrame(now time.Time) {
	// A WaitGroup provides per-frame barrier sync since pool.Wait() blocks
	// until workers idle-exit, which is unsuitable for frame-rate workloads.
	var wg sync.WaitGroup
	taskID := 0
	for _, inner := range r.groups {
		for _, g := range inner {
			if !g.UpdatePending() {
				continue
			}

			wg.Add(1)
			gCap := g // capture for closure
			id := taskID
			taskID++
			r.tickPool.SubmitTask(worker.Task{
				ID: id,
				Do: func() (any, error) {
					defer wg.Done()
					gCap.OnFrame(now)
					return nil, nil
				},
			})
		}
	}
	wg.Wait()
}

func (r *groupRegistry) StagedWrites(dst []bind_group_provider.BufferWrite) []bind_group_provider.BufferWrite {
	for _, inner := range r.groups {
		for _, g := range inner {
			dst = g.StagedWrites(dst)
		}
	}
	return dst
}

func (r *groupRegistry) SetRenderOrder(order float64) {
	r.renderOrder = order
	r.Traverse(func(g panel_group.PanelGroup) bool {
		g.SetRenderOrder(order)
		return true
	})
}

func (r *groupRegistry) SetDepthTest(enabled bool) {
	r.depthTest = enabled
	r.Traverse(func(g panel_group.PanelGroup) bool {
		g.SetDepthTest(enabled)
		return true
	})
}

func (r *groupRegistry) Traverse(fn func(group panel_group.PanelGroup) bool) {
	for _, inner := range r.groups {
		for _, g := range inner {
			if !fn(g) {
				return
			}
		}
	}
}

func (r *groupRegistry) GroupCount() int {
	n := 0
	for _, inner := range r.groups {
		n += len(inner)
	}
	return n
}

func (r *groupRegistry) Release() {
	for class, inner := range r.groups {
		for key, g := range inner {
			g.Release()
			delete(inner, key)
		}
		delete(r.groups, class)
	}
}
