// Package canvas ties one window surface's UI together: a camera, a renderer,
// and the registry of instanced panel groups drawn onto it. The canvas drives
// the per-frame sequence — advance group schedulers, flush staged buffer
// writes, then issue one draw call per visible group in render order.
package canvas

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-ui/engine/camera"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/group_registry"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/panel_group"
)

// Canvas manages the panel groups rendered onto one surface, with a Camera
// and Renderer for drawing. Canvases can be hot-swapped via the Active flag
// to switch between different views. Thread-safe for concurrent access.
type Canvas interface {
	// Name returns the canvas's identifier.
	Name() string

	// SetName sets the canvas's identifier.
	SetName(name string)

	// Active returns whether this canvas is currently active for rendering.
	Active() bool

	// SetActive sets whether this canvas is active for rendering.
	SetActive(active bool)

	// Camera returns the canvas's camera.
	Camera() camera.Camera

	// SetCamera replaces the canvas's camera.
	//
	// Parameters:
	//   - cam: the new camera
	SetCamera(cam camera.Camera)

	// Renderer returns the canvas's renderer.
	Renderer() renderer.Renderer

	// Registry returns the canvas's panel group registry. Panel components
	// use it to resolve the group matching their material and render-order
	// configuration.
	//
	// Returns:
	//   - group_registry.GroupRegistry: the group registry
	Registry() group_registry.GroupRegistry

	// Group is a convenience passthrough to the registry.
	//
	// Parameters:
	//   - majorIndex: the major render-order bucket (must be >= 0)
	//   - props: the material class and shadow flags keying the group
	//
	// Returns:
	//   - panel_group.PanelGroup: the cached or newly created group
	Group(majorIndex int, props group_registry.GroupProperties) panel_group.PanelGroup

	// PanelCount returns the number of live panels across all groups,
	// including ones still awaiting placement.
	//
	// Returns:
	//   - int: the live panel count
	PanelCount() int

	// Advance runs the per-frame CPU phase: updates camera matrices, writes
	// the camera uniform, ticks every group's scheduler (running pending
	// rearrangements), and flushes all staged instance-data writes to the
	// GPU queue. Must be called once per frame before DrawCalls.
	//
	// Parameters:
	//   - now: the current frame time
	Advance(now time.Time)

	// DrawCalls issues one instanced draw call per visible panel group,
	// ordered by render order with opaque groups ahead of transparent ones
	// at equal order. Must be called within a BeginFrame/EndFrame block on
	// the renderer.
	//
	// Returns:
	//   - error: error if a draw call fails
	DrawCalls() error

	// Resize propagates a new surface size to the renderer and camera.
	//
	// Parameters:
	//   - width, height: the new surface size in pixels
	Resize(width, height int)

	// RequestRedraw flags the canvas as needing a redraw. Groups call this
	// through the registry whenever instance data changes; it is safe for
	// concurrent use.
	RequestRedraw()

	// TakeRedraw consumes the redraw flag, returning whether a redraw was
	// requested since the last call.
	//
	// Returns:
	//   - bool: true if a redraw was pending
	TakeRedraw() bool

	// Release tears down every panel group and frees their GPU resources.
	// The canvas must not be used for rendering afterwards.
	Release()
}

type canvas struct {
	mu *sync.RWMutex

	name   string
	active bool

	cam      camera.Camera
	r        renderer.Renderer
	registry group_registry.GroupRegistry

	redrawRequested atomic.Bool

	// registryOptions collected from builder options, applied when the
	// registry is constructed at the end of NewCanvas.
	registryOptions []group_registry.GroupRegistryBuilderOption

	// Pre-allocated slices reused each frame to avoid per-frame allocations.
	writePool      []bind_group_provider.BufferWrite
	drawGroupsPool []panel_group.PanelGroup
}

// Ensure canvas implements Canvas interface.
var _ Canvas = &canvas{}

// NewCanvas creates a new Canvas with the given camera and renderer. Both are
// required and NewCanvas panics if either is nil. The panel render pipelines
// are registered on the renderer, the camera's uniform bind group is
// initialized on the GPU, and a group registry is created whose meshes are
// backed by the renderer.
//
// Parameters:
//   - name: the name of the canvas
//   - cam: the camera to attach (must not be nil)
//   - r: the renderer to attach (must not be nil)
//   - options: functional options to further configure the canvas
//
// Returns:
//   - Canvas: the newly created canvas
func NewCanvas(name string, cam camera.Camera, r renderer.Renderer, options ...CanvasBuilderOption) Canvas {
	if cam == nil {
		panic("canvas: NewCanvas requires a non-nil Camera")
	}
	if r == nil {
		panic("canvas: NewCanvas requires a non-nil Renderer")
	}

	c := &canvas{
		mu:     &sync.RWMutex{},
		name:   name,
		active: false,
		cam:    cam,
		r:      r,
	}

	for _, option := range options {
		option(c)
	}

	if err := r.RegisterPipelines(renderer.NewPanelPipelines()...); err != nil {
		panic(fmt.Sprintf("canvas: failed to register panel pipelines: %v", err))
	}

	// Initialize the camera's uniform bind group on the GPU.
	if bgp := cam.BindGroupProvider(); bgp != nil {
		var uniform camera.GPUCameraUniform
		if err := r.InitUniformBindGroup(bgp, uint64(uniform.Size())); err != nil {
			panic(fmt.Sprintf("canvas: failed to init camera bind group: %v", err))
		}
	}

	registryOptions := append(c.registryOptions,
		group_registry.WithRedrawRequest(c.RequestRedraw),
	)
	c.registry = group_registry.NewGroupRegistry(func(mat material.Material) panel_group.Mesh {
		return renderer.NewPanelMesh(r, mat)
	}, registryOptions...)

	// First frame always draws.
	c.redrawRequested.Store(true)

	return c
}

func (c *canvas) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

func (c *canvas) SetName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
}

func (c *canvas) Active() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

func (c *canvas) SetActive(active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = active
}

func (c *canvas) Camera() camera.Camera {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cam
}

func (c *canvas) SetCamera(cam camera.Camera) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cam = cam
}

func (c *canvas) Renderer() renderer.Renderer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.r
}

func (c *canvas) Registry() group_registry.GroupRegistry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.registry
}

func (c *canvas) Group(majorIndex int, props group_registry.GroupProperties) panel_group.PanelGroup {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.Group(majorIndex, props)
}

func (c *canvas) PanelCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	c.registry.Traverse(func(g panel_group.PanelGroup) bool {
		n += g.ElementCount()
		return true
	})
	return n
}

func (c *canvas) Advance(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Update camera matrices and write the view-projection uniform once per
	// frame.
	if c.cam != nil {
		c.cam.Update()
		if camBGP := c.cam.BindGroupProvider(); camBGP != nil {
			camUniform := camera.GPUCameraUniform{ViewProj: c.cam.ViewProjectionMatrix()}
			c.r.WriteBuffers([]bind_group_provider.BufferWrite{
				{
					Provider: camBGP,
					Binding:  0,
					Offset:   0,
					Data:     camUniform.Marshal(),
				},
			})
		}
	}

	// Tick every group's scheduler; pending rearrangements (next-tick inserts,
	// debounced deletion compactions) run here.
	c.registry.OnFrame(now)

	// Coalesced GPU submission: collect every group's staged writes into a
	// single slice, then submit once to the renderer.
	allWrites := c.registry.StagedWrites(c.writePool[:0])
	c.writePool = allWrites

	if len(allWrites) > 0 {
		c.r.WriteBuffers(allWrites)
	}
}

func (c *canvas) DrawCalls() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	groups := c.drawGroupsPool[:0]
	c.registry.Traverse(func(g panel_group.PanelGroup) bool {
		if g.Visible() && g.InstanceCount() > 0 {
			groups = append(groups, g)
		}
		return true
	})

	// Render order ascending; at equal order opaque classes draw before
	// transparent so blending sees a settled depth buffer.
	sort.SliceStable(groups, func(i, j int) bool {
		gi, gj := groups[i], groups[j]
		if gi.RenderOrder() != gj.RenderOrder() {
			return gi.RenderOrder() < gj.RenderOrder()
		}
		return classRank(gi.Material().Class()) < classRank(gj.Material().Class())
	})
	c.drawGroupsPool = groups

	camBGP := c.cam.BindGroupProvider()
	for _, g := range groups {
		mat := g.Material()
		pipelineKey := renderer.PanelPipelineKey(mat.Class(), mat.DepthTest())
		provider := g.Provider()

		err := c.r.DrawCall(pipelineKey, provider, uint32(g.InstanceCount()), []bind_group_provider.BindGroupProvider{
			camBGP,
			provider,
		})
		if err != nil {
			return fmt.Errorf("draw call failed for group %q in canvas %q: %w", mat.Name(), c.name, err)
		}
	}

	return nil
}

// classRank orders material classes within equal render order.
func classRank(class material.Class) int {
	if class == material.ClassTransparent {
		return 1
	}
	return 0
}

func (c *canvas) Resize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.r.Resize(width, height)
	if c.cam != nil {
		c.cam.SetViewport(float32(width), float32(height))
	}
	c.redrawRequested.Store(true)
}

func (c *canvas) RequestRedraw() {
	c.redrawRequested.Store(true)
}

func (c *canvas) TakeRedraw() bool {
	return c.redrawRequested.Swap(false)
}

func (c *canvas) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registry.Release()
}
