package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/panel_group"
)

// panelMesh is the WebGPU-backed implementation of panel_group.Mesh. It owns
// the bind group provider holding the group's per-instance storage buffers and
// the shared quad geometry, and forwards capacity changes to the renderer.
type panelMesh struct {
	renderer Renderer
	mat      material.Material
	provider bind_group_provider.BindGroupProvider

	capacity      int
	instanceCount int
	visible       bool
	released      bool
}

var _ panel_group.Mesh = &panelMesh{}

// NewPanelMesh creates the GPU-facing mesh for one panel group: a bind group
// provider carrying the shared unit quad plus the material parameter uniform.
// The provider is stored on the material so the owning group stages its
// instance-data writes against the same buffers this mesh allocates.
//
// The per-instance storage buffers are not created here; the first
// EnsureCapacity call sizes and binds them.
//
// Parameters:
//   - r: the renderer that owns GPU resource creation (must not be nil)
//   - mat: the material shared by every panel in the group (must not be nil)
//
// Returns:
//   - panel_group.Mesh: the newly created mesh
func NewPanelMesh(r Renderer, mat material.Material) panel_group.Mesh {
	if r == nil {
		panic("renderer: NewPanelMesh requires a non-nil Renderer")
	}
	if mat == nil {
		panic("renderer: NewPanelMesh requires a non-nil Material")
	}

	provider := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("panel_mesh_%s", mat.Name()))
	mat.SetBindGroupProvider(provider)

	m := &panelMesh{
		renderer: r,
		mat:      mat,
		provider: provider,
	}

	vertexData := PanelQuadVertexData()
	indexData, indexCount := PanelQuadIndexData()
	if err := r.InitMeshBuffers(provider, vertexData, indexData, indexCount); err != nil {
		panic(fmt.Sprintf("renderer: failed to create panel quad buffers: %v", err))
	}

	return m
}

func (m *panelMesh) EnsureCapacity(capacity int) error {
	if m.released {
		return fmt.Errorf("panel mesh %q used after release", m.provider.Label())
	}

	params := material.GPUMaterialParams{BaseColor: m.mat.BaseColor()}
	if err := m.renderer.InitPanelBindGroup(m.provider, capacity, params.Marshal()); err != nil {
		return err
	}
	m.capacity = capacity
	return nil
}

func (m *panelMesh) SetInstanceCount(count int) {
	m.instanceCount = count
}

func (m *panelMesh) SetVisible(visible bool) {
	m.visible = visible
}

func (m *panelMesh) Release() {
	if m.released {
		return
	}
	m.released = true
	m.provider.Release()
}
