package renderer

import (
	_ "embed"

	"github.com/Carmen-Shannon/oxy-ui/common"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/panel_group"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

//go:embed assets/panel.wgsl
var panelShaderSource string

// panelBindingMaterial is the bind group 1 binding index of the material
// parameter uniform, following the three per-instance storage buffers.
const panelBindingMaterial = 3

// noDepthSuffix is appended to a material's class to form the pipeline key
// used when the material has depth testing disabled.
const noDepthSuffix = "_nodepth"

// PanelPipelineKey returns the render pipeline key for a material class and
// depth-test state. One pipeline variant exists per combination, registered
// up front by NewPanelPipelines.
//
// Parameters:
//   - class: the material class selecting fill/blend behavior
//   - depthTest: whether panels test against the depth buffer
//
// Returns:
//   - string: the pipeline cache key
func PanelPipelineKey(class material.Class, depthTest bool) string {
	if depthTest {
		return string(class)
	}
	return string(class) + noDepthSuffix
}

// NewPanelPipelines builds the full set of panel render pipelines: one per
// material class, each with a depth-tested and a depth-ignoring variant.
// Transparent variants enable alpha blending and disable depth writes so
// panels behind them still resolve.
//
// Returns:
//   - []pipeline.Pipeline: the pipelines ready for Renderer.RegisterPipelines
func NewPanelPipelines() []pipeline.Pipeline {
	vs, fs := newPanelShaders()

	return []pipeline.Pipeline{
		pipeline.NewPipeline(PanelPipelineKey(material.ClassDefault, true),
			pipeline.WithVertexShader(vs),
			pipeline.WithFragmentShader(fs),
		),
		pipeline.NewPipeline(PanelPipelineKey(material.ClassDefault, false),
			pipeline.WithVertexShader(vs),
			pipeline.WithFragmentShader(fs),
			pipeline.WithDepthTestEnabled(false),
			pipeline.WithDepthWriteEnabled(false),
		),
		pipeline.NewPipeline(PanelPipelineKey(material.ClassTransparent, true),
			pipeline.WithVertexShader(vs),
			pipeline.WithFragmentShader(fs),
			pipeline.WithBlendEnabled(true),
			pipeline.WithDepthWriteEnabled(false),
		),
		pipeline.NewPipeline(PanelPipelineKey(material.ClassTransparent, false),
			pipeline.WithVertexShader(vs),
			pipeline.WithFragmentShader(fs),
			pipeline.WithBlendEnabled(true),
			pipeline.WithDepthTestEnabled(false),
			pipeline.WithDepthWriteEnabled(false),
		),
	}
}

// newPanelShaders builds the vertex and fragment shaders for instanced panel
// rendering with their bind group layouts declared explicitly: group 0 is the
// camera uniform, group 1 holds the per-instance storage buffers plus the
// material uniform.
func newPanelShaders() (shader.Shader, shader.Shader) {
	vs := shader.NewShader("panel_vs", shader.ShaderTypeVertex, panelShaderSource,
		shader.WithBindGroupLayoutDescriptor(0, wgpu.BindGroupLayoutDescriptor{
			Label: "Camera Layout",
			Entries: []wgpu.BindGroupLayoutEntry{
				{
					Binding:    0,
					Visibility: wgpu.ShaderStageVertex,
					Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform},
				},
			},
		}),
		shader.WithBindGroupLayoutDescriptor(1, wgpu.BindGroupLayoutDescriptor{
			Label: "Panel Group Layout",
			Entries: []wgpu.BindGroupLayoutEntry{
				{
					Binding:    panel_group.BindingTransforms,
					Visibility: wgpu.ShaderStageVertex,
					Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage},
				},
				{
					Binding:    panel_group.BindingStyles,
					Visibility: wgpu.ShaderStageVertex,
					Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage},
				},
				{
					Binding:    panel_group.BindingClipPlanes,
					Visibility: wgpu.ShaderStageVertex,
					Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage},
				},
			},
		}),
		shader.WithVertexLayout(0, []wgpu.VertexBufferLayout{
			{
				ArrayStride: 4 * 4, // vec2 position + vec2 uv
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
					{Format: wgpu.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
				},
			},
		}),
	)

	fs := shader.NewShader("panel_fs", shader.ShaderTypeFragment, panelShaderSource,
		shader.WithBindGroupLayoutDescriptor(1, wgpu.BindGroupLayoutDescriptor{
			Label: "Panel Group Layout",
			Entries: []wgpu.BindGroupLayoutEntry{
				{
					Binding:    panelBindingMaterial,
					Visibility: wgpu.ShaderStageFragment,
					Buffer: wgpu.BufferBindingLayout{
						Type:           wgpu.BufferBindingTypeUniform,
						MinBindingSize: 16,
					},
				},
			},
		}),
	)

	return vs, fs
}

// PanelQuadVertexData returns the shared unit quad vertex data for instanced
// panel draws: four vertices of interleaved position and UV, both spanning
// [0,1]. Per-instance transforms stretch this quad into panel rects.
//
// Returns:
//   - []byte: the vertex buffer contents
func PanelQuadVertexData() []byte {
	return common.SliceToBytes([]float32{
		// x, y, u, v
		0, 0, 0, 0,
		1, 0, 1, 0,
		1, 1, 1, 1,
		0, 1, 0, 1,
	})
}

// PanelQuadIndexData returns the index data for the shared unit quad.
//
// Returns:
//   - []byte: the index buffer contents
//   - int: the index count for draw calls
func PanelQuadIndexData() ([]byte, int) {
	indices := []uint32{0, 1, 2, 0, 2, 3}
	return common.SliceToBytes(indices), len(indices)
}
