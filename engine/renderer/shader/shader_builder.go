package shader

import "github.com/cogentcore/webgpu/wgpu"

// ShaderBuilderOption is a functional option for configuring a Shader during construction.
type ShaderBuilderOption func(*shader)

// WithBindGroupLayoutDescriptor sets the bind group layout descriptor for a
// group index. The renderer uses these descriptors to create the GPU layout
// objects when registering a pipeline built from this shader.
//
// Parameters:
//   - group: the bind group index
//   - descriptor: the layout descriptor for that group
//
// Returns:
//   - ShaderBuilderOption: the configured option
func WithBindGroupLayoutDescriptor(group int, descriptor wgpu.BindGroupLayoutDescriptor) ShaderBuilderOption {
	return func(s *shader) {
		s.bindGroupLayoutDescriptors[group] = descriptor
	}
}

// WithVertexLayout sets the vertex buffer layout for a layout slot. Only
// meaningful on vertex shaders.
//
// Parameters:
//   - key: the vertex buffer slot
//   - layout: the vertex buffer layouts for that slot
//
// Returns:
//   - ShaderBuilderOption: the configured option
func WithVertexLayout(key int, layout []wgpu.VertexBufferLayout) ShaderBuilderOption {
	return func(s *shader) {
		s.vertexLayouts[key] = layout
	}
}

// WithEntryPoint overrides the entry point parsed from the source. Needed only
// when a source file contains more than one entry point of the same stage.
//
// Parameters:
//   - entryPoint: the entry point function name
//
// Returns:
//   - ShaderBuilderOption: the configured option
func WithEntryPoint(entryPoint string) ShaderBuilderOption {
	return func(s *shader) {
		if entryPoint != "" {
			s.entryPoint = entryPoint
		}
	}
}
