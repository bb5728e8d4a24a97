package material

import (
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/bind_group_provider"
)

// Class identifies a panel material implementation. Panel groups are
// partitioned by class: every panel sharing a class (and group key) is drawn
// by the same instanced pipeline in one draw call.
type Class string

const (
	// ClassDefault is the standard opaque panel material.
	ClassDefault Class = "panel_default"
	// ClassTransparent is the alpha-blended panel material, drawn after
	// opaque panels with depth writes disabled.
	ClassTransparent Class = "panel_transparent"
)

// material is the implementation of the Material interface.
type material struct {
	name        string
	class       Class
	baseColor   [4]float32
	depthTest   bool
	pipelineKey string

	bindGroupProvider bind_group_provider.BindGroupProvider
}

// Material defines the interface for a panel render material, encapsulating
// the material class that selects the instanced pipeline, default surface
// properties, and GPU resource bindings needed for draw calls.
//
// The class and base color are set at construction and are read-only through
// this interface. GPU resource references (pipeline key, bind group provider)
// and depth-test state are mutable so they can be configured after
// construction during renderer initialization.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// Class retrieves the material class used to partition panel groups.
	//
	// Returns:
	//   - Class: the material class
	Class() Class

	// BaseColor retrieves the default RGBA color applied to panels that do
	// not override it in their per-instance style data.
	//
	// Returns:
	//   - [4]float32: the base color as RGBA values
	BaseColor() [4]float32

	// DepthTest reports whether panels drawn with this material test against
	// the depth buffer.
	//
	// Returns:
	//   - bool: true if depth testing is enabled
	DepthTest() bool

	// SetDepthTest enables or disables depth testing for this material.
	// Takes effect the next time the renderer (re)builds the material's
	// pipeline.
	//
	// Parameters:
	//   - enabled: whether depth testing should be enabled
	SetDepthTest(enabled bool)

	// PipelineKey retrieves the key identifying the render pipeline this material uses.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// SetPipelineKey sets the render pipeline key for this material.
	//
	// Parameters:
	//   - key: the pipeline key to associate with this material
	SetPipelineKey(key string)

	// BindGroupProvider retrieves the bind group provider holding GPU-side resources for this material.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the bind group provider, or nil if not yet initialized
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// SetBindGroupProvider sets the bind group provider for this material.
	//
	// Parameters:
	//   - provider: the bind group provider containing GPU resources for this material
	SetBindGroupProvider(provider bind_group_provider.BindGroupProvider)
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		class:     ClassDefault,
		baseColor: [4]float32{1, 1, 1, 1},
		depthTest: true,
	}
	for _, opt := range options {
		opt(m)
	}
	if m.pipelineKey == "" {
		m.pipelineKey = string(m.class)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) Class() Class {
	return m.class
}

func (m *material) BaseColor() [4]float32 {
	return m.baseColor
}

func (m *material) DepthTest() bool {
	return m.depthTest
}

func (m *material) SetDepthTest(enabled bool) {
	m.depthTest = enabled
}

func (m *material) PipelineKey() string {
	return m.pipelineKey
}

func (m *material) SetPipelineKey(key string) {
	m.pipelineKey = key
}

func (m *material) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return m.bindGroupProvider
}

func (m *material) SetBindGroupProvider(provider bind_group_provider.BindGroupProvider) {
	m.bindGroupProvider = provider
}
