package canvas

import (
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/group_registry"
)

// CanvasBuilderOption is a functional option for configuring a Canvas.
// Use the With* functions to create options.
type CanvasBuilderOption func(c *canvas)

// WithActive sets whether the canvas is active for rendering.
//
// Parameters:
//   - active: whether the canvas is active
//
// Returns:
//   - CanvasBuilderOption: option function to apply
func WithActive(active bool) CanvasBuilderOption {
	return func(c *canvas) {
		c.active = active
	}
}

// WithRegistryOptions forwards options to the canvas's group registry, e.g.
// group_registry.WithTickWorkers to bound the parallel frame-tick fan-out or
// group_registry.WithGroupOptions to tune group hysteresis and debounce.
//
// Parameters:
//   - options: the registry options to forward
//
// Returns:
//   - CanvasBuilderOption: option function to apply
func WithRegistryOptions(options ...group_registry.GroupRegistryBuilderOption) CanvasBuilderOption {
	return func(c *canvas) {
		c.registryOptions = append(c.registryOptions, options...)
	}
}
