package camera

import (
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/bind_group_provider"
)

type CameraBuilderOption func(*cameraImpl)

// WithViewport sets the viewport size in pixels.
//
// Parameters:
//   - width, height: the viewport size in pixels
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's viewport size
func WithViewport(width, height float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		if width >= 1 {
			c.width = width
		}
		if height >= 1 {
			c.height = height
		}
	}
}

// WithNear sets the near depth bound covered by panel z values.
//
// Parameters:
//   - near: near depth bound
//
// Returns:
//   - CameraBuilderOption: a function that sets the near bound
func WithNear(near float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near = near
	}
}

// WithFar sets the far depth bound covered by panel z values.
//
// Parameters:
//   - far: far depth bound
//
// Returns:
//   - CameraBuilderOption: functional option to set the far bound
func WithFar(far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.far = far
	}
}

// WithController attaches a controller to the camera.
// After all options are applied, the camera recomputes its matrices from the controller's state.
//
// Parameters:
//   - ctrl: the controller to attach
//
// Returns:
//   - CameraBuilderOption: functional option to set the controller
func WithController(ctrl CameraController) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.controller = ctrl
	}
}

// WithBindGroupProvider attaches a bind group provider to the camera.
// The provider describes the GPU binding requirements for camera uniforms.
//
// Parameters:
//   - provider: the bind group provider to attach
//
// Returns:
//   - CameraBuilderOption: functional option to set the bind group provider
func WithBindGroupProvider(provider bind_group_provider.BindGroupProvider) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.bindGroupProvider = provider
	}
}
