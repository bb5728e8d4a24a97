package camera

import (
	"sync"
)

// cameraControllerImpl is the single implementation of CameraController.
// Pan methods translate the viewport origin in pixel space; zoom methods
// scale multiplicatively around the viewport origin, clamped to bounds.
type cameraControllerImpl struct {
	mu *sync.Mutex

	pan  [2]float32
	zoom float32

	minZoom float32
	maxZoom float32

	panSpeed  float32
	zoomSpeed float32
}

// Compile-time interface compliance check
var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a new UI camera controller with sensible
// defaults: no pan, 1:1 zoom, and zoom clamped to [0.1, 10].
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:   &sync.Mutex{},
		zoom: 1.0,

		minZoom: 0.1,
		maxZoom: 10.0,

		panSpeed:  1.0,
		zoomSpeed: 1.1,
	}

	for _, option := range options {
		option(cc)
	}

	cc.clampZoom()
	return cc
}

// clampZoom bounds the zoom factor. Caller must hold the mutex.
func (cc *cameraControllerImpl) clampZoom() {
	if cc.zoom < cc.minZoom {
		cc.zoom = cc.minZoom
	}
	if cc.zoom > cc.maxZoom {
		cc.zoom = cc.maxZoom
	}
}

func (cc *cameraControllerImpl) Pan() (x, y float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.pan[0], cc.pan[1]
}

func (cc *cameraControllerImpl) SetPan(x, y float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.pan[0] = x
	cc.pan[1] = y
}

func (cc *cameraControllerImpl) PanBy(dx, dy float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	// Screen-pixel deltas shrink as zoom grows, so a drag tracks the cursor.
	cc.pan[0] += dx * cc.panSpeed / cc.zoom
	cc.pan[1] += dy * cc.panSpeed / cc.zoom
}

func (cc *cameraControllerImpl) Zoom() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.zoom
}

func (cc *cameraControllerImpl) SetZoom(zoom float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.zoom = zoom
	cc.clampZoom()
}

func (cc *cameraControllerImpl) ZoomBy(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if delta > 0 {
		for range int(delta) {
			cc.zoom *= cc.zoomSpeed
		}
	} else {
		for range int(-delta) {
			cc.zoom /= cc.zoomSpeed
		}
	}
	cc.clampZoom()
}

func (cc *cameraControllerImpl) MinZoom() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.minZoom
}

func (cc *cameraControllerImpl) MaxZoom() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.maxZoom
}

func (cc *cameraControllerImpl) PanSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.panSpeed
}

func (cc *cameraControllerImpl) ZoomSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.zoomSpeed
}
