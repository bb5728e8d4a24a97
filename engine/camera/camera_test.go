package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// transformPoint applies a column-major 4x4 matrix to (x, y, z, 1).
func transformPoint(m [16]float32, x, y, z float32) (float32, float32, float32, float32) {
	v := [4]float32{x, y, z, 1}
	var out [4]float32
	for j := range 4 {
		var sum float32
		for k := range 4 {
			sum += m[k*4+j] * v[k]
		}
		out[j] = sum
	}
	return out[0], out[1], out[2], out[3]
}

func TestViewProjection_MapsViewportCornersToClipSpace(t *testing.T) {
	c := NewCamera(WithViewport(800, 600))

	vp := c.ViewProjectionMatrix()

	x, y, _, w := transformPoint(vp, 0, 0, 0)
	assert.InDelta(t, -1.0, x, 1e-5, "top-left should map to clip x=-1")
	assert.InDelta(t, 1.0, y, 1e-5, "top-left should map to clip y=+1")
	assert.InDelta(t, 1.0, w, 1e-5)

	x, y, _, _ = transformPoint(vp, 800, 600, 0)
	assert.InDelta(t, 1.0, x, 1e-5, "bottom-right should map to clip x=+1")
	assert.InDelta(t, -1.0, y, 1e-5, "bottom-right should map to clip y=-1")

	x, y, _, _ = transformPoint(vp, 400, 300, 0)
	assert.InDelta(t, 0.0, x, 1e-5)
	assert.InDelta(t, 0.0, y, 1e-5)
}

func TestViewProjection_DepthMapsToZeroOneRange(t *testing.T) {
	// Depth is reversed: higher panel z maps to smaller buffer depth, so with
	// a Less compare a higher-z panel draws on top of a lower-z one.
	c := NewCamera(WithViewport(800, 600), WithNear(-1000), WithFar(1000))

	vp := c.ViewProjectionMatrix()

	_, _, z, _ := transformPoint(vp, 0, 0, -1000)
	assert.InDelta(t, 1.0, z, 1e-5, "near bound maps to depth 1")

	_, _, z, _ = transformPoint(vp, 0, 0, 0)
	assert.InDelta(t, 0.5, z, 1e-5)

	_, _, z, _ = transformPoint(vp, 0, 0, 1000)
	assert.InDelta(t, 0.0, z, 1e-5, "far bound maps to depth 0")
}

func TestViewProjection_AppliesPanAndZoom(t *testing.T) {
	ctrl := NewCameraController(WithPan(100, 50), WithZoom(2))
	c := NewCamera(WithViewport(800, 600), WithController(ctrl))

	vp := c.ViewProjectionMatrix()

	// The pan point lands at the viewport's top-left corner.
	x, y, _, _ := transformPoint(vp, 100, 50, 0)
	assert.InDelta(t, -1.0, x, 1e-5)
	assert.InDelta(t, 1.0, y, 1e-5)

	// At 2x zoom a point 200px right and 150px below the pan point sits at
	// screen (400, 300), the viewport center.
	x, y, _, _ = transformPoint(vp, 300, 200, 0)
	assert.InDelta(t, 0.0, x, 1e-5)
	assert.InDelta(t, 0.0, y, 1e-5)
}

func TestUpdate_PicksUpControllerChanges(t *testing.T) {
	ctrl := NewCameraController()
	c := NewCamera(WithViewport(800, 600), WithController(ctrl))

	before := c.ViewProjectionMatrix()

	ctrl.SetPan(40, 0)
	c.Update()

	after := c.ViewProjectionMatrix()
	assert.NotEqual(t, before, after, "Update should fold new pan into the view-projection matrix")

	x, y, _, _ := transformPoint(after, 40, 0, 0)
	assert.InDelta(t, -1.0, x, 1e-5)
	assert.InDelta(t, 1.0, y, 1e-5)
}

func TestSetViewport_ClampsToMinimumSize(t *testing.T) {
	c := NewCamera(WithViewport(800, 600))

	c.SetViewport(0, -5)

	assert.Equal(t, float32(1), c.Width())
	assert.Equal(t, float32(1), c.Height())
}

func TestController_ZoomClampsToBounds(t *testing.T) {
	ctrl := NewCameraController(WithZoomBounds(0.5, 4))

	ctrl.SetZoom(100)
	assert.Equal(t, float32(4), ctrl.Zoom())

	ctrl.SetZoom(0.01)
	assert.Equal(t, float32(0.5), ctrl.Zoom())

	ctrl.ZoomBy(-10)
	assert.Equal(t, float32(0.5), ctrl.Zoom(), "zooming out past the bound stays clamped")
}

func TestController_PanByScalesWithZoom(t *testing.T) {
	ctrl := NewCameraController(WithZoom(2))

	ctrl.PanBy(10, -4)

	x, y := ctrl.Pan()
	assert.InDelta(t, 5.0, x, 1e-5, "screen-pixel deltas halve at 2x zoom")
	assert.InDelta(t, -2.0, y, 1e-5)
}
