package camera

// CameraController defines the interface for UI camera control systems.
// Controllers own the pan offset and zoom factor; Camera reads both and
// folds them into its view matrix during Update().
type CameraController interface {
	// Pan returns the current pan offset in pixels. The pan offset is the
	// pixel coordinate that appears at the viewport's top-left corner.
	//
	// Returns:
	//   - x, y: the pan offset in pixels
	Pan() (x, y float32)

	// SetPan sets the pan offset directly.
	//
	// Parameters:
	//   - x, y: the new pan offset in pixels
	SetPan(x, y float32)

	// PanBy translates the pan offset by a pixel delta scaled by PanSpeed.
	// Deltas are in screen pixels; the controller divides by the current zoom
	// so panning tracks the cursor at any zoom level.
	//
	// Parameters:
	//   - dx, dy: the pan delta in screen pixels
	PanBy(dx, dy float32)

	// Zoom returns the current zoom factor. 1.0 renders panels at their pixel
	// size; larger values magnify.
	//
	// Returns:
	//   - float32: the zoom factor
	Zoom() float32

	// SetZoom sets the zoom factor directly, clamped to min/max bounds.
	//
	// Parameters:
	//   - zoom: the new zoom factor
	SetZoom(zoom float32)

	// ZoomBy adjusts the zoom factor multiplicatively by delta steps scaled
	// by ZoomSpeed. Positive delta zooms in.
	//
	// Parameters:
	//   - delta: zoom steps (e.g. scroll wheel notches)
	ZoomBy(delta float32)

	// MinZoom returns the minimum allowed zoom factor.
	//
	// Returns:
	//   - float32: the minimum zoom factor
	MinZoom() float32

	// MaxZoom returns the maximum allowed zoom factor.
	//
	// Returns:
	//   - float32: the maximum zoom factor
	MaxZoom() float32

	// PanSpeed returns the pan speed multiplier.
	//
	// Returns:
	//   - float32: multiplier for pan input
	PanSpeed() float32

	// ZoomSpeed returns the zoom speed multiplier per ZoomBy step.
	//
	// Returns:
	//   - float32: multiplier for zoom input
	ZoomSpeed() float32
}
