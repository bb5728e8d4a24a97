package panel_group

// Mesh abstracts the GPU-facing side of a panel group: the shared quad mesh,
// the three per-instance storage buffers, and the instanced draw parameters.
// The renderer provides the WebGPU-backed implementation; tests substitute an
// in-memory one so group logic runs headless.
type Mesh interface {
	// EnsureCapacity recreates the per-instance storage buffers so they hold
	// at least capacity instances. Existing GPU contents are discarded; the
	// owning group re-uploads from its CPU arrays afterwards.
	//
	// Parameters:
	//   - capacity: the number of instances the buffers must hold
	//
	// Returns:
	//   - error: an error if buffer allocation fails
	EnsureCapacity(capacity int) error

	// SetInstanceCount sets the number of instances drawn for this group.
	//
	// Parameters:
	//   - count: the instanced draw count
	SetInstanceCount(count int)

	// SetVisible shows or hides the group's draw. Hidden groups are skipped
	// entirely by the renderer.
	//
	// Parameters:
	//   - visible: whether the group should be drawn
	SetVisible(visible bool)

	// Release frees the GPU resources owned by the mesh. Destruction is an
	// explicit call; there is no finalizer-based cleanup.
	Release()
}
