// Package panel provides the UI panel component: a colored, optionally
// bordered rectangle drawn as one instance of its group's instanced draw
// call. A panel owns its rectangle, style, and clip state, and writes that
// state into its group's shared per-instance arrays whenever it changes.
package panel

import (
	"github.com/Carmen-Shannon/oxy-ui/common"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/instance_allocator"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/panel_group"
)

type panel struct {
	group       panel_group.PanelGroup
	bucketIndex int

	// Slot bookkeeping maintained by the allocator through the Element
	// callbacks. The index must never be cached across frames; the allocator
	// may move the panel during any rearrangement.
	bucket        *instance_allocator.Bucket
	indexInBucket int

	x, y, z       float32
	width, height float32

	fill        [4]float32
	borderColor [4]float32

	cornerRadius float32
	borderWidth  float32
	opacity      float32

	// clipRect is (minX, minY, maxX, maxY) in canvas coordinates. A
	// degenerate rect (max <= min) disables clipping.
	clipRect [4]float32
}

// Panel is a rectangular UI element drawn as a single instance of a panel
// group. Attach places the panel into a group's render-order bucket; setters
// called while attached write straight through to the group's instance
// arrays, so changes appear on the next frame without any per-panel draw
// state.
//
// All methods must be called from the thread driving the frame tick, matching
// the panel group's threading contract.
type Panel interface {
	instance_allocator.Element

	// Attach places the panel into the given group under the given
	// render-order bucket index. Panics if the panel is already attached.
	//
	// Parameters:
	//   - group: the panel group to join (must not be nil)
	//   - bucketIndex: the render-order bucket key within the group
	Attach(group panel_group.PanelGroup, bucketIndex int)

	// Detach removes the panel from its group. No-op if not attached. The
	// panel keeps its rectangle and style and can be re-attached later.
	Detach()

	// Attached reports whether the panel currently belongs to a group.
	//
	// Returns:
	//   - bool: true if attached
	Attached() bool

	// Position returns the panel's top-left corner and depth.
	//
	// Returns:
	//   - x, y, z: position components
	Position() (x, y, z float32)

	// Size returns the panel's dimensions.
	//
	// Returns:
	//   - width, height: the panel size in canvas units
	Size() (width, height float32)

	// SetRect moves and resizes the panel in one write.
	//
	// Parameters:
	//   - x, y: the new top-left corner
	//   - width, height: the new size
	SetRect(x, y, width, height float32)

	// SetPosition moves the panel, preserving its size and depth.
	//
	// Parameters:
	//   - x, y: the new top-left corner
	SetPosition(x, y float32)

	// SetZ sets the panel's depth. Higher z draws on top when depth testing
	// is enabled.
	//
	// Parameters:
	//   - z: the new depth value
	SetZ(z float32)

	// Fill returns the panel's fill color.
	//
	// Returns:
	//   - [4]float32: RGBA fill color
	Fill() [4]float32

	// SetFill sets the panel's fill color.
	//
	// Parameters:
	//   - r, g, b, a: RGBA color components in [0, 1]
	SetFill(r, g, b, a float32)

	// SetBorder sets the border color and width. The width is a fraction of
	// the panel's smaller UV extent; 0 disables the border.
	//
	// Parameters:
	//   - r, g, b, a: RGBA border color components in [0, 1]
	//   - width: the border width as a UV fraction
	SetBorder(r, g, b, a, width float32)

	// BorderWidth returns the current border width.
	//
	// Returns:
	//   - float32: the border width as a UV fraction
	BorderWidth() float32

	// Opacity returns the panel's overall opacity.
	//
	// Returns:
	//   - float32: opacity in [0, 1]
	Opacity() float32

	// SetOpacity sets the panel's overall opacity. At 0 the fragment shader
	// discards the panel entirely, so this doubles as a cheap hide that
	// keeps the panel's slot.
	//
	// Parameters:
	//   - opacity: opacity in [0, 1]
	SetOpacity(opacity float32)

	// CornerRadius returns the panel's corner radius parameter.
	//
	// Returns:
	//   - float32: the corner radius
	CornerRadius() float32

	// SetCornerRadius sets the panel's corner radius parameter.
	//
	// Parameters:
	//   - radius: the corner radius
	SetCornerRadius(radius float32)

	// ClipRect returns the panel's clip rectangle.
	//
	// Returns:
	//   - minX, minY, maxX, maxY: the clip bounds in canvas coordinates
	ClipRect() (minX, minY, maxX, maxY float32)

	// SetClipRect restricts the panel's visible region to the given
	// rectangle in canvas coordinates. Fragments outside it are discarded.
	//
	// Parameters:
	//   - minX, minY, maxX, maxY: the clip bounds
	SetClipRect(minX, minY, maxX, maxY float32)

	// ClearClipRect disables clipping for this panel.
	ClearClipRect()
}

var _ Panel = &panel{}

// NewPanel creates a Panel configured with the given options. The panel
// starts detached; call Attach to place it into a group.
//
// Parameters:
//   - options: functional options to configure the panel
//
// Returns:
//   - Panel: the newly created panel
func NewPanel(options ...PanelBuilderOption) Panel {
	p := &panel{
		indexInBucket: -1,
		width:         1,
		height:        1,
		fill:          [4]float32{1, 1, 1, 1},
		borderColor:   [4]float32{0, 0, 0, 1},
		opacity:       1,
	}
	for _, option := range options {
		option(p)
	}
	return p
}

func (p *panel) Attach(group panel_group.PanelGroup, bucketIndex int) {
	if group == nil {
		panic("panel: Attach requires a non-nil PanelGroup")
	}
	if p.group != nil {
		panic("panel: Attach called on an already attached panel")
	}
	p.group = group
	p.bucketIndex = bucketIndex
	group.Insert(bucketIndex, p)
}

func (p *panel) Detach() {
	if p.group == nil {
		return
	}
	p.group.Delete(p.bucketIndex, p.indexInBucket, p)
	p.group = nil
	p.bucket = nil
	p.indexInBucket = -1
}

func (p *panel) Attached() bool {
	return p.group != nil
}

func (p *panel) Activate(bucket *instance_allocator.Bucket, indexInBucket int) {
	p.bucket = bucket
	p.indexInBucket = indexInBucket
	p.writeAll()
}

func (p *panel) SetIndexInBucket(indexInBucket int) {
	// The allocator has already moved the instance data in bulk; only the
	// recorded position changes.
	p.indexInBucket = indexInBucket
}

func (p *panel) Position() (x, y, z float32) {
	return p.x, p.y, p.z
}

func (p *panel) Size() (width, height float32) {
	return p.width, p.height
}

func (p *panel) SetRect(x, y, width, height float32) {
	p.x, p.y = x, y
	p.width, p.height = width, height
	p.writeInstance()
}

func (p *panel) SetPosition(x, y float32) {
	p.x, p.y = x, y
	p.writeInstance()
}

func (p *panel) SetZ(z float32) {
	p.z = z
	p.writeInstance()
}

func (p *panel) Fill() [4]float32 {
	return p.fill
}

func (p *panel) SetFill(r, g, b, a float32) {
	p.fill = [4]float32{r, g, b, a}
	p.writeInstance()
}

func (p *panel) SetBorder(r, g, b, a, width float32) {
	p.borderColor = [4]float32{r, g, b, a}
	p.borderWidth = width
	p.writeInstance()
}

func (p *panel) BorderWidth() float32 {
	return p.borderWidth
}

func (p *panel) Opacity() float32 {
	return p.opacity
}

func (p *panel) SetOpacity(opacity float32) {
	p.opacity = opacity
	p.writeInstance()
}

func (p *panel) CornerRadius() float32 {
	return p.cornerRadius
}

func (p *panel) SetCornerRadius(radius float32) {
	p.cornerRadius = radius
	p.writeInstance()
}

func (p *panel) ClipRect() (minX, minY, maxX, maxY float32) {
	return p.clipRect[0], p.clipRect[1], p.clipRect[2], p.clipRect[3]
}

func (p *panel) SetClipRect(minX, minY, maxX, maxY float32) {
	p.clipRect = [4]float32{minX, minY, maxX, maxY}
	p.writeClip()
}

func (p *panel) ClearClipRect() {
	p.clipRect = [4]float32{}
	p.writeClip()
}

// slot returns the panel's current slot in the shared arrays, or -1 while
// detached or awaiting placement.
func (p *panel) slot() int {
	if p.group == nil || p.bucket == nil || p.indexInBucket < 0 {
		return -1
	}
	return p.bucket.Slot(p.indexInBucket)
}

// writeInstance pushes the transform and style blocks into the panel's slot.
// While detached or pending the local state is kept and written on Activate.
func (p *panel) writeInstance() {
	slot := p.slot()
	if slot < 0 {
		return
	}
	var transform, style [panel_group.ItemSize]float32
	p.buildTransform(transform[:])
	p.buildStyle(style[:])
	p.group.WriteInstanceData(slot, transform[:], style[:])
}

// writeClip pushes the clip block into the panel's slot.
func (p *panel) writeClip() {
	slot := p.slot()
	if slot < 0 {
		return
	}
	var clip [panel_group.ItemSize]float32
	p.buildClip(clip[:])
	p.group.WriteClipPlanes(slot, clip[:])
}

// writeAll pushes every block; used on activation, when the slot has no
// previous contents for this panel.
func (p *panel) writeAll() {
	slot := p.slot()
	if slot < 0 {
		return
	}
	var transform, style, clip [panel_group.ItemSize]float32
	p.buildTransform(transform[:])
	p.buildStyle(style[:])
	p.buildClip(clip[:])
	p.group.WriteInstanceData(slot, transform[:], style[:])
	p.group.WriteClipPlanes(slot, clip[:])
}

func (p *panel) buildTransform(out []float32) {
	common.BuildPanelMatrix(out, p.x, p.y, p.z, p.width, p.height)
}

// buildStyle packs the style block as four vec4s: fill color, border color,
// shader params (corner radius, border width, opacity), and a reserved vec4.
func (p *panel) buildStyle(out []float32) {
	copy(out[0:4], p.fill[:])
	copy(out[4:8], p.borderColor[:])
	out[8] = p.cornerRadius
	out[9] = p.borderWidth
	out[10] = p.opacity
}

// buildClip packs the clip block; the first vec4 is the clip rect, the rest
// is reserved.
func (p *panel) buildClip(out []float32) {
	copy(out[0:4], p.clipRect[:])
}
