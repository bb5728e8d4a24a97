package panel

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/panel_group"
	"github.com/Carmen-Shannon/oxy-ui/engine/scheduler"
)

// fakeMesh satisfies the group's GPU-facing mesh contract without a device.
type fakeMesh struct {
	capacity      int
	instanceCount int
	visible       bool
	released      bool
}

func (m *fakeMesh) EnsureCapacity(capacity int) error {
	m.capacity = capacity
	return nil
}

func (m *fakeMesh) SetInstanceCount(count int) { m.instanceCount = count }
func (m *fakeMesh) SetVisible(visible bool)    { m.visible = visible }
func (m *fakeMesh) Release()                   { m.released = true }

// panelHarness bundles a live group with a synthetic clock.
type panelHarness struct {
	group panel_group.PanelGroup
	mesh  *fakeMesh
	now   time.Time
}

func newPanelHarness(t *testing.T) *panelHarness {
	t.Helper()
	h := &panelHarness{
		mesh: &fakeMesh{},
		now:  time.Unix(1000, 0),
	}
	sched := scheduler.NewScheduler(scheduler.WithClock(func() time.Time { return h.now }))
	h.group = panel_group.NewPanelGroup(
		material.NewMaterial(material.WithName("panels")),
		h.mesh,
		panel_group.WithScheduler(sched),
	)
	return h
}

// tick advances the synthetic clock and runs one frame.
func (h *panelHarness) tick(d time.Duration) {
	h.now = h.now.Add(d)
	h.group.OnFrame(h.now)
}

// drain collects the group's staged writes keyed by storage binding.
func (h *panelHarness) drain(t *testing.T) map[int][]float32 {
	t.Helper()
	writes := h.group.StagedWrites(nil)
	out := make(map[int][]float32, len(writes))
	for _, w := range writes {
		out[w.Binding] = floatsOf(w.Data)
	}
	return out
}

func floatsOf(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}

func TestAttach_PlacesPanelAndWritesInstanceData(t *testing.T) {
	h := newPanelHarness(t)

	p := NewPanel(
		WithRect(10, 20, 100, 50),
		WithZ(2),
		WithFill(1, 0, 0, 1),
		WithBorder(0, 0, 1, 1, 0.1),
	)
	p.Attach(h.group, 0)

	require.True(t, h.group.UpdatePending(), "first insert into an empty group defers to the next tick")
	h.tick(16 * time.Millisecond)

	require.True(t, p.Attached())
	assert.Equal(t, 1, h.group.InstanceCount())
	assert.True(t, h.group.Visible())

	writes := h.drain(t)
	require.Len(t, writes, 3, "activation stages all three instance arrays")

	transform := writes[panel_group.BindingTransforms]
	require.Len(t, transform, panel_group.ItemSize)
	assert.Equal(t, float32(100), transform[0], "column 0 scales by width")
	assert.Equal(t, float32(50), transform[5], "column 1 scales by height")
	assert.Equal(t, float32(10), transform[12])
	assert.Equal(t, float32(20), transform[13])
	assert.Equal(t, float32(2), transform[14])

	style := writes[panel_group.BindingStyles]
	require.Len(t, style, panel_group.ItemSize)
	assert.Equal(t, []float32{1, 0, 0, 1}, style[0:4], "first vec4 is the fill color")
	assert.Equal(t, []float32{0, 0, 1, 1}, style[4:8], "second vec4 is the border color")
	assert.Equal(t, float32(0.1), style[9], "params.y is the border width")
	assert.Equal(t, float32(1), style[10], "params.z is the opacity")
}

func TestSetters_WriteThroughWhileAttached(t *testing.T) {
	h := newPanelHarness(t)

	p := NewPanel(WithRect(0, 0, 10, 10))
	p.Attach(h.group, 0)
	h.tick(16 * time.Millisecond)
	h.drain(t)

	p.SetPosition(5, 6)

	writes := h.drain(t)
	require.Len(t, writes, 3)
	transform := writes[panel_group.BindingTransforms]
	assert.Equal(t, float32(5), transform[12])
	assert.Equal(t, float32(6), transform[13])

	p.SetOpacity(0.25)
	writes = h.drain(t)
	assert.Equal(t, float32(0.25), writes[panel_group.BindingStyles][10])
}

func TestSettersBeforeAttach_ApplyOnActivation(t *testing.T) {
	h := newPanelHarness(t)

	// Unattached panels keep their state locally; nothing to write yet.
	p := NewPanel()
	p.SetRect(1, 2, 30, 40)
	p.SetFill(0, 1, 0, 1)

	p.Attach(h.group, 0)
	h.tick(16 * time.Millisecond)

	writes := h.drain(t)
	transform := writes[panel_group.BindingTransforms]
	assert.Equal(t, float32(30), transform[0])
	assert.Equal(t, float32(40), transform[5])
	assert.Equal(t, []float32{0, 1, 0, 1}, writes[panel_group.BindingStyles][0:4])
}

func TestClipRect_WritesClipBlock(t *testing.T) {
	h := newPanelHarness(t)

	p := NewPanel(WithRect(0, 0, 100, 100))
	p.Attach(h.group, 0)
	h.tick(16 * time.Millisecond)
	h.drain(t)

	p.SetClipRect(10, 10, 90, 90)

	writes := h.drain(t)
	clip := writes[panel_group.BindingClipPlanes]
	require.Len(t, clip, panel_group.ItemSize)
	assert.Equal(t, []float32{10, 10, 90, 90}, clip[0:4])

	p.ClearClipRect()
	writes = h.drain(t)
	assert.Equal(t, []float32{0, 0, 0, 0}, writes[panel_group.BindingClipPlanes][0:4],
		"a degenerate rect disables clipping")
}

func TestDetach_FreesTrailingSlotImmediately(t *testing.T) {
	h := newPanelHarness(t)

	first := NewPanel(WithRect(0, 0, 10, 10))
	second := NewPanel(WithRect(20, 0, 10, 10))
	first.Attach(h.group, 0)
	second.Attach(h.group, 0)
	h.tick(16 * time.Millisecond)
	require.Equal(t, 2, h.group.InstanceCount())

	// The trailing element frees its slot without waiting for the debounce.
	second.Detach()

	assert.False(t, second.Attached())
	assert.Equal(t, 1, h.group.InstanceCount())
	assert.False(t, h.group.UpdatePending())
}

func TestDetach_ThenReattach(t *testing.T) {
	h := newPanelHarness(t)

	p := NewPanel(WithRect(0, 0, 10, 10), WithFill(1, 0, 1, 1))
	p.Attach(h.group, 0)
	h.tick(16 * time.Millisecond)

	p.Detach()
	assert.Equal(t, 0, h.group.InstanceCount())

	p.Attach(h.group, 3)
	h.tick(16 * time.Millisecond)

	assert.Equal(t, 1, h.group.InstanceCount())
	writes := h.drain(t)
	assert.Equal(t, []float32{1, 0, 1, 1}, writes[panel_group.BindingStyles][0:4],
		"the panel keeps its style across detach cycles")
}

func TestAttach_PanicsWhenAlreadyAttached(t *testing.T) {
	h := newPanelHarness(t)

	p := NewPanel()
	p.Attach(h.group, 0)

	assert.Panics(t, func() { p.Attach(h.group, 1) })
}

func TestDetach_NoopWhenNotAttached(t *testing.T) {
	p := NewPanel()
	assert.NotPanics(t, func() { p.Detach() })
}
