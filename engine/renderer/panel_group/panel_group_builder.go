package panel_group

import (
	"time"

	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-ui/engine/scheduler"
)

// PanelGroupBuilderOption is a functional option for configuring a PanelGroup during construction.
type PanelGroupBuilderOption func(*panelGroup)

// WithScheduler overrides the group's frame scheduler. Primarily used by
// tests that drive synthetic clocks.
//
// Parameters:
//   - sched: the scheduler to use
//
// Returns:
//   - PanelGroupBuilderOption: the configured option
func WithScheduler(sched scheduler.Scheduler) PanelGroupBuilderOption {
	return func(g *panelGroup) {
		g.sched = sched
	}
}

// WithProvider overrides the bind group provider holding the group's GPU
// buffers.
//
// Parameters:
//   - provider: the provider to use
//
// Returns:
//   - PanelGroupBuilderOption: the configured option
func WithProvider(provider bind_group_provider.BindGroupProvider) PanelGroupBuilderOption {
	return func(g *panelGroup) {
		g.provider = provider
	}
}

// WithRedrawRequest sets the callback invoked whenever buffer contents
// change, so the host renderer knows to re-submit the frame.
//
// Parameters:
//   - redraw: the redraw request callback
//
// Returns:
//   - PanelGroupBuilderOption: the configured option
func WithRedrawRequest(redraw func()) PanelGroupBuilderOption {
	return func(g *panelGroup) {
		g.requestRedraw = redraw
	}
}

// WithGrowthFactor overrides the capacity target relative to the live count
// after a resize. Values at or below 1.0 are ignored. The default of 1.5 is
// empirically chosen; different workloads may need retuning.
//
// Parameters:
//   - factor: the growth factor
//
// Returns:
//   - PanelGroupBuilderOption: the configured option
func WithGrowthFactor(factor float64) PanelGroupBuilderOption {
	return func(g *panelGroup) {
		if factor > 1.0 {
			g.growthFactor = factor
		}
	}
}

// WithShrinkDivisor overrides the utilization divisor that triggers a shrink:
// capacity is reduced once the live count falls to capacity/divisor or below.
// Values below 2 are ignored.
//
// Parameters:
//   - divisor: the shrink divisor
//
// Returns:
//   - PanelGroupBuilderOption: the configured option
func WithShrinkDivisor(divisor int) PanelGroupBuilderOption {
	return func(g *panelGroup) {
		if divisor >= 2 {
			g.shrinkDivisor = divisor
		}
	}
}

// WithDeleteDebounce overrides how long a deletion-triggered rearrangement
// waits for further churn before running.
//
// Parameters:
//   - d: the debounce duration
//
// Returns:
//   - PanelGroupBuilderOption: the configured option
func WithDeleteDebounce(d time.Duration) PanelGroupBuilderOption {
	return func(g *panelGroup) {
		if d > 0 {
			g.deleteDebounce = d
		}
	}
}

// WithShadowFlags records the shadow configuration this group was keyed
// under by the registry.
//
// Parameters:
//   - receive: the receive-shadow flag
//   - cast: the cast-shadow flag
//
// Returns:
//   - PanelGroupBuilderOption: the configured option
func WithShadowFlags(receive, cast bool) PanelGroupBuilderOption {
	return func(g *panelGroup) {
		g.receiveShadow = receive
		g.castShadow = cast
	}
}
