package group_registry

import (
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/panel_group"
	"github.com/Carmen-Shannon/oxy-ui/engine/scheduler"
)

// GroupRegistryBuilderOption is a functional option for configuring a GroupRegistry during construction.
type GroupRegistryBuilderOption func(*groupRegistry)

// WithSchedulerFactory overrides how per-group schedulers are constructed.
// Each group gets its own scheduler instance; tests supply a factory that
// shares a synthetic clock across them.
//
// Parameters:
//   - factory: constructs a scheduler for each new group
//
// Returns:
//   - GroupRegistryBuilderOption: the configured option
func WithSchedulerFactory(factory func() scheduler.Scheduler) GroupRegistryBuilderOption {
	return func(r *groupRegistry) {
		if factory != nil {
			r.schedulerFactory = factory
		}
	}
}

// WithRedrawRequest sets the callback forwarded to every group, invoked
// whenever buffer contents change. The callback must be safe for concurrent
// use: groups tick in parallel during OnFrame.
//
// Parameters:
//   - redraw: the redraw request callback
//
// Returns:
//   - GroupRegistryBuilderOption: the configured option
func WithRedrawRequest(redraw func()) GroupRegistryBuilderOption {
	return func(r *groupRegistry) {
		r.requestRedraw = redraw
	}
}

// WithTickWorkers overrides the number of workers in the frame-tick pool.
// Defaults to NumCPU-1 with a floor of 1.
//
// Parameters:
//   - workers: the worker count
//
// Returns:
//   - GroupRegistryBuilderOption: the configured option
func WithTickWorkers(workers int) GroupRegistryBuilderOption {
	return func(r *groupRegistry) {
		if workers > 0 {
			r.tickWorkers = workers
		}
	}
}

// WithGroupOptions appends builder options applied to every group the
// registry constructs, after the registry's own scheduler and redraw wiring.
//
// Parameters:
//   - options: the group options to apply
//
// Returns:
//   - GroupRegistryBuilderOption: the configured option
func WithGroupOptions(options ...panel_group.PanelGroupBuilderOption) GroupRegistryBuilderOption {
	return func(r *groupRegistry) {
		r.groupOptions = append(r.groupOptions, options...)
	}
}
