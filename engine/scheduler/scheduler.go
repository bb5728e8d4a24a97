// Package scheduler provides a single-threaded frame scheduler used by the
// instanced UI pipeline to defer work to the host render loop. Tasks are
// either "run on the very next tick" or "run after a real-time delay", and
// both kinds are cancelable until they fire. The scheduler never spawns
// goroutines or hidden timers; an external tick source drives it by calling
// Tick once per rendered frame.
package scheduler

import (
	"time"
)

// CancelFunc cancels a scheduled task. Calling it after the task has fired or
// been canceled is a no-op.
type CancelFunc func()

// task is a scheduled unit of work. Delayed tasks carry a deadline; next-tick
// tasks have a zero deadline and fire on the first Tick after scheduling.
type task struct {
	fn       func()
	deadline time.Time
	canceled bool
}

// frameScheduler is the implementation of the Scheduler interface.
type frameScheduler struct {
	clock func() time.Time

	// nextTick holds tasks queued for the upcoming tick. Tasks queued while a
	// tick is running land in the following tick, not the current one.
	nextTick []*task
	delayed  []*task

	// scratch avoids reallocating the run list every tick.
	scratch []*task
}

// Scheduler is a cooperative, single-threaded task queue driven by an
// externally supplied frame tick. All methods must be called from the same
// goroutine that calls Tick; there is no internal locking.
type Scheduler interface {
	// NextTick queues fn to run once on the next call to Tick.
	//
	// Parameters:
	//   - fn: the function to run
	//
	// Returns:
	//   - CancelFunc: cancels the task if it has not yet fired
	NextTick(fn func()) CancelFunc

	// After queues fn to run on the first Tick whose time is at or past the
	// given delay from now. The delay is measured with the scheduler's clock.
	//
	// Parameters:
	//   - d: the delay before fn becomes runnable
	//   - fn: the function to run
	//
	// Returns:
	//   - CancelFunc: cancels the task if it has not yet fired
	After(d time.Duration, fn func()) CancelFunc

	// Tick runs all due tasks: every queued next-tick task, and every delayed
	// task whose deadline is at or before now. Tasks queued by a running task
	// fire on a later tick.
	//
	// Parameters:
	//   - now: the current frame time
	Tick(now time.Time)

	// Pending reports whether any task is queued or awaiting its deadline.
	//
	// Returns:
	//   - bool: true if at least one task has not yet fired
	Pending() bool
}

var _ Scheduler = &frameScheduler{}

// NewScheduler creates a new frame-driven Scheduler with the provided options.
//
// Parameters:
//   - options: functional options for scheduler configuration
//
// Returns:
//   - Scheduler: the newly created scheduler
func NewScheduler(options ...SchedulerBuilderOption) Scheduler {
	s := &frameScheduler{
		clock: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *frameScheduler) NextTick(fn func()) CancelFunc {
	if fn == nil {
		panic("scheduler: NextTick requires a non-nil func")
	}
	t := &task{fn: fn}
	s.nextTick = append(s.nextTick, t)
	return func() { t.canceled = true }
}

func (s *frameScheduler) After(d time.Duration, fn func()) CancelFunc {
	if fn == nil {
		panic("scheduler: After requires a non-nil func")
	}
	t := &task{fn: fn, deadline: s.clock().Add(d)}
	s.delayed = append(s.delayed, t)
	return func() { t.canceled = true }
}

func (s *frameScheduler) Tick(now time.Time) {
	// Swap out the next-tick queue first so tasks scheduled during this tick
	// run on the following one.
	s.scratch = s.scratch[:0]
	for _, t := range s.nextTick {
		if !t.canceled {
			s.scratch = append(s.scratch, t)
		}
	}
	s.nextTick = s.nextTick[:0]

	remaining := s.delayed[:0]
	for _, t := range s.delayed {
		switch {
		case t.canceled:
		case !t.deadline.After(now):
			s.scratch = append(s.scratch, t)
		default:
			remaining = append(remaining, t)
		}
	}
	s.delayed = remaining

	for _, t := range s.scratch {
		if !t.canceled {
			t.fn()
		}
	}
}

func (s *frameScheduler) Pending() bool {
	for _, t := range s.nextTick {
		if !t.canceled {
			return true
		}
	}
	for _, t := range s.delayed {
		if !t.canceled {
			return true
		}
	}
	return false
}
