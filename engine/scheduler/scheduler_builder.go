package scheduler

import "time"

// SchedulerBuilderOption is a functional option for configuring a Scheduler.
type SchedulerBuilderOption func(*frameScheduler)

// WithClock overrides the clock used to compute deadlines for After.
// Intended for tests that drive synthetic frame times.
//
// Parameters:
//   - clock: the function returning the current time
//
// Returns:
//   - SchedulerBuilderOption: the configured option
func WithClock(clock func() time.Time) SchedulerBuilderOption {
	return func(s *frameScheduler) {
		if clock != nil {
			s.clock = clock
		}
	}
}
